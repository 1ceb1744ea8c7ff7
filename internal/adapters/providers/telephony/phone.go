package telephony

import (
	"fmt"
	"strings"
	"unicode"
)

// FormatPhoneNumber normalizes a Nigerian phone number to E.164. Local
// numbers written with a leading zero (0803...) become +234803..., numbers
// already carrying the 234 country code keep it.
func FormatPhoneNumber(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	cleaned := digits.String()
	if cleaned == "" {
		return "", fmt.Errorf("phone number %q contains no digits", phone)
	}

	if !strings.HasPrefix(cleaned, "234") {
		cleaned = "234" + strings.TrimLeft(cleaned, "0")
	}

	if len(cleaned) < 10 {
		return "", fmt.Errorf("phone number %q is too short", phone)
	}

	return "+" + cleaned, nil
}
