package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/domain/providers"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

// TwilioAdapter implements TelephonyProvider against the Twilio Voice API
type TwilioAdapter struct {
	settings   providers.SettingsReader
	accountSID string
	authToken  string
	fromNumber string
	client     *http.Client
	baseURL    string
}

// NewTwilioAdapter creates a new Twilio telephony adapter. The account
// credentials passed here are fallbacks; values in the settings table
// override them per call.
func NewTwilioAdapter(settings providers.SettingsReader, accountSID, authToken, fromNumber string) providers.TelephonyProvider {
	return &TwilioAdapter{
		settings:   settings,
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		client:     &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://api.twilio.com",
	}
}

// credentials resolves the account to dial from. Settings-table values win
// over the construction-time fallbacks, so rotated credentials take effect
// without a restart.
func (a *TwilioAdapter) credentials(ctx context.Context) (accountSID, authToken, fromNumber string) {
	accountSID, authToken, fromNumber = a.accountSID, a.authToken, a.fromNumber
	if a.settings == nil {
		return
	}
	snapshot, err := a.settings.Snapshot(ctx)
	if err != nil {
		return
	}
	accountSID = snapshot.Get(entities.SettingTwilioAccountSID, accountSID)
	authToken = snapshot.Get(entities.SettingTwilioAuthToken, authToken)
	fromNumber = snapshot.Get(entities.SettingTwilioFromNumber, fromNumber)
	return
}

// InitiateCall places an outbound call. Errors are classified so callers can
// decide whether another attempt makes sense: 4xx responses mean the request
// itself is bad (terminal), everything else is worth retrying.
func (a *TwilioAdapter) InitiateCall(ctx context.Context, callReq providers.CallRequest) (string, error) {
	to, err := FormatPhoneNumber(callReq.Phone)
	if err != nil {
		return "", apperrors.NewProviderTerminalError("invalid destination number", err)
	}

	accountSID, authToken, fromNumber := a.credentials(ctx)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", fromNumber)
	form.Set("Url", callReq.VoiceURL)
	if callReq.StatusCallbackURL != "" {
		form.Set("StatusCallback", callReq.StatusCallbackURL)
		form.Set("StatusCallbackMethod", "POST")
		for _, event := range []string{"completed", "no-answer", "busy", "failed"} {
			form.Add("StatusCallbackEvent", event)
		}
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", a.baseURL, accountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperrors.NewInternalError("failed to build call request", err)
	}
	req.SetBasicAuth(accountSID, authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", apperrors.NewProviderTransientError("call request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		var result struct {
			Sid string `json:"sid"`
		}
		if err := json.Unmarshal(body, &result); err != nil || result.Sid == "" {
			return "", apperrors.NewProviderTransientError("unreadable call response", err)
		}
		return result.Sid, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return "", apperrors.NewProviderTransientError("telephony rate limited", nil)

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", apperrors.NewProviderTerminalError(
			fmt.Sprintf("call rejected: status %d: %s", resp.StatusCode, string(body)), nil)

	default:
		return "", apperrors.NewProviderTransientError(
			fmt.Sprintf("telephony error: status %d", resp.StatusCode), nil)
	}
}
