package telephony

import (
	"context"

	"github.com/safemama-pikin/outreach/internal/domain/providers"
)

// TelephonyProviderConfig configures telephony providers.
type TelephonyProviderConfig struct {
	AccountSID        string
	AuthToken         string
	FromNumber        string
	AllowMockFallback bool
}

// NewTelephonyProvider creates a provider with optional mock fallback. With
// no credentials configured the mock is used outright, which keeps local
// development from dialing real phones. The settings reader lets the Twilio
// adapter pick up credentials rotated through the settings table.
func NewTelephonyProvider(cfg TelephonyProviderConfig, settings providers.SettingsReader) providers.TelephonyProvider {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return NewMockAdapter()
	}

	primary := NewTwilioAdapter(settings, cfg.AccountSID, cfg.AuthToken, cfg.FromNumber)
	if !cfg.AllowMockFallback {
		return primary
	}

	return &FallbackProvider{
		primary:  primary,
		fallback: NewMockAdapter(),
	}
}

// FallbackProvider wraps a primary provider with a mock fallback.
type FallbackProvider struct {
	primary  providers.TelephonyProvider
	fallback providers.TelephonyProvider
}

// InitiateCall tries the primary provider and falls back to the mock on
// failure.
func (p *FallbackProvider) InitiateCall(ctx context.Context, req providers.CallRequest) (string, error) {
	sid, err := p.primary.InitiateCall(ctx, req)
	if err != nil && p.fallback != nil {
		return p.fallback.InitiateCall(ctx, req)
	}
	return sid, err
}
