package entities

import (
	"time"
)

// Setting keys read by the outreach core. Values live in the settings table
// and are administered externally.
const (
	SettingTwilioAccountSID  = "twilio_account_sid"
	SettingTwilioAuthToken   = "twilio_auth_token"
	SettingTwilioFromNumber  = "twilio_from_number"
	SettingWebhookBaseURL    = "webhook_base_url"
	SettingWebhookSecret     = "webhook_signing_secret"
	SettingWhatsAppTemplate  = "whatsapp_escalation_template"
	SettingWhatsAppDefLocale = "whatsapp_default_locale"
)

// Setting represents one key/value configuration row
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SettingsSnapshot is an immutable view of the settings table taken at one
// point in time. Components hold a snapshot, never the live table.
type SettingsSnapshot struct {
	values    map[string]string
	FetchedAt time.Time
}

// NewSettingsSnapshot builds a snapshot from settings rows.
func NewSettingsSnapshot(settings []*Setting, at time.Time) *SettingsSnapshot {
	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}
	return &SettingsSnapshot{values: values, FetchedAt: at}
}

// Get returns the value for key, or fallback when the key is absent or empty.
func (s *SettingsSnapshot) Get(key, fallback string) string {
	if s == nil {
		return fallback
	}
	if v, ok := s.values[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Values returns a copy of the underlying key/value map.
func (s *SettingsSnapshot) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
