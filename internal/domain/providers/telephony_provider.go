package providers

import (
	"context"
)

// CallRequest carries everything the telephony provider needs to place one
// outbound call.
type CallRequest struct {
	// Phone is the destination in E.164 format.
	Phone string

	// AppointmentID is threaded through to the voice webhook so the AI
	// agent can load patient context.
	AppointmentID string

	// VoiceURL is the TwiML/voice webhook invoked when the call connects.
	VoiceURL string

	// StatusCallbackURL receives the asynchronous outcome notification.
	StatusCallbackURL string
}

// TelephonyProvider places outbound voice calls. Implementations classify
// failures as transient or terminal via the pkg/errors taxonomy.
type TelephonyProvider interface {
	// InitiateCall places a call and returns the provider's opaque call
	// identifier used to correlate the outcome notification.
	InitiateCall(ctx context.Context, req CallRequest) (string, error)
}
