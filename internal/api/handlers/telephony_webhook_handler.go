package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
	apperrors "github.com/safemama-pikin/outreach/pkg/errors"
)

// OutcomeProcessor applies a call outcome to the matching appointment
type OutcomeProcessor interface {
	HandleOutcome(ctx context.Context, callID string, outcome entities.CallOutcome) error
}

// TelephonyWebhookHandler handles status callbacks from the voice provider
type TelephonyWebhookHandler struct {
	db            *sqlx.DB
	processor     OutcomeProcessor
	signingSecret string
}

// NewTelephonyWebhookHandler creates a new webhook handler
func NewTelephonyWebhookHandler(db *sqlx.DB, processor OutcomeProcessor, signingSecret string) *TelephonyWebhookHandler {
	return &TelephonyWebhookHandler{
		db:            db,
		processor:     processor,
		signingSecret: signingSecret,
	}
}

// TelephonyWebhookEvent represents the incoming status callback. Twilio posts
// form-encoded CallSid/CallStatus pairs; the JSON shape is accepted for
// providers that deliver callbacks that way.
type TelephonyWebhookEvent struct {
	CallID    string    `json:"callId"`
	Status    string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleWebhook processes incoming telephony status callbacks
func (h *TelephonyWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Verify webhook signature
	if h.signingSecret != "" {
		if !h.verifySignature(r) {
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	event, err := h.parseEvent(r, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Statuses carrying no outreach outcome (ringing, in-progress, a bare
	// completed with no patient intent) are acknowledged and dropped
	outcome, ok := entities.ParseCallOutcome(event.Status)
	if !ok {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ignored"})
		return
	}

	// One event per call and final status; replays of the same callback
	// short-circuit here, replays with a different status reach the
	// processor and are absorbed by the conditional transition.
	eventID := event.CallID + ":" + string(outcome)

	if h.isEventProcessed(ctx, eventID) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "already_processed"})
		return
	}

	if err := h.storeWebhookEvent(ctx, eventID, event, body); err != nil {
		fmt.Printf("Failed to store webhook event: %v\n", err)
	}

	if err := h.processor.HandleOutcome(ctx, event.CallID, outcome); err != nil {
		h.markEventFailed(ctx, eventID, err)
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			// Lost a race with a concurrent worker; the other writer won
			// and retrying the callback would not change the result.
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "superseded"})
			return
		}
		http.Error(w, fmt.Sprintf("Processing error: %v", err), http.StatusInternalServerError)
		return
	}

	h.markEventProcessed(ctx, eventID)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "processed"})
}

// parseEvent decodes either the form-encoded or the JSON callback shape
func (h *TelephonyWebhookHandler) parseEvent(r *http.Request, body []byte) (*TelephonyWebhookEvent, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("invalid form body")
		}
		event := &TelephonyWebhookEvent{
			CallID:    values.Get("CallSid"),
			Status:    values.Get("CallStatus"),
			Timestamp: time.Now(),
		}
		if event.CallID == "" {
			return nil, fmt.Errorf("missing CallSid")
		}
		return event, nil
	}

	var event TelephonyWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("invalid JSON")
	}
	if event.CallID == "" {
		return nil, fmt.Errorf("missing callId")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return &event, nil
}

// verifySignature verifies the webhook signature
func (h *TelephonyWebhookHandler) verifySignature(r *http.Request) bool {
	signature := r.Header.Get("X-Webhook-Signature")
	if signature == "" {
		return false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return false
	}

	// Reset body for later reading
	r.Body = io.NopCloser(bytes.NewReader(body))

	mac := hmac.New(sha256.New, []byte(h.signingSecret))
	mac.Write(body)
	expectedSignature := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

// Database operations
func (h *TelephonyWebhookHandler) isEventProcessed(ctx context.Context, eventID string) bool {
	var count int
	query := `SELECT COUNT(*) FROM webhook_events WHERE id = $1 AND provider = 'telephony' AND processed = true`
	h.db.GetContext(ctx, &count, query, eventID)
	return count > 0
}

func (h *TelephonyWebhookHandler) storeWebhookEvent(ctx context.Context, eventID string, event *TelephonyWebhookEvent, raw []byte) error {
	query := `
		INSERT INTO webhook_events (id, provider, event_type, payload, processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, id) DO NOTHING
	`
	_, err := h.db.ExecContext(ctx, query, eventID, "telephony", event.Status, raw, false, time.Now())
	return err
}

func (h *TelephonyWebhookHandler) markEventProcessed(ctx context.Context, eventID string) error {
	query := `UPDATE webhook_events SET processed = true, processed_at = $1 WHERE id = $2 AND provider = 'telephony'`
	_, err := h.db.ExecContext(ctx, query, time.Now(), eventID)
	return err
}

func (h *TelephonyWebhookHandler) markEventFailed(ctx context.Context, eventID string, err error) {
	errMsg := err.Error()
	query := `UPDATE webhook_events SET error_message = $1 WHERE id = $2 AND provider = 'telephony'`
	h.db.ExecContext(ctx, query, errMsg, eventID)
}
