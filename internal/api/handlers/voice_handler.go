package handlers

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"github.com/safemama-pikin/outreach/internal/domain/entities"
)

// VoiceHandler serves the call script the telephony provider fetches when an
// outbound call connects, and receives the keypad digits gathered from it.
type VoiceHandler struct {
	appointments AppointmentService
	processor    OutcomeProcessor
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(appointments AppointmentService, processor OutcomeProcessor) *VoiceHandler {
	return &VoiceHandler{
		appointments: appointments,
		processor:    processor,
	}
}

// OutboundScript handles POST /api/voice/outbound. It returns the TwiML that
// reads out the appointment reminder and gathers a single keypad digit.
func (h *VoiceHandler) OutboundScript(w http.ResponseWriter, r *http.Request) {
	appointmentID := r.URL.Query().Get("appointment_id")
	if appointmentID == "" {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	appointment, err := h.appointments.GetAppointment(r.Context(), appointmentID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	message := fmt.Sprintf(
		"Hello %s. This is a reminder for your %s appointment on %s at %s. "+
			"Press 1 to confirm you will attend. Press 2 if you need to reschedule.",
		appointment.PatientName,
		appointment.ServiceType,
		appointment.AppointmentDatetime.Format("Monday, January 2 at 3:04 PM"),
		appointment.Location,
	)

	gatherAction := "/api/voice/outbound/gather?appointment_id=" + url.QueryEscape(appointmentID)

	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
	<Gather numDigits="1" action="%s" method="POST" timeout="10">
		<Say>%s</Say>
	</Gather>
	<Say>We did not receive a response. Goodbye.</Say>
	<Hangup/>
</Response>`, gatherAction, xmlEscape(message))

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(twiml))
}

// xmlEscape escapes text interpolated into TwiML. Patient-supplied fields
// like the name can carry characters that would break the XML otherwise.
func xmlEscape(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return ""
	}
	return buf.String()
}

// GatherDigits handles POST /api/voice/outbound/gather. The provider posts the
// digit the patient pressed along with the call identifier.
func (h *VoiceHandler) GatherDigits(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	callID := r.PostFormValue("CallSid")
	digits := r.PostFormValue("Digits")
	if callID == "" {
		http.Error(w, "missing CallSid", http.StatusBadRequest)
		return
	}

	var outcome entities.CallOutcome
	var reply string
	switch digits {
	case "1":
		outcome = entities.OutcomeAnswered
		reply = "Thank you. Your appointment is confirmed. Goodbye."
	case "2":
		outcome = entities.OutcomeRescheduleRequested
		reply = "Thank you. A health worker will call you to reschedule. Goodbye."
	default:
		reply = "We did not recognize that response. Goodbye."
	}

	if outcome != "" {
		if err := h.processor.HandleOutcome(r.Context(), callID, outcome); err != nil {
			fmt.Printf("Failed to apply gathered outcome: %v\n", err)
		}
	}

	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
	<Say>%s</Say>
	<Hangup/>
</Response>`, reply)

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(twiml))
}
