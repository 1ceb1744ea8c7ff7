package entities

import (
	"time"
)

// OutreachEventType categorizes events published for operator tooling
type OutreachEventType string

const (
	EventCallDispatched    OutreachEventType = "call_dispatched"
	EventCallOutcome       OutreachEventType = "call_outcome"
	EventEscalationStarted OutreachEventType = "escalation_started"
	EventVolunteerAssigned OutreachEventType = "volunteer_assigned"
	EventEscalationFailed  OutreachEventType = "escalation_failed"
)

// OutreachEvent is published on the event bus whenever the outreach state
// machine moves an appointment.
type OutreachEvent struct {
	ID            string            `json:"id"`
	Type          OutreachEventType `json:"type"`
	AppointmentID string            `json:"appointment_id"`
	Status        AppointmentStatus `json:"status"`
	Detail        string            `json:"detail,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}
