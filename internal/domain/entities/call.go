package entities

import (
	"strings"
)

// CallOutcome represents the result of one placed call, as reported by the
// telephony provider's asynchronous status callback.
type CallOutcome string

const (
	OutcomeAnswered            CallOutcome = "answered"
	OutcomeRescheduleRequested CallOutcome = "reschedule-requested"
	OutcomeNoAnswer            CallOutcome = "no-answer"
	OutcomeBusy                CallOutcome = "busy"
	OutcomeFailed              CallOutcome = "failed"
)

// ParseCallOutcome normalizes a raw provider status string into a known
// outcome. Statuses that carry no outreach meaning (ringing, in-progress,
// completed without an intent) report ok=false and are ignored upstream.
func ParseCallOutcome(raw string) (CallOutcome, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "answered", "confirmed":
		return OutcomeAnswered, true
	case "reschedule-requested", "reschedule_requested", "rescheduled":
		return OutcomeRescheduleRequested, true
	case "no-answer", "no_answer":
		return OutcomeNoAnswer, true
	case "busy":
		return OutcomeBusy, true
	case "failed":
		return OutcomeFailed, true
	}
	return "", false
}

// StatusFor maps the outcome onto the appointment status it produces.
func (o CallOutcome) StatusFor() AppointmentStatus {
	switch o {
	case OutcomeAnswered:
		return AppointmentStatusConfirmed
	case OutcomeRescheduleRequested:
		return AppointmentStatusRescheduled
	default:
		return AppointmentStatusUnreachable
	}
}
