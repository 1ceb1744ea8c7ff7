package routes

import (
	"net/http"

	"github.com/safemama-pikin/outreach/internal/api/handlers"
	"github.com/safemama-pikin/outreach/internal/api/middleware"
	"github.com/safemama-pikin/outreach/internal/infrastructure/observability"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	appointmentHandler *handlers.AppointmentHandler

	escalationHandler *handlers.EscalationHandler

	voiceHandler *handlers.VoiceHandler

	telephonyWebhookHandler *handlers.TelephonyWebhookHandler

	eventStreamHandler *handlers.EventStreamHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router

func NewRouter(

	appointmentHandler *handlers.AppointmentHandler,

	escalationHandler *handlers.EscalationHandler,

	voiceHandler *handlers.VoiceHandler,

	telephonyWebhookHandler *handlers.TelephonyWebhookHandler,

	eventStreamHandler *handlers.EventStreamHandler,

	metrics *observability.Metrics,

) *Router {

	return &Router{

		mux: http.NewServeMux(),

		appointmentHandler: appointmentHandler,

		escalationHandler: escalationHandler,

		voiceHandler: voiceHandler,

		telephonyWebhookHandler: telephonyWebhookHandler,

		eventStreamHandler: eventStreamHandler,

		metrics: metrics,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// Appointment endpoints

	r.mux.HandleFunc("POST /api/appointments", r.appointmentHandler.CreateAppointment)

	r.mux.HandleFunc("GET /api/appointments", r.appointmentHandler.ListAppointments)

	r.mux.HandleFunc("GET /api/appointments/{id}", r.appointmentHandler.GetAppointment)

	r.mux.HandleFunc("PATCH /api/appointments/{id}", r.appointmentHandler.RescheduleAppointment)

	// Volunteer resolution endpoint

	r.mux.HandleFunc("POST /api/appointments/{id}/action", r.escalationHandler.ResolveEscalation)

	// Voice script endpoints the telephony provider fetches mid-call

	r.mux.HandleFunc("POST /api/voice/outbound", r.voiceHandler.OutboundScript)

	r.mux.HandleFunc("POST /api/voice/outbound/gather", r.voiceHandler.GatherDigits)

	// Telephony status callback endpoint
	if r.telephonyWebhookHandler != nil {
		r.mux.HandleFunc("POST /api/webhooks/telephony", r.telephonyWebhookHandler.HandleWebhook)
	}

	// Operator event stream, available when the event bus is up
	if r.eventStreamHandler != nil {
		r.mux.HandleFunc("GET /api/stream/events", r.eventStreamHandler.StreamEvents)
	}

	// Apply middleware in reverse order (last middleware wraps first)

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set on every response
	handler = middleware.CORSMiddleware(handler)

	return handler
}
