package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/providers"
)

// EventStreamHandler streams outreach events to operator tooling over
// Server-Sent Events.
type EventStreamHandler struct {
	eventBus providers.EventBus
	channel  string
}

// NewEventStreamHandler creates a new event stream handler
func NewEventStreamHandler(eventBus providers.EventBus, channel string) *EventStreamHandler {
	return &EventStreamHandler{
		eventBus: eventBus,
		channel:  channel,
	}
}

// StreamEvents handles SSE connections for outreach updates
// GET /api/stream/events
func (h *EventStreamHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventChan, err := h.eventBus.Subscribe(r.Context(), h.channel)
	if err != nil {
		log.Printf("Failed to subscribe to channel %s: %v", h.channel, err)
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   h.channel,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	// Heartbeats keep idle connections open through proxies.
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected from event stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, open := <-eventChan:
			if !open {
				return
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
		}
	}
}

func (h *EventStreamHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", eventType, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}
