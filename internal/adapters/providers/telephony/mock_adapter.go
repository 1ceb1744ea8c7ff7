package telephony

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/safemama-pikin/outreach/internal/domain/providers"
)

// MockAdapter logs calls instead of placing them, for local development.
type MockAdapter struct {
	counter atomic.Int64
}

// NewMockAdapter creates a mock telephony provider.
func NewMockAdapter() providers.TelephonyProvider {
	return &MockAdapter{}
}

// InitiateCall returns a synthetic call identifier without dialing anything.
func (m *MockAdapter) InitiateCall(ctx context.Context, req providers.CallRequest) (string, error) {
	sid := fmt.Sprintf("MOCK%d-%d", time.Now().UnixNano(), m.counter.Add(1))
	log.Printf("Mock call to %s for appointment %s (sid %s)", req.Phone, req.AppointmentID, sid)
	return sid, nil
}
