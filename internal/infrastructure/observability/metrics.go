package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/safemama-pikin/outreach"

// Metrics holds the outreach pipeline counters
type Metrics struct {
	RequestCount     metric.Int64Counter
	RequestDuration  metric.Float64Histogram
	CallsDispatched  metric.Int64Counter
	CallOutcomes     metric.Int64Counter
	Escalations      metric.Int64Counter
	EscalationsFinal metric.Int64Counter
	LeasesReaped     metric.Int64Counter
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	callsDispatched, err := meter.Int64Counter(
		"outreach.calls.dispatched",
		metric.WithDescription("Number of outbound calls dispatched"),
	)
	if err != nil {
		return nil, err
	}

	callOutcomes, err := meter.Int64Counter(
		"outreach.calls.outcomes",
		metric.WithDescription("Number of call outcomes processed"),
	)
	if err != nil {
		return nil, err
	}

	escalations, err := meter.Int64Counter(
		"outreach.escalations.started",
		metric.WithDescription("Number of human escalations started"),
	)
	if err != nil {
		return nil, err
	}

	escalationsFinal, err := meter.Int64Counter(
		"outreach.escalations.exhausted",
		metric.WithDescription("Number of appointments that exhausted escalation"),
	)
	if err != nil {
		return nil, err
	}

	leasesReaped, err := meter.Int64Counter(
		"outreach.leases.reaped",
		metric.WithDescription("Number of expired call leases requeued"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:     requestCount,
		RequestDuration:  requestDuration,
		CallsDispatched:  callsDispatched,
		CallOutcomes:     callOutcomes,
		Escalations:      escalations,
		EscalationsFinal: escalationsFinal,
		LeasesReaped:     leasesReaped,
	}, nil
}

// RecordCallDispatched records one dispatched call
func (m *Metrics) RecordCallDispatched(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.CallsDispatched.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordCallOutcome records one processed call outcome
func (m *Metrics) RecordCallOutcome(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.CallOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordEscalation records one escalation round at the given tier
func (m *Metrics) RecordEscalation(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.Escalations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tier", tier),
	))
}

// RecordEscalationExhausted records an appointment running out of escalations
func (m *Metrics) RecordEscalationExhausted(ctx context.Context) {
	if m == nil {
		return
	}
	m.EscalationsFinal.Add(ctx, 1)
}

// RecordLeaseReaped records an expired call lease being requeued
func (m *Metrics) RecordLeaseReaped(ctx context.Context) {
	if m == nil {
		return
	}
	m.LeasesReaped.Add(ctx, 1)
}
