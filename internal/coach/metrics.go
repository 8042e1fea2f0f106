package coach

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Operation attribute values.
const (
	opAsk       = "ask"
	opSummarize = "summarize"
)

// Metrics counts model calls and saves.
type Metrics struct {
	requests     metric.Int64Counter
	retries      metric.Int64Counter
	rateLimited  metric.Int64Counter
	saves        metric.Int64Counter
	saveFailures metric.Int64Counter
}

// NewMetrics registers the counters on meter. A nil meter uses a no-op provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("journalcoach")
	}

	m := &Metrics{}
	var err error

	if m.requests, err = meter.Int64Counter(
		"journalcoach.requests",
		metric.WithDescription("Model requests admitted by the rate limiter"),
	); err != nil {
		return nil, err
	}
	if m.retries, err = meter.Int64Counter(
		"journalcoach.retries",
		metric.WithDescription("Model calls retried after a failure"),
	); err != nil {
		return nil, err
	}
	if m.rateLimited, err = meter.Int64Counter(
		"journalcoach.rate_limited",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return nil, err
	}
	if m.saves, err = meter.Int64Counter(
		"journalcoach.saves",
		metric.WithDescription("Records appended to the journal"),
	); err != nil {
		return nil, err
	}
	if m.saveFailures, err = meter.Int64Counter(
		"journalcoach.save_failures",
		metric.WithDescription("Records that could not be appended"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func withOp(op string) metric.AddOption {
	return metric.WithAttributes(attribute.String("op", op))
}

func (m *Metrics) request(op string) {
	m.requests.Add(context.Background(), 1, withOp(op))
}

func (m *Metrics) retry(op string) {
	m.retries.Add(context.Background(), 1, withOp(op))
}

func (m *Metrics) limited(op string) {
	m.rateLimited.Add(context.Background(), 1, withOp(op))
}

func (m *Metrics) saved() {
	m.saves.Add(context.Background(), 1)
}

func (m *Metrics) saveFailed() {
	m.saveFailures.Add(context.Background(), 1)
}
