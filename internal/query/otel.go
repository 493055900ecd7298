package query

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "shapecast/internal/query"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	queries      metric.Int64Counter
	hits         metric.Int64Counter
	candidates   metric.Int64Counter
	nonConverged metric.Int64Counter
	staleHandles metric.Int64Counter
}

// newMetrics uses the global OTel meter provider (no-op if not configured).
func newMetrics() (*metrics, error) {
	m := meter()
	var (
		ms  metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&ms.queries, "shapecast.queries", "Sweep queries executed"},
		{&ms.hits, "shapecast.hits", "Hits reported to callers"},
		{&ms.candidates, "shapecast.candidates", "Broad-phase candidates examined"},
		{&ms.nonConverged, "shapecast.nonconverged", "Candidates dropped after the iteration cap"},
		{&ms.staleHandles, "shapecast.stale_handles", "Stale body handles skipped"},
	}
	for _, c := range counters {
		*c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}
	return &ms, nil
}

func (m *metrics) record(req SweepRequest, res Result) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("order", req.Order.String()),
		attribute.String("shape", req.Shape.Kind().String()),
	)
	m.queries.Add(ctx, 1, attrs)
	m.hits.Add(ctx, int64(len(res.Hits)), attrs)
	m.candidates.Add(ctx, int64(res.Candidates), attrs)
	if n := res.Diagnostics.NonConverged; n > 0 {
		m.nonConverged.Add(ctx, int64(n), attrs)
	}
	if n := res.Diagnostics.StaleHandles; n > 0 {
		m.staleHandles.Add(ctx, int64(n), attrs)
	}
}
