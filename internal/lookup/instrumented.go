package lookup

import (
	"context"
	"errors"
	"time"

	"github.com/crimson-sun/orgtree/internal/metrics"
	"github.com/crimson-sun/orgtree/internal/model"
)

// Instrumented records the outcome and latency of every call to the wrapped Lookup.
type Instrumented struct {
	inner   Lookup
	metrics *metrics.Metrics
}

// NewInstrumented wraps inner. A nil m disables recording.
func NewInstrumented(inner Lookup, m *metrics.Metrics) *Instrumented {
	return &Instrumented{inner: inner, metrics: m}
}

// Lookup calls the wrapped Lookup and records the result.
func (i *Instrumented) Lookup(ctx context.Context, customerID string) (model.Ancestry, error) {
	start := time.Now()
	a, err := i.inner.Lookup(ctx, customerID)
	switch {
	case err == nil:
		i.metrics.ObserveLookup(metrics.OutcomeFound, time.Since(start))
	case errors.Is(err, ErrNoData):
		i.metrics.ObserveLookup(metrics.OutcomeNoData, time.Since(start))
	default:
		i.metrics.ObserveLookup(metrics.OutcomeError, time.Since(start))
	}
	return a, err
}
