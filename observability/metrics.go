package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/injector"
)

// Outcome label values.
const (
	OutcomeSuccess       = "success"
	OutcomeNotRegistered = "not_registered"
	OutcomeNoScope       = "no_scope"
	OutcomeCycle         = "cycle"
	OutcomeError         = "error"
)

type startKey struct{}

// Metrics is a resolve middleware exporting Prometheus metrics.
type Metrics struct {
	resolutionsTotal *prometheus.CounterVec
	resolveDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "injector",
				Name:      "resolutions_total",
				Help:      "Total number of service resolutions",
			},
			[]string{"key", "outcome"},
		),
		resolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "injector",
				Name:      "resolve_duration_seconds",
				Help:      "Service resolution duration in seconds, including dependencies",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"key"},
		),
	}

	for _, c := range []prometheus.Collector{m.resolutionsTotal, m.resolveDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// BeforeResolve implements injector.Middleware.
func (m *Metrics) BeforeResolve(ctx context.Context, _ injector.TypeKey) (context.Context, error) {
	return context.WithValue(ctx, startKey{}, time.Now()), nil
}

// AfterResolve implements injector.Middleware.
func (m *Metrics) AfterResolve(ctx context.Context, key injector.TypeKey, _ any, err error) error {
	m.resolutionsTotal.WithLabelValues(key.Name(), Outcome(err)).Inc()

	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		m.resolveDuration.WithLabelValues(key.Name()).Observe(time.Since(start).Seconds())
	}

	return nil
}

// Outcome classifies a resolve error into a metric label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, injector.ErrCyclicDependencySentinel):
		return OutcomeCycle
	case errors.Is(err, injector.ErrNoActiveScope):
		return OutcomeNoScope
	case errors.Is(err, injector.ErrNotRegisteredSentinel):
		return OutcomeNotRegistered
	default:
		return OutcomeError
	}
}
