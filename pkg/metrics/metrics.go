// Package metrics exports document store activity as Prometheus metrics.
//
// A Collector is an activity hook: pass it to docstore.WithHooks and every
// load, recovery, save and delete is counted per document.
package metrics

import (
	"context"
	"strings"

	"github.com/goliatone/go-docstore/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "docstore"
	verbPrefix       = "docstore."
)

// Collector counts store events and records operation latency.
type Collector struct {
	// Events counts events by document and outcome.
	Events *prometheus.CounterVec
	// Duration records load and save latency by outcome.
	Duration *prometheus.HistogramVec
}

var _ activity.ActivityHook = (*Collector)(nil)

// NewCollector builds a Collector and registers it with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "events_total",
				Help:      "Document store events by document and outcome",
			},
			[]string{"document", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "operation_duration_seconds",
				Help:      "Time spent loading or saving a document",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"outcome"},
		),
	}
	for _, collector := range []prometheus.Collector{c.Events, c.Duration} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustCollector is NewCollector that panics on registration failure.
func MustCollector(reg prometheus.Registerer) *Collector {
	c, err := NewCollector(reg)
	if err != nil {
		panic(err)
	}
	return c
}

// Notify implements activity.ActivityHook.
func (c *Collector) Notify(_ context.Context, event activity.Event) error {
	if c == nil || event.ObjectType != activity.ObjectTypeDocument {
		return nil
	}
	outcome := Outcome(event.Verb)
	c.Events.WithLabelValues(event.ObjectID, outcome).Inc()

	if ms, ok := durationMillis(event.Metadata); ok {
		c.Duration.WithLabelValues(outcome).Observe(float64(ms) / 1000)
	}
	return nil
}

// Outcome is the metric label for a verb: "docstore.saved" becomes "saved".
func Outcome(verb string) string {
	return strings.TrimPrefix(verb, verbPrefix)
}

func durationMillis(metadata map[string]any) (int64, bool) {
	switch v := metadata["duration_ms"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
