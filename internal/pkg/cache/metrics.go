package cache

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts summary cache lookups by outcome.
type Metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// NewMetrics registers the cache counters on reg. Registering twice on the same
// registry reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nomina_summary_cache_hits_total",
			Help: "Number of payroll period summaries served from cache.",
		}, []string{"operation"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nomina_summary_cache_miss_total",
			Help: "Number of payroll period summaries not found in cache.",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nomina_summary_cache_errors_total",
			Help: "Number of failed summary cache operations.",
		}, []string{"operation"}),
	}

	for _, target := range []**prometheus.CounterVec{&m.hits, &m.misses, &m.errors} {
		if err := reg.Register(*target); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, fmt.Errorf("cache metrics: %w", err)
			}
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, fmt.Errorf("cache metrics: unexpected collector type %T", already.ExistingCollector)
			}
			*target = existing
		}
	}

	return m, nil
}

func (m *Metrics) hit(op string) {
	if m != nil {
		m.hits.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) miss(op string) {
	if m != nil {
		m.misses.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) failure(op string) {
	if m != nil {
		m.errors.WithLabelValues(op).Inc()
	}
}
