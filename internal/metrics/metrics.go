// Package metrics exposes Prometheus instruments for sentence conversion.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/semconv/internal/rewrite"
)

// Conversion outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var (
	// sentences counts converted sentences.
	// Labels: direction (semantic, dependency), status (ok, failed)
	sentences = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semconv",
		Subsystem: "conversion",
		Name:      "sentences_total",
		Help:      "Sentences converted, by direction and outcome",
	}, []string{"direction", "status"})

	// duration measures per-sentence conversion time.
	// Labels: direction
	duration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "semconv",
		Subsystem: "conversion",
		Name:      "duration_seconds",
		Help:      "Per-sentence conversion latency in seconds",
		Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
	}, []string{"direction"})

	// reattachments counts edges moved by the rewrite.
	// Labels: rule (high_attach, punctuation, cycle, orphan)
	reattachments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semconv",
		Subsystem: "rewrite",
		Name:      "reattachments_total",
		Help:      "Edges re-attached by the rewrite, by rule",
	}, []string{"rule"})
)

// RecordSentence records one conversion outcome and its latency.
func RecordSentence(dir rewrite.Direction, err error, seconds float64) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	sentences.WithLabelValues(dir.String(), status).Inc()
	duration.WithLabelValues(dir.String()).Observe(seconds)
}

// RecordRewrite adds the edges moved by one rewrite pass. It matches
// convert.Observer.
func RecordRewrite(_ rewrite.Direction, st rewrite.Stats) {
	add := func(rule string, n int) {
		if n > 0 {
			reattachments.WithLabelValues(rule).Add(float64(n))
		}
	}
	add("high_attach", st.HighAttached)
	add("punctuation", st.Reparented)
	add("cycle", st.CyclesBroken)
	add("orphan", st.Orphans)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
