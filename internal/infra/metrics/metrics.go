package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Circle-Company/Circle-System-2.0-sub002/internal/domain/enums"
)

// Recorder exposes moderation counters on a dedicated registry so tests
// can create isolated instances.
type Recorder struct {
	registry *prometheus.Registry
	verdicts *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	verdicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_verdicts_total",
		Help: "Moderation decisions by verdict and top category.",
	}, []string{"verdict", "category"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_failures_total",
		Help: "Moderation pipeline failures by stage.",
	}, []string{"stage"})
	registry.MustRegister(verdicts, failures)

	return &Recorder{
		registry: registry,
		verdicts: verdicts,
		failures: failures,
	}
}

func (r *Recorder) ObserveVerdict(verdict enums.Verdict, category string) {
	if category == "" {
		category = "none"
	}
	r.verdicts.WithLabelValues(string(verdict), category).Inc()
}

func (r *Recorder) ObserveFailure(stage string) {
	r.failures.WithLabelValues(stage).Inc()
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
