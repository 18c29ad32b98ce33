package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromRecorder exports tool call events as Prometheus collectors.
type PromRecorder struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	results  *prometheus.HistogramVec
	gatherer prometheus.Gatherer
}

// NewPromRecorder registers the collectors with a fresh registry.
func NewPromRecorder() *PromRecorder {
	reg := prometheus.NewRegistry()
	return NewPromRecorderWith(reg, reg)
}

// NewPromRecorderWith registers the collectors with reg and serves
// metrics from gatherer.
func NewPromRecorderWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *PromRecorder {
	factory := promauto.With(reg)
	return &PromRecorder{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asrsmcp_tool_calls_total",
			Help: "Total tool calls by tool and outcome",
		}, []string{"tool", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "asrsmcp_tool_call_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"tool"}),
		results: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "asrsmcp_tool_call_results",
			Help:    "Number of results returned per successful tool call",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50, 100},
		}, []string{"tool"}),
		gatherer: gatherer,
	}
}

// Record implements Recorder.
func (p *PromRecorder) Record(event CallEvent) {
	p.calls.WithLabelValues(event.Tool, string(event.Outcome)).Inc()
	p.duration.WithLabelValues(event.Tool).Observe(event.Latency.Seconds())
	if event.Outcome == OutcomeOK {
		p.results.WithLabelValues(event.Tool).Observe(float64(event.ResultCount))
	}
}

// Handler serves the registered collectors in the Prometheus text format.
func (p *PromRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
