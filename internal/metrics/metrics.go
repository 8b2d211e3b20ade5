package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Dashboard metrics
	refreshTicks     prometheus.Counter
	refreshDuration  prometheus.Histogram
	signalConfidence *prometheus.GaugeVec
	activeSignals    prometheus.Gauge
	winRate          prometheus.Gauge
	totalProfit      prometheus.Gauge
	streamClients    prometheus.Gauge
	archiveExports   *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.refreshTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signalpro_refresh_ticks_total",
			Help: "Total number of confidence refresh ticks applied",
		},
	)
	r.refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signalpro_refresh_duration_seconds",
			Help:    "Time spent applying one refresh tick",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
	)
	r.signalConfidence = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "signalpro_signal_confidence",
			Help: "Current confidence of each active signal, in percent",
		},
		[]string{"asset"},
	)
	r.activeSignals = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signalpro_active_signals",
			Help: "Number of active signals in the session",
		},
	)
	r.winRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signalpro_win_rate",
			Help: "Win rate of the trade history, in percent",
		},
	)
	r.totalProfit = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signalpro_total_profit",
			Help: "Sum of profit across the trade history",
		},
	)
	r.streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signalpro_stream_clients",
			Help: "Number of connected websocket stream clients",
		},
	)
	r.archiveExports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalpro_archive_exports_total",
			Help: "Total number of snapshot exports",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.refreshTicks)
	reg.MustRegister(r.refreshDuration)
	reg.MustRegister(r.signalConfidence)
	reg.MustRegister(r.activeSignals)
	reg.MustRegister(r.winRate)
	reg.MustRegister(r.totalProfit)
	reg.MustRegister(r.streamClients)
	reg.MustRegister(r.archiveExports)

	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordRefresh records one applied refresh tick.
func (r *Registry) RecordRefresh(duration float64) {
	r.refreshTicks.Inc()
	r.refreshDuration.Observe(duration)
}

// SetSignalConfidence sets the confidence gauge for an asset.
func (r *Registry) SetSignalConfidence(asset string, confidence float64) {
	r.signalConfidence.WithLabelValues(asset).Set(confidence)
}

// SetActiveSignals sets the active signal count.
func (r *Registry) SetActiveSignals(n int) {
	r.activeSignals.Set(float64(n))
}

// SetHistoryStats sets the history-derived gauges.
func (r *Registry) SetHistoryStats(winRate, totalProfit float64) {
	r.winRate.Set(winRate)
	r.totalProfit.Set(totalProfit)
}

// StreamClientsInc increments connected stream clients.
func (r *Registry) StreamClientsInc() {
	r.streamClients.Inc()
}

// StreamClientsDec decrements connected stream clients.
func (r *Registry) StreamClientsDec() {
	r.streamClients.Dec()
}

// RecordExport records a snapshot export attempt.
func (r *Registry) RecordExport(status string) {
	r.archiveExports.WithLabelValues(status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
