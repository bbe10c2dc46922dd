package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_globe"

// Metrics holds the Prometheus counters, histograms, and gauges for the globe.
type Metrics struct {
	OverlayBuilds       prometheus.Counter
	OverlayBuildSeconds prometheus.Histogram
	OverlayUploadErrors prometheus.Counter
	FrameSeconds        prometheus.Histogram

	SelectionUpdates *prometheus.CounterVec // labels: source={ws,feed,keyboard,pointer,config}
	InboxDropped     prometheus.Counter

	WebsocketClients prometheus.Gauge
	FeedMessages     *prometheus.CounterVec // labels: outcome={applied,invalid,error}
	FeedRunning      prometheus.Gauge
}

// NewMetrics creates the globe metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		OverlayBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_builds_total",
			Help:      "Overlay rasterizations performed.",
		}),
		OverlayBuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overlay_build_duration_seconds",
			Help:      "Time spent rasterizing and uploading an overlay.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
		OverlayUploadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_upload_errors_total",
			Help:      "Overlay texture uploads that failed.",
		}),
		FrameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_interval_seconds",
			Help:      "Wall time between rendered frames.",
			Buckets:   []float64{0.004, 0.008, 0.016, 0.033, 0.05, 0.1, 0.25},
		}),
		SelectionUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_updates_total",
			Help:      "Selection changes applied, by source.",
		}, []string{"source"}),
		InboxDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_dropped_total",
			Help:      "Queued selections superseded before the render loop read them.",
		}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected control channel clients.",
		}),
		FeedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_messages_total",
			Help:      "Metric feed messages by outcome.",
		}, []string{"outcome"}),
		FeedRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_running",
			Help:      "1 while the metric feed consumer is active.",
		}),
	}

	reg.MustRegister(
		m.OverlayBuilds,
		m.OverlayBuildSeconds,
		m.OverlayUploadErrors,
		m.FrameSeconds,
		m.SelectionUpdates,
		m.InboxDropped,
		m.WebsocketClients,
		m.FeedMessages,
		m.FeedRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
