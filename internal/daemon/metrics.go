package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the controller's Prometheus collectors. Each controller owns
// its registry so tests can build as many as they like.
//
//   - casenotify_messages_total{channel,result}
//   - casenotify_tray_actions_total{action}
//   - casenotify_surface_events_total{role,kind}
//   - casenotify_surface_recoveries_total{role,reason}
//   - casenotify_update_checks_total{trigger,result}
//   - casenotify_renderer_errors_total
//   - casenotify_renderer_alerts_total
//   - casenotify_notifications_total{result}
//   - casenotify_pending_count
//   - casenotify_effective_paused
type Metrics struct {
	registry *prometheus.Registry

	messages          *prometheus.CounterVec
	trayActions       *prometheus.CounterVec
	surfaceEvents     *prometheus.CounterVec
	surfaceRecoveries *prometheus.CounterVec
	updateChecks      *prometheus.CounterVec
	rendererErrors    prometheus.Counter
	rendererAlerts    prometheus.Counter
	notifications     *prometheus.CounterVec
	pendingCount      prometheus.Gauge
	effectivePaused   prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casenotify_messages_total",
			Help: "Messages handled by the router",
		}, []string{"channel", "result"}),
		trayActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casenotify_tray_actions_total",
			Help: "Tray menu actions dispatched",
		}, []string{"action"}),
		surfaceEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casenotify_surface_events_total",
			Help: "Surface lifecycle events accepted",
		}, []string{"role", "kind"}),
		surfaceRecoveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casenotify_surface_recoveries_total",
			Help: "Surface reloads and fallback navigations",
		}, []string{"role", "reason"}),
		updateChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casenotify_update_checks_total",
			Help: "Update checks by trigger and outcome",
		}, []string{"trigger", "result"}),
		rendererErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "casenotify_renderer_errors_total",
			Help: "Client-side errors reported by embedded content",
		}),
		rendererAlerts: factory.NewCounter(prometheus.CounterOpts{
			Name: "casenotify_renderer_alerts_total",
			Help: "Diagnostic dialogs shown for renderer errors",
		}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casenotify_notifications_total",
			Help: "Notify requests by outcome",
		}, []string{"result"}),
		pendingCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "casenotify_pending_count",
			Help: "Combined pending count shown on the pill",
		}),
		effectivePaused: factory.NewGauge(prometheus.GaugeOpts{
			Name: "casenotify_effective_paused",
			Help: "1 while notifications are effectively paused",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
