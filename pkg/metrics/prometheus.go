package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var connectionStates = []string{"disconnected", "connecting", "connected", "reconnecting", "lost"}

type Prometheus struct {
	statusEvents      *prometheus.CounterVec
	locationEvents    *prometheus.CounterVec
	locationPublished *prometheus.CounterVec
	useCaseTotal      *prometheus.CounterVec
	useCaseDuration   *prometheus.HistogramVec
	reconnects        *prometheus.CounterVec
	connectionState   *prometheus.GaugeVec
	httpDuration      *prometheus.HistogramVec
	restDuration      *prometheus.HistogramVec
	broadcasts        *prometheus.CounterVec
	recipients        *prometheus.CounterVec
	activeRooms       prometheus.Gauge
}

func NewPrometheusMetrics(reg prometheus.Registerer, serviceName string) *Prometheus {
	labels := prometheus.Labels{"service": serviceName}
	m := &Prometheus{
		statusEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gotrack_status_events_total",
			Help:        "Order status events received, by outcome.",
			ConstLabels: labels,
		}, []string{"result"}),
		locationEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gotrack_location_events_total",
			Help:        "Rider location events received, by outcome.",
			ConstLabels: labels,
		}, []string{"result"}),
		locationPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gotrack_location_published_total",
			Help:        "Rider location samples pushed to the channel.",
			ConstLabels: labels,
		}, []string{"status"}),
		useCaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_usecase_total",
			Help:        "Total number of Use Case executions.",
			ConstLabels: labels,
		}, []string{"use_case", "status"}),
		useCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_usecase_duration_seconds",
			Help:        "Use Case execution latency.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			ConstLabels: labels,
		}, []string{"use_case", "status"}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gotrack_channel_reconnect_attempts_total",
			Help:        "Live channel reconnection attempts.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		connectionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "gotrack_channel_state",
			Help:        "Current live channel state (1 for the active state).",
			ConstLabels: labels,
		}, []string{"state"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_http_duration_seconds",
			Help:        "Duration of HTTP requests served.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			ConstLabels: labels,
		}, []string{"method", "path", "status_code"}),
		restDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "gotrack_rest_call_duration_seconds",
			Help:        "Duration of calls to the order REST API.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"operation", "status_code"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gotrack_relay_broadcasts_total",
			Help:        "Room broadcasts performed by the relay.",
			ConstLabels: labels,
		}, []string{"event"}),
		recipients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gotrack_relay_broadcast_recipients_total",
			Help:        "Messages queued to room members by the relay.",
			ConstLabels: labels,
		}, []string{"event"}),
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "gotrack_relay_active_rooms",
			Help:        "Order rooms with at least one member.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		m.statusEvents,
		m.locationEvents,
		m.locationPublished,
		m.useCaseTotal,
		m.useCaseDuration,
		m.reconnects,
		m.connectionState,
		m.httpDuration,
		m.restDuration,
		m.broadcasts,
		m.recipients,
		m.activeRooms,
	)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

func (p *Prometheus) RecordStatusEvent(result string) {
	p.statusEvents.WithLabelValues(result).Inc()
}

func (p *Prometheus) RecordLocationEvent(result string) {
	p.locationEvents.WithLabelValues(result).Inc()
}

func (p *Prometheus) RecordLocationPublished(status string) {
	p.locationPublished.WithLabelValues(status).Inc()
}

func (p *Prometheus) RecordUseCaseExecution(useCase string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.useCaseTotal.WithLabelValues(useCase, status).Inc()
	p.useCaseDuration.WithLabelValues(useCase, status).Observe(duration.Seconds())
}

func (p *Prometheus) RecordReconnectAttempt(outcome string) {
	p.reconnects.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) SetConnectionState(state string) {
	for _, s := range connectionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		p.connectionState.WithLabelValues(s).Set(v)
	}
}

func (p *Prometheus) ObserveHTTPRequestDuration(method, path, code string, duration float64) {
	p.httpDuration.WithLabelValues(method, path, code).Observe(duration)
}

func (p *Prometheus) ObserveRESTCallDuration(operation, code string, duration float64) {
	p.restDuration.WithLabelValues(operation, code).Observe(duration)
}

func (p *Prometheus) RecordBroadcast(event string, recipients int) {
	p.broadcasts.WithLabelValues(event).Inc()
	p.recipients.WithLabelValues(event).Add(float64(recipients))
}

func (p *Prometheus) SetActiveRooms(n int) {
	p.activeRooms.Set(float64(n))
}
