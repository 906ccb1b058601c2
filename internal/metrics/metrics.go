package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcorelay_commands_total",
			Help: "Total number of inbound commands by kind.",
		},
		[]string{"kind"},
	)

	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcorelay_dispatches_total",
			Help: "Total number of dispatches by final status.",
		},
		[]string{"status"}, // delivered, failed, rejected
	)

	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcorelay_retries_total",
			Help: "Total number of outbound call retries by reason.",
		},
		[]string{"reason"}, // e.g. http_5xx, http_429, timeout, network, other
	)

	CallbackFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arcorelay_callback_failures_total",
			Help: "Total number of failed callback deliveries.",
		},
	)

	RemoteCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arcorelay_remote_call_duration_seconds",
			Help:    "Duration of outbound remote calls by endpoint.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(CommandsTotal, DispatchesTotal, RetriesTotal, CallbackFailuresTotal, RemoteCallDuration)
}

// RecordCommand counts an accepted inbound command by kind.
func RecordCommand(kind string) {
	CommandsTotal.WithLabelValues(kind).Inc()
}

// RecordDispatch counts a dispatch reaching a terminal status.
func RecordDispatch(status string) {
	DispatchesTotal.WithLabelValues(status).Inc()
}

// RecordRetry counts a retried outbound attempt by failure reason.
func RecordRetry(reason string) {
	RetriesTotal.WithLabelValues(reason).Inc()
}

// RecordCallbackFailure counts a failed callback delivery.
func RecordCallbackFailure() {
	CallbackFailuresTotal.Inc()
}

// ObserveRemoteCall records the duration of one outbound call.
func ObserveRemoteCall(endpoint string, seconds float64) {
	RemoteCallDuration.WithLabelValues(endpoint).Observe(seconds)
}
