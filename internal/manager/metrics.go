package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	downloadsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "downloads_started_total",
		Help:      "Total downloads started against the native bridge",
	})

	downloadsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "downloads_completed_total",
		Help:      "Total downloads that reached the downloaded state",
	})

	downloadErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "download_errors_total",
		Help:      "Total downloads that ended in the error state",
	})

	admissionRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "admission_rejected_total",
		Help:      "Downloads rejected by the disk-space admission check",
	})

	loadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "loads_total",
		Help:      "Total successful model loads",
	})

	loadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "load_failures_total",
		Help:      "Total failed model loads",
	})

	unloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "unloads_total",
		Help:      "Total explicit model unloads",
	})

	generatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "generates_total",
		Help:      "Total generate calls forwarded to the runtime",
	})

	generateFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "generate_failures_total",
		Help:      "Total generate calls that returned an error",
	})

	evictionsRecoveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "evictions_recovered_total",
		Help:      "Runtime evictions detected and recovered to the unloaded state",
	})

	generateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "generate_duration_seconds",
		Help:      "Duration of generate calls in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	modelLoadedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "modelmgrd",
		Subsystem: "manager",
		Name:      "model_loaded",
		Help:      "1 when a model occupies the load slot, 0 otherwise",
	})
)

func init() {
	prometheus.MustRegister(
		downloadsStartedTotal,
		downloadsCompletedTotal,
		downloadErrorsTotal,
		admissionRejectedTotal,
		loadsTotal,
		loadFailuresTotal,
		unloadsTotal,
		generatesTotal,
		generateFailuresTotal,
		evictionsRecoveredTotal,
		generateDuration,
		modelLoadedGauge,
	)
}
