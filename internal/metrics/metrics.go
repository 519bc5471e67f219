package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// APICalls counts requests to the event API by outcome (success, failure).
var APICalls = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kickoff",
	Name:      "api_calls_total",
	Help:      "Total number of event API requests by outcome.",
}, []string{"status"})

// RecordsStaged counts records written to staged NDJSON files.
var RecordsStaged = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "kickoff",
	Name:      "records_staged_total",
	Help:      "Total number of event records written to staging files.",
})

// Uploads counts object store uploads by outcome.
var Uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kickoff",
	Name:      "object_uploads_total",
	Help:      "Total number of staged file uploads by outcome.",
}, []string{"status"})

// RowsLoaded reports the row count of the most recent bulk load.
var RowsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "kickoff",
	Name:      "incoming_rows_loaded",
	Help:      "Rows loaded into the incoming table by the last run.",
})

// Units counts pipeline units (dates, query definitions) by stage and outcome.
var Units = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kickoff",
	Name:      "units_total",
	Help:      "Total number of pipeline units processed by stage and outcome.",
}, []string{"stage", "status"})

// StageDuration observes how long each stage of a run takes.
var StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "kickoff",
	Name:      "stage_duration_seconds",
	Help:      "Duration of pipeline stages.",
	Buckets:   prometheus.ExponentialBuckets(0.05, 2, 16),
}, []string{"stage"})

// Runs counts finished pipeline runs by outcome.
var Runs = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kickoff",
	Name:      "runs_total",
	Help:      "Total number of pipeline runs by outcome.",
}, []string{"status"})

// Init registers all metrics with the default Prometheus registry.
func Init() {
	prometheus.MustRegister(APICalls, RecordsStaged, Uploads, RowsLoaded, Units, StageDuration, Runs)
}
