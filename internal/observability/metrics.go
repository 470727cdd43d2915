package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labelctl",
			Subsystem: "transport",
			Name:      "frames_written_total",
			Help:      "Frames written to the printer, by kind (command or row).",
		},
		[]string{"kind"},
	)
	writeRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "labelctl",
			Subsystem: "transport",
			Name:      "write_retries_total",
			Help:      "Transport write attempts that failed and were retried.",
		},
	)
	writeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "labelctl",
			Subsystem: "transport",
			Name:      "write_failures_total",
			Help:      "Writes abandoned after exhausting all retry attempts.",
		},
	)
	statusPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "labelctl",
			Subsystem: "job",
			Name:      "status_polls_total",
			Help:      "GetPrintStatus polls issued while awaiting completion.",
		},
	)
	jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labelctl",
			Name:      "jobs_total",
			Help:      "Print jobs by outcome.",
		},
		[]string{"outcome"},
	)
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "labelctl",
			Subsystem: "job",
			Name:      "duration_seconds",
			Help:      "End-to-end print job duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesWritten, writeRetries, writeFailures, statusPolls, jobs, jobDuration)
	})
}

func RecordFrameWritten(kind string) {
	RegisterMetrics()
	framesWritten.WithLabelValues(kind).Inc()
}

func RecordWriteRetry() {
	RegisterMetrics()
	writeRetries.Inc()
}

func RecordWriteFailure() {
	RegisterMetrics()
	writeFailures.Inc()
}

func RecordStatusPoll() {
	RegisterMetrics()
	statusPolls.Inc()
}

func RecordJob(outcome string, duration time.Duration) {
	RegisterMetrics()
	jobs.WithLabelValues(outcome).Inc()
	jobDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
