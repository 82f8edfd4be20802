package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "coursework_files"

type Metrics struct {
	Uploads       *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	UploadedBytes prometheus.Histogram
	Deletions     *prometheus.CounterVec
}

// New creates the upload collectors and registers them on reg. A nil reg
// leaves the collectors unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload attempts by result (stored, rejected, failed).",
		}, []string{"subfolder", "result"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected uploads by rejection kind.",
		}, []string{"kind"}),
		UploadedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes",
			Help:      "Size of stored uploads in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		Deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "Delete calls by result (deleted, missing, failed).",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.Uploads, m.Rejections, m.UploadedBytes, m.Deletions)
	}
	return m
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
