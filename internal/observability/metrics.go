package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	downloadRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pandamodel",
			Subsystem: "download",
			Name:      "requests_total",
			Help:      "Model library download attempts by target and result.",
		},
		[]string{"arch", "os", "result"},
	)
	downloadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pandamodel",
			Subsystem: "download",
			Name:      "duration_seconds",
			Help:      "Model library download duration in seconds, handshake included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"arch", "os", "result"},
	)
	downloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pandamodel",
			Subsystem: "download",
			Name:      "bytes",
			Help:      "Size of downloaded model libraries.",
			Buckets:   prometheus.ExponentialBuckets(64*1024, 2, 10),
		},
	)
	libraryLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pandamodel",
			Subsystem: "library",
			Name:      "loads_total",
			Help:      "Model library load attempts by result.",
		},
		[]string{"result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(downloadRequests, downloadDuration, downloadBytes, libraryLoads)
	})
}

// RecordDownload counts one download attempt. size is ignored unless the
// result is "ok".
func RecordDownload(arch, os, result string, size int, duration time.Duration) {
	RegisterMetrics()
	downloadRequests.WithLabelValues(arch, os, result).Inc()
	downloadDuration.WithLabelValues(arch, os, result).Observe(duration.Seconds())
	if result == "ok" {
		downloadBytes.Observe(float64(size))
	}
}

func RecordLibraryLoad(result string) {
	RegisterMetrics()
	libraryLoads.WithLabelValues(result).Inc()
}

// DownloadRequests exposes the counter for assertions in tests.
func DownloadRequests() *prometheus.CounterVec { return downloadRequests }

// LibraryLoads exposes the counter for assertions in tests.
func LibraryLoads() *prometheus.CounterVec { return libraryLoads }

// WriteMetrics dumps the default registry to path in the text exposition
// format, for node exporter's textfile collector.
func WriteMetrics(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
