package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DriveMetrics provides observability for drive operations: uploads,
// downloads, quota decisions, and trash lifecycle.
//
// Pass nil (or skip InitRegistry) to run without metrics collection.
type DriveMetrics interface {
	// RecordOperation records a completed drive operation with its name,
	// duration, and outcome.
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordUpload records a successful upload of the given size.
	RecordUpload(bytes int64)

	// RecordDownload records a successful content download.
	RecordDownload(bytes int64)

	// RecordQuotaRejection records an upload rejected for exceeding the
	// owner's storage limit.
	RecordQuotaRejection()

	// RecordPurge records permanently deleted items and the bytes they
	// released.
	RecordPurge(items int, bytes int64)

	// RecordSweep records a completed trash retention sweep.
	RecordSweep(purged int, duration time.Duration)
}

type driveMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	uploadBytes       prometheus.Counter
	downloadBytes     prometheus.Counter
	quotaRejections   prometheus.Counter
	purgedItems       prometheus.Counter
	purgedBytes       prometheus.Counter
	sweepsTotal       prometheus.Counter
	sweepDuration     prometheus.Histogram
}

// NewDriveMetrics creates a Prometheus-backed DriveMetrics instance, or
// a no-op one if metrics are disabled.
func NewDriveMetrics() DriveMetrics {
	if !IsEnabled() {
		return noopDriveMetrics{}
	}

	reg := GetRegistry()

	return &driveMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nimbus_drive_operations_total",
				Help: "Total number of drive operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nimbus_drive_operation_duration_seconds",
				Help:    "Duration of drive operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		uploadBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nimbus_upload_bytes_total",
			Help: "Total bytes uploaded",
		}),
		downloadBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nimbus_download_bytes_total",
			Help: "Total bytes downloaded",
		}),
		quotaRejections: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nimbus_quota_rejections_total",
			Help: "Uploads rejected for exceeding the storage limit",
		}),
		purgedItems: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nimbus_trash_purged_items_total",
			Help: "Items permanently deleted from the trash",
		}),
		purgedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nimbus_trash_purged_bytes_total",
			Help: "Bytes released by permanent deletion",
		}),
		sweepsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nimbus_trash_sweeps_total",
			Help: "Completed trash retention sweeps",
		}),
		sweepDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "nimbus_trash_sweep_duration_seconds",
			Help:    "Duration of trash retention sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *driveMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *driveMetrics) RecordUpload(bytes int64) {
	m.uploadBytes.Add(float64(bytes))
}

func (m *driveMetrics) RecordDownload(bytes int64) {
	m.downloadBytes.Add(float64(bytes))
}

func (m *driveMetrics) RecordQuotaRejection() {
	m.quotaRejections.Inc()
}

func (m *driveMetrics) RecordPurge(items int, bytes int64) {
	m.purgedItems.Add(float64(items))
	m.purgedBytes.Add(float64(bytes))
}

func (m *driveMetrics) RecordSweep(purged int, duration time.Duration) {
	m.sweepsTotal.Inc()
	m.sweepDuration.Observe(duration.Seconds())
}

// noopDriveMetrics discards all measurements.
type noopDriveMetrics struct{}

func (noopDriveMetrics) RecordOperation(string, time.Duration, error) {}
func (noopDriveMetrics) RecordUpload(int64)                           {}
func (noopDriveMetrics) RecordDownload(int64)                         {}
func (noopDriveMetrics) RecordQuotaRejection()                        {}
func (noopDriveMetrics) RecordPurge(int, int64)                       {}
func (noopDriveMetrics) RecordSweep(int, time.Duration)               {}
