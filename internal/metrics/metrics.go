// Package metrics exposes the sound level meter's observability surface as
// Prometheus gauges/counters, grounded on the host framework's own
// Recorder-interface pattern: callers depend on the Recorder interface, not
// the concrete Prometheus type, so tests can substitute a no-op recorder.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder is what the meter's worker/publish-queue code depends on to
// report observability signal. A log line alone loses history; pairing it
// with a metric is how the host framework treats every internal counter.
type Recorder interface {
	SetRingBufferUtilization(v float64)
	SetPublishQueueDepth(n int)
	SetCPUUtilization(percent float64)
	IncSensorPublish(sensor string)
	IncSensorPublishError(sensor string)
}

// PrometheusRecorder implements Recorder against client_golang collectors
// registered on a caller-supplied registry.
type PrometheusRecorder struct {
	ringBufferUtilization prometheus.Gauge
	publishQueueDepth     prometheus.Gauge
	cpuUtilization        prometheus.Gauge
	sensorPublishes       *prometheus.CounterVec
	sensorPublishErrors   *prometheus.CounterVec
}

// NewPrometheusRecorder creates and registers the meter's collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		ringBufferUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soundmeter",
			Name:      "ring_buffer_utilization_ratio",
			Help:      "Fraction of the producer/consumer ring buffer currently holding unread audio.",
		}),
		publishQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soundmeter",
			Name:      "publish_queue_depth",
			Help:      "Number of deferred sensor publishes waiting for the main loop to drain.",
		}),
		cpuUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soundmeter",
			Name:      "worker_cpu_utilization_percent",
			Help:      "Host-wide CPU utilization percent across all CPUs.",
		}),
		sensorPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundmeter",
			Name:      "sensor_publishes_total",
			Help:      "Count of calibrated dB values published per sensor.",
		}, []string{"sensor"}),
		sensorPublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soundmeter",
			Name:      "sensor_publish_errors_total",
			Help:      "Count of sensor publish attempts that failed to reach their sink.",
		}, []string{"sensor"}),
	}
	reg.MustRegister(
		r.ringBufferUtilization,
		r.publishQueueDepth,
		r.cpuUtilization,
		r.sensorPublishes,
		r.sensorPublishErrors,
	)
	return r
}

func (r *PrometheusRecorder) SetRingBufferUtilization(v float64) { r.ringBufferUtilization.Set(v) }
func (r *PrometheusRecorder) SetPublishQueueDepth(n int)         { r.publishQueueDepth.Set(float64(n)) }
func (r *PrometheusRecorder) SetCPUUtilization(percent float64) { r.cpuUtilization.Set(percent) }
func (r *PrometheusRecorder) IncSensorPublish(sensor string) {
	r.sensorPublishes.WithLabelValues(sensor).Inc()
}
func (r *PrometheusRecorder) IncSensorPublishError(sensor string) {
	r.sensorPublishErrors.WithLabelValues(sensor).Inc()
}

// NoopRecorder discards every call; useful as a default when the host
// hasn't wired a Prometheus registry.
type NoopRecorder struct{}

func (NoopRecorder) SetRingBufferUtilization(float64)  {}
func (NoopRecorder) SetPublishQueueDepth(int)          {}
func (NoopRecorder) SetCPUUtilization(float64)         {}
func (NoopRecorder) IncSensorPublish(string)           {}
func (NoopRecorder) IncSensorPublishError(string)       {}
