package soundlevel

import (
	"context"
	"sync"

	"github.com/ambiosense/soundmeter/internal/logging"
	"github.com/ambiosense/soundmeter/internal/slerrors"
)

// MeterConfig configures a Meter's ring buffer, worker lifecycle, and
// calibration. Sensors are added afterward via AddSensor.
type MeterConfig struct {
	SampleRate  float64
	SampleWidth int // bytes per sample
	BufferMs    int // audio buffer duration the DAG evaluator runs per tick
	RingMs      int // ring buffer capacity, in milliseconds of audio
	WarmupMs    int
	TaskCore    int // < 0 lets cpuspec recommend one
	PinAffinity bool

	Calibration Calibration // Queue is overwritten by NewMeter
}

// Meter is the facade wiring a microphone source, ring buffer, pinned
// worker, DAG evaluator, sensors, calibration, and deferred publish queue
// into one unit.
type Meter struct {
	cfg    MeterConfig
	calib  *Calibration
	queue  *PublishQueue
	ring   *RingBuffer
	worker *Worker
	mic    MicrophoneSource

	mu      sync.Mutex
	sensors []Sensor
	sorted  bool

	log *logging.Logger
}

// NewMeter wires a Meter around mic (which may be nil for tests that drive
// the ring buffer directly).
func NewMeter(cfg MeterConfig, mic MicrophoneSource) *Meter {
	queue := NewPublishQueue()
	calib := cfg.Calibration
	calib.Queue = queue

	m := &Meter{
		cfg:   cfg,
		calib: &calib,
		queue: queue,
		mic:   mic,
		log:   logging.ForComponent("soundlevel.meter"),
	}

	bytesPerMs := int(cfg.SampleRate * float64(cfg.SampleWidth) / 1000)
	m.ring = NewRingBuffer(cfg.RingMs, bytesPerMs)
	m.worker = NewWorker(WorkerConfig{
		SampleRate:  cfg.SampleRate,
		SampleWidth: cfg.SampleWidth,
		BufferMs:    cfg.BufferMs,
		WarmupMs:    cfg.WarmupMs,
		TaskCore:    cfg.TaskCore,
		PinAffinity: cfg.PinAffinity,
	}, m.ring, m.processBuffer, mic, m.resetAllSensors)
	return m
}

func (m *Meter) resetAllSensors() {
	m.mu.Lock()
	sensors := append([]Sensor(nil), m.sensors...)
	m.mu.Unlock()
	for _, s := range sensors {
		s.Reset()
	}
}

// AddSensor registers a sensor with the meter. Call before Start; adding a
// sensor while the worker is running is not safe, since the DAG evaluator
// reads the sensor list without the sort-order guarantee being
// recomputed mid-buffer.
func (m *Meter) AddSensor(s Sensor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sensors = append(m.sensors, s)
	m.sorted = false
}

// RingBuffer exposes the meter's ring buffer so a MicrophoneSource adapter
// (or a test) can write raw PCM bytes directly.
func (m *Meter) RingBuffer() *RingBuffer { return m.ring }

func (m *Meter) ensureSorted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sorted {
		SortSensors(m.sensors)
		m.sorted = true
	}
}

// Start begins the pinned worker and, if a microphone source was supplied,
// capture into the ring buffer. Idempotent with respect to the worker;
// calling Start while already running is a no-op.
func (m *Meter) Start(ctx context.Context) error {
	m.ensureSorted()
	m.worker.Start(ctx)
	if m.mic == nil {
		return nil
	}
	err := m.mic.Start(ctx, func(p []byte) {
		n, werr := m.ring.Write(p)
		if werr != nil {
			// Logging from the producer's own goroutine would run
			// arbitrary sink code on the capture callback; defer it
			// through the shared queue like every other publish.
			m.queue.Defer(func() { m.log.Warn("ring buffer write failed", "error", werr) })
			return
		}
		if n < len(p) {
			m.queue.Defer(func() {
				m.log.Warn("ring buffer overflow, audio dropped", "wanted", len(p), "wrote", n)
			})
		}
	})
	if err != nil {
		m.worker.Stop()
		return slerrors.Newf("starting microphone source: %w", err).
			Component("soundlevel.meter").
			Category(slerrors.CategoryAudio).
			Build()
	}
	return nil
}

// Stop halts capture and the pinned worker. Idempotent.
func (m *Meter) Stop() error {
	if !m.worker.IsRunning() {
		return nil
	}
	var err error
	if m.mic != nil {
		err = m.mic.Stop()
	}
	m.worker.Stop()
	return err
}

// IsRunning reports whether the worker's pinned goroutine is active.
func (m *Meter) IsRunning() bool { return m.worker.IsRunning() }

// IsOn reports whether the meter is currently accumulating/publishing (as
// opposed to muted via TurnOff).
func (m *Meter) IsOn() bool { return m.worker.IsOn() }

// TurnOn resumes normal accumulation and publishing, waking the pinned
// worker from its parked wait.
func (m *Meter) TurnOn() { m.worker.TurnOn() }

// TurnOff mutes the meter: the pinned worker parks instead of polling the
// ring buffer at full rate, every sensor immediately publishes NaN through
// the deferred queue and resets, as though its interval had elapsed with
// no signal, and further buffers are ignored by processBuffer until
// TurnOn. There is no "only publish when already on" guard — calling
// TurnOff while already off still re-publishes NaN and resets.
func (m *Meter) TurnOff() {
	m.worker.TurnOff()
	m.mu.Lock()
	sensors := append([]Sensor(nil), m.sensors...)
	m.mu.Unlock()
	for _, s := range sensors {
		s.PublishNaN(m.calib)
	}
}

// Toggle flips on/off state; Toggle composed with itself is the identity.
func (m *Meter) Toggle() {
	if m.IsOn() {
		m.TurnOff()
	} else {
		m.TurnOn()
	}
}

// RunMainLoop drains the deferred publish queue at up to DrainBudget
// closures, intended to be called from the host's own cooperative
// scheduler tick. It returns how many closures ran.
func (m *Meter) RunMainLoop(_ context.Context) int {
	return m.queue.Drain()
}

// QueueDepth reports the deferred publish queue's current length, for
// metrics.
func (m *Meter) QueueDepth() int { return m.queue.Len() }

func (m *Meter) processBuffer(eval *Evaluator, samples []float64) {
	if !m.IsOn() {
		return
	}
	m.mu.Lock()
	sensors := m.sensors
	m.mu.Unlock()
	eval.Process(samples, sensors, m.calib)
}
