package soundlevel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ambiosense/soundmeter/internal/cpuspec"
	"github.com/ambiosense/soundmeter/internal/dsp"
	"github.com/ambiosense/soundmeter/internal/logging"
)

// WorkerConfig configures the pinned worker goroutine that drains the ring
// buffer, unpacks samples, and walks the sensor DAG once per audio buffer.
type WorkerConfig struct {
	SampleRate  float64
	SampleWidth int // bytes per sample
	BufferMs    int // audio buffer duration the DAG evaluator runs per tick
	WarmupMs    int
	TaskCore    int // < 0 lets cpuspec recommend one
	PinAffinity bool
}

// processFunc is what the worker hands each unpacked audio buffer to.
type processFunc func(eval *Evaluator, samples []float64)

// Worker owns the pinned goroutine's lifecycle — bind, warmup, steady-state
// loop, teardown — grounded on the same bind/warmup/loop/teardown phases a
// dedicated capture thread goes through in the teacher's audio pipeline.
// Start/Stop are idempotent and safe to call from any goroutine; the pinned
// work itself runs on one dedicated goroutine that locks its OS thread
// before doing anything else.
type Worker struct {
	cfg          WorkerConfig
	ring         *RingBuffer
	eval         *Evaluator
	process      processFunc
	mic          MicrophoneSource // nil when driven directly (e.g. tests)
	onSourceDown func()           // resets accumulator state; may be nil

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}

	gateMu sync.Mutex
	gate   chan struct{} // closed while "on"; a fresh, open channel while "off"

	sourceWarned bool

	log *logging.Logger
}

// NewWorker creates a Worker. process is called once per drained audio
// buffer with the unpacked float64 samples. mic and onSourceDown may both
// be nil, in which case the worker never treats the source as down.
func NewWorker(cfg WorkerConfig, ring *RingBuffer, process processFunc, mic MicrophoneSource, onSourceDown func()) *Worker {
	frameCap := int(cfg.SampleRate * float64(cfg.BufferMs) / 1000)
	if frameCap < 1 {
		frameCap = 1
	}
	gate := make(chan struct{})
	close(gate) // on by default
	return &Worker{
		cfg:          cfg,
		ring:         ring,
		eval:         NewEvaluator(frameCap),
		process:      process,
		mic:          mic,
		onSourceDown: onSourceDown,
		gate:         gate,
		log:          logging.ForComponent("soundlevel.worker"),
	}
}

// Start launches the pinned goroutine if it is not already running.
// Idempotent: calling Start while already running is a no-op.
func (w *Worker) Start(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Stop signals the pinned goroutine to exit and blocks until teardown
// completes. Idempotent: calling Stop while already stopped is a no-op.
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stop)
	<-w.done
}

// IsRunning reports whether the worker's pinned goroutine is active.
func (w *Worker) IsRunning() bool { return w.running.Load() }

// TurnOn resumes the steady-state loop if it was parked by TurnOff.
// Level-triggered: a TurnOn that races with a not-yet-observed TurnOff
// still leaves the worker correctly "on" once both have applied, so no
// wakeup can be missed regardless of call order.
func (w *Worker) TurnOn() {
	w.gateMu.Lock()
	defer w.gateMu.Unlock()
	select {
	case <-w.gate:
		// already on
	default:
		close(w.gate)
	}
}

// TurnOff parks the steady-state loop: the worker stops draining the ring
// buffer and blocks until TurnOn, rather than spinning at full tick rate
// while muted.
func (w *Worker) TurnOff() {
	w.gateMu.Lock()
	defer w.gateMu.Unlock()
	select {
	case <-w.gate:
		w.gate = make(chan struct{})
	default:
		// already off
	}
}

// IsOn reports whether the worker is on, i.e. its steady-state loop is not
// parked by TurnOff.
func (w *Worker) IsOn() bool {
	select {
	case <-w.gateChan():
		return true
	default:
		return false
	}
}

func (w *Worker) gateChan() chan struct{} {
	w.gateMu.Lock()
	defer w.gateMu.Unlock()
	return w.gate
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	w.bind()
	w.warmup()

	frameSamples := int(w.cfg.SampleRate * float64(w.cfg.BufferMs) / 1000)
	if frameSamples < 1 {
		frameSamples = 1
	}
	raw := make([]byte, frameSamples*w.cfg.SampleWidth)
	samples := make([]float64, frameSamples)

	bufferPeriod := time.Duration(w.cfg.BufferMs) * time.Millisecond
	if bufferPeriod <= 0 {
		bufferPeriod = time.Millisecond
	}
	ticker := time.NewTicker(bufferPeriod)
	defer ticker.Stop()

	for {
		// Block here, not in the ticker select below, while muted: this
		// is the level-triggered condition-variable-style wait a turned
		// off meter needs, so a muted worker neither drains the ring
		// buffer nor busy-spins, and a racing TurnOn/TurnOff can never
		// leave it waiting on a gate nobody will ever close.
		select {
		case <-w.stop:
			w.teardown()
			return
		case <-ctx.Done():
			w.teardown()
			return
		case <-w.gateChan():
		}

		select {
		case <-w.stop:
			w.teardown()
			return
		case <-ctx.Done():
			w.teardown()
			return
		case <-ticker.C:
			if w.mic != nil && !w.mic.IsRunning() {
				w.handleSourceDown()
				continue
			}
			w.sourceWarned = false
			w.tick(raw, samples)
		}
	}
}

func (w *Worker) bind() {
	core := w.cfg.TaskCore
	if core < 0 {
		core = cpuspec.RecommendedWorkerCore()
	}
	if w.cfg.PinAffinity {
		if err := cpuspec.PinToCore(core); err != nil {
			w.log.Warn("could not pin worker to core, continuing unpinned", "core", core, "error", err)
		}
	}
	w.log.Info("worker bound", "core", core)
}

func (w *Worker) warmup() {
	if w.cfg.WarmupMs <= 0 {
		return
	}
	time.Sleep(time.Duration(w.cfg.WarmupMs) * time.Millisecond)
	w.log.Debug("worker warmup complete", "warmup_ms", w.cfg.WarmupMs)
}

func (w *Worker) teardown() {
	w.log.Info("worker stopped")
}

// handleSourceDown implements the steady-state loop's microphone-health
// branch: warn once per outage, reset every sensor's accumulated state as
// though the interval had elapsed with no signal, and let the next ticker
// fire stand in for sleeping one buffer duration before retrying.
func (w *Worker) handleSourceDown() {
	if !w.sourceWarned {
		w.log.Warn("microphone source reports not running")
		w.sourceWarned = true
	}
	if w.onSourceDown != nil {
		w.onSourceDown()
	}
}

func (w *Worker) tick(raw []byte, samples []float64) {
	n, err := w.ring.Read(raw)
	if err != nil {
		w.log.Warn("ring buffer read failed", "error", err)
		return
	}
	if n == 0 {
		return
	}
	count := n / w.cfg.SampleWidth
	if err := dsp.Unpack(samples[:count], raw[:n], w.cfg.SampleWidth); err != nil {
		w.log.Warn("sample unpack failed", "error", err)
		return
	}
	w.process(w.eval, samples[:count])
}
