package soundlevel

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMic struct {
	mu      sync.Mutex
	started bool
	stopped int
}

func (f *fakeMic) Start(_ context.Context, _ func(p []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeMic) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	f.started = false
	return nil
}

func (f *fakeMic) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeMic) SampleRate() float64 { return 16000 }
func (f *fakeMic) SampleWidth() int    { return 2 }

func newTestMeter() (*Meter, *fakeMic) {
	mic := &fakeMic{}
	cfg := MeterConfig{
		SampleRate:  16000,
		SampleWidth: 2,
		BufferMs:    20,
		RingMs:      200,
		WarmupMs:    0,
		TaskCore:    0,
		PinAffinity: false,
	}
	return NewMeter(cfg, mic), mic
}

func TestMeter_StartStopIdempotent(t *testing.T) {
	m, mic := newTestMeter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Start(ctx))
	assert.True(t, m.IsRunning())
	assert.True(t, mic.started)

	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
	assert.False(t, m.IsRunning())
	assert.Equal(t, 1, mic.stopped, "Stop on the mic source should only fire once even though Meter.Stop is idempotent")
}

func TestMeter_ToggleIsSelfInverse(t *testing.T) {
	m, _ := newTestMeter()
	assert.True(t, m.IsOn())

	m.Toggle()
	assert.False(t, m.IsOn())

	m.Toggle()
	assert.True(t, m.IsOn())
}

func TestMeter_TurnOffPublishesNaN(t *testing.T) {
	m, _ := newTestMeter()

	var got float64
	var mu sync.Mutex
	s := NewEqSensor(SensorConfig{
		Name:       "eq",
		SampleRate: 16000,
		IntervalMs: testIntervalMs,
		Publish: func(_ string, db float64) {
			mu.Lock()
			got = db
			mu.Unlock()
		},
	})
	m.AddSensor(s)

	m.TurnOff()
	assert.False(t, m.IsOn())

	n := m.RunMainLoop(context.Background())
	assert.Equal(t, 1, n)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, math.IsNaN(got))
}

func TestMeter_ProcessBufferIgnoredWhileOff(t *testing.T) {
	m, _ := newTestMeter()

	var calls int
	s := NewEqSensor(SensorConfig{
		SampleRate: 16000,
		IntervalMs: testIntervalMs,
		Publish:    func(_ string, _ float64) { calls++ },
	})
	m.AddSensor(s)
	m.ensureSorted()

	m.TurnOff()
	m.processBuffer(NewEvaluator(10), make([]float64, 10))

	// TurnOff already deferred one NaN publish; processBuffer while off
	// must not add a second one.
	assert.Equal(t, 1, m.queue.Len())
}

func TestMeter_RunMainLoopRespectsBudget(t *testing.T) {
	m, _ := newTestMeter()
	for i := 0; i < DrainBudget+2; i++ {
		m.queue.Defer(func() {})
	}
	n := m.RunMainLoop(context.Background())
	assert.Equal(t, DrainBudget, n)
}

func TestWorker_StartStopWithinDeadline(t *testing.T) {
	m, _ := newTestMeter()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, m.Start(ctx))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, m.Stop())
	assert.False(t, m.IsRunning())
}
