package soundlevel

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_DrainsAndUnpacksBuffer(t *testing.T) {
	ring := NewRingBuffer(200, 32) // 16kHz * 2 bytes / 1000 = 32 bytes/ms
	var mu sync.Mutex
	var gotLen int

	w := NewWorker(WorkerConfig{
		SampleRate:  16000,
		SampleWidth: 2,
		BufferMs:    20,
	}, ring, func(_ *Evaluator, samples []float64) {
		mu.Lock()
		gotLen = len(samples)
		mu.Unlock()
	}, nil, nil)

	frameSamples := 16000 * 20 / 1000
	raw := make([]byte, frameSamples*2)
	for i := 0; i < frameSamples; i++ {
		binary.LittleEndian.PutUint16(raw[i*2:i*2+2], 1000)
	}
	_, err := ring.Write(raw)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotLen == frameSamples
	}, time.Second, 5*time.Millisecond)
}

type flakyMic struct {
	mu      sync.Mutex
	running bool
}

func (f *flakyMic) setRunning(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = v
}

func (f *flakyMic) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *flakyMic) Start(context.Context, func([]byte)) error { return nil }
func (f *flakyMic) Stop() error                               { return nil }
func (f *flakyMic) SampleRate() float64                       { return 16000 }
func (f *flakyMic) SampleWidth() int                          { return 2 }

func TestWorker_SourceDownResetsAccumulatorsInsteadOfTicking(t *testing.T) {
	ring := NewRingBuffer(200, 32)
	mic := &flakyMic{running: false}

	var mu sync.Mutex
	var tickCalls, resetCalls int

	w := NewWorker(WorkerConfig{
		SampleRate:  16000,
		SampleWidth: 2,
		BufferMs:    5,
	}, ring, func(*Evaluator, []float64) {
		mu.Lock()
		tickCalls++
		mu.Unlock()
	}, mic, func() {
		mu.Lock()
		resetCalls++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return resetCalls > 0
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Zero(t, tickCalls, "a down source must never reach the processing callback")
	mu.Unlock()

	mic.setRunning(true)
	raw := make([]byte, 16)
	_, err := ring.Write(raw)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return tickCalls > 0
	}, time.Second, 5*time.Millisecond, "worker must resume ticking once the source recovers")
}

func TestWorker_TurnOffParksLoopWithoutDrainingRing(t *testing.T) {
	ring := NewRingBuffer(200, 32)
	var mu sync.Mutex
	var tickCalls int

	w := NewWorker(WorkerConfig{
		SampleRate:  16000,
		SampleWidth: 2,
		BufferMs:    5,
	}, ring, func(*Evaluator, []float64) {
		mu.Lock()
		tickCalls++
		mu.Unlock()
	}, nil, nil)

	w.TurnOff()
	assert.False(t, w.IsOn())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Zero(t, tickCalls, "worker must not tick while parked off")
	mu.Unlock()

	w.TurnOn()
	assert.True(t, w.IsOn())
}

func TestWorker_StartIdempotent(t *testing.T) {
	ring := NewRingBuffer(200, 32)
	w := NewWorker(WorkerConfig{SampleRate: 16000, SampleWidth: 2, BufferMs: 20}, ring, func(*Evaluator, []float64) {}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)
	first := w.done
	w.Start(ctx) // no-op, must not replace the done channel
	assert.Equal(t, first, w.done)

	w.Stop()
	assert.False(t, w.IsRunning())
}
