package soundlevel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxSensor_PicksLoudestWindow(t *testing.T) {
	const sr = 1000.0
	var got float64
	cfg := SensorConfig{
		SampleRate: sr,
		IntervalMs: testIntervalMs,
		WindowMs:   100, // 100 samples/window at 1kHz
		Publish:    func(name string, db float64) { got = db },
	}
	s := NewMaxSensor(cfg)
	calib := &fakeCalib{}

	total := int(sr * (testIntervalMs / 1000.0))
	buf := make([]float64, total)
	// Second window (samples 100..199) is loud, the rest is silent.
	for i := 100; i < 200; i++ {
		buf[i] = 1.0
	}
	s.Process(buf, calib)
	require.Len(t, calib.deferred, 1)
	calib.runAll()

	assert.InDelta(t, DBFSOffset, got, 1e-6, "loudest window should dominate, not the average")
}

func TestMinSensor_PicksQuietestWindow(t *testing.T) {
	const sr = 1000.0
	var got float64
	cfg := SensorConfig{
		SampleRate: sr,
		IntervalMs: testIntervalMs,
		WindowMs:   100,
		Publish:    func(name string, db float64) { got = db },
	}
	s := NewMinSensor(cfg)
	calib := &fakeCalib{}

	total := int(sr * (testIntervalMs / 1000.0))
	buf := make([]float64, total)
	for i := range buf {
		buf[i] = 1.0
	}
	// One silent window among otherwise full-scale windows.
	for i := 300; i < 400; i++ {
		buf[i] = 0
	}
	s.Process(buf, calib)
	require.Len(t, calib.deferred, 1)
	calib.runAll()

	assert.True(t, math.IsInf(got, -1) || got < DBFSOffset-20, "quietest (silent) window should dominate the min")
}

func TestMaxSensor_ResetRestoresSentinelExtremum(t *testing.T) {
	s := NewMaxSensor(SensorConfig{SampleRate: 1000, IntervalMs: testIntervalMs, WindowMs: 100})
	s.Process(make([]float64, 200), &fakeCalib{})
	s.Reset()
	assert.Equal(t, math.SmallestNonzeroFloat64, s.extremum)
}

func TestMinSensor_ResetRestoresSentinelExtremum(t *testing.T) {
	s := NewMinSensor(SensorConfig{SampleRate: 1000, IntervalMs: testIntervalMs, WindowMs: 100})
	s.Process(make([]float64, 200), &fakeCalib{})
	s.Reset()
	assert.Equal(t, math.MaxFloat64, s.extremum)
}
