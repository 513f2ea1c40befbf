package soundlevel

import "math"

// PeakSensor tracks the largest absolute sample value seen during its
// update interval, published as 20*log10(peak) — a true instantaneous peak,
// never windowed or averaged, and calibrated as a non-RMS quantity.
type PeakSensor struct {
	cfg SensorConfig

	peak    float64
	samples int
}

// NewPeakSensor creates a Peak accumulator.
func NewPeakSensor(cfg SensorConfig) *PeakSensor {
	return &PeakSensor{cfg: cfg}
}

// FilterChain returns the sensor's filter chain, in DAG evaluation order.
func (s *PeakSensor) FilterChain() []Filter { return s.cfg.Filters }

// Process folds buf into the running peak sample by sample, deferring a
// calibrated publish and resetting every time the interval boundary is
// crossed — a single buffer may span any number of intervals.
func (s *PeakSensor) Process(buf []float64, calib CalibrationContext) {
	interval := s.cfg.intervalSamples()
	for _, x := range buf {
		if a := math.Abs(x); a > s.peak {
			s.peak = a
		}

		s.samples++
		if s.samples == interval {
			db := calib.AdjustDB(20*math.Log10(s.peak), false)
			cfg := s.cfg
			calib.Defer(func() { cfg.publish(db) })
			s.samples = 0
			s.peak = 0
		}
	}
}

// Reset discards the current interval's accumulated state.
func (s *PeakSensor) Reset() {
	s.peak = 0
	s.samples = 0
}

// PublishNaN defers a NaN publish and resets, as though the interval had
// elapsed with no signal.
func (s *PeakSensor) PublishNaN(calib CalibrationContext) {
	cfg := s.cfg
	calib.Defer(func() { cfg.publish(math.NaN()) })
	s.Reset()
}
