package soundlevel

import "math"

// MaxSensor tracks the loudest windowed mean-square value seen during its
// update interval: each WindowMs-long slice of audio contributes one
// windowed mean square, and the interval publishes whichever window was
// loudest, as 10*log10(extremum).
type MaxSensor struct {
	cfg SensorConfig

	windowSum     float64
	windowSamples int

	extremum float64
	samples  int
}

// NewMaxSensor creates a Max accumulator.
func NewMaxSensor(cfg SensorConfig) *MaxSensor {
	s := &MaxSensor{cfg: cfg}
	s.resetExtremum()
	return s
}

func (s *MaxSensor) resetExtremum() { s.extremum = math.SmallestNonzeroFloat64 }

// FilterChain returns the sensor's filter chain, in DAG evaluation order.
func (s *MaxSensor) FilterChain() []Filter { return s.cfg.Filters }

// Process folds buf into the current window(s) sample by sample, deferring
// a calibrated publish of the loudest window and resetting every time the
// interval boundary is crossed — a single buffer may span any number of
// intervals.
func (s *MaxSensor) Process(buf []float64, calib CalibrationContext) {
	win := s.cfg.windowSamples()
	interval := s.cfg.intervalSamples()
	for _, x := range buf {
		s.windowSum += x * x
		s.windowSamples++
		if s.windowSamples == win {
			meanSquare := s.windowSum / float64(s.windowSamples)
			if meanSquare > s.extremum {
				s.extremum = meanSquare
			}
			s.windowSum, s.windowSamples = 0, 0
		}

		s.samples++
		if s.samples == interval {
			db := calib.AdjustDB(10*math.Log10(s.extremum), true)
			cfg := s.cfg
			calib.Defer(func() { cfg.publish(db) })
			s.samples = 0
			s.resetExtremum()
		}
	}
}

// Reset discards the current interval's accumulated state.
func (s *MaxSensor) Reset() {
	s.windowSum, s.windowSamples = 0, 0
	s.samples = 0
	s.resetExtremum()
}

// PublishNaN defers a NaN publish and resets, as though the interval had
// elapsed with no signal.
func (s *MaxSensor) PublishNaN(calib CalibrationContext) {
	cfg := s.cfg
	calib.Defer(func() { cfg.publish(math.NaN()) })
	s.Reset()
}

// MinSensor is MaxSensor's mirror: it publishes the quietest windowed mean
// square seen during the interval rather than the loudest.
type MinSensor struct {
	cfg SensorConfig

	windowSum     float64
	windowSamples int

	extremum float64
	samples  int
}

// NewMinSensor creates a Min accumulator.
func NewMinSensor(cfg SensorConfig) *MinSensor {
	s := &MinSensor{cfg: cfg}
	s.resetExtremum()
	return s
}

func (s *MinSensor) resetExtremum() { s.extremum = math.MaxFloat64 }

// FilterChain returns the sensor's filter chain, in DAG evaluation order.
func (s *MinSensor) FilterChain() []Filter { return s.cfg.Filters }

// Process folds buf into the current window(s) sample by sample, deferring
// a calibrated publish of the quietest window and resetting every time the
// interval boundary is crossed — a single buffer may span any number of
// intervals.
func (s *MinSensor) Process(buf []float64, calib CalibrationContext) {
	win := s.cfg.windowSamples()
	interval := s.cfg.intervalSamples()
	for _, x := range buf {
		s.windowSum += x * x
		s.windowSamples++
		if s.windowSamples == win {
			meanSquare := s.windowSum / float64(s.windowSamples)
			if meanSquare < s.extremum {
				s.extremum = meanSquare
			}
			s.windowSum, s.windowSamples = 0, 0
		}

		s.samples++
		if s.samples == interval {
			db := calib.AdjustDB(10*math.Log10(s.extremum), true)
			cfg := s.cfg
			calib.Defer(func() { cfg.publish(db) })
			s.samples = 0
			s.resetExtremum()
		}
	}
}

// Reset discards the current interval's accumulated state.
func (s *MinSensor) Reset() {
	s.windowSum, s.windowSamples = 0, 0
	s.samples = 0
	s.resetExtremum()
}

// PublishNaN defers a NaN publish and resets, as though the interval had
// elapsed with no signal.
func (s *MinSensor) PublishNaN(calib CalibrationContext) {
	cfg := s.cfg
	calib.Defer(func() { cfg.publish(math.NaN()) })
	s.Reset()
}
