package soundlevel

// defaultWindowMs is the Max/Min inner window length used when a
// SensorConfig leaves WindowMs unset.
const defaultWindowMs = 125

// SensorConfig configures one accumulator: its name (for the Publish
// callback), sample rate, publish interval, Max/Min inner window, filter
// chain, and the callback that receives its calibrated dB value.
type SensorConfig struct {
	Name       string
	SampleRate float64
	IntervalMs int
	WindowMs   int
	Filters    []Filter
	Publish    func(name string, db float64)
}

func (c SensorConfig) intervalSamples() int {
	return int(float64(c.IntervalMs) / 1000 * c.SampleRate)
}

func (c SensorConfig) windowSamples() int {
	w := c.WindowMs
	if w <= 0 {
		w = defaultWindowMs
	}
	n := int(float64(w) / 1000 * c.SampleRate)
	if n < 1 {
		n = 1
	}
	return n
}

func (c SensorConfig) publish(db float64) {
	if c.Publish != nil {
		c.Publish(c.Name, db)
	}
}
