package soundlevel

// DBFSOffset is 20*log10(sqrt(2)): a full-scale sine wave's peak amplitude
// is sqrt(2) times its RMS, so an RMS-based dB figure needs this much added
// to read 0 dBFS at full scale.
const DBFSOffset = 3.0103000620574683

// CalibrationContext is what a Sensor needs from its owning meter: turning
// a raw dB figure into a calibrated one, and deferring a publish closure to
// the main-loop queue. It stands in for the original component's friend-class
// access to its owning meter.
type CalibrationContext interface {
	AdjustDB(db float64, isRMS bool) float64
	Defer(fn func())
}

// Calibration holds the meter-wide calibration knobs and implements
// CalibrationContext. HasOffset/HasMicSensitivity distinguish "unset" from
// "explicitly zero", since a calibrated zero offset is a meaningful value.
type Calibration struct {
	Offset    float64
	HasOffset bool

	MicSensitivity    float64
	MicSensitivityRef float64
	HasMicSensitivity bool

	Queue *PublishQueue
}

// AdjustDB applies the calibration rules in order: dBFS reference
// correction (RMS quantities only), microphone sensitivity correction, then
// a flat offset.
func (c *Calibration) AdjustDB(db float64, isRMS bool) float64 {
	if isRMS {
		db += DBFSOffset
	}
	if c.HasMicSensitivity {
		db += c.MicSensitivityRef - c.MicSensitivity
	}
	if c.HasOffset {
		db += c.Offset
	}
	return db
}

// Defer forwards to the underlying publish queue.
func (c *Calibration) Defer(fn func()) {
	c.Queue.Defer(fn)
}
