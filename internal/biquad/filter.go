// Package biquad implements cascaded second-order-section (SOS) IIR filters
// used by the sound level meter's DSP filter DAG.
package biquad

import (
	"math"

	"github.com/ambiosense/soundmeter/internal/slerrors"
)

// Kind names a filter's design shape. It has no effect on the numerics at
// process time; it only documents how the coefficients were derived.
type Kind string

const (
	LowPass   Kind = "lowpass"
	HighPass  Kind = "highpass"
	BandPass  Kind = "bandpass"
	Peaking   Kind = "peaking"
	LowShelf  Kind = "lowshelf"
	HighShelf Kind = "highshelf"
	Custom    Kind = "custom"
)

// Filter is one biquad section, optionally cascaded `passes` times with
// itself (used to raise filter order, e.g. two passes of an RBJ low-pass
// approximate a 4th-order Butterworth). It runs Direct-Form-II-Transposed:
//
//	y   = b0*x + s0
//	s0' = b1*x - a1*y + s1
//	s1' = b2*x - a2*y
//
// Each pass keeps its own pair of state words so repeated application does
// not share history across passes.
type Filter struct {
	name Kind

	// Normalized coefficients (a0 folded in).
	b0a0, b1a0, b2a0 float64
	a1a0, a2a0       float64

	// Per-pass DF2T state: in1/in2 hold s0/s1, out1/out2 mirror the most
	// recently produced pair for introspection.
	in1, in2, out1, out2 []float64
}

// NewFilter builds a Filter directly from raw biquad coefficients
// {b0, b1, b2, a0, a1, a2}, cascaded `passes` times.
func NewFilter(name Kind, a0, a1, a2, b0, b1, b2 float64, passes int) *Filter {
	if passes < 1 {
		passes = 1
	}
	return &Filter{
		name: name,
		b0a0: b0 / a0,
		b1a0: b1 / a0,
		b2a0: b2 / a0,
		a1a0: a1 / a0,
		a2a0: a2 / a0,
		in1:  make([]float64, passes),
		in2:  make([]float64, passes),
		out1: make([]float64, passes),
		out2: make([]float64, passes),
	}
}

// IsZero reports whether f is the uninitialized zero value.
func (f *Filter) IsZero() bool {
	return f == nil || len(f.in1) == 0
}

// Passes returns the number of cascaded sections.
func (f *Filter) Passes() int { return len(f.in1) }

// ApplyBatch filters buf in place, preserving length, running the signal
// through Passes() cascaded identical sections.
func (f *Filter) ApplyBatch(buf []float64) {
	b0, b1, b2 := f.b0a0, f.b1a0, f.b2a0
	a1, a2 := f.a1a0, f.a2a0
	for p := range f.in1 {
		s0, s1 := f.in1[p], f.in2[p]
		for i, x := range buf {
			y := b0*x + s0
			s0 = b1*x - a1*y + s1
			s1 = b2*x - a2*y
			buf[i] = y
		}
		f.in1[p], f.in2[p] = s0, s1
		f.out1[p], f.out2[p] = s0, s1
	}
}

// Process is an alias for ApplyBatch, satisfying the soundlevel package's
// Filter contract (`process(buf)` in spec terms).
func (f *Filter) Process(buf []float64) { f.ApplyBatch(buf) }

// Reset zeroes all section state across all passes.
func (f *Filter) Reset() {
	for i := range f.in1 {
		f.in1[i], f.in2[i], f.out1[i], f.out2[i] = 0, 0, 0, 0
	}
}

func newBiquad(name Kind, sampleRate, freq, q float64, passes int, coeff func(w0, alpha float64) (a0, a1, a2, b0, b1, b2 float64)) (*Filter, error) {
	if sampleRate <= 0 || freq <= 0 || q <= 0 {
		return nil, slerrors.Newf("invalid filter parameters: sampleRate=%v freq=%v q=%v", sampleRate, freq, q).
			Component("biquad").
			Category(slerrors.CategoryValidation).
			Build()
	}
	if passes < 1 {
		return nil, slerrors.Newf("invalid pass count: %d", passes).
			Component("biquad").
			Category(slerrors.CategoryValidation).
			Build()
	}
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	a0, a1, a2, b0, b1, b2 := coeff(w0, alpha)
	return NewFilter(name, a0, a1, a2, b0, b1, b2, passes), nil
}

// NewLowPass builds an RBJ low-pass biquad (standard audio-EQ-cookbook form).
func NewLowPass(sampleRate, freq, q float64, passes int) (*Filter, error) {
	return newBiquad(LowPass, sampleRate, freq, q, passes, func(w0, alpha float64) (a0, a1, a2, b0, b1, b2 float64) {
		cosw0 := math.Cos(w0)
		b1 = 1 - cosw0
		b0 = b1 / 2
		b2 = b0
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
		return
	})
}

// NewHighPass builds an RBJ high-pass biquad.
func NewHighPass(sampleRate, freq, q float64, passes int) (*Filter, error) {
	return newBiquad(HighPass, sampleRate, freq, q, passes, func(w0, alpha float64) (a0, a1, a2, b0, b1, b2 float64) {
		cosw0 := math.Cos(w0)
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = b0
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
		return
	})
}

// NewBandPass builds an RBJ constant-skirt-gain band-pass biquad.
func NewBandPass(sampleRate, freq, q float64, passes int) (*Filter, error) {
	return newBiquad(BandPass, sampleRate, freq, q, passes, func(w0, alpha float64) (a0, a1, a2, b0, b1, b2 float64) {
		cosw0 := math.Cos(w0)
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
		return
	})
}

// NewPeaking builds an RBJ peaking-EQ biquad with gainDB of boost/cut.
func NewPeaking(sampleRate, freq, q, gainDB float64, passes int) (*Filter, error) {
	a := math.Pow(10, gainDB/40)
	return newBiquad(Peaking, sampleRate, freq, q, passes, func(w0, alpha float64) (a0, a1, a2, b0, b1, b2 float64) {
		cosw0 := math.Cos(w0)
		b0 = 1 + alpha*a
		b1 = -2 * cosw0
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosw0
		a2 = 1 - alpha/a
		return
	})
}

// NewLowShelf builds an RBJ low-shelf biquad with gainDB of boost/cut and
// shelf slope q.
func NewLowShelf(sampleRate, freq, q, gainDB float64, passes int) (*Filter, error) {
	a := math.Pow(10, gainDB/40)
	return newBiquad(LowShelf, sampleRate, freq, q, passes, func(w0, alpha float64) (a0, a1, a2, b0, b1, b2 float64) {
		cosw0 := math.Cos(w0)
		sqrtA := math.Sqrt(a)
		b0 = a * ((a + 1) - (a-1)*cosw0 + 2*sqrtA*alpha)
		b1 = 2 * a * ((a - 1) - (a+1)*cosw0)
		b2 = a * ((a + 1) - (a-1)*cosw0 - 2*sqrtA*alpha)
		a0 = (a + 1) + (a-1)*cosw0 + 2*sqrtA*alpha
		a1 = -2 * ((a - 1) + (a+1)*cosw0)
		a2 = (a + 1) + (a-1)*cosw0 - 2*sqrtA*alpha
		return
	})
}

// NewHighShelf builds an RBJ high-shelf biquad with gainDB of boost/cut and
// shelf slope q.
func NewHighShelf(sampleRate, freq, q, gainDB float64, passes int) (*Filter, error) {
	a := math.Pow(10, gainDB/40)
	return newBiquad(HighShelf, sampleRate, freq, q, passes, func(w0, alpha float64) (a0, a1, a2, b0, b1, b2 float64) {
		cosw0 := math.Cos(w0)
		sqrtA := math.Sqrt(a)
		b0 = a * ((a + 1) + (a-1)*cosw0 + 2*sqrtA*alpha)
		b1 = -2 * a * ((a - 1) + (a+1)*cosw0)
		b2 = a * ((a + 1) + (a-1)*cosw0 - 2*sqrtA*alpha)
		a0 = (a + 1) - (a-1)*cosw0 + 2*sqrtA*alpha
		a1 = 2 * ((a - 1) - (a+1)*cosw0)
		a2 = (a + 1) - (a-1)*cosw0 - 2*sqrtA*alpha
		return
	})
}

// SOSCoeffs is one section of an explicit second-order-section cascade,
// given as {b0, b1, b2, a1, a2} with a0 implicitly normalized to 1 — the
// form fixed weighting-curve tables (A-weighting, C-weighting) are usually
// published in.
type SOSCoeffs [5]float64

// NewSOSSection builds a single-pass Filter from one explicit section.
func NewSOSSection(c SOSCoeffs) *Filter {
	return NewFilter(Custom, 1, c[3], c[4], c[0], c[1], c[2], 1)
}
