package biquad

import "github.com/ambiosense/soundmeter/internal/slerrors"

// Chain is an ordered cascade of distinct biquad sections — the "SOS
// biquad cascade" of spec §3: each entry has its own coefficients and its
// own state, applied in declared order. A Chain's identity is by pointer:
// two sensors that reference the same *Chain share its filter state and
// must be evaluated consecutively by the DAG evaluator.
type Chain struct {
	filters []*Filter
}

// NewChain builds an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddFilter appends a section to the chain.
func (c *Chain) AddFilter(f *Filter) error {
	if f == nil {
		return slerrors.Newf("nil filter").
			Component("biquad").
			Category(slerrors.CategoryValidation).
			Build()
	}
	if f.IsZero() {
		return slerrors.Newf("uninitialized filter").
			Component("biquad").
			Category(slerrors.CategoryValidation).
			Build()
	}
	c.filters = append(c.filters, f)
	return nil
}

// Length returns the number of sections in the chain.
func (c *Chain) Length() int { return len(c.filters) }

// ApplyBatch runs buf through every section in declared order, in place.
func (c *Chain) ApplyBatch(buf []float64) {
	for _, f := range c.filters {
		f.ApplyBatch(buf)
	}
}

// Process is an alias for ApplyBatch, satisfying the soundlevel package's
// Filter contract (`process(buf)` in spec terms).
func (c *Chain) Process(buf []float64) { c.ApplyBatch(buf) }

// Reset zeroes the state of every section in the chain.
func (c *Chain) Reset() {
	for _, f := range c.filters {
		f.Reset()
	}
}
