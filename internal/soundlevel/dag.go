// Package soundlevel implements the sound level meter's core: a DAG of
// shared biquad filters feeding Eq/Max/Min/Peak statistical accumulators,
// a producer/consumer ring buffer, a pinned worker goroutine, and a
// cooperative main-loop publish queue.
package soundlevel

import (
	"reflect"
	"sort"

	"github.com/ambiosense/soundmeter/internal/dsp"
)

// Filter is anything that can process an audio buffer in place and reset
// its internal state; *biquad.Filter and *biquad.Chain both satisfy it.
type Filter interface {
	Process(buf []float64)
	Reset()
}

// Sensor is one statistical accumulator (Eq/Max/Min/Peak) attached to a
// filter chain. FilterChain's return value's identity (not its contents) is
// what the DAG evaluator compares across sensors, so two sensors sharing
// filter state must return the same backing Filter values at the shared
// positions.
type Sensor interface {
	FilterChain() []Filter
	Process(buf []float64, calib CalibrationContext)
	Reset()
	// PublishNaN immediately defers a NaN publish through calib and
	// resets accumulated state, as though the update interval had
	// elapsed with no signal. Used when the meter is toggled off.
	PublishNaN(calib CalibrationContext)
}

func filterID(f Filter) uintptr {
	return reflect.ValueOf(f).Pointer()
}

// SortSensors orders sensors so that any two sharing a filter-chain prefix
// become adjacent — the precondition the DAG evaluator's common-prefix walk
// depends on. The order itself (by filter pointer identity) is otherwise
// arbitrary but stable for the lifetime of the process.
func SortSensors(sensors []Sensor) {
	sort.SliceStable(sensors, func(i, j int) bool {
		a, b := sensors[i].FilterChain(), sensors[j].FilterChain()
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] == b[k] {
				continue
			}
			return filterID(a[k]) < filterID(b[k])
		}
		return len(a) < len(b)
	})
}

func commonPrefixLen(a, b []Filter) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// Evaluator walks a pre-sorted sensor list once per audio buffer over a
// shared dsp.BufferStack, so that any filter prefix common to consecutive
// sensors in the sort order runs at most once per buffer.
type Evaluator struct {
	stack *dsp.BufferStack
}

// NewEvaluator creates an Evaluator whose buffer stack's base frame is
// seeded with capacity for frameCap samples; deeper frames are allocated on
// first push.
func NewEvaluator(frameCap int) *Evaluator {
	return &Evaluator{stack: dsp.NewBufferStack(frameCap)}
}

// Process runs buf through every sensor's filter chain and accumulator.
// sensors must already be ordered via SortSensors; Process does not sort
// them itself since doing so on every buffer would cost more than the
// shared-prefix optimization saves.
func (e *Evaluator) Process(buf []float64, sensors []Sensor, calib CalibrationContext) {
	e.stack.Reset(buf)
	var prev []Filter
	for _, s := range sensors {
		cur := s.FilterChain()
		common := commonPrefixLen(prev, cur)
		for e.stack.Depth() > common {
			_ = e.stack.Pop()
		}
		for i := common; i < len(cur); i++ {
			frame := e.stack.Push()
			cur[i].Process(frame)
		}
		s.Process(e.stack.Current(), calib)
		prev = cur
	}
}
