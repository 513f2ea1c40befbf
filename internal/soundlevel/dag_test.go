package soundlevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFilter struct {
	calls int
	scale float64
}

func (f *countingFilter) Process(buf []float64) {
	f.calls++
	for i := range buf {
		buf[i] *= f.scale
	}
}
func (f *countingFilter) Reset() { f.calls = 0 }

type recordingSensor struct {
	filters []Filter
	name    string
	last    []float64
}

func (s *recordingSensor) FilterChain() []Filter { return s.filters }
func (s *recordingSensor) Process(buf []float64, _ CalibrationContext) {
	s.last = append([]float64(nil), buf...)
}
func (s *recordingSensor) Reset()                          {}
func (s *recordingSensor) PublishNaN(_ CalibrationContext) {}

func TestEvaluator_SharedPrefixRunsOnce(t *testing.T) {
	shared := &countingFilter{scale: 2}
	onlyA := &countingFilter{scale: 3}
	onlyB := &countingFilter{scale: 5}

	a := &recordingSensor{name: "a", filters: []Filter{shared, onlyA}}
	b := &recordingSensor{name: "b", filters: []Filter{shared, onlyB}}

	sensors := []Sensor{a, b}
	SortSensors(sensors)

	eval := NewEvaluator(4)
	eval.Process([]float64{1, 1, 1, 1}, sensors, &fakeCalib{})

	assert.Equal(t, 1, shared.calls, "shared filter prefix must run exactly once per buffer")
	assert.Equal(t, 1, onlyA.calls)
	assert.Equal(t, 1, onlyB.calls)
}

func TestEvaluator_MatchesIndependentPerSensorFiltering(t *testing.T) {
	shared := &countingFilter{scale: 2}
	onlyA := &countingFilter{scale: 3}
	onlyB := &countingFilter{scale: 5}

	a := &recordingSensor{filters: []Filter{shared, onlyA}}
	b := &recordingSensor{filters: []Filter{shared, onlyB}}
	sensors := []Sensor{a, b}
	SortSensors(sensors)

	eval := NewEvaluator(4)
	input := []float64{1, 2, 3, 4}
	eval.Process(append([]float64(nil), input...), sensors, &fakeCalib{})

	expectedA := make([]float64, len(input))
	expectedB := make([]float64, len(input))
	for i, x := range input {
		expectedA[i] = x * 2 * 3
		expectedB[i] = x * 2 * 5
	}

	assert.Equal(t, expectedA, a.last)
	assert.Equal(t, expectedB, b.last)
}

func TestEvaluator_EmptyFilterChainUsesRawBuffer(t *testing.T) {
	s := &recordingSensor{filters: nil}
	eval := NewEvaluator(4)
	eval.Process([]float64{1, 2, 3}, []Sensor{s}, &fakeCalib{})
	assert.Equal(t, []float64{1, 2, 3}, s.last)
}

func TestSortSensors_GroupsSharedPrefixAdjacent(t *testing.T) {
	shared := &countingFilter{}
	solo := &countingFilter{}

	a := &recordingSensor{name: "a", filters: []Filter{shared}}
	b := &recordingSensor{name: "b", filters: []Filter{solo}}
	c := &recordingSensor{name: "c", filters: []Filter{shared}}

	sensors := []Sensor{a, b, c}
	SortSensors(sensors)

	// Both sensors referencing `shared` must end up adjacent regardless of
	// their original order.
	var sharedIdx []int
	for i, s := range sensors {
		if len(s.FilterChain()) == 1 && s.FilterChain()[0] == Filter(shared) {
			sharedIdx = append(sharedIdx, i)
		}
	}
	require.Len(t, sharedIdx, 2)
	assert.Equal(t, 1, sharedIdx[1]-sharedIdx[0])
}
