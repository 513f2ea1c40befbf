package soundlevel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishQueue_DrainRespectsBudget(t *testing.T) {
	q := NewPublishQueue()
	var ran int
	for i := 0; i < DrainBudget*3; i++ {
		q.Defer(func() { ran++ })
	}

	n := q.Drain()
	assert.Equal(t, DrainBudget, n)
	assert.Equal(t, DrainBudget, ran)
	assert.Equal(t, DrainBudget*2, q.Len())
}

func TestPublishQueue_DrainFIFOOrder(t *testing.T) {
	q := NewPublishQueue()
	var order []int
	for i := 0; i < DrainBudget; i++ {
		i := i
		q.Defer(func() { order = append(order, i) })
	}
	q.Drain()
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestPublishQueue_DrainEmptyIsNoop(t *testing.T) {
	q := NewPublishQueue()
	assert.Equal(t, 0, q.Drain())
}

func TestPublishQueue_ConcurrentDeferSafe(t *testing.T) {
	q := NewPublishQueue()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Defer(func() {})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, q.Len())
}
