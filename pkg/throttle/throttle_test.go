package throttle

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

type calls struct {
	mu     sync.Mutex
	values []int
}

func (c *calls) add(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
}

func (c *calls) get() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.values...)
}

func TestThrottle_FirstCallRunsImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &calls{}
	th := New(clock, 250*time.Millisecond, rec.add)

	th.Call(1)

	assert.Equal(t, []int{1}, rec.get())
}

func TestThrottle_CollapsesCallsInsideInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &calls{}
	th := New(clock, 250*time.Millisecond, rec.add)

	th.Call(1)
	th.Call(2)
	th.Call(3)
	assert.Equal(t, []int{1}, rec.get())

	clock.Advance(250 * time.Millisecond)

	assert.Eventually(t, func() bool { return len(rec.get()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{1, 3}, rec.get())
}

func TestThrottle_CallAfterIntervalRunsImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &calls{}
	th := New(clock, 250*time.Millisecond, rec.add)

	th.Call(1)
	clock.Advance(300 * time.Millisecond)
	th.Call(2)

	assert.Equal(t, []int{1, 2}, rec.get())
}

func TestThrottle_StopDropsPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &calls{}
	th := New(clock, 250*time.Millisecond, rec.add)

	th.Call(1)
	th.Call(2)
	th.Stop()
	clock.Advance(time.Second)
	th.Call(3)

	assert.Never(t, func() bool { return len(rec.get()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, []int{1}, rec.get())
}

func TestThrottle_InstancesAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a, b := &calls{}, &calls{}
	ta := New(clock, 250*time.Millisecond, a.add)
	tb := New(clock, 250*time.Millisecond, b.add)

	ta.Call(1)
	tb.Call(10)

	assert.Equal(t, []int{1}, a.get())
	assert.Equal(t, []int{10}, b.get())
}
