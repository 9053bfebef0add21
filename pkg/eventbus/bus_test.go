package eventbus

import (
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

func (r *recorder) listener(name string) Listener[int] {
	return Handler(func(int) { r.calls = append(r.calls, name) })
}

func newTestBus(t *testing.T) (*Bus[string, int], *[]error) {
	t.Helper()
	var reported []error
	bus := New[string, int](WithErrorHandler(func(_ string, err error) {
		reported = append(reported, err)
	}))
	return bus, &reported
}

func TestBus_EmitInRegistrationOrder(t *testing.T) {
	bus, _ := newTestBus(t)
	rec := &recorder{}
	bus.On("play", rec.listener("a"))
	bus.On("play", rec.listener("b"))
	bus.On("play", rec.listener("c"))

	bus.Emit("play", 0)

	assert.Equal(t, []string{"a", "b", "c"}, rec.calls)
}

func TestBus_PassesPayload(t *testing.T) {
	bus, _ := newTestBus(t)
	var got int
	bus.On("timeupdate", Handler(func(v int) { got = v }))

	bus.Emit("timeupdate", 42)

	assert.Equal(t, 42, got)
}

func TestBus_SameListenerTwiceRunsOnce(t *testing.T) {
	bus, _ := newTestBus(t)
	calls := 0
	l := Handler(func(int) { calls++ })
	bus.On("play", l)
	bus.On("play", l)

	bus.Emit("play", 0)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, bus.ListenerCount("play"))
}

func TestBus_SameListenerOnDifferentEvents(t *testing.T) {
	bus, _ := newTestBus(t)
	calls := 0
	l := Handler(func(int) { calls++ })
	bus.On("play", l)
	bus.On("pause", l)

	bus.Emit("play", 0)
	bus.Emit("pause", 0)

	assert.Equal(t, 2, calls)
}

func TestBus_OffUnknownListenerIsNoop(t *testing.T) {
	bus, reported := newTestBus(t)
	bus.On("play", Handler(func(int) {}))

	bus.Off("play", Handler(func(int) {}))
	bus.Off("missing", Handler(func(int) {}))

	assert.Equal(t, 1, bus.ListenerCount("play"))
	assert.Empty(t, *reported)
}

func TestBus_OffStopsDelivery(t *testing.T) {
	bus, _ := newTestBus(t)
	calls := 0
	l := Handler(func(int) { calls++ })
	bus.On("play", l)
	bus.Emit("play", 0)

	bus.Off("play", l)
	bus.Emit("play", 0)
	bus.Emit("play", 0)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.ListenerCount("play"))
}

func TestBus_EmitWithoutListeners(t *testing.T) {
	bus, reported := newTestBus(t)

	assert.NotPanics(t, func() { bus.Emit("nobody", 1) })
	assert.Empty(t, *reported)
}

func TestBus_FailingListenerDoesNotStopSiblings(t *testing.T) {
	bus, reported := newTestBus(t)
	boom := errors.New("boom")
	secondCalls := 0
	bus.On("E", Func(func(int) error { return boom }))
	bus.On("E", Handler(func(int) { secondCalls++ }))

	bus.Emit("E", 0)

	assert.Equal(t, 1, secondCalls)
	require.Len(t, *reported, 1)
	var lerr *ListenerError
	require.True(t, errors.As((*reported)[0], &lerr))
	assert.Equal(t, "E", lerr.Event)
	assert.True(t, errors.Is(lerr, boom))
}

func TestBus_PanickingListenerIsIsolated(t *testing.T) {
	bus, reported := newTestBus(t)
	secondCalls := 0
	bus.On("E", Handler(func(int) { panic("listener exploded") }))
	bus.On("E", Handler(func(int) { secondCalls++ }))

	assert.NotPanics(t, func() { bus.Emit("E", 0) })
	assert.Equal(t, 1, secondCalls)
	require.Len(t, *reported, 1)
	assert.Contains(t, (*reported)[0].Error(), "listener exploded")
}

func TestBus_SelfRemovalDuringEmit(t *testing.T) {
	bus, _ := newTestBus(t)
	rec := &recorder{}
	var first Listener[int]
	first = Handler(func(int) {
		rec.calls = append(rec.calls, "first")
		bus.Off("E", first)
	})
	bus.On("E", first)
	bus.On("E", rec.listener("second"))

	bus.Emit("E", 0)
	bus.Emit("E", 0)

	assert.Equal(t, []string{"first", "second", "second"}, rec.calls)
}

func TestBus_SiblingRemovalDuringEmitUsesSnapshot(t *testing.T) {
	bus, _ := newTestBus(t)
	rec := &recorder{}
	second := rec.listener("second")
	bus.On("E", Handler(func(int) {
		rec.calls = append(rec.calls, "first")
		bus.Off("E", second)
	}))
	bus.On("E", second)

	bus.Emit("E", 0)
	assert.Equal(t, []string{"first", "second"}, rec.calls)

	bus.Emit("E", 0)
	assert.Equal(t, []string{"first", "second", "first"}, rec.calls)
}

func TestBus_SubscribeDuringEmitAppliesToNextEmission(t *testing.T) {
	bus, _ := newTestBus(t)
	rec := &recorder{}
	late := rec.listener("late")
	bus.On("E", Handler(func(int) {
		rec.calls = append(rec.calls, "early")
		bus.On("E", late)
	}))

	bus.Emit("E", 0)
	assert.Equal(t, []string{"early"}, rec.calls)

	bus.Emit("E", 0)
	assert.Equal(t, []string{"early", "early", "late"}, rec.calls)
}

func TestBus_RemoveAllForOneName(t *testing.T) {
	bus, _ := newTestBus(t)
	bus.On("play", Handler(func(int) {}))
	bus.On("play", Handler(func(int) {}))
	bus.On("pause", Handler(func(int) {}))

	bus.RemoveAll("play")

	assert.Equal(t, 0, bus.ListenerCount("play"))
	assert.Equal(t, 1, bus.ListenerCount("pause"))
}

func TestBus_RemoveAll(t *testing.T) {
	bus, _ := newTestBus(t)
	bus.On("play", Handler(func(int) {}))
	bus.On("pause", Handler(func(int) {}))

	bus.RemoveAll()

	assert.Equal(t, 0, bus.ListenerCount("play"))
	assert.Equal(t, 0, bus.ListenerCount("pause"))
}

type valueListener struct {
	calls *int
	tags  []string
}

func (v valueListener) HandleEvent(int) error {
	*v.calls++
	return nil
}

func TestBus_RejectsNonComparableListener(t *testing.T) {
	bus, reported := newTestBus(t)
	calls := 0

	bus.On("E", valueListener{calls: &calls, tags: []string{"x"}})
	bus.Emit("E", 0)

	assert.Equal(t, 0, calls)
	require.Len(t, *reported, 1)
	assert.True(t, errors.Is((*reported)[0], ErrNotComparable))
}

func TestBus_DefaultHandlerWithoutLogger(t *testing.T) {
	bus := New[string, int]()
	bus.On("E", Func(func(int) error { return errors.New("ignored") }))

	assert.NotPanics(t, func() { bus.Emit("E", 0) })
}
