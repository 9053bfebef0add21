// Package eventbus is a typed publish/subscribe registry keyed by event name.
//
// Emission is synchronous. Every listener of an emission runs in registration
// order on the emitting goroutine, and a failing listener never stops its
// siblings: errors and panics are reported to the bus error handler instead of
// the caller of Emit.
package eventbus

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
)

// Listener receives the payload of an emitted event.
// The dynamic type of a Listener must be comparable, the bus uses it as the
// identity of the subscription.
type Listener[P any] interface {
	HandleEvent(payload P) error
}

type funcListener[P any] struct {
	fn func(P) error
}

func (l *funcListener[P]) HandleEvent(payload P) error {
	return l.fn(payload)
}

// Func wraps fn into a Listener. Every call returns a new handle; keep it to
// unsubscribe later.
func Func[P any](fn func(P) error) Listener[P] {
	return &funcListener[P]{fn: fn}
}

// Handler is like Func for callbacks that cannot fail.
func Handler[P any](fn func(P)) Listener[P] {
	return &funcListener[P]{fn: func(p P) error {
		fn(p)
		return nil
	}}
}

// ListenerError is reported when a listener fails during an emission.
type ListenerError struct {
	Event string
	Err   error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("error in event listener for %s: %v", e.Event, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// ErrNotComparable is reported when a listener cannot serve as a subscription identity.
var ErrNotComparable = errors.New("listener type is not comparable")

type Option[K comparable] func(*config[K])

type config[K comparable] struct {
	logger  zLogger.ZLogger
	onError func(name K, err error)
}

// WithLogger sets the logger used by the default error handler.
func WithLogger[K comparable](logger zLogger.ZLogger) Option[K] {
	return func(c *config[K]) {
		c.logger = logger
	}
}

// WithErrorHandler replaces the default (logging) error handler.
func WithErrorHandler[K comparable](fn func(name K, err error)) Option[K] {
	return func(c *config[K]) {
		c.onError = fn
	}
}

// Bus is safe for concurrent use. Listeners are never called while the
// registry lock is held, so they may subscribe, unsubscribe or emit.
type Bus[K comparable, P any] struct {
	mu        sync.Mutex
	listeners map[K][]Listener[P]
	onError   func(name K, err error)
}

func New[K comparable, P any](opts ...Option[K]) *Bus[K, P] {
	cfg := &config[K]{}
	for _, opt := range opts {
		opt(cfg)
	}
	bus := &Bus[K, P]{
		listeners: make(map[K][]Listener[P]),
		onError:   cfg.onError,
	}
	if bus.onError == nil {
		logger := cfg.logger
		bus.onError = func(name K, err error) {
			if logger == nil {
				return
			}
			logger.Error().Err(err).Msgf("event listener for %v failed", name)
		}
	}
	return bus
}

// On registers l for name. Registering the same handle twice is a no-op.
func (b *Bus[K, P]) On(name K, l Listener[P]) {
	if l == nil {
		return
	}
	if t := reflect.TypeOf(l); !t.Comparable() {
		b.onError(name, errors.Wrapf(ErrNotComparable, "cannot subscribe %s", t))
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if slices.Contains(b.listeners[name], l) {
		return
	}
	b.listeners[name] = append(b.listeners[name], l)
}

// Off removes l from name. Removing an unknown listener is a no-op.
func (b *Bus[K, P]) Off(name K, l Listener[P]) {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.listeners[name]
	if !ok {
		return
	}
	idx := slices.Index(current, l)
	if idx < 0 {
		return
	}
	// never modify the backing array in place, an emission may be iterating over it
	next := slices.Concat(current[:idx], current[idx+1:])
	if len(next) == 0 {
		delete(b.listeners, name)
		return
	}
	b.listeners[name] = next
}

// Emit invokes the listeners registered for name at the moment of the call.
func (b *Bus[K, P]) Emit(name K, payload P) {
	b.mu.Lock()
	snapshot := b.listeners[name]
	b.mu.Unlock()
	for _, l := range snapshot {
		if err := b.invoke(l, payload); err != nil {
			b.onError(name, &ListenerError{Event: fmt.Sprint(name), Err: err})
		}
	}
}

func (b *Bus[K, P]) invoke(l Listener[P], payload P) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("listener panicked: %v", r)
		}
	}()
	return l.HandleEvent(payload)
}

// RemoveAll drops the listeners of the given names, or of every name if none are given.
func (b *Bus[K, P]) RemoveAll(names ...K) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(names) == 0 {
		clear(b.listeners)
		return
	}
	for _, name := range names {
		delete(b.listeners, name)
	}
}

func (b *Bus[K, P]) ListenerCount(name K) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[name])
}
