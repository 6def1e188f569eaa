package jotai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errNilObservable = errors.New("observable factory returned a nil source")

// ObservableOption configures a composed observable atom.
type ObservableOption[T any] func(*bridgeConfig[T])

type bridgeConfig[T any] struct {
	initial func() T
	timeout time.Duration
}

// WithInitialValue seeds the composed atom with a literal value so the first
// read resolves without waiting for the source. A source that emits
// synchronously on subscribe still wins over the seed.
func WithInitialValue[T any](v T) ObservableOption[T] {
	return func(cfg *bridgeConfig[T]) {
		cfg.initial = func() T { return v }
	}
}

// WithInitialValueFunc is WithInitialValue with a zero-argument producer,
// invoked once per attachment.
func WithInitialValueFunc[T any](fn func() T) ObservableOption[T] {
	return func(cfg *bridgeConfig[T]) {
		cfg.initial = fn
	}
}

// WithIdleTimeout releases an attachment's subscription if the composed atom
// is still unobserved when d elapses. The pending first-value slot is not
// resolved; a read after expiry blocks until its context is done.
func WithIdleTimeout[T any](d time.Duration) ObservableOption[T] {
	return func(cfg *bridgeConfig[T]) {
		cfg.timeout = d
	}
}

// deliveryGate is the single-use pending-resolution slot for an attachment's
// first result: Open until the first delivery, permanently Closed after.
type deliveryGate[T any] struct {
	mu     sync.Mutex
	done   chan struct{}
	result Result[T]
	closed bool
}

func newDeliveryGate[T any]() *deliveryGate[T] {
	return &deliveryGate[T]{done: make(chan struct{})}
}

// resolve closes the gate with r, reporting false if it was already closed.
func (g *deliveryGate[T]) resolve(r Result[T]) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return false
	}
	g.result = r
	g.closed = true
	close(g.done)
	return true
}

// await blocks until the gate closes or ctx is done. A gate that never
// closes (silent source, or subscription torn down by the idle timeout)
// blocks until the caller's context expires.
func (g *deliveryGate[T]) await(ctx context.Context) (Result[T], error) {
	select {
	case <-g.done:
		return g.result, nil
	default:
	}

	select {
	case <-g.done:
		return g.result, nil
	case <-ctx.Done():
		var zero Result[T]
		return zero, ctx.Err()
	}
}

// bridgeHub holds the per-store write capability for the direct cell. The
// setter exists only between observe and unobserve notifications.
type bridgeHub[T any] struct {
	mu      sync.Mutex
	setters map[*Store]func(Result[T])
}

func (h *bridgeHub[T]) install(s *Store, set func(Result[T])) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setters[s] = set
}

func (h *bridgeHub[T]) clear(s *Store) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.setters, s)
}

func (h *bridgeHub[T]) setter(s *Store) func(Result[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.setters[s]
}

func (h *bridgeHub[T]) observed(s *Store) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.setters[s]
	return ok
}

// attachment bundles one subscription, one delivery gate, and an optional
// idle timer. All three are created together by the bridge atom's factory
// and torn down together: on recomputation (via cleanup), on the composed
// atom becoming unobserved, or on idle-timer expiry.
type attachment[T any] struct {
	id    uuid.UUID
	hub   *bridgeHub[T]
	store *Store
	gate  *deliveryGate[T]

	mu       sync.Mutex
	sub      Subscription
	timer    *time.Timer
	last     *Result[T]
	released bool
}

// deliver routes one emission: the open gate wins, then the mounted direct
// cell, otherwise the emission is dropped. Emissions on a released
// attachment land nowhere.
func (a *attachment[T]) deliver(r Result[T]) {
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return
	}
	saved := r
	a.last = &saved
	a.mu.Unlock()

	if a.gate.resolve(r) {
		return
	}
	if set := a.hub.setter(a.store); set != nil {
		set(r)
	}
}

func (a *attachment[T]) await(ctx context.Context) (Result[T], error) {
	return a.gate.await(ctx)
}

// mount stops the idle timer and replays the last delivered result into the
// direct cell so a late observer sees the current value.
func (a *attachment[T]) mount(set func(Result[T])) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	last := a.last
	released := a.released
	a.mu.Unlock()

	if !released && last != nil {
		set(*last)
	}
}

// expire is the idle-timeout path: it releases the subscription only. The
// gate stays open, so a later read blocks until its context is done.
func (a *attachment[T]) expire() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.timer = nil
	if a.released || a.sub == nil {
		return
	}
	a.sub.Unsubscribe()
	a.sub = nil
}

// release tears the attachment down. It is idempotent and never invokes the
// subscription's Unsubscribe more than once.
func (a *attachment[T]) release() error {
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return nil
	}
	a.released = true
	sub := a.sub
	a.sub = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	return nil
}

// directState is the direct cell's value: the latest source- or
// caller-delivered result, or unset.
type directState[T any] struct {
	result Result[T]
	set    bool
}

// FromObservable creates a composed atom over a push-based source. Reading
// the atom attaches to the source and blocks until the first value or error
// arrives; once the atom is watched, later emissions are visible on the next
// read without blocking. Updates on the atom write through to the current
// value while watched and are silently ignored otherwise.
func FromObservable[T any](source func(*ReadCtx) (Observable[T], error), opts ...ObservableOption[T]) *Atom[T] {
	return newObservableAtom(nil, source, opts...)
}

// FromObservable1 is FromObservable with one declared dependency. When the
// dependency is reactive, updating it tears down the current attachment and
// the next read re-attaches.
func FromObservable1[T any, D1 any](
	d1 Dependency,
	source func(*ReadCtx, *Controller[D1]) (Observable[T], error),
	opts ...ObservableOption[T],
) *Atom[T] {
	return newObservableAtom([]Dependency{d1}, func(rc *ReadCtx) (Observable[T], error) {
		ctrl1 := &Controller[D1]{
			atom:  d1.Atom().(*Atom[D1]),
			store: rc.store,
		}
		return source(rc, ctrl1)
	}, opts...)
}

// FromObservable2 is FromObservable with two declared dependencies.
func FromObservable2[T any, D1 any, D2 any](
	d1 Dependency,
	d2 Dependency,
	source func(*ReadCtx, *Controller[D1], *Controller[D2]) (Observable[T], error),
	opts ...ObservableOption[T],
) *Atom[T] {
	return newObservableAtom([]Dependency{d1, d2}, func(rc *ReadCtx) (Observable[T], error) {
		ctrl1 := &Controller[D1]{
			atom:  d1.Atom().(*Atom[D1]),
			store: rc.store,
		}
		ctrl2 := &Controller[D2]{
			atom:  d2.Atom().(*Atom[D2]),
			store: rc.store,
		}
		return source(rc, ctrl1, ctrl2)
	}, opts...)
}

func newObservableAtom[T any](deps []Dependency, source func(*ReadCtx) (Observable[T], error), opts ...ObservableOption[T]) *Atom[T] {
	cfg := bridgeConfig[T]{}
	for _, opt := range opts {
		opt(&cfg)
	}

	hub := &bridgeHub[T]{setters: make(map[*Store]func(Result[T]))}

	direct := Provide(func(*ReadCtx) (directState[T], error) {
		return directState[T]{}, nil
	})

	bridge := &Atom[*attachment[T]]{
		deps: deps,
		tags: make(map[any]any),
		factory: func(rc *ReadCtx) (*attachment[T], error) {
			src, err := source(rc)
			if err != nil {
				return nil, err
			}
			if src == nil {
				return nil, errNilObservable
			}
			src = CanonicalOf(src)

			s := rc.Store()

			// A fresh attachment starts from a clean direct cell; a stale
			// result from the prior attachment must not satisfy a read
			// against this one.
			s.invalidate(direct)

			att := &attachment[T]{
				id:    uuid.New(),
				hub:   hub,
				store: s,
				gate:  newDeliveryGate[T](),
			}
			rc.OnCleanup(att.release)

			sub, err := src.Subscribe(Observer[T]{
				Next: func(v T) {
					att.deliver(ValueResult(v))
				},
				Error: func(e error) {
					att.deliver(ErrResult[T](e))
				},
			})
			if err != nil {
				_ = att.release()
				return nil, fmt.Errorf("attachment %s: subscribing: %w", att.id, err)
			}

			att.mu.Lock()
			att.sub = sub
			att.mu.Unlock()

			// Subscribe-then-seed: a synchronous emission has already
			// closed the gate by now, so the seed falls through to the
			// direct cell or is dropped.
			if cfg.initial != nil {
				att.deliver(ValueResult(cfg.initial()))
			}

			if cfg.timeout > 0 && !hub.observed(s) {
				att.mu.Lock()
				if !att.released && att.sub != nil {
					att.timer = time.AfterFunc(cfg.timeout, att.expire)
				}
				att.mu.Unlock()
			}

			return att, nil
		},
	}

	composed := Derive2(
		direct.Reactive(),
		bridge.Reactive(),
		func(rc *ReadCtx, directCtrl *Controller[directState[T]], bridgeCtrl *Controller[*attachment[T]]) (T, error) {
			att, err := bridgeCtrl.GetContext(rc.Context())
			if err != nil {
				var zero T
				return zero, err
			}

			if st, ok := directCtrl.Peek(); ok && st.set {
				return st.result.Unpack()
			}

			r, err := att.await(rc.Context())
			if err != nil {
				var zero T
				return zero, err
			}
			return r.Unpack()
		},
	)

	composed.OnWrite(func(s *Store, v T) error {
		if set := hub.setter(s); set != nil {
			set(ValueResult(v))
		}
		// Writes while unobserved are silently ignored.
		return nil
	})

	composed.OnObserve(func(s *Store) func() {
		set := func(r Result[T]) {
			_ = Update(s, direct, directState[T]{result: r, set: true})
		}
		hub.install(s, set)

		if att, ok := Accessor(s, bridge).Peek(); ok && att != nil {
			att.mount(set)
		}

		return func() {
			hub.clear(s)
			if att, ok := Accessor(s, bridge).Peek(); ok && att != nil {
				_ = att.release()
			}
		}
	})

	return composed
}
