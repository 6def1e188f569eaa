package jotai

import "sync"

// Observer receives emissions from an Observable. Any subset of the
// callbacks may be nil; sources should use the On* helpers, which guard
// against missing callbacks.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// OnNext delivers a value if a Next callback is present.
func (o Observer[T]) OnNext(v T) {
	if o.Next != nil {
		o.Next(v)
	}
}

// OnError delivers an error if an Error callback is present.
func (o Observer[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

// OnComplete signals completion if a Complete callback is present.
func (o Observer[T]) OnComplete() {
	if o.Complete != nil {
		o.Complete()
	}
}

// Subscription is the handle returned by Observable.Subscribe. The bridge
// calls Unsubscribe at most once per handle; implementations that may be
// released from multiple paths can wrap themselves with NewSubscription.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a plain function to a Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }

// NewSubscription wraps stop so that it runs at most once no matter how many
// times Unsubscribe is called.
func NewSubscription(stop func()) Subscription {
	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(stop)
	})
}

// Observable is a push-based producer of values. Subscribe wires the
// observer and returns a handle used to detach; a non-nil error means the
// subscription could not be established and fails the computation that
// attempted it.
type Observable[T any] interface {
	Subscribe(Observer[T]) (Subscription, error)
}

// ObservableFunc adapts a subscribe function to an Observable.
type ObservableFunc[T any] func(Observer[T]) (Subscription, error)

func (f ObservableFunc[T]) Subscribe(o Observer[T]) (Subscription, error) {
	return f(o)
}

// StatefulObservable is an Observable that additionally exposes a
// synchronous current-value accessor. The bridge's read path never uses
// Current; the capability is accepted for forward compatibility.
type StatefulObservable[T any] interface {
	Observable[T]
	Current() (T, bool)
}

// CanonicalProvider is an optional capability: a wrapper object that can
// hand out the real underlying source. When present and non-nil, the
// canonical source is used in place of the wrapper.
type CanonicalProvider[T any] interface {
	Canonical() Observable[T]
}

// CanonicalOf resolves the canonical-source indirection once. It returns src
// itself when src does not expose the capability or the capability returns
// nil.
func CanonicalOf[T any](src Observable[T]) Observable[T] {
	if p, ok := src.(CanonicalProvider[T]); ok {
		if real := p.Canonical(); real != nil {
			return real
		}
	}
	return src
}
