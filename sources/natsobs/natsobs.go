// Package natsobs adapts NATS subject subscriptions to observable atoms.
package natsobs

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	jotai "github.com/dakom/jotai"
)

// Subscriber is the subset of *nats.Conn the adapter needs. Wrap a live
// connection with NewConnSubscriber; tests supply their own implementation.
type Subscriber interface {
	Subscribe(subject string, handler func(msg *nats.Msg)) (Unsubscriber, error)
}

// Unsubscriber detaches a subject subscription. *nats.Subscription satisfies
// it directly.
type Unsubscriber interface {
	Unsubscribe() error
}

type connSubscriber struct {
	nc *nats.Conn
}

// NewConnSubscriber wraps a live NATS connection as a Subscriber.
func NewConnSubscriber(nc *nats.Conn) Subscriber {
	return &connSubscriber{nc: nc}
}

func (c *connSubscriber) Subscribe(subject string, handler func(msg *nats.Msg)) (Unsubscriber, error) {
	return c.nc.Subscribe(subject, nats.MsgHandler(handler))
}

// Decoder converts a raw NATS message into a value. A decode error is
// delivered to the observer's error callback.
type Decoder[T any] func(msg *nats.Msg) (T, error)

// JSONDecoder decodes message payloads as JSON into T.
func JSONDecoder[T any]() Decoder[T] {
	return func(msg *nats.Msg) (T, error) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			var zero T
			return zero, fmt.Errorf("decoding message on %s: %w", msg.Subject, err)
		}
		return v, nil
	}
}

// Source is an Observable over one NATS subject. Each Subscribe creates an
// independent subject subscription.
type Source[T any] struct {
	sub     Subscriber
	subject string
	decode  Decoder[T]
}

// New creates a Source for the given subject.
func New[T any](sub Subscriber, subject string, decode Decoder[T]) *Source[T] {
	return &Source[T]{
		sub:     sub,
		subject: subject,
		decode:  decode,
	}
}

func (s *Source[T]) Subscribe(o jotai.Observer[T]) (jotai.Subscription, error) {
	handle, err := s.sub.Subscribe(s.subject, func(msg *nats.Msg) {
		v, err := s.decode(msg)
		if err != nil {
			o.OnError(err)
			return
		}
		o.OnNext(v)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", s.subject, err)
	}

	return jotai.NewSubscription(func() {
		_ = handle.Unsubscribe()
	}), nil
}

// Atom builds an observable atom over a NATS subject. The first read blocks
// until a message arrives unless an initial value is configured.
func Atom[T any](sub Subscriber, subject string, decode Decoder[T], opts ...jotai.ObservableOption[T]) *jotai.Atom[T] {
	return jotai.FromObservable(func(*jotai.ReadCtx) (jotai.Observable[T], error) {
		return New(sub, subject, decode), nil
	}, opts...)
}
