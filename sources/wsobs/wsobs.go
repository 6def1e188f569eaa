// Package wsobs adapts WebSocket streams to observable atoms.
package wsobs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	jotai "github.com/dakom/jotai"
)

// Decoder converts one WebSocket frame into a value. A decode error is
// delivered to the observer's error callback; the stream keeps reading.
type Decoder[T any] func(messageType int, data []byte) (T, error)

// JSONDecoder decodes text or binary frames as JSON into T.
func JSONDecoder[T any]() Decoder[T] {
	return func(_ int, data []byte) (T, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			var zero T
			return zero, fmt.Errorf("decoding frame: %w", err)
		}
		return v, nil
	}
}

// Option configures a Source.
type Option[T any] func(*Source[T])

// WithDialer overrides the dialer used to establish connections.
func WithDialer[T any](d *websocket.Dialer) Option[T] {
	return func(s *Source[T]) {
		s.dialer = d
	}
}

// WithHeader sets request headers sent on the upgrade request.
func WithHeader[T any](h http.Header) Option[T] {
	return func(s *Source[T]) {
		s.header = h
	}
}

// Source is an Observable over a WebSocket endpoint. Each Subscribe dials a
// fresh connection and reads frames until the peer closes or the
// subscription is released. A normal closure signals completion.
type Source[T any] struct {
	url    string
	decode Decoder[T]
	dialer *websocket.Dialer
	header http.Header
}

// New creates a Source for the given ws:// or wss:// URL.
func New[T any](url string, decode Decoder[T], opts ...Option[T]) *Source[T] {
	s := &Source[T]{
		url:    url,
		decode: decode,
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source[T]) Subscribe(o jotai.Observer[T]) (jotai.Subscription, error) {
	conn, _, err := s.dialer.Dial(s.url, s.header)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", s.url, err)
	}

	var closed atomic.Bool

	go func() {
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if closed.Load() {
					return
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					o.OnComplete()
				} else {
					o.OnError(fmt.Errorf("reading from %s: %w", s.url, err))
				}
				return
			}

			v, err := s.decode(messageType, data)
			if err != nil {
				o.OnError(err)
				continue
			}
			o.OnNext(v)
		}
	}()

	return jotai.NewSubscription(func() {
		closed.Store(true)
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}), nil
}

// Atom builds an observable atom over a WebSocket endpoint. The first read
// blocks until a frame arrives unless an initial value is configured.
func Atom[T any](url string, decode Decoder[T], opts ...jotai.ObservableOption[T]) *jotai.Atom[T] {
	return jotai.FromObservable(func(*jotai.ReadCtx) (jotai.Observable[T], error) {
		return New(url, decode), nil
	}, opts...)
}
