// Package stream provides the pull-based response stream abstraction and the
// bridge that adapts push-callback transports onto it.
package stream

import (
	"context"
	"io"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Stream is an ordered sequence of response messages ending in exactly one
// terminal event: io.EOF for normal completion, or a status-bearing error.
//
// Recv is safe for use by a single consumer; producers feed the stream
// through a Bridge.
type Stream[T any] struct {
	mu   sync.Mutex
	buf  []T
	done bool
	err  error // terminal failure; nil with done=true means completion

	wake     chan struct{}
	canceled chan struct{}
}

func newStream[T any]() *Stream[T] {
	return &Stream[T]{
		wake:     make(chan struct{}),
		canceled: make(chan struct{}),
	}
}

// Recv returns the next message, io.EOF after normal completion, or the
// stream's terminal failure. It blocks until a message or the terminal
// event is available, or ctx is done.
func (s *Stream[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	for {
		s.mu.Lock()
		if len(s.buf) > 0 {
			v := s.buf[0]
			s.buf = s.buf[1:]
			s.mu.Unlock()
			return v, nil
		}
		if s.done {
			err := s.err
			s.mu.Unlock()
			if err == nil {
				return zero, io.EOF
			}
			return zero, err
		}
		wait := s.wake
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, status.FromContextError(ctx.Err()).Err()
		case <-wait:
		}
	}
}

// Collect drains the stream and returns all messages delivered before the
// terminal event. The returned error is nil on normal completion.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for {
		v, err := s.Recv(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// Cancel abandons the stream. Pending and future messages are dropped, Recv
// returns a Canceled status, and the producer is signalled through
// Bridge.Canceled. Cancel is idempotent.
func (s *Stream[T]) Cancel() {
	s.mu.Lock()
	select {
	case <-s.canceled:
		s.mu.Unlock()
		return
	default:
	}
	close(s.canceled)
	if !s.done {
		s.done = true
		s.err = status.Error(codes.Canceled, "stream canceled by caller")
		s.buf = nil
		close(s.wake)
		s.wake = make(chan struct{})
	}
	s.mu.Unlock()
}

func (s *Stream[T]) push(v T) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.buf = append(s.buf, v)
	close(s.wake)
	s.wake = make(chan struct{})
	s.mu.Unlock()
}

func (s *Stream[T]) finish(err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.err = err
	close(s.wake)
	s.wake = make(chan struct{})
	s.mu.Unlock()
}

// Bridge is the producer side of a Stream. It converts repeated callback
// invocations from a transport's own goroutines into the stream's ordered
// sequence. Push never blocks; messages after the terminal event are
// ignored.
type Bridge[T any] struct {
	s *Stream[T]
}

// NewBridge creates a bridge and its consumer stream.
func NewBridge[T any]() *Bridge[T] {
	return &Bridge[T]{s: newStream[T]()}
}

// Stream returns the consumer side.
func (b *Bridge[T]) Stream() *Stream[T] { return b.s }

// Push forwards one message in arrival order.
func (b *Bridge[T]) Push(v T) { b.s.push(v) }

// Close delivers the terminal event. A nil err means normal completion.
// Only the first Close takes effect.
func (b *Bridge[T]) Close(err error) { b.s.finish(err) }

// Canceled is closed when the consumer abandons the stream. Producers should
// stop pushing and release the underlying call.
func (b *Bridge[T]) Canceled() <-chan struct{} { return b.s.canceled }
