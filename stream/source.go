package stream

import (
	"context"
	"io"
)

// Source is a pull-based sequence of request messages. Recv returns io.EOF
// after the last message; any other error is the source's failure.
type Source[T any] interface {
	Recv(ctx context.Context) (T, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc[T any] func(ctx context.Context) (T, error)

func (f SourceFunc[T]) Recv(ctx context.Context) (T, error) { return f(ctx) }

// Producer creates a fresh Source per subscription. Streaming calls
// subscribe once per attempt, so a retried call replays the producer's
// sequence from the start.
type Producer[T any] func() Source[T]

// Of returns a Producer that yields vals in order and then completes. Every
// subscription starts from the first value.
func Of[T any](vals ...T) Producer[T] {
	return func() Source[T] {
		i := 0
		return SourceFunc[T](func(context.Context) (T, error) {
			if i >= len(vals) {
				var zero T
				return zero, io.EOF
			}
			v := vals[i]
			i++
			return v, nil
		})
	}
}

// Fail returns a Producer whose sources fail immediately with err.
func Fail[T any](err error) Producer[T] {
	return func() Source[T] {
		return SourceFunc[T](func(context.Context) (T, error) {
			var zero T
			return zero, err
		})
	}
}

// FromChannel returns a Producer backed by ch. The sequence completes when
// ch is closed. The channel is consumed once: a retried attempt resumes
// with whatever values remain.
func FromChannel[T any](ch <-chan T) Producer[T] {
	src := SourceFunc[T](func(ctx context.Context) (T, error) {
		var zero T
		select {
		case v, ok := <-ch:
			if !ok {
				return zero, io.EOF
			}
			return v, nil
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	})
	return func() Source[T] { return src }
}
