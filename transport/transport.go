// Package transport defines the boundary between the call layer and an RPC
// transport. A transport implementation exposes each RPC method as one of
// four invocation shapes; the call layer drives them and never invokes a
// shape more than once per attempt.
package transport

import (
	"context"
	"sync"

	"google.golang.org/grpc/status"

	"github.com/calldeck/recall/callopts"
)

// Cell is a single-assignment asynchronous result. Resolve may be called
// from any goroutine; only the first call takes effect.
type Cell[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
}

// NewCell returns an unresolved cell.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{done: make(chan struct{})}
}

// Resolve assigns the cell's value. Later calls are ignored.
func (c *Cell[T]) Resolve(v T) {
	c.once.Do(func() {
		c.val = v
		close(c.done)
	})
}

// Done is closed once the cell is resolved.
func (c *Cell[T]) Done() <-chan struct{} { return c.done }

// Get returns the value and whether the cell has been resolved.
func (c *Cell[T]) Get() (T, bool) {
	select {
	case <-c.done:
		return c.val, true
	default:
		var zero T
		return zero, false
	}
}

// Await blocks until the cell resolves or ctx is done.
func (c *Cell[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.val, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Handle is the send side of a client-streaming or bidi call.
type Handle[Req any] interface {
	// Send forwards one request message.
	Send(Req) error
	// CloseSend signals end of requests.
	CloseSend() error
	// Cancel aborts the call; no response is expected afterwards.
	Cancel()
}

// Unary invokes a single-request single-response method. The response cell
// resolves at most once; the status cell resolves exactly once.
type Unary[Req, Res any] func(ctx context.Context, req Req, opts callopts.Options) (*Cell[Res], *Cell[*status.Status])

// ServerStream invokes a single-request streaming-response method. onMessage
// is called once per received message, in order, strictly before the status
// cell resolves.
type ServerStream[Req, Res any] func(ctx context.Context, req Req, opts callopts.Options, onMessage func(Res)) *Cell[*status.Status]

// ClientStream opens a streaming-request single-response call.
type ClientStream[Req, Res any] func(ctx context.Context, opts callopts.Options) (Handle[Req], *Cell[Res], *Cell[*status.Status])

// BidiStream opens a streaming-request streaming-response call.
type BidiStream[Req, Res any] func(ctx context.Context, opts callopts.Options, onMessage func(Res)) (Handle[Req], *Cell[*status.Status])
