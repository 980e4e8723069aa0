package call

import (
	"context"

	"github.com/calldeck/recall/observe"
	"github.com/calldeck/recall/stream"
	"github.com/calldeck/recall/transport"
)

// UnaryCall is an RPC method bound to an executor. Call is the final
// (request) -> stream operation.
type UnaryCall[Req, Res any] struct {
	e    *Executor
	rpc  transport.Unary[Req, Res]
	name string
}

// Unary binds a unary-shaped RPC to e.
func Unary[Req, Res any](e *Executor, rpc transport.Unary[Req, Res]) *UnaryCall[Req, Res] {
	return &UnaryCall[Req, Res]{e: e, rpc: rpc}
}

// Named sets the call name used by observers.
func (c *UnaryCall[Req, Res]) Named(name string) *UnaryCall[Req, Res] {
	c.name = name
	return c
}

// Call executes the bound RPC. The stream carries at most one response
// value followed by the terminal event.
func (c *UnaryCall[Req, Res]) Call(ctx context.Context, req Req) *stream.Stream[Res] {
	info := observe.CallInfo{Name: c.name, Shape: observe.ShapeUnary}
	return run(ctx, c.e, info, unaryAttempt(c.rpc, req))
}

// ServerStreamCall is a server-streaming RPC bound to an executor.
type ServerStreamCall[Req, Res any] struct {
	e    *Executor
	rpc  transport.ServerStream[Req, Res]
	name string
}

// ServerStreaming binds a server-streaming RPC to e.
func ServerStreaming[Req, Res any](e *Executor, rpc transport.ServerStream[Req, Res]) *ServerStreamCall[Req, Res] {
	return &ServerStreamCall[Req, Res]{e: e, rpc: rpc}
}

// Named sets the call name used by observers.
func (c *ServerStreamCall[Req, Res]) Named(name string) *ServerStreamCall[Req, Res] {
	c.name = name
	return c
}

// Call executes the bound RPC; the stream carries every response message in
// arrival order followed by the terminal event.
func (c *ServerStreamCall[Req, Res]) Call(ctx context.Context, req Req) *stream.Stream[Res] {
	info := observe.CallInfo{Name: c.name, Shape: observe.ShapeServerStream}
	return run(ctx, c.e, info, serverStreamAttempt(c.rpc, req))
}

// ClientStreamCall is a client-streaming RPC bound to an executor.
type ClientStreamCall[Req, Res any] struct {
	e    *Executor
	rpc  transport.ClientStream[Req, Res]
	name string
}

// ClientStreaming binds a client-streaming RPC to e.
func ClientStreaming[Req, Res any](e *Executor, rpc transport.ClientStream[Req, Res]) *ClientStreamCall[Req, Res] {
	return &ClientStreamCall[Req, Res]{e: e, rpc: rpc}
}

// Named sets the call name used by observers.
func (c *ClientStreamCall[Req, Res]) Named(name string) *ClientStreamCall[Req, Res] {
	c.name = name
	return c
}

// Call executes the bound RPC. reqs is subscribed once per attempt; a
// request-source failure cancels the in-flight transport call.
func (c *ClientStreamCall[Req, Res]) Call(ctx context.Context, reqs stream.Producer[Req]) *stream.Stream[Res] {
	info := observe.CallInfo{Name: c.name, Shape: observe.ShapeClientStream}
	return run(ctx, c.e, info, clientStreamAttempt(c.rpc, reqs))
}

// BidiStreamCall is a bidirectional-streaming RPC bound to an executor.
type BidiStreamCall[Req, Res any] struct {
	e    *Executor
	rpc  transport.BidiStream[Req, Res]
	name string
}

// BidiStreaming binds a bidirectional-streaming RPC to e.
func BidiStreaming[Req, Res any](e *Executor, rpc transport.BidiStream[Req, Res]) *BidiStreamCall[Req, Res] {
	return &BidiStreamCall[Req, Res]{e: e, rpc: rpc}
}

// Named sets the call name used by observers.
func (c *BidiStreamCall[Req, Res]) Named(name string) *BidiStreamCall[Req, Res] {
	c.name = name
	return c
}

// Call executes the bound RPC. reqs is subscribed once per attempt.
func (c *BidiStreamCall[Req, Res]) Call(ctx context.Context, reqs stream.Producer[Req]) *stream.Stream[Res] {
	info := observe.CallInfo{Name: c.name, Shape: observe.ShapeBidiStream}
	return run(ctx, c.e, info, bidiStreamAttempt(c.rpc, reqs))
}
