// Package recall re-exports the common entry points of the module: an
// executor binding call options and a retry policy, and the four call-shape
// builders.
package recall

import (
	"github.com/calldeck/recall/call"
	"github.com/calldeck/recall/callopts"
	"github.com/calldeck/recall/retry"
	"github.com/calldeck/recall/transport"
)

// Executor is the façade composing the options channel, retry policy and
// call adapters.
type Executor = call.Executor

// Options is one immutable per-call configuration snapshot.
type Options = callopts.Options

// Policy governs retries of a logical call.
type Policy = retry.Policy

// New creates an Executor. With no options it uses default call options and
// the Never policy.
func New(opts ...call.Option) *Executor { return call.New(opts...) }

// Never returns the policy that never retries.
func Never() Policy { return retry.Never() }

// OnFailure returns a policy retrying qualifying failures up to maxRetries
// times.
func OnFailure(maxRetries uint, opts ...retry.Option) Policy {
	return retry.OnFailure(maxRetries, opts...)
}

// Unary binds a unary-shaped RPC to e.
func Unary[Req, Res any](e *Executor, rpc transport.Unary[Req, Res]) *call.UnaryCall[Req, Res] {
	return call.Unary(e, rpc)
}

// ServerStreaming binds a server-streaming RPC to e.
func ServerStreaming[Req, Res any](e *Executor, rpc transport.ServerStream[Req, Res]) *call.ServerStreamCall[Req, Res] {
	return call.ServerStreaming(e, rpc)
}

// ClientStreaming binds a client-streaming RPC to e.
func ClientStreaming[Req, Res any](e *Executor, rpc transport.ClientStream[Req, Res]) *call.ClientStreamCall[Req, Res] {
	return call.ClientStreaming(e, rpc)
}

// BidiStreaming binds a bidirectional-streaming RPC to e.
func BidiStreaming[Req, Res any](e *Executor, rpc transport.BidiStream[Req, Res]) *call.BidiStreamCall[Req, Res] {
	return call.BidiStreaming(e, rpc)
}
