// Package callopts holds per-call configuration and the channel that keeps
// the latest configuration available to every call attempt.
package callopts

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Options is one immutable snapshot of per-call configuration. It is passed
// by value; a new snapshot replaces the old one, never mutated in place.
type Options struct {
	// Timeout bounds one transport-level call. Zero means no override.
	Timeout time.Duration

	// Metadata is attached to the outgoing call (headers such as
	// authorization tokens).
	Metadata metadata.MD

	// Compressor names the message compressor, e.g. "gzip". Empty disables
	// compression.
	Compressor string

	// WaitForReady makes the transport block until a connection is
	// available instead of failing fast.
	WaitForReady bool

	MaxRecvMsgSize int
	MaxSendMsgSize int
}

// Default returns the zero configuration: no timeout override, no metadata.
func Default() Options { return Options{} }

// Clone returns a deep copy; mutating the copy's metadata does not affect
// the original snapshot.
func (o Options) Clone() Options {
	o.Metadata = o.Metadata.Copy()
	return o
}

// WithTimeout returns a copy with the timeout replaced.
func (o Options) WithTimeout(d time.Duration) Options {
	o = o.Clone()
	o.Timeout = d
	return o
}

// WithMetadata returns a copy with md merged over the existing metadata.
func (o Options) WithMetadata(md metadata.MD) Options {
	o = o.Clone()
	o.Metadata = metadata.Join(o.Metadata, md)
	return o
}

// Context derives the per-attempt context: outgoing metadata attached and
// the timeout applied. The returned cancel func must be called when the
// attempt's terminal event has been delivered.
func (o Options) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	if len(o.Metadata) > 0 {
		ctx = metadata.NewOutgoingContext(ctx, o.Metadata)
	}
	if o.Timeout > 0 {
		return context.WithTimeout(ctx, o.Timeout)
	}
	return context.WithCancel(ctx)
}

// GRPCCallOptions converts the snapshot into grpc call options for
// transports backed by a real grpc connection.
func (o Options) GRPCCallOptions() []grpc.CallOption {
	var out []grpc.CallOption
	if o.Compressor != "" {
		out = append(out, grpc.UseCompressor(o.Compressor))
	}
	if o.WaitForReady {
		out = append(out, grpc.WaitForReady(true))
	}
	if o.MaxRecvMsgSize > 0 {
		out = append(out, grpc.MaxCallRecvMsgSize(o.MaxRecvMsgSize))
	}
	if o.MaxSendMsgSize > 0 {
		out = append(out, grpc.MaxCallSendMsgSize(o.MaxSendMsgSize))
	}
	return out
}
