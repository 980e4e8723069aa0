package call

import (
	"context"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/calldeck/recall/callopts"
	"github.com/calldeck/recall/stream"
	"github.com/calldeck/recall/transport"
)

// attemptFunc executes one transport-level call attempt and returns its
// output stream. The stream terminates with the attempt's status: nil
// (io.EOF to the consumer) on success, a status error otherwise. Each
// invocation creates exactly one transport-level call.
type attemptFunc[Res any] func(ctx context.Context, opts callopts.Options) *stream.Stream[Res]

func unaryAttempt[Req, Res any](rpc transport.Unary[Req, Res], req Req) attemptFunc[Res] {
	return func(ctx context.Context, opts callopts.Options) *stream.Stream[Res] {
		b := stream.NewBridge[Res]()
		resCell, stCell := rpc(ctx, req, opts)
		go func() {
			select {
			case <-stCell.Done():
				st, _ := stCell.Get()
				closeUnary(ctx, b, resCell, st)
			case <-ctx.Done():
				b.Close(status.FromContextError(ctx.Err()).Err())
			case <-b.Canceled():
			}
		}()
		return b.Stream()
	}
}

func serverStreamAttempt[Req, Res any](rpc transport.ServerStream[Req, Res], req Req) attemptFunc[Res] {
	return func(ctx context.Context, opts callopts.Options) *stream.Stream[Res] {
		b := stream.NewBridge[Res]()
		stCell := rpc(ctx, req, opts, b.Push)
		go func() {
			select {
			case <-stCell.Done():
				st, _ := stCell.Get()
				closeWithStatus(b, st)
			case <-ctx.Done():
				b.Close(status.FromContextError(ctx.Err()).Err())
			case <-b.Canceled():
			}
		}()
		return b.Stream()
	}
}

func clientStreamAttempt[Req, Res any](rpc transport.ClientStream[Req, Res], reqs stream.Producer[Req]) attemptFunc[Res] {
	return func(ctx context.Context, opts callopts.Options) *stream.Stream[Res] {
		b := stream.NewBridge[Res]()
		handle, resCell, stCell := rpc(ctx, opts)
		go pumpRequests(ctx, handle, reqs())
		go func() {
			select {
			case <-stCell.Done():
				st, _ := stCell.Get()
				closeUnary(ctx, b, resCell, st)
			case <-ctx.Done():
				b.Close(status.FromContextError(ctx.Err()).Err())
			case <-b.Canceled():
				handle.Cancel()
			}
		}()
		return b.Stream()
	}
}

func bidiStreamAttempt[Req, Res any](rpc transport.BidiStream[Req, Res], reqs stream.Producer[Req]) attemptFunc[Res] {
	return func(ctx context.Context, opts callopts.Options) *stream.Stream[Res] {
		b := stream.NewBridge[Res]()
		handle, stCell := rpc(ctx, opts, b.Push)
		go pumpRequests(ctx, handle, reqs())
		go func() {
			select {
			case <-stCell.Done():
				st, _ := stCell.Get()
				closeWithStatus(b, st)
			case <-ctx.Done():
				b.Close(status.FromContextError(ctx.Err()).Err())
			case <-b.Canceled():
				handle.Cancel()
			}
		}()
		return b.Stream()
	}
}

// closeUnary delivers a unary-response terminal event: on success the single
// response value precedes completion, on failure any response value is
// discarded.
func closeUnary[Res any](ctx context.Context, b *stream.Bridge[Res], resCell *transport.Cell[Res], st *status.Status) {
	if st != nil && st.Code() != codes.OK {
		b.Close(st.Err())
		return
	}
	select {
	case <-resCell.Done():
		res, _ := resCell.Get()
		b.Push(res)
		b.Close(nil)
	case <-ctx.Done():
		b.Close(status.FromContextError(ctx.Err()).Err())
	}
}

func closeWithStatus[Res any](b *stream.Bridge[Res], st *status.Status) {
	if st != nil && st.Code() != codes.OK {
		b.Close(st.Err())
		return
	}
	b.Close(nil)
}

// pumpRequests forwards the request source into the transport handle:
// end-of-requests closes the send side, a source failure cancels the call.
func pumpRequests[Req any](ctx context.Context, h transport.Handle[Req], src stream.Source[Req]) {
	for {
		v, err := src.Recv(ctx)
		if err == io.EOF {
			_ = h.CloseSend()
			return
		}
		if err != nil {
			h.Cancel()
			return
		}
		if err := h.Send(v); err != nil {
			// The transport resolves the status cell on send failure.
			return
		}
	}
}
