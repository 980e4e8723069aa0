// Package grpc adapts a grpc client connection into the four transport call
// shapes. The call layer applies metadata and timeouts through the attempt
// context; this package converts the remaining options into grpc call
// options and extracts terminal statuses.
package grpc

import (
	"context"
	"errors"
	"io"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/calldeck/recall/callopts"
	"github.com/calldeck/recall/transport"
)

var okStatus = status.New(codes.OK, "")

// Unary adapts a unary method. newRes allocates the response message for
// each invocation.
func Unary[Req, Res proto.Message](cc grpc.ClientConnInterface, method string, newRes func() Res) transport.Unary[Req, Res] {
	return func(ctx context.Context, req Req, opts callopts.Options) (*transport.Cell[Res], *transport.Cell[*status.Status]) {
		resCell := transport.NewCell[Res]()
		stCell := transport.NewCell[*status.Status]()
		go func() {
			res := newRes()
			if err := cc.Invoke(ctx, method, req, res, opts.GRPCCallOptions()...); err != nil {
				stCell.Resolve(status.Convert(err))
				return
			}
			resCell.Resolve(res)
			stCell.Resolve(okStatus)
		}()
		return resCell, stCell
	}
}

// ServerStream adapts a server-streaming method.
func ServerStream[Req, Res proto.Message](cc grpc.ClientConnInterface, method string, newRes func() Res) transport.ServerStream[Req, Res] {
	desc := &grpc.StreamDesc{StreamName: streamName(method), ServerStreams: true}
	return func(ctx context.Context, req Req, opts callopts.Options, onMessage func(Res)) *transport.Cell[*status.Status] {
		stCell := transport.NewCell[*status.Status]()
		go func() {
			cs, err := cc.NewStream(ctx, desc, method, opts.GRPCCallOptions()...)
			if err != nil {
				stCell.Resolve(status.Convert(err))
				return
			}
			if err := cs.SendMsg(req); err != nil {
				// SendMsg returning io.EOF means the stream already
				// terminated and RecvMsg carries the real status.
				if errors.Is(err, io.EOF) {
					if rerr := cs.RecvMsg(newRes()); rerr != nil {
						stCell.Resolve(endOfStream(rerr))
						return
					}
				}
				stCell.Resolve(status.Convert(err))
				return
			}
			if err := cs.CloseSend(); err != nil {
				stCell.Resolve(status.Convert(err))
				return
			}
			for {
				res := newRes()
				if err := cs.RecvMsg(res); err != nil {
					stCell.Resolve(endOfStream(err))
					return
				}
				onMessage(res)
			}
		}()
		return stCell
	}
}

// ClientStream adapts a client-streaming method.
func ClientStream[Req, Res proto.Message](cc grpc.ClientConnInterface, method string, newRes func() Res) transport.ClientStream[Req, Res] {
	desc := &grpc.StreamDesc{StreamName: streamName(method), ClientStreams: true}
	return func(ctx context.Context, opts callopts.Options) (transport.Handle[Req], *transport.Cell[Res], *transport.Cell[*status.Status]) {
		resCell := transport.NewCell[Res]()
		stCell := transport.NewCell[*status.Status]()

		sctx, cancel := context.WithCancel(ctx)
		cs, err := cc.NewStream(sctx, desc, method, opts.GRPCCallOptions()...)
		if err != nil {
			cancel()
			stCell.Resolve(status.Convert(err))
			return noopHandle[Req]{}, resCell, stCell
		}

		go func() {
			defer cancel()
			res := newRes()
			if err := cs.RecvMsg(res); err != nil {
				stCell.Resolve(endOfUnaryResponse(err))
				return
			}
			resCell.Resolve(res)
			if err := cs.RecvMsg(newRes()); !errors.Is(err, io.EOF) {
				stCell.Resolve(status.Convert(err))
				return
			}
			stCell.Resolve(okStatus)
		}()
		return &streamHandle[Req]{cs: cs, cancel: cancel}, resCell, stCell
	}
}

// BidiStream adapts a bidirectional-streaming method.
func BidiStream[Req, Res proto.Message](cc grpc.ClientConnInterface, method string, newRes func() Res) transport.BidiStream[Req, Res] {
	desc := &grpc.StreamDesc{StreamName: streamName(method), ClientStreams: true, ServerStreams: true}
	return func(ctx context.Context, opts callopts.Options, onMessage func(Res)) (transport.Handle[Req], *transport.Cell[*status.Status]) {
		stCell := transport.NewCell[*status.Status]()

		sctx, cancel := context.WithCancel(ctx)
		cs, err := cc.NewStream(sctx, desc, method, opts.GRPCCallOptions()...)
		if err != nil {
			cancel()
			stCell.Resolve(status.Convert(err))
			return noopHandle[Req]{}, stCell
		}

		go func() {
			defer cancel()
			for {
				res := newRes()
				if err := cs.RecvMsg(res); err != nil {
					stCell.Resolve(endOfStream(err))
					return
				}
				onMessage(res)
			}
		}()
		return &streamHandle[Req]{cs: cs, cancel: cancel}, stCell
	}
}

type streamHandle[Req any] struct {
	cs     grpc.ClientStream
	cancel context.CancelFunc
}

func (h *streamHandle[Req]) Send(m Req) error { return h.cs.SendMsg(m) }
func (h *streamHandle[Req]) CloseSend() error { return h.cs.CloseSend() }
func (h *streamHandle[Req]) Cancel()          { h.cancel() }

// noopHandle stands in when the stream could not be opened; the status cell
// already carries the failure.
type noopHandle[Req any] struct{}

func (noopHandle[Req]) Send(Req) error   { return io.ErrClosedPipe }
func (noopHandle[Req]) CloseSend() error { return nil }
func (noopHandle[Req]) Cancel()          {}

// streamName extracts the method part of "/pkg.Service/Method".
func streamName(method string) string {
	if i := strings.LastIndex(method, "/"); i >= 0 {
		return method[i+1:]
	}
	return method
}

func endOfStream(err error) *status.Status {
	if errors.Is(err, io.EOF) {
		return okStatus
	}
	return status.Convert(err)
}

// endOfUnaryResponse maps a clean end-of-stream before the single expected
// response to an explicit failure.
func endOfUnaryResponse(err error) *status.Status {
	if errors.Is(err, io.EOF) {
		return status.New(codes.Internal, "server closed stream without a response")
	}
	return status.Convert(err)
}
