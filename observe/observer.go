// Package observe exposes lifecycle hooks for logical calls and their
// attempts.
package observe

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/status"
)

// Shape identifies the calling convention of a logical call.
type Shape string

const (
	ShapeUnary        Shape = "unary"
	ShapeServerStream Shape = "server_stream"
	ShapeClientStream Shape = "client_stream"
	ShapeBidiStream   Shape = "bidi_stream"
)

// CallInfo identifies one logical call.
type CallInfo struct {
	// ID is unique per logical call, shared by all of its attempts.
	ID    uuid.UUID
	Name  string
	Shape Shape
}

// AttemptRecord describes one completed transport-level attempt.
type AttemptRecord struct {
	Index     uint
	StartTime time.Time
	EndTime   time.Time

	// Status is the attempt's terminal status; OK code means success.
	Status *status.Status

	// Messages counts response messages the attempt produced.
	Messages int
}

// CallRecord is the final record of a logical call.
type CallRecord struct {
	CallInfo
	Start    time.Time
	End      time.Time
	Attempts []AttemptRecord
	FinalErr error
}

// Observer receives lifecycle callbacks for a single logical call. Methods
// may be invoked from transport goroutines and must not block.
type Observer interface {
	OnCallStart(ctx context.Context, info CallInfo)
	OnAttempt(ctx context.Context, info CallInfo, rec AttemptRecord)

	// OnRetryScheduled fires after a qualifying failure, before the delay
	// hook runs. attempt is the index of the failed attempt.
	OnRetryScheduled(ctx context.Context, info CallInfo, attempt uint, st *status.Status)

	// OnGiveUp fires once when the retry budget is exhausted.
	OnGiveUp(ctx context.Context, info CallInfo, st *status.Status)

	OnCallEnd(ctx context.Context, rec CallRecord)
}

// NoopObserver implements Observer with no-op methods.
type NoopObserver struct{}

func (NoopObserver) OnCallStart(context.Context, CallInfo)                             {}
func (NoopObserver) OnAttempt(context.Context, CallInfo, AttemptRecord)                {}
func (NoopObserver) OnRetryScheduled(context.Context, CallInfo, uint, *status.Status)  {}
func (NoopObserver) OnGiveUp(context.Context, CallInfo, *status.Status)                {}
func (NoopObserver) OnCallEnd(context.Context, CallRecord)                             {}

// MultiObserver fans out events to multiple observers.
type MultiObserver struct {
	Observers []Observer
}

func (m MultiObserver) OnCallStart(ctx context.Context, info CallInfo) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnCallStart(ctx, info)
		}
	}
}

func (m MultiObserver) OnAttempt(ctx context.Context, info CallInfo, rec AttemptRecord) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnAttempt(ctx, info, rec)
		}
	}
}

func (m MultiObserver) OnRetryScheduled(ctx context.Context, info CallInfo, attempt uint, st *status.Status) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnRetryScheduled(ctx, info, attempt, st)
		}
	}
}

func (m MultiObserver) OnGiveUp(ctx context.Context, info CallInfo, st *status.Status) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnGiveUp(ctx, info, st)
		}
	}
}

func (m MultiObserver) OnCallEnd(ctx context.Context, rec CallRecord) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnCallEnd(ctx, rec)
		}
	}
}
