package call

import (
	"context"
	"io"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/calldeck/recall/observe"
	"github.com/calldeck/recall/retry"
	"github.com/calldeck/recall/stream"
)

// run drives one logical call: it executes attempts strictly sequentially,
// re-reading the options snapshot at the start of each attempt, and forwards
// exactly one linear stream to the caller. Output of attempts that end up
// retried is never forwarded.
func run[Res any](ctx context.Context, e *Executor, info observe.CallInfo, attempt attemptFunc[Res]) *stream.Stream[Res] {
	if ctx == nil {
		ctx = context.Background()
	}
	if info.ID == uuid.Nil {
		info.ID = uuid.New()
	}

	out := stream.NewBridge[Res]()

	callCtx, cancelCall := context.WithCancel(ctx)
	go func() {
		select {
		case <-out.Canceled():
			cancelCall()
		case <-callCtx.Done():
		}
	}()

	go func() {
		defer cancelCall()

		policy := e.policy
		rec := observe.CallRecord{CallInfo: info, Start: e.clock()}
		e.observer.OnCallStart(ctx, info)

		finish := func(staged []Res, err error) {
			for _, v := range staged {
				out.Push(v)
			}
			out.Close(err)
			rec.End = e.clock()
			rec.FinalErr = err
			e.observer.OnCallEnd(ctx, rec)
		}

		var n uint // retries performed so far
		for {
			// Only the snapshot read here applies to this attempt; updates
			// arriving while it is in flight apply to the next attempt.
			opts := e.opts.Current()
			attemptCtx, cancelAttempt := opts.Context(callCtx)

			// Attempts that may still be retried are staged so that a
			// retried-away attempt's partial output never reaches the
			// caller. The last possible attempt streams live.
			live := policy.Kind() == retry.KindNever || n == policy.MaxRetries()

			attemptStart := e.clock()
			s := attempt(attemptCtx, opts)

			var staged []Res
			var termErr error
			msgs := 0
			for {
				v, err := s.Recv(callCtx)
				if err == nil {
					msgs++
					if live {
						out.Push(v)
					} else {
						staged = append(staged, v)
					}
					continue
				}
				if err != io.EOF {
					termErr = err
				}
				break
			}
			cancelAttempt()

			st := status.New(codes.OK, "")
			if termErr != nil {
				st = status.Convert(termErr)
			}
			arec := observe.AttemptRecord{
				Index:     n,
				StartTime: attemptStart,
				EndTime:   e.clock(),
				Status:    st,
				Messages:  msgs,
			}
			rec.Attempts = append(rec.Attempts, arec)
			e.observer.OnAttempt(ctx, info, arec)

			if termErr == nil {
				finish(staged, nil)
				return
			}
			if callCtx.Err() != nil {
				// Caller canceled or outer context expired; no retries.
				finish(nil, termErr)
				return
			}
			if !policy.ShouldRetry(st) {
				finish(staged, termErr)
				return
			}
			if n >= policy.MaxRetries() {
				e.observer.OnGiveUp(ctx, info, st)
				policy.GiveUp()
				finish(staged, termErr)
				return
			}

			e.observer.OnRetryScheduled(ctx, info, n, st)
			if err := policy.Delay(callCtx, n); err != nil {
				finish(nil, status.Convert(err).Err())
				return
			}
			n++
		}
	}()

	return out.Stream()
}
