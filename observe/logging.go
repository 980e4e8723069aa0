package observe

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/status"
)

// Logging is an Observer that writes structured lifecycle logs.
type Logging struct {
	log *zap.Logger
}

// NewLogging wraps logger. A nil logger yields a no-op observer.
func NewLogging(logger *zap.Logger) *Logging {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logging{log: logger}
}

func (l *Logging) callFields(info CallInfo) []zap.Field {
	return []zap.Field{
		zap.String("call_id", info.ID.String()),
		zap.String("call", info.Name),
		zap.String("shape", string(info.Shape)),
	}
}

func (l *Logging) OnCallStart(_ context.Context, info CallInfo) {
	l.log.Debug("call started", l.callFields(info)...)
}

func (l *Logging) OnAttempt(_ context.Context, info CallInfo, rec AttemptRecord) {
	fields := append(l.callFields(info),
		zap.Uint("attempt", rec.Index),
		zap.Duration("elapsed", rec.EndTime.Sub(rec.StartTime)),
		zap.Int("messages", rec.Messages),
		zap.Stringer("code", rec.Status.Code()),
	)
	l.log.Debug("attempt finished", fields...)
}

func (l *Logging) OnRetryScheduled(_ context.Context, info CallInfo, attempt uint, st *status.Status) {
	fields := append(l.callFields(info),
		zap.Uint("failed_attempt", attempt),
		zap.Stringer("code", st.Code()),
		zap.String("reason", st.Message()),
	)
	l.log.Info("retry scheduled", fields...)
}

func (l *Logging) OnGiveUp(_ context.Context, info CallInfo, st *status.Status) {
	fields := append(l.callFields(info), zap.Stringer("code", st.Code()))
	l.log.Warn("retries exhausted", fields...)
}

func (l *Logging) OnCallEnd(_ context.Context, rec CallRecord) {
	fields := append(l.callFields(rec.CallInfo),
		zap.Int("attempts", len(rec.Attempts)),
		zap.Duration("elapsed", rec.End.Sub(rec.Start)),
	)
	if rec.FinalErr != nil {
		fields = append(fields, zap.Error(rec.FinalErr))
		l.log.Info("call failed", fields...)
		return
	}
	l.log.Debug("call completed", fields...)
}
