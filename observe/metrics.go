package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/status"
)

// Metrics is an Observer exporting prometheus counters and histograms for
// call and attempt outcomes.
type Metrics struct {
	attempts       *prometheus.CounterVec
	retries        *prometheus.CounterVec
	giveUps        *prometheus.CounterVec
	attemptSeconds *prometheus.HistogramVec
	callSeconds    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "attempts_total",
			Help:      "Transport-level call attempts by terminal code.",
		}, []string{"call", "shape", "code"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "retries_total",
			Help:      "Retries scheduled after qualifying failures.",
		}, []string{"call", "shape", "code"}),
		giveUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "give_ups_total",
			Help:      "Logical calls that exhausted their retry budget.",
		}, []string{"call", "shape", "code"}),
		attemptSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recall",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of individual call attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call", "shape"}),
		callSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recall",
			Name:      "call_duration_seconds",
			Help:      "Duration of logical calls including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call", "shape", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.retries, m.giveUps, m.attemptSeconds, m.callSeconds)
	}
	return m
}

func (m *Metrics) OnCallStart(context.Context, CallInfo) {}

func (m *Metrics) OnAttempt(_ context.Context, info CallInfo, rec AttemptRecord) {
	m.attempts.WithLabelValues(info.Name, string(info.Shape), rec.Status.Code().String()).Inc()
	m.attemptSeconds.WithLabelValues(info.Name, string(info.Shape)).
		Observe(rec.EndTime.Sub(rec.StartTime).Seconds())
}

func (m *Metrics) OnRetryScheduled(_ context.Context, info CallInfo, _ uint, st *status.Status) {
	m.retries.WithLabelValues(info.Name, string(info.Shape), st.Code().String()).Inc()
}

func (m *Metrics) OnGiveUp(_ context.Context, info CallInfo, st *status.Status) {
	m.giveUps.WithLabelValues(info.Name, string(info.Shape), st.Code().String()).Inc()
}

func (m *Metrics) OnCallEnd(_ context.Context, rec CallRecord) {
	outcome := "ok"
	if rec.FinalErr != nil {
		outcome = status.Code(rec.FinalErr).String()
	}
	m.callSeconds.WithLabelValues(rec.Name, string(rec.Shape), outcome).
		Observe(rec.End.Sub(rec.Start).Seconds())
}
