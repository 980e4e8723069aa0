// Package retry defines the retry policy applied to logical calls and the
// backoff helpers used to build delay hooks.
package retry

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind discriminates the policy variants.
type Kind int

const (
	// KindNever performs no retries; the first terminal status is final.
	KindNever Kind = iota
	// KindOnFailure retries qualifying failures up to a bound.
	KindOnFailure
)

// Policy governs whether and how a failed call attempt is replayed. A Policy
// is immutable once constructed and shared read-only across all attempts of
// one logical call.
type Policy struct {
	kind Kind

	maxRetries  uint
	shouldRetry func(*status.Status) bool
	delay       func(ctx context.Context, attempt uint) error
	onGiveUp    func()
}

// Option configures an OnFailure policy.
type Option func(*Policy)

// WithShouldRetry sets the predicate deciding whether a failure status
// qualifies for a retry. Defaults to Retryable.
func WithShouldRetry(fn func(*status.Status) bool) Option {
	return func(p *Policy) { p.shouldRetry = fn }
}

// WithDelay sets the hook run between attempts. attempt is the zero-based
// index of the attempt that just failed. The hook returning an error makes
// that error the logical call's terminal failure.
func WithDelay(fn func(ctx context.Context, attempt uint) error) Option {
	return func(p *Policy) { p.delay = fn }
}

// WithOnGiveUp sets the callback fired once when the retry budget is
// exhausted. It runs on its own goroutine and never delays terminal
// delivery.
func WithOnGiveUp(fn func()) Option {
	return func(p *Policy) { p.onGiveUp = fn }
}

// Never returns the policy that never retries.
func Never() Policy { return Policy{kind: KindNever} }

// OnFailure returns a policy that retries qualifying failures up to
// maxRetries times. maxRetries must be at least 1; violating that is a
// programming error and panics.
func OnFailure(maxRetries uint, opts ...Option) Policy {
	if maxRetries < 1 {
		panic(fmt.Sprintf("retry: OnFailure requires maxRetries >= 1, got %d", maxRetries))
	}
	p := Policy{
		kind:        KindOnFailure,
		maxRetries:  maxRetries,
		shouldRetry: Retryable,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Kind reports the policy variant.
func (p Policy) Kind() Kind { return p.kind }

// MaxRetries returns the retry bound; zero for Never.
func (p Policy) MaxRetries() uint { return p.maxRetries }

// ShouldRetry reports whether st qualifies for a retry under this policy.
func (p Policy) ShouldRetry(st *status.Status) bool {
	if p.kind != KindOnFailure {
		return false
	}
	if p.shouldRetry == nil {
		return Retryable(st)
	}
	return p.shouldRetry(st)
}

// Delay runs the between-attempts hook for the given failed attempt index.
func (p Policy) Delay(ctx context.Context, attempt uint) error {
	if p.delay == nil {
		return ctx.Err()
	}
	return p.delay(ctx, attempt)
}

// GiveUp fires the give-up callback, if any, on its own goroutine.
func (p Policy) GiveUp() {
	if p.onGiveUp != nil {
		go p.onGiveUp()
	}
}

// Retryable is the default retry predicate: transient transport conditions
// qualify, everything else does not. Canceled never qualifies.
func Retryable(st *status.Status) bool {
	switch st.Code() {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

// OnCodes returns a predicate that retries exactly the given codes.
func OnCodes(cc ...codes.Code) func(*status.Status) bool {
	set := make(map[codes.Code]struct{}, len(cc))
	for _, c := range cc {
		set[c] = struct{}{}
	}
	return func(st *status.Status) bool {
		_, ok := set[st.Code()]
		return ok
	}
}
