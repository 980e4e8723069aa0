// Package call composes the call options channel, the retry policy, and the
// four transport call shapes into stream-producing call builders.
package call

import (
	"time"

	"github.com/calldeck/recall/callopts"
	"github.com/calldeck/recall/observe"
	"github.com/calldeck/recall/retry"
)

// Executor binds a call options channel and a retry policy. Each bound call
// executed through it is independent; the options channel's current
// snapshot is the only state shared between logical calls.
type Executor struct {
	opts     *callopts.Channel
	policy   retry.Policy
	observer observe.Observer
	clock    func() time.Time
}

type config struct {
	defaults callopts.Options
	updates  <-chan callopts.Options
	policy   retry.Policy
	observer observe.Observer
	clock    func() time.Time
}

// Option configures an Executor.
type Option func(*config)

// WithDefaults sets the initial call options snapshot.
func WithDefaults(o callopts.Options) Option {
	return func(c *config) { c.defaults = o }
}

// WithUpdates feeds the options channel from an external update stream.
// Every received value replaces the current snapshot.
func WithUpdates(updates <-chan callopts.Options) Option {
	return func(c *config) { c.updates = updates }
}

// WithPolicy sets the retry policy. Defaults to retry.Never().
func WithPolicy(p retry.Policy) Option {
	return func(c *config) { c.policy = p }
}

// WithObserver sets the lifecycle observer.
func WithObserver(o observe.Observer) Option {
	return func(c *config) { c.observer = o }
}

// WithClock sets the clock function.
func WithClock(f func() time.Time) Option {
	return func(c *config) { c.clock = f }
}

// New creates an Executor. With no options it uses the default call options
// (no timeout override) and retry.Never().
func New(opts ...Option) *Executor {
	cfg := &config{
		defaults: callopts.Default(),
		policy:   retry.Never(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Executor{
		opts:     callopts.NewChannel(cfg.defaults),
		policy:   cfg.policy,
		observer: cfg.observer,
		clock:    cfg.clock,
	}
	if e.observer == nil {
		e.observer = observe.NoopObserver{}
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if cfg.updates != nil {
		e.opts.Feed(cfg.updates)
	}
	return e
}

// Options returns the executor's call options channel.
func (e *Executor) Options() *callopts.Channel { return e.opts }

// Policy returns the executor's retry policy.
func (e *Executor) Policy() retry.Policy { return e.policy }

// Close stops the options channel's feeders. In-flight calls keep the last
// snapshot they read.
func (e *Executor) Close() { e.opts.Close() }
