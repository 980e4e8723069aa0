package callopts

import (
	"sync"
	"sync/atomic"
)

// Channel holds the current Options snapshot for an executor. Updates
// replace the held value wholesale (last write wins); Current never blocks
// and never fails.
type Channel struct {
	cur atomic.Pointer[Options]

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
	feeding sync.WaitGroup
}

// NewChannel creates a channel holding initial.
func NewChannel(initial Options) *Channel {
	c := &Channel{stop: make(chan struct{})}
	snap := initial.Clone()
	c.cur.Store(&snap)
	return c
}

// Current returns the most recent snapshot.
func (c *Channel) Current() Options {
	return *c.cur.Load()
}

// Set replaces the current snapshot.
func (c *Channel) Set(o Options) {
	snap := o.Clone()
	c.cur.Store(&snap)
}

// Feed consumes updates until the source channel is closed or the Channel
// is closed. Every received value replaces the current snapshot.
func (c *Channel) Feed(updates <-chan Options) {
	if updates == nil {
		return
	}
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.feeding.Add(1)
	stop := c.stop
	c.mu.Unlock()

	go func() {
		defer c.feeding.Done()
		for {
			select {
			case o, ok := <-updates:
				if !ok {
					return
				}
				c.Set(o)
			case <-stop:
				return
			}
		}
	}()
}

// Close stops all feeders. The last snapshot remains readable.
func (c *Channel) Close() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stop)
	}
	c.mu.Unlock()
	c.feeding.Wait()
}
