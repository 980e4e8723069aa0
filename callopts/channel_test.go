package callopts

import (
	"testing"
	"time"

	"google.golang.org/grpc/metadata"
)

func TestChannel_CurrentReturnsInitial(t *testing.T) {
	c := NewChannel(Options{Timeout: time.Second})
	if got := c.Current().Timeout; got != time.Second {
		t.Fatalf("timeout=%v, want 1s", got)
	}
}

func TestChannel_SetReplacesWholesale(t *testing.T) {
	c := NewChannel(Options{Timeout: time.Second, Metadata: metadata.Pairs("a", "1")})
	c.Set(Options{Metadata: metadata.Pairs("b", "2")})

	cur := c.Current()
	if cur.Timeout != 0 {
		t.Fatalf("timeout carried over: %v", cur.Timeout)
	}
	if len(cur.Metadata.Get("a")) != 0 || len(cur.Metadata.Get("b")) != 1 {
		t.Fatalf("metadata not replaced: %v", cur.Metadata)
	}
}

func TestChannel_SnapshotIsolatedFromLaterMutation(t *testing.T) {
	md := metadata.Pairs("k", "v1")
	c := NewChannel(Options{Metadata: md})
	md.Set("k", "v2")

	if got := c.Current().Metadata.Get("k"); len(got) != 1 || got[0] != "v1" {
		t.Fatalf("snapshot not isolated: %v", got)
	}
}

func TestChannel_FeedAppliesUpdates(t *testing.T) {
	c := NewChannel(Options{})
	defer c.Close()

	updates := make(chan Options)
	c.Feed(updates)
	updates <- Options{Timeout: 5 * time.Second}

	waitFor(t, func() bool { return c.Current().Timeout == 5*time.Second })
}

func TestChannel_LastWriteWins(t *testing.T) {
	c := NewChannel(Options{})
	defer c.Close()

	updates := make(chan Options)
	c.Feed(updates)
	for i := 1; i <= 5; i++ {
		updates <- Options{Timeout: time.Duration(i) * time.Second}
	}
	close(updates)

	waitFor(t, func() bool { return c.Current().Timeout == 5*time.Second })
}

func TestChannel_CloseStopsFeeder(t *testing.T) {
	c := NewChannel(Options{})
	updates := make(chan Options, 1)
	c.Feed(updates)
	c.Close()

	// After Close the feeder is gone; the update is never applied.
	updates <- Options{Timeout: time.Hour}
	time.Sleep(20 * time.Millisecond)
	if c.Current().Timeout != 0 {
		t.Fatalf("update applied after Close")
	}
}

func TestChannel_FeedAfterCloseIsNoop(t *testing.T) {
	c := NewChannel(Options{})
	c.Close()
	updates := make(chan Options, 1)
	c.Feed(updates)
	updates <- Options{Timeout: time.Hour}
	time.Sleep(20 * time.Millisecond)
	if c.Current().Timeout != 0 {
		t.Fatalf("feeder started after Close")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached")
}
