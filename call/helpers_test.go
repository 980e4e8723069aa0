package call

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/calldeck/recall/callopts"
	"github.com/calldeck/recall/observe"
	"github.com/calldeck/recall/transport"
)

var okStatus = status.New(codes.OK, "")

// fakeUnary fails the first `failures` invocations with failCode, then
// echoes the request. It records the options snapshot and outgoing metadata
// seen by each attempt.
type fakeUnary struct {
	mu       sync.Mutex
	failures int
	failCode codes.Code

	calls  int
	mdSeen []metadata.MD
}

func (f *fakeUnary) rpc(ctx context.Context, req string, _ callopts.Options) (*transport.Cell[string], *transport.Cell[*status.Status]) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	md, _ := metadata.FromOutgoingContext(ctx)
	f.mdSeen = append(f.mdSeen, md)
	f.mu.Unlock()

	res := transport.NewCell[string]()
	st := transport.NewCell[*status.Status]()
	if n <= f.failures {
		st.Resolve(status.New(f.failCode, "induced failure"))
		return res, st
	}
	res.Resolve(req)
	st.Resolve(okStatus)
	return res, st
}

func (f *fakeUnary) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// hangingUnary never resolves; used to exercise caller cancellation.
type hangingUnary struct {
	started chan struct{}
	ctxDone chan struct{}
	once    sync.Once
}

func newHangingUnary() *hangingUnary {
	return &hangingUnary{started: make(chan struct{}), ctxDone: make(chan struct{})}
}

func (h *hangingUnary) rpc(ctx context.Context, _ string, _ callopts.Options) (*transport.Cell[string], *transport.Cell[*status.Status]) {
	h.once.Do(func() { close(h.started) })
	go func() {
		<-ctx.Done()
		close(h.ctxDone)
	}()
	return transport.NewCell[string](), transport.NewCell[*status.Status]()
}

// ssAttempt is one scripted server-stream attempt.
type ssAttempt struct {
	msgs []string
	code codes.Code
}

// fakeServerStream plays scripted attempts in order, repeating the last one
// if invoked more often than scripted.
type fakeServerStream struct {
	mu       sync.Mutex
	attempts []ssAttempt
	calls    int
}

func (f *fakeServerStream) rpc(_ context.Context, _ string, _ callopts.Options, onMessage func(string)) *transport.Cell[*status.Status] {
	f.mu.Lock()
	i := f.calls
	if i >= len(f.attempts) {
		i = len(f.attempts) - 1
	}
	a := f.attempts[i]
	f.calls++
	f.mu.Unlock()

	st := transport.NewCell[*status.Status]()
	go func() {
		for _, m := range a.msgs {
			onMessage(m)
		}
		if a.code == codes.OK {
			st.Resolve(okStatus)
		} else {
			st.Resolve(status.New(a.code, "induced failure"))
		}
	}()
	return st
}

// fakeClientStream joins the sent requests into one response on CloseSend.
// The first `failures` attempts fail with failCode at close time; Cancel
// resolves a Canceled status.
type fakeClientStream struct {
	mu       sync.Mutex
	failures int
	failCode codes.Code
	calls    int
}

func (f *fakeClientStream) rpc(_ context.Context, _ callopts.Options) (transport.Handle[string], *transport.Cell[string], *transport.Cell[*status.Status]) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()

	h := &fakeSendHandle{
		res:      transport.NewCell[string](),
		st:       transport.NewCell[*status.Status](),
		fail:     fail,
		failCode: f.failCode,
	}
	return h, h.res, h.st
}

type fakeSendHandle struct {
	mu       sync.Mutex
	sends    []string
	res      *transport.Cell[string]
	st       *transport.Cell[*status.Status]
	fail     bool
	failCode codes.Code
}

func (h *fakeSendHandle) Send(m string) error {
	h.mu.Lock()
	h.sends = append(h.sends, m)
	h.mu.Unlock()
	return nil
}

func (h *fakeSendHandle) CloseSend() error {
	if h.fail {
		h.st.Resolve(status.New(h.failCode, "induced failure"))
		return nil
	}
	h.mu.Lock()
	joined := strings.Join(h.sends, ",")
	h.mu.Unlock()
	h.res.Resolve(joined)
	h.st.Resolve(okStatus)
	return nil
}

func (h *fakeSendHandle) Cancel() {
	h.st.Resolve(status.New(codes.Canceled, "call canceled"))
}

// fakeBidi echoes every sent request back through onMessage; CloseSend
// completes the call, Cancel fails it with Canceled.
type fakeBidi struct{}

func (fakeBidi) rpc(_ context.Context, _ callopts.Options, onMessage func(string)) (transport.Handle[string], *transport.Cell[*status.Status]) {
	h := &fakeEchoHandle{
		st:        transport.NewCell[*status.Status](),
		onMessage: onMessage,
	}
	return h, h.st
}

type fakeEchoHandle struct {
	st        *transport.Cell[*status.Status]
	onMessage func(string)
}

func (h *fakeEchoHandle) Send(m string) error {
	h.onMessage(m)
	return nil
}

func (h *fakeEchoHandle) CloseSend() error {
	h.st.Resolve(okStatus)
	return nil
}

func (h *fakeEchoHandle) Cancel() {
	h.st.Resolve(status.New(codes.Canceled, "call canceled"))
}

// countingObserver records lifecycle invocations.
type countingObserver struct {
	mu       sync.Mutex
	starts   int
	attempts []observe.AttemptRecord
	retries  int
	giveUps  int
	ends     []observe.CallRecord
}

func (o *countingObserver) OnCallStart(context.Context, observe.CallInfo) {
	o.mu.Lock()
	o.starts++
	o.mu.Unlock()
}

func (o *countingObserver) OnAttempt(_ context.Context, _ observe.CallInfo, rec observe.AttemptRecord) {
	o.mu.Lock()
	o.attempts = append(o.attempts, rec)
	o.mu.Unlock()
}

func (o *countingObserver) OnRetryScheduled(context.Context, observe.CallInfo, uint, *status.Status) {
	o.mu.Lock()
	o.retries++
	o.mu.Unlock()
}

func (o *countingObserver) OnGiveUp(context.Context, observe.CallInfo, *status.Status) {
	o.mu.Lock()
	o.giveUps++
	o.mu.Unlock()
}

func (o *countingObserver) OnCallEnd(_ context.Context, rec observe.CallRecord) {
	o.mu.Lock()
	o.ends = append(o.ends, rec)
	o.mu.Unlock()
}

func (o *countingObserver) snapshot() (starts int, attempts []observe.AttemptRecord, retries, giveUps int, ends []observe.CallRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.starts, append([]observe.AttemptRecord(nil), o.attempts...), o.retries, o.giveUps, append([]observe.CallRecord(nil), o.ends...)
}
