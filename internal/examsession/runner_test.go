package examsession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu   sync.Mutex
	subs []Submission
	err  error
}

func (s *recordingSink) Submit(_ context.Context, sub Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

type runOutcome struct {
	res Result
	err error
}

func startRunner(t *testing.T, ctx context.Context, r *Runner) <-chan runOutcome {
	t.Helper()
	ch := make(chan runOutcome, 1)
	go func() {
		res, err := r.Run(ctx)
		ch <- runOutcome{res, err}
	}()
	return ch
}

func waitRun(t *testing.T, ch <-chan runOutcome) runOutcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not finish")
		return runOutcome{}
	}
}

func TestRunnerSubmitsOnce(t *testing.T) {
	s := mustSession(t, 3, 10)
	sink := &recordingSink{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewRunner("sess-1", s, NewTimer(WithInterval(time.Hour)), sink, WithClock(func() time.Time { return fixed }))

	ctx := context.Background()
	done := startRunner(t, ctx, r)

	for _, ev := range []Event{
		{Kind: EventAnswer, OptionID: "a"},
		{Kind: EventAdvance},
		{Kind: EventAnswer, OptionID: "b"},
		{Kind: EventAdvance},
		{Kind: EventAdvance},
		{Kind: EventConfirm},
	} {
		if err := r.Send(ctx, ev); err != nil {
			t.Fatalf("Send(%s): %v", ev.Kind, err)
		}
	}

	out := waitRun(t, done)
	if out.err != nil {
		t.Fatalf("Run: %v", out.err)
	}
	want := Result{TotalQuestions: 3, Correct: 1, Incorrect: 1, NotAttempted: 1, Score: 0.75}
	if out.res != want {
		t.Fatalf("result = %+v, want %+v", out.res, want)
	}

	if sink.count() != 1 {
		t.Fatalf("sink called %d times", sink.count())
	}
	sub := sink.subs[0]
	if sub.SessionID != "sess-1" || sub.SetID != "set-1" || sub.Result != want {
		t.Fatalf("submission = %+v", sub)
	}
	if len(sub.Records) != 3 || !sub.SubmittedAt.Equal(fixed) {
		t.Fatalf("submission records %d at %v", len(sub.Records), sub.SubmittedAt)
	}

	if err := r.Send(ctx, Event{Kind: EventConfirm}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Send after submit err = %v, want ErrSessionClosed", err)
	}
}

func TestRunnerReportsRejectedEvents(t *testing.T) {
	s := mustSession(t, 2, 10)
	var mu sync.Mutex
	var rejected []error
	r := NewRunner("sess-2", s, NewTimer(WithInterval(time.Hour)), nil, WithObserver(func(u Update) {
		if u.Err != nil {
			mu.Lock()
			rejected = append(rejected, u.Err)
			mu.Unlock()
		}
	}))

	ctx := context.Background()
	done := startRunner(t, ctx, r)
	r.Send(ctx, Event{Kind: EventJump, Index: 9})
	r.Send(ctx, Event{Kind: EventCancel})
	r.Send(ctx, Event{Kind: EventConfirm})
	out := waitRun(t, done)
	if out.err != nil {
		t.Fatalf("Run: %v", out.err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(rejected) != 2 {
		t.Fatalf("rejected = %v, want 2 errors", rejected)
	}
	if !errors.Is(rejected[0], ErrIndexOutOfRange) || !errors.Is(rejected[1], ErrInvalidTransition) {
		t.Fatalf("rejected = %v", rejected)
	}
}

func TestRunnerCancelStopsSession(t *testing.T) {
	s := mustSession(t, 2, 10)
	sink := &recordingSink{}
	r := NewRunner("sess-3", s, NewTimer(WithInterval(time.Millisecond)), sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := startRunner(t, ctx, r)
	time.Sleep(5 * time.Millisecond)
	cancel()

	out := waitRun(t, done)
	if !errors.Is(out.err, ErrSessionClosed) {
		t.Fatalf("Run err = %v, want ErrSessionClosed", out.err)
	}
	if sink.count() != 0 {
		t.Fatal("cancelled session was submitted")
	}
	if err := r.Send(context.Background(), Event{Kind: EventAdvance}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Send after cancel err = %v", err)
	}
}

func TestRunnerExpiryOnLastQuestion(t *testing.T) {
	s := mustSession(t, 1, 1)
	awaiting := make(chan Snapshot, 1)
	r := NewRunner("sess-4", s, NewTimer(WithInterval(time.Millisecond)), nil, WithObserver(func(u Update) {
		if u.Outcome.AwaitingConfirmation {
			awaiting <- u.Snapshot
		}
	}))

	ctx := context.Background()
	done := startRunner(t, ctx, r)

	select {
	case snap := <-awaiting:
		if snap.State != StateAwaitingConfirmation || !snap.Remaining.IsZero() || snap.CanCancel {
			t.Fatalf("snapshot at expiry = %+v", snap)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expiry never opened the confirmation")
	}

	r.Send(ctx, Event{Kind: EventCancel})
	r.Send(ctx, Event{Kind: EventConfirm})
	out := waitRun(t, done)
	if out.err != nil || out.res.NotAttempted != 1 {
		t.Fatalf("Run = %+v, %v", out.res, out.err)
	}
}

func TestRunnerSinkErrorIsNotRetried(t *testing.T) {
	s := mustSession(t, 1, 10)
	sink := &recordingSink{err: errors.New("queue down")}
	r := NewRunner("sess-5", s, NewTimer(WithInterval(time.Hour)), sink)

	ctx := context.Background()
	done := startRunner(t, ctx, r)
	r.Send(ctx, Event{Kind: EventConfirm})

	out := waitRun(t, done)
	if out.err == nil {
		t.Fatal("Run did not report the sink error")
	}
	if out.res.TotalQuestions != 1 {
		t.Fatalf("result = %+v", out.res)
	}
	if sink.count() != 1 {
		t.Fatalf("sink called %d times", sink.count())
	}
}
