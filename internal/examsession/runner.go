package examsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const submitTimeout = 10 * time.Second

// Update is delivered to the observer after every event the runner applies.
type Update struct {
	Event    Event
	Outcome  Outcome
	Err      error
	Snapshot Snapshot
}

// Runner owns a session and its timer. Ticks and caller events are applied
// one at a time on the goroutine that calls Run.
type Runner struct {
	id      string
	session *Session
	timer   *Timer
	sink    SubmissionSink
	log     zerolog.Logger
	observe func(Update)
	now     func() time.Time

	events chan Event
	ticks  *TickMailbox
	done   chan struct{}
	once   sync.Once
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithObserver sets the callback that receives every update. It runs on the
// Run goroutine and must not call Send.
func WithObserver(fn func(Update)) RunnerOption {
	return func(r *Runner) { r.observe = fn }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// WithClock overrides the clock used for submission timestamps.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner wires a session to its timer and sink. sink may be nil when the
// caller only needs the returned result.
func NewRunner(id string, session *Session, timer *Timer, sink SubmissionSink, opts ...RunnerOption) *Runner {
	r := &Runner{
		id:      id,
		session: session,
		timer:   timer,
		sink:    sink,
		log:     zerolog.Nop(),
		observe: func(Update) {},
		now:     time.Now,
		events:  make(chan Event, 16),
		ticks:   NewTickMailbox(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns the session id used in submissions.
func (r *Runner) ID() string { return r.id }

// Send queues an event. It fails with ErrSessionClosed once Run has returned.
func (r *Runner) Send(ctx context.Context, e Event) error {
	select {
	case <-r.done:
		return ErrSessionClosed
	default:
	}
	select {
	case r.events <- e:
		return nil
	case <-r.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Run starts the timer and applies events until the session is submitted or
// ctx ends. On submission the sink is called once and the result returned;
// a sink error is returned alongside the result and is not retried.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	defer r.once.Do(func() { close(r.done) })

	startedAt := r.now()
	r.timer.OnTick(r.ticks.Put)
	r.timer.Start(r.session.DurationMinutes())
	defer r.timer.Stop()

	r.log.Debug().
		Str("session_id", r.id).
		Int("questions", r.session.Len()).
		Float64("duration_minutes", r.session.DurationMinutes()).
		Msg("Session started")

	r.observe(Update{Snapshot: r.session.Snapshot()})

	for {
		var ev Event
		select {
		case <-ctx.Done():
			r.log.Debug().Str("session_id", r.id).Msg("Session closed before submission")
			return Result{}, ErrSessionClosed
		case <-r.ticks.C():
			rem, ok := r.ticks.Take()
			if !ok {
				continue
			}
			ev = Event{Kind: EventTick, Remaining: rem}
		case ev = <-r.events:
		}

		out, err := r.session.Apply(ev)
		if out.Expired && !out.AwaitingConfirmation {
			r.log.Warn().
				Str("session_id", r.id).
				Int("index", r.session.Index()).
				Msg("Time is up on a question other than the last; session stays active")
		}
		r.observe(Update{Event: ev, Outcome: out, Err: err, Snapshot: r.session.Snapshot()})

		if r.session.State() == StateSubmitted {
			return r.finish(ctx, startedAt)
		}
	}
}

func (r *Runner) finish(ctx context.Context, startedAt time.Time) (Result, error) {
	r.timer.Stop()
	res := *r.session.Result()

	if r.sink == nil {
		return res, nil
	}

	sub := Submission{
		SessionID:   r.id,
		SetID:       r.session.SetID(),
		Result:      res,
		Records:     r.session.Ledger().Records(),
		StartedAt:   startedAt,
		SubmittedAt: r.now(),
	}
	// A finished session is handed off even if the caller is going away.
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
	defer cancel()
	if err := r.sink.Submit(sinkCtx, sub); err != nil {
		r.log.Error().Err(err).Str("session_id", r.id).Msg("Failed to hand off submission")
		return res, fmt.Errorf("submit session %s: %w", r.id, err)
	}

	r.log.Info().
		Str("session_id", r.id).
		Int("correct", res.Correct).
		Int("incorrect", res.Incorrect).
		Float64("score", res.Score).
		Msg("Session submitted")
	return res, nil
}
