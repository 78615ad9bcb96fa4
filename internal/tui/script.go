package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/nexlearn/exam-engine/internal/examsession"
)

// ErrQuit is returned by ParseCommand for the quit command.
var ErrQuit = errors.New("quit")

// ErrUnknownCommand is returned by ParseCommand for unrecognised input.
var ErrUnknownCommand = errors.New("unknown command")

const scriptHelp = "commands: answer <option>, next, prev, mark, jump <number>, submit, cancel, quit"

// ParseCommand turns one line of plain-mode input into a session event.
// Blank lines yield ok == false.
func ParseCommand(line string) (ev examsession.Event, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return examsession.Event{}, false, nil
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch strings.ToLower(fields[0]) {
	case "answer", "a":
		if arg == "" {
			return examsession.Event{}, false, fmt.Errorf("answer: %w", examsession.ErrNoSelection)
		}
		return examsession.Event{Kind: examsession.EventAnswer, OptionID: examsession.OptionID(arg)}, true, nil
	case "next", "n":
		return examsession.Event{Kind: examsession.EventAdvance}, true, nil
	case "prev", "previous", "p":
		return examsession.Event{Kind: examsession.EventRetreat}, true, nil
	case "mark", "m":
		return examsession.Event{Kind: examsession.EventMark}, true, nil
	case "jump", "j":
		n, convErr := strconv.Atoi(arg)
		if convErr != nil {
			return examsession.Event{}, false, fmt.Errorf("jump %q: %w", arg, examsession.ErrIndexOutOfRange)
		}
		return examsession.Event{Kind: examsession.EventJump, Index: n - 1}, true, nil
	case "submit", "s", "y":
		return examsession.Event{Kind: examsession.EventConfirm}, true, nil
	case "cancel", "c":
		return examsession.Event{Kind: examsession.EventCancel}, true, nil
	case "quit", "q", "exit":
		return examsession.Event{}, false, ErrQuit
	default:
		return examsession.Event{}, false, fmt.Errorf("%q: %w", fields[0], ErrUnknownCommand)
	}
}

// RunScript drives r from newline separated commands on in and prints every
// change to out. It returns when the session is submitted, in is exhausted
// or the quit command is read; the last two abandon the session.
func RunScript(ctx context.Context, in io.Reader, out io.Writer, build func(observe func(examsession.Update)) *examsession.Runner) (examsession.Result, error) {
	w := &syncWriter{w: out}
	acks := make(chan struct{}, 1)
	r := build(func(u examsession.Update) {
		printUpdate(w, u)
		if u.Event.Kind != "" && u.Event.Kind != examsession.EventTick {
			acks <- struct{}{}
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type runResult struct {
		res examsession.Result
		err error
	}
	finished := make(chan runResult, 1)
	go func() {
		res, err := r.Run(ctx)
		finished <- runResult{res, err}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	w.printf("%s\n", scriptHelp)
	for {
		select {
		case done := <-finished:
			return done.res, done.err
		case line, open := <-lines:
			if !open {
				cancel()
				done := <-finished
				return done.res, done.err
			}
			ev, ok, err := ParseCommand(line)
			if errors.Is(err, ErrQuit) {
				cancel()
				done := <-finished
				return done.res, done.err
			}
			if err != nil {
				w.printf("! %v\n%s\n", err, scriptHelp)
				continue
			}
			if !ok {
				continue
			}
			if err := r.Send(ctx, ev); err != nil {
				if errors.Is(err, examsession.ErrSessionClosed) {
					continue
				}
				return examsession.Result{}, err
			}
			// Wait for the event to be applied so input order is kept
			// even when in is exhausted right after it.
			select {
			case <-acks:
			case done := <-finished:
				return done.res, done.err
			}
		}
	}
}

// printUpdate writes a plain text view of u. Ticks are printed only when
// they change what the candidate can do.
func printUpdate(w *syncWriter, u examsession.Update) {
	if u.Event.Kind == examsession.EventTick && !u.Outcome.Expired && !u.Outcome.AwaitingConfirmation {
		return
	}
	if u.Err != nil {
		w.printf("! %v\n", u.Err)
		return
	}

	snap := u.Snapshot
	switch snap.State {
	case examsession.StateSubmitted:
		if snap.Result != nil {
			res := snap.Result
			w.printf("submitted: marks %s / %d, correct %d, incorrect %d, not attended %d\n",
				formatScore(res.Score), res.TotalQuestions, res.Correct, res.Incorrect, res.NotAttempted)
		}
		return
	case examsession.StateAwaitingConfirmation:
		st := snap.Stats
		w.printf("submit? time left %s, answered %s of %d, marked %s (submit",
			st.RemainingTime, pad3(st.Answered), st.TotalQuestions, pad3(st.Marked))
		if snap.CanCancel {
			w.printf(" or cancel")
		}
		w.printf(")\n")
		return
	}

	if u.Outcome.Expired {
		w.printf("time is up, go to question %d to submit\n", snap.Total)
	}
	q := snap.Question
	w.printf("Q%d/%d  %s", snap.Index+1, snap.Total, snap.Remaining)
	if snap.Status != "" {
		w.printf("  [%s]", statusLabel(snap.Status))
	}
	w.printf("\n")
	if q.PassageText != "" {
		w.printf("%s\n", q.PassageText)
	}
	w.printf("%s\n", q.Text)
	for _, o := range q.Options {
		mark := " "
		if o.ID == snap.Selected {
			mark = "*"
		}
		w.printf("%s %s) %s\n", mark, o.ID, o.Text)
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}
