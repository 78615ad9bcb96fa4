package examsession

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
)

// TestSessionFeatures runs the session scenarios through godog.
func TestSessionFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "exam-session",
		ScenarioInitializer: initializeSessionScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{filepath.Join("testdata", "features")},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

func initializeSessionScenario(ctx *godog.ScenarioContext) {
	st := &sessionState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		st.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if st.timer != nil {
			st.timer.Stop()
		}
		return ctx, nil
	})

	ctx.Step(`^a question set of (\d+) questions lasting (\d+) minutes$`, st.givenQuestionSet)
	ctx.Step(`^the candidate is on question (\d+)$`, st.onQuestion)
	ctx.Step(`^the candidate answers question (\d+) correctly$`, st.answerCorrectly)
	ctx.Step(`^the candidate answers question (\d+) incorrectly$`, st.answerIncorrectly)
	ctx.Step(`^the candidate skips question (\d+)$`, st.skip)
	ctx.Step(`^the candidate marks question (\d+)$`, st.mark)
	ctx.Step(`^the candidate presses next$`, st.next)
	ctx.Step(`^the candidate presses previous$`, st.previous)
	ctx.Step(`^the candidate confirms submission$`, st.confirm)
	ctx.Step(`^the candidate confirms submission again$`, st.confirmAgain)
	ctx.Step(`^the timer runs out$`, st.timeUp)
	ctx.Step(`^the score is ([\d.]+)$`, st.scoreIs)
	ctx.Step(`^(\d+) questions are not attempted$`, st.notAttempted)
	ctx.Step(`^question (\d+) is "([A-Z_]+)"$`, st.questionStatus)
	ctx.Step(`^the session is "([A-Z_]+)"$`, st.stateIs)
	ctx.Step(`^the current question is (\d+)$`, st.currentQuestion)
	ctx.Step(`^the second confirmation is rejected$`, st.secondRejected)
	ctx.Step(`^the confirmation cannot be dismissed$`, st.cannotDismiss)
	ctx.Step(`^a countdown started with (-?\d+) minutes$`, st.startCountdown)
	ctx.Step(`^the countdown reports "([0-9:]+)" exactly once$`, st.countdownReportsOnce)
}

type sessionState struct {
	session     *Session
	result      Result
	secondErr   error
	timer       *Timer
	tickMu      sync.Mutex
	tickStrings []string
}

func (s *sessionState) reset() {
	s.session = nil
	s.result = Result{}
	s.secondErr = nil
	s.timer = nil
	s.tickMu.Lock()
	s.tickStrings = nil
	s.tickMu.Unlock()
}

func (s *sessionState) givenQuestionSet(n, minutes int) error {
	sess, err := New(newTestSet(n, float64(minutes)))
	if err != nil {
		return err
	}
	s.session = sess
	return nil
}

func (s *sessionState) onQuestion(n int) error {
	_, err := s.session.JumpTo(n - 1)
	return err
}

func (s *sessionState) answerCorrectly(n int) error { return s.answer(n, "a") }

func (s *sessionState) answerIncorrectly(n int) error { return s.answer(n, "b") }

func (s *sessionState) answer(n int, opt OptionID) error {
	if err := s.onQuestion(n); err != nil {
		return err
	}
	_, err := s.session.Answer(opt)
	return err
}

func (s *sessionState) skip(n int) error {
	if err := s.onQuestion(n); err != nil {
		return err
	}
	_, err := s.session.Advance()
	return err
}

func (s *sessionState) mark(n int) error {
	if err := s.onQuestion(n); err != nil {
		return err
	}
	_, err := s.session.Mark()
	return err
}

func (s *sessionState) next() error {
	_, err := s.session.Advance()
	return err
}

func (s *sessionState) previous() error {
	_, err := s.session.Retreat()
	return err
}

func (s *sessionState) confirm() error {
	res, err := s.session.ConfirmSubmit()
	s.result = res
	return err
}

func (s *sessionState) confirmAgain() error {
	_, s.secondErr = s.session.ConfirmSubmit()
	return nil
}

func (s *sessionState) timeUp() error {
	_, err := s.session.Tick(Remaining{})
	return err
}

func (s *sessionState) scoreIs(raw string) error {
	want, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	if s.result.Score != want {
		return fmt.Errorf("score = %v, want %v", s.result.Score, want)
	}
	return nil
}

func (s *sessionState) notAttempted(n int) error {
	if s.result.NotAttempted != n {
		return fmt.Errorf("not attempted = %d, want %d", s.result.NotAttempted, n)
	}
	return nil
}

func (s *sessionState) questionStatus(n int, want string) error {
	q := s.session.set.Questions[n-1]
	got, _ := s.session.Ledger().StatusFor(q.ID)
	if string(got) != want {
		return fmt.Errorf("question %d status = %q, want %q", n, got, want)
	}
	return nil
}

func (s *sessionState) stateIs(want string) error {
	if got := s.session.State(); string(got) != want {
		return fmt.Errorf("state = %s, want %s", got, want)
	}
	return nil
}

func (s *sessionState) currentQuestion(n int) error {
	if got := s.session.Index() + 1; got != n {
		return fmt.Errorf("current question = %d, want %d", got, n)
	}
	return nil
}

func (s *sessionState) secondRejected() error {
	if !errors.Is(s.secondErr, ErrInvalidTransition) {
		return fmt.Errorf("second confirmation err = %v, want ErrInvalidTransition", s.secondErr)
	}
	return nil
}

func (s *sessionState) cannotDismiss() error {
	if _, err := s.session.CancelSubmit(); !errors.Is(err, ErrInvalidTransition) {
		return fmt.Errorf("cancel err = %v, want ErrInvalidTransition", err)
	}
	return nil
}

func (s *sessionState) startCountdown(minutes int) error {
	s.timer = NewTimer(WithInterval(time.Millisecond))
	s.timer.OnTick(func(r Remaining) {
		s.tickMu.Lock()
		s.tickStrings = append(s.tickStrings, r.String())
		s.tickMu.Unlock()
	})
	s.timer.Start(float64(minutes))
	time.Sleep(20 * time.Millisecond)
	return nil
}

func (s *sessionState) countdownReportsOnce(want string) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if len(s.tickStrings) != 1 || s.tickStrings[0] != want {
		return fmt.Errorf("ticks = %v, want exactly [%s]", s.tickStrings, want)
	}
	return nil
}
