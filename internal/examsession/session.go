package examsession

import "fmt"

// State is the lifecycle stage of a session.
type State string

const (
	StateActive               State = "ACTIVE"
	StateAwaitingConfirmation State = "AWAITING_SUBMIT_CONFIRMATION"
	StateSubmitted            State = "SUBMITTED"
)

// Session is the exam state machine. It is not safe for concurrent use: one
// event loop owns it and applies events in order.
type Session struct {
	set       QuestionSet
	index     int
	ledger    *Ledger
	remaining Remaining
	timed     bool
	state     State
	result    *Result
}

// New builds an ACTIVE session positioned on the first question with the
// full duration remaining.
func New(set *QuestionSet) (*Session, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	questions := make([]Question, len(set.Questions))
	copy(questions, set.Questions)
	owned := *set
	owned.Questions = questions

	minutes := WholeMinutes(set.TotalDurationMinutes)
	return &Session{
		set:       owned,
		ledger:    NewLedger(),
		remaining: RemainingFromSeconds(minutes * 60),
		timed:     minutes > 0,
		state:     StateActive,
	}, nil
}

// SetID returns the id of the loaded question set.
func (s *Session) SetID() string { return s.set.SetID }

// DurationMinutes returns the normalised duration the timer should run.
func (s *Session) DurationMinutes() float64 {
	return float64(WholeMinutes(s.set.TotalDurationMinutes))
}

// State returns the lifecycle stage.
func (s *Session) State() State { return s.state }

// Index returns the current question index.
func (s *Session) Index() int { return s.index }

// Len returns the number of questions.
func (s *Session) Len() int { return len(s.set.Questions) }

// Current returns the question under the pointer.
func (s *Session) Current() Question { return s.set.Questions[s.index] }

// Ledger exposes the answer ledger for reading.
func (s *Session) Ledger() *Ledger { return s.ledger }

// Result is nil until the session is submitted.
func (s *Session) Result() *Result { return s.result }

// Outcome describes side effects of an applied event that the caller may
// want to surface.
type Outcome struct {
	// Expired is set when the countdown is at zero and the expiry policy ran.
	// On a question other than the last it leaves the session ACTIVE.
	Expired bool
	// AwaitingConfirmation is set when the event moved the session into
	// AWAITING_SUBMIT_CONFIRMATION.
	AwaitingConfirmation bool
	// Submitted is set by the event that produced the result.
	Submitted bool
}

// Answer records optionID as the response to the current question.
func (s *Session) Answer(optionID OptionID) (Outcome, error) {
	if err := s.require(StateActive, "answer"); err != nil {
		return Outcome{}, err
	}
	q := s.Current()
	opt, ok := q.Option(optionID)
	if !ok {
		return Outcome{}, fmt.Errorf("answer %s with %q: %w", q.ID, optionID, ErrUnknownOption)
	}
	if _, err := s.ledger.RecordAnswer(q.ID, opt.ID, opt.IsCorrect); err != nil {
		return Outcome{}, err
	}
	return Outcome{}, nil
}

// Advance leaves the current question, recording a skip if it was never
// touched. On the last question it asks for submit confirmation instead of
// moving.
func (s *Session) Advance() (Outcome, error) {
	if err := s.require(StateActive, "advance"); err != nil {
		return Outcome{}, err
	}
	s.ledger.RecordSkip(s.Current().ID)

	if s.isLast() {
		s.state = StateAwaitingConfirmation
		return Outcome{AwaitingConfirmation: true}, nil
	}
	s.index++
	return s.checkExpiry(), nil
}

// Retreat moves to the previous question. It is a no-op on the first.
func (s *Session) Retreat() (Outcome, error) {
	if err := s.require(StateActive, "retreat"); err != nil {
		return Outcome{}, err
	}
	if s.index > 0 {
		s.index--
	}
	return s.checkExpiry(), nil
}

// Mark flags the current question for review.
func (s *Session) Mark() (Outcome, error) {
	if err := s.require(StateActive, "mark"); err != nil {
		return Outcome{}, err
	}
	s.ledger.ToggleMark(s.Current().ID)
	return Outcome{}, nil
}

// JumpTo moves the pointer to index i without recording a skip.
func (s *Session) JumpTo(i int) (Outcome, error) {
	if err := s.require(StateActive, "jump"); err != nil {
		return Outcome{}, err
	}
	if i < 0 || i >= len(s.set.Questions) {
		return Outcome{}, fmt.Errorf("jump to %d of %d: %w", i, len(s.set.Questions), ErrIndexOutOfRange)
	}
	s.index = i
	return s.checkExpiry(), nil
}

// Tick stores the latest remaining time and runs the expiry policy once it
// reaches zero.
func (s *Session) Tick(r Remaining) (Outcome, error) {
	if s.state == StateSubmitted {
		return Outcome{}, fmt.Errorf("tick: %w", ErrInvalidTransition)
	}
	s.remaining = RemainingFromSeconds(r.TotalSeconds())
	return s.checkExpiry(), nil
}

// ConfirmSubmit freezes the session and computes its result. Only the first
// call has an effect.
func (s *Session) ConfirmSubmit() (Result, error) {
	if s.state == StateSubmitted {
		return *s.result, fmt.Errorf("confirm submit: already submitted: %w", ErrInvalidTransition)
	}
	res := Project(s.ledger.Records(), len(s.set.Questions))
	s.result = &res
	s.state = StateSubmitted
	return res, nil
}

// CancelSubmit returns to answering. Once time has run out the confirmation
// can no longer be dismissed.
func (s *Session) CancelSubmit() (Outcome, error) {
	if err := s.require(StateAwaitingConfirmation, "cancel submit"); err != nil {
		return Outcome{}, err
	}
	if s.remaining.IsZero() {
		return Outcome{}, fmt.Errorf("cancel submit: time is up: %w", ErrInvalidTransition)
	}
	s.state = StateActive
	return Outcome{}, nil
}

// CanCancel reports whether CancelSubmit would succeed.
func (s *Session) CanCancel() bool {
	return s.state == StateAwaitingConfirmation && !s.remaining.IsZero()
}

// checkExpiry applies the time-up policy: on the last question the session
// waits for confirmation, elsewhere nothing changes.
func (s *Session) checkExpiry() Outcome {
	if s.state != StateActive || !s.timed || !s.remaining.IsZero() {
		return Outcome{}
	}
	if !s.isLast() {
		return Outcome{Expired: true}
	}
	s.state = StateAwaitingConfirmation
	return Outcome{Expired: true, AwaitingConfirmation: true}
}

func (s *Session) isLast() bool { return s.index == len(s.set.Questions)-1 }

func (s *Session) require(want State, op string) error {
	if s.state != want {
		return fmt.Errorf("%s in state %s: %w", op, s.state, ErrInvalidTransition)
	}
	return nil
}
