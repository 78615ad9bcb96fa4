package examsession

import "fmt"

// EventKind names an input to the session. The values double as the
// action names of the session stream protocol.
type EventKind string

const (
	EventAnswer  EventKind = "answer"
	EventAdvance EventKind = "next"
	EventRetreat EventKind = "previous"
	EventMark    EventKind = "mark"
	EventJump    EventKind = "jump"
	EventTick    EventKind = "tick"
	EventConfirm EventKind = "submit"
	EventCancel  EventKind = "cancel"
)

// Event is a single input. Only the field matching Kind is read.
type Event struct {
	Kind      EventKind
	OptionID  OptionID
	Index     int
	Remaining Remaining
}

// Apply dispatches e to the matching operation.
func (s *Session) Apply(e Event) (Outcome, error) {
	switch e.Kind {
	case EventAnswer:
		return s.Answer(e.OptionID)
	case EventAdvance:
		return s.Advance()
	case EventRetreat:
		return s.Retreat()
	case EventMark:
		return s.Mark()
	case EventJump:
		return s.JumpTo(e.Index)
	case EventTick:
		return s.Tick(e.Remaining)
	case EventConfirm:
		if _, err := s.ConfirmSubmit(); err != nil {
			return Outcome{}, err
		}
		return Outcome{Submitted: true}, nil
	case EventCancel:
		return s.CancelSubmit()
	default:
		return Outcome{}, fmt.Errorf("unknown event %q: %w", e.Kind, ErrInvalidTransition)
	}
}
