package websocket

import (
	"errors"
	"fmt"

	"github.com/nexlearn/exam-engine/internal/examsession"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionMark     Action = "mark"
	ActionJump     Action = "jump"
	ActionSubmit   Action = "submit"
	ActionCancel   Action = "cancel"
	ActionPing     Action = "ping"
)

// Request is every client message. Only the field the action needs is read.
type Request struct {
	Action   Action `json:"action"`
	OptionID string `json:"option_id,omitempty"`
	Index    *int   `json:"index,omitempty"`
}

// ErrUnknownAction is returned by ToEvent for actions with no session event.
var ErrUnknownAction = errors.New("unknown action")

var actionEvents = map[Action]examsession.EventKind{
	ActionAnswer:   examsession.EventAnswer,
	ActionNext:     examsession.EventAdvance,
	ActionPrevious: examsession.EventRetreat,
	ActionMark:     examsession.EventMark,
	ActionJump:     examsession.EventJump,
	ActionSubmit:   examsession.EventConfirm,
	ActionCancel:   examsession.EventCancel,
}

// ToEvent converts a request into the session event it stands for.
func (r Request) ToEvent() (examsession.Event, error) {
	kind, ok := actionEvents[r.Action]
	if !ok {
		return examsession.Event{}, fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
	ev := examsession.Event{Kind: kind}
	switch kind {
	case examsession.EventAnswer:
		ev.OptionID = examsession.OptionID(r.OptionID)
	case examsession.EventJump:
		if r.Index == nil {
			return examsession.Event{}, fmt.Errorf("jump needs an index: %w", examsession.ErrIndexOutOfRange)
		}
		ev.Index = *r.Index
	}
	return ev, nil
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventResult   Event = "result"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// Outcome mirrors examsession.Outcome on the wire.
type Outcome struct {
	Expired              bool `json:"expired,omitempty"`
	AwaitingConfirmation bool `json:"awaiting_confirmation,omitempty"`
	Submitted            bool `json:"submitted,omitempty"`
}

// SnapshotResponse is pushed after every applied event and every tick.
type SnapshotResponse struct {
	Event   Event                `json:"event"`
	Cause   string               `json:"cause,omitempty"`
	Outcome *Outcome             `json:"outcome,omitempty"`
	Data    examsession.Snapshot `json:"data"`
}

// ResultResponse is the last message of a submitted session.
type ResultResponse struct {
	Event     Event              `json:"event"`
	SessionID string             `json:"session_id"`
	Saved     bool               `json:"saved"`
	Data      examsession.Result `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// NewSnapshot builds the response for a runner update.
func NewSnapshot(u examsession.Update) SnapshotResponse {
	resp := SnapshotResponse{
		Event: EventSnapshot,
		Cause: string(u.Event.Kind),
		Data:  u.Snapshot,
	}
	if o := u.Outcome; o.Expired || o.AwaitingConfirmation || o.Submitted {
		resp.Outcome = &Outcome{
			Expired:              o.Expired,
			AwaitingConfirmation: o.AwaitingConfirmation,
			Submitted:            o.Submitted,
		}
	}
	return resp
}
