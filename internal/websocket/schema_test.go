package websocket

import (
	"errors"
	"testing"

	"github.com/nexlearn/exam-engine/internal/examsession"
)

func TestRequestToEvent(t *testing.T) {
	two := 2
	tests := []struct {
		name string
		req  Request
		want examsession.Event
	}{
		{"answer", Request{Action: ActionAnswer, OptionID: "b"}, examsession.Event{Kind: examsession.EventAnswer, OptionID: "b"}},
		{"next", Request{Action: ActionNext}, examsession.Event{Kind: examsession.EventAdvance}},
		{"previous", Request{Action: ActionPrevious}, examsession.Event{Kind: examsession.EventRetreat}},
		{"mark", Request{Action: ActionMark}, examsession.Event{Kind: examsession.EventMark}},
		{"jump", Request{Action: ActionJump, Index: &two}, examsession.Event{Kind: examsession.EventJump, Index: 2}},
		{"submit", Request{Action: ActionSubmit}, examsession.Event{Kind: examsession.EventConfirm}},
		{"cancel", Request{Action: ActionCancel}, examsession.Event{Kind: examsession.EventCancel}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.ToEvent()
			if err != nil {
				t.Fatalf("ToEvent: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestToEventRejects(t *testing.T) {
	if _, err := (Request{Action: ActionPing}).ToEvent(); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("ping: err = %v", err)
	}
	if _, err := (Request{Action: "tick"}).ToEvent(); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("tick from client: err = %v", err)
	}
	if _, err := (Request{Action: ActionJump}).ToEvent(); !errors.Is(err, examsession.ErrIndexOutOfRange) {
		t.Fatalf("jump without index: err = %v", err)
	}
}

func TestNewSnapshotOmitsEmptyOutcome(t *testing.T) {
	resp := NewSnapshot(examsession.Update{Event: examsession.Event{Kind: examsession.EventTick}})
	if resp.Outcome != nil {
		t.Fatalf("outcome = %+v, want nil", resp.Outcome)
	}
	if resp.Cause != "tick" || resp.Event != EventSnapshot {
		t.Fatalf("unexpected response %+v", resp)
	}

	resp = NewSnapshot(examsession.Update{Outcome: examsession.Outcome{Expired: true}})
	if resp.Outcome == nil || !resp.Outcome.Expired {
		t.Fatalf("outcome = %+v", resp.Outcome)
	}
}
