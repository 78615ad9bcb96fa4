package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nexlearn/exam-engine/internal/examsession"
)

type recordingSink struct {
	mu   sync.Mutex
	subs []examsession.Submission
}

func (s *recordingSink) Submit(_ context.Context, sub examsession.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func sampleSession(t *testing.T, minutes float64) *examsession.Session {
	t.Helper()
	q := func(id string, n int) examsession.Question {
		return examsession.Question{
			ID:      examsession.QuestionID(id),
			Ordinal: n,
			Text:    "Question " + id,
			Options: []examsession.Option{
				{ID: "a", Text: "right", IsCorrect: true},
				{ID: "b", Text: "wrong"},
			},
		}
	}
	s, err := examsession.New(&examsession.QuestionSet{
		SetID:                "set-1",
		Title:                "Sample",
		TotalDurationMinutes: minutes,
		Questions:            []examsession.Question{q("q1", 1), q("q2", 2), q("q3", 3)},
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func newModel(t *testing.T, sink examsession.SubmissionSink) Model {
	return NewModel(sampleSession(t, 5), nil, sink, Options{NoColor: true, Title: "Sample", SessionID: "local-1"})
}

func TestDigitAnswersAndNextAdvances(t *testing.T) {
	m := newModel(t, nil)
	m, _ = press(t, m, runes("1"), runes("n"))

	if got := m.session.Index(); got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	st, ok := m.session.Ledger().StatusFor("q1")
	if !ok || st != examsession.StatusAnswered {
		t.Fatalf("expected q1 answered, got %q (%v)", st, ok)
	}
	if view := m.View(); !strings.Contains(view, "Question 2 of 3") {
		t.Fatalf("expected position in header, got:\n%s", view)
	}
}

func TestCursorChoosesOption(t *testing.T) {
	m := newModel(t, nil)
	m, _ = press(t, m, runes("j"), tea.KeyMsg{Type: tea.KeyEnter})

	if got := m.session.Snapshot().Selected; got != "b" {
		t.Fatalf("expected b selected, got %q", got)
	}
	if m.cursor != 1 {
		t.Fatalf("expected cursor to stay on the chosen option, got %d", m.cursor)
	}
	if view := m.View(); !strings.Contains(view, "> (•) 2) wrong") {
		t.Fatalf("expected selected option marker, got:\n%s", view)
	}
}

func TestCursorFollowsRecordedChoice(t *testing.T) {
	m := newModel(t, nil)
	m, _ = press(t, m, runes("2"), runes("n"), runes("p"))

	if m.session.Index() != 0 {
		t.Fatalf("expected to be back on the first question")
	}
	if m.cursor != 1 {
		t.Fatalf("expected cursor on recorded option, got %d", m.cursor)
	}
}

func TestJumpInput(t *testing.T) {
	m := newModel(t, nil)
	m, _ = press(t, m, runes("g"))
	if !m.jumping {
		t.Fatalf("expected jump prompt to open")
	}
	m, _ = press(t, m, runes("3"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.jumping {
		t.Fatalf("expected jump prompt to close")
	}
	if got := m.session.Index(); got != 2 {
		t.Fatalf("expected index 2, got %d", got)
	}
	if _, ok := m.session.Ledger().StatusFor("q1"); ok {
		t.Fatalf("jumping must not record a skip")
	}
}

func TestJumpOutOfRange(t *testing.T) {
	m := newModel(t, nil)
	m, _ = press(t, m, runes("g"), runes("9"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.notice != "No question with that number" {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	if m.session.Index() != 0 {
		t.Fatalf("index should not move")
	}
}

func TestConfirmCancelAndSubmit(t *testing.T) {
	sink := &recordingSink{}
	m := newModel(t, sink)
	m, _ = press(t, m, runes("1"), runes("n"), runes("n"), runes("n"))

	if m.session.State() != examsession.StateAwaitingConfirmation {
		t.Fatalf("expected confirmation, got %s", m.session.State())
	}
	view := m.View()
	for _, want := range []string{"Submit the exam?", "Answered:        001", "Marked:          000", "Total questions: 3", "Time left:       05:00"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Total questions: 0") {
		t.Fatalf("total should not be padded:\n%s", view)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.session.State() != examsession.StateActive {
		t.Fatalf("expected cancel to return to answering, got %s", m.session.State())
	}

	m, _ = press(t, m, runes("n"))
	m, cmd := press(t, m, runes("y"))
	if m.session.State() != examsession.StateSubmitted {
		t.Fatalf("expected submitted, got %s", m.session.State())
	}
	if !m.saving || cmd == nil {
		t.Fatalf("expected a save command")
	}
	if !strings.Contains(m.View(), "Saving...") {
		t.Fatalf("expected saving indicator")
	}

	m, _ = press(t, m, cmd())
	if sink.count() != 1 {
		t.Fatalf("expected one submission, got %d", sink.count())
	}
	if sub := sink.subs[0]; sub.SessionID != "local-1" || sub.SetID != "set-1" {
		t.Fatalf("unexpected submission ids %+v", sub)
	}
	if m.SaveErr() != nil || !m.saved {
		t.Fatalf("expected saved, got err %v", m.SaveErr())
	}

	view = m.View()
	for _, want := range []string{"Marks obtained: 1 / 3", "Correct:        1", "Incorrect:      0", "Not attended:   2"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in:\n%s", want, view)
		}
	}

	// A second confirm is ignored.
	m, cmd = press(t, m, runes("y"))
	if cmd != nil || sink.count() != 1 {
		t.Fatalf("expected no second submission")
	}
	if res := m.Result(); res == nil || res.Correct != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestTimeUpAwayFromLastQuestion(t *testing.T) {
	m := newModel(t, nil)
	m, cmd := press(t, m, tickMsg(examsession.Remaining{}))

	if cmd == nil {
		t.Fatalf("expected to keep waiting for ticks")
	}
	if m.session.State() != examsession.StateActive {
		t.Fatalf("expected session to stay active, got %s", m.session.State())
	}
	if !strings.Contains(m.notice, "Time is up") {
		t.Fatalf("expected time-up notice, got %q", m.notice)
	}

	m, _ = press(t, m, runes("g"), runes("3"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.session.State() != examsession.StateAwaitingConfirmation {
		t.Fatalf("expected confirmation on the last question, got %s", m.session.State())
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.session.State() != examsession.StateAwaitingConfirmation {
		t.Fatalf("confirmation must not be dismissed at 00:00")
	}
	if m.notice != "Time is up. The exam must be submitted." {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	if view := m.View(); strings.Contains(view, "esc back") {
		t.Fatalf("expected no back hint, got:\n%s", view)
	}
}

func TestQuitClearsScreen(t *testing.T) {
	m := newModel(t, nil)
	m, cmd := press(t, m, runes("q"))

	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Fatalf("expected empty view after quit")
	}
}

func TestRenderGridNoColor(t *testing.T) {
	cells := []examsession.GridCell{
		{Ordinal: 1, Status: examsession.StatusAnswered},
		{Ordinal: 2, Status: examsession.StatusSkipped, Current: true},
		{Ordinal: 3, Status: examsession.StatusAnsweredAndMarked},
		{Ordinal: 4},
	}
	got := renderGrid(cells, true)
	want := " 01a  [02s]  03am   04 \n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatScore(t *testing.T) {
	cases := map[float64]string{0: "0", 1.5: "1.5", 2: "2", 0.75: "0.75", 12.25: "12.25"}
	for in, want := range cases {
		if got := formatScore(in); got != want {
			t.Fatalf("formatScore(%v) = %q, want %q", in, got, want)
		}
	}
}
