// Package tui renders a practice session in the terminal with Bubble Tea.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nexlearn/exam-engine/internal/examsession"
)

const saveTimeout = 10 * time.Second

// Options configures the practice UI model.
type Options struct {
	NoColor   bool
	Title     string
	SessionID string
	Now       func() time.Time
}

// Model is the Bubble Tea model for one practice session. The session is
// only touched from Update.
type Model struct {
	session   *examsession.Session
	timer     *examsession.Timer
	ticks     *examsession.TickMailbox
	sink      examsession.SubmissionSink
	title     string
	sessionID string
	startedAt time.Time
	now       func() time.Time

	keys    keyMap
	help    help.Model
	jump    textinput.Model
	jumping bool
	cursor  int
	notice  string
	width   int

	saving   bool
	saved    bool
	saveErr  error
	quitting bool
	noColor  bool
}

// NewModel builds the model. timer and sink may be nil.
func NewModel(session *examsession.Session, timer *examsession.Timer, sink examsession.SubmissionSink, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ti := textinput.New()
	ti.Placeholder = "number"
	ti.CharLimit = 5
	ti.Width = 8
	ti.Prompt = "Go to question: "

	m := Model{
		session:   session,
		timer:     timer,
		ticks:     examsession.NewTickMailbox(),
		sink:      sink,
		title:     opts.Title,
		sessionID: opts.SessionID,
		startedAt: now(),
		now:       now,
		keys:      defaultKeys(),
		help:      help.New(),
		jump:      ti,
		noColor:   opts.NoColor,
	}
	return m.syncCursor()
}

// Init starts the countdown and waits for its first tick.
func (m Model) Init() tea.Cmd {
	if m.timer == nil {
		return nil
	}
	m.timer.OnTick(m.ticks.Put)
	m.timer.Start(m.session.DurationMinutes())
	return waitForTick(m.ticks)
}

// Update applies key presses and timer ticks to the session.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.help.Width = typed.Width
		return m, nil
	case tickMsg:
		if m.session.State() == examsession.StateSubmitted {
			return m, nil
		}
		out, err := m.session.Tick(examsession.Remaining(typed))
		m = m.applied(out, err)
		return m, waitForTick(m.ticks)
	case savedMsg:
		m.saving = false
		m.saveErr = typed.err
		m.saved = typed.err == nil
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

// Result returns the scored result once the session is submitted.
func (m Model) Result() *examsession.Result { return m.session.Result() }

// SaveErr returns the error from handing the submission to the sink.
func (m Model) SaveErr() error { return m.saveErr }

// tickMsg carries the latest remaining time.
type tickMsg examsession.Remaining

// savedMsg reports the sink outcome.
type savedMsg struct{ err error }

// waitForTick blocks until the timer has published a value.
func waitForTick(ticks *examsession.TickMailbox) tea.Cmd {
	return func() tea.Msg {
		for range ticks.C() {
			if rem, ok := ticks.Take(); ok {
				return tickMsg(rem)
			}
		}
		return nil
	}
}

func saveCmd(sink examsession.SubmissionSink, sub examsession.Submission) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return savedMsg{err: sink.Submit(ctx, sub)}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	switch m.session.State() {
	case examsession.StateSubmitted:
		if m.saving {
			return m, nil
		}
		if key.Matches(msg, m.keys.Quit) || msg.Type == tea.KeyEnter {
			return m.quit()
		}
		return m, nil
	case examsession.StateAwaitingConfirmation:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m.submit()
		case key.Matches(msg, m.keys.Back):
			out, err := m.session.CancelSubmit()
			return m.applied(out, err), nil
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		return m, nil
	}

	if m.jumping {
		return m.handleJump(msg)
	}

	var (
		out examsession.Outcome
		err error
	)
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.session.Current().Options)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Choose):
		out, err = m.answerAt(m.cursor)
	case key.Matches(msg, m.keys.Next):
		out, err = m.session.Advance()
	case key.Matches(msg, m.keys.Prev):
		out, err = m.session.Retreat()
	case key.Matches(msg, m.keys.Mark):
		out, err = m.session.Mark()
	case key.Matches(msg, m.keys.Jump):
		m.jumping = true
		m.jump.Reset()
		return m, m.jump.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	default:
		n, ok := optionDigit(msg)
		if !ok {
			return m, nil
		}
		m.cursor = n
		out, err = m.answerAt(n)
	}
	return m.applied(out, err), nil
}

func (m Model) handleJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.jumping = false
		m.jump.Blur()
		return m, nil
	case tea.KeyEnter:
		m.jumping = false
		m.jump.Blur()
		n, err := strconv.Atoi(strings.TrimSpace(m.jump.Value()))
		if err != nil {
			m.notice = "Enter a question number"
			return m, nil
		}
		out, jerr := m.session.JumpTo(n - 1)
		return m.applied(out, jerr), nil
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m Model) answerAt(i int) (examsession.Outcome, error) {
	opts := m.session.Current().Options
	if i < 0 || i >= len(opts) {
		return examsession.Outcome{}, examsession.ErrUnknownOption
	}
	return m.session.Answer(opts[i].ID)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	res, err := m.session.ConfirmSubmit()
	if err != nil {
		m.notice = describe(err, m.session)
		return m, nil
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.notice = ""
	if m.sink == nil {
		return m, nil
	}
	m.saving = true
	sub := examsession.Submission{
		SessionID:   m.sessionID,
		SetID:       m.session.SetID(),
		Result:      res,
		Records:     m.session.Ledger().Records(),
		StartedAt:   m.startedAt,
		SubmittedAt: m.now(),
	}
	return m, saveCmd(m.sink, sub)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.quitting = true
	return m, tea.Quit
}

// applied folds an operation's outcome into the UI state.
func (m Model) applied(out examsession.Outcome, err error) Model {
	switch {
	case err != nil:
		m.notice = describe(err, m.session)
	case out.Expired && !out.AwaitingConfirmation:
		m.notice = "Time is up. Go to the last question to submit."
	default:
		m.notice = ""
	}
	if m.session.State() != examsession.StateActive {
		m.jumping = false
		m.jump.Blur()
	}
	return m.syncCursor()
}

// syncCursor points the cursor at the recorded choice, or the first option.
func (m Model) syncCursor() Model {
	m.cursor = 0
	snap := m.session.Snapshot()
	for i, o := range snap.Question.Options {
		if o.ID == snap.Selected {
			m.cursor = i
		}
	}
	return m
}

func optionDigit(msg tea.KeyMsg) (int, bool) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '1'), true
}

func describe(err error, s *examsession.Session) string {
	switch {
	case errors.Is(err, examsession.ErrUnknownOption):
		return "That option is not on this question"
	case errors.Is(err, examsession.ErrIndexOutOfRange):
		return "No question with that number"
	case errors.Is(err, examsession.ErrInvalidTransition):
		if s.State() == examsession.StateAwaitingConfirmation && !s.CanCancel() {
			return "Time is up. The exam must be submitted."
		}
		return "Not allowed right now"
	default:
		return err.Error()
	}
}
