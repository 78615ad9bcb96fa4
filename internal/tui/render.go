package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nexlearn/exam-engine/internal/examsession"
)

var (
	colorAnswered = lipgloss.Color("42")
	colorSkipped  = lipgloss.Color("196")
	colorMarked   = lipgloss.Color("99")
	colorMuted    = lipgloss.Color("244")
	colorWarn     = lipgloss.Color("214")
)

const gridColumns = 10

// View renders the screen for the current state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.session.Snapshot()
	switch snap.State {
	case examsession.StateSubmitted:
		return renderResult(snap.Result, m.saving, m.saveErr, m.noColor)
	case examsession.StateAwaitingConfirmation:
		return lipgloss.JoinVertical(lipgloss.Left,
			renderHeader(m.title, snap, m.noColor),
			renderConfirm(snap, m.noColor),
			renderNotice(m.notice, m.noColor),
		)
	}

	sections := []string{
		renderHeader(m.title, snap, m.noColor),
		renderQuestion(snap, m.cursor, m.noColor),
		renderGrid(snap.Grid, m.noColor),
		renderNotice(m.notice, m.noColor),
	}
	if m.jumping {
		sections = append(sections, m.jump.View())
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderHeader(title string, snap examsession.Snapshot, noColor bool) string {
	if title == "" {
		title = "Practice"
	}
	clock := snap.Remaining.String()
	if snap.Remaining.TotalSeconds() < 60 {
		clock = stylize(clock, noColor, colorSkipped)
	}
	left := stylizeBold(title, noColor)
	right := fmt.Sprintf("Question %d of %d   %s", snap.Index+1, snap.Total, clock)
	return left + "   " + right + "\n"
}

func renderQuestion(snap examsession.Snapshot, cursor int, noColor bool) string {
	var b strings.Builder
	q := snap.Question
	if q.PassageText != "" {
		b.WriteString(stylize(q.PassageText, noColor, colorMuted))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "%d. %s\n", q.Ordinal, q.Text)
	if q.ImageRef != "" {
		b.WriteString(stylize("[image: "+q.ImageRef+"]", noColor, colorMuted))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for i, o := range q.Options {
		pointer := "  "
		if i == cursor {
			pointer = "> "
		}
		box := "( )"
		if o.ID == snap.Selected {
			box = stylize("(•)", noColor, colorAnswered)
		}
		fmt.Fprintf(&b, "%s%s %d) %s\n", pointer, box, i+1, o.Text)
	}
	if snap.Status != "" {
		b.WriteString("\n")
		b.WriteString(stylize(statusLabel(snap.Status), noColor, statusColor(snap.Status)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderGrid lays the navigation cells out in rows.
func renderGrid(cells []examsession.GridCell, noColor bool) string {
	var rows []string
	var row []string
	for _, c := range cells {
		row = append(row, renderCell(c, noColor))
		if len(row) == gridColumns {
			rows = append(rows, strings.Join(row, " "))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, strings.Join(row, " "))
	}
	return strings.Join(rows, "\n") + "\n"
}

func renderCell(c examsession.GridCell, noColor bool) string {
	label := pad2(c.Ordinal)
	open, shut := " ", " "
	if c.Current {
		open, shut = "[", "]"
	}
	if noColor {
		if c.Status != "" {
			label += statusGlyph(c.Status)
		}
		return open + label + shut
	}

	style := lipgloss.NewStyle()
	if c.Status != "" {
		style = style.Foreground(statusColor(c.Status))
	}
	text := style.Render(label)
	if c.Status == examsession.StatusAnsweredAndMarked {
		// Answered and marked: answered colour inside a marked frame.
		frame := lipgloss.NewStyle().Foreground(colorMarked)
		return frame.Render("{") + text + frame.Render("}")
	}
	return open + text + shut
}

func renderConfirm(snap examsession.Snapshot, noColor bool) string {
	lines := []string{
		stylizeBold("Submit the exam?", noColor),
		"",
		fmt.Sprintf("Time left:       %s", snap.Stats.RemainingTime),
		fmt.Sprintf("Total questions: %d", snap.Stats.TotalQuestions),
		fmt.Sprintf("Answered:        %s", pad3(snap.Stats.Answered)),
		fmt.Sprintf("Marked:          %s", pad3(snap.Stats.Marked)),
		"",
	}
	if snap.CanCancel {
		lines = append(lines, "y submit   esc back")
	} else {
		lines = append(lines, stylize("Time is up.", noColor, colorWarn), "y submit")
	}
	body := strings.Join(lines, "\n")
	if noColor {
		return body + "\n"
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMarked).
		Padding(0, 2).
		Render(body) + "\n"
}

func renderResult(res *examsession.Result, saving bool, saveErr error, noColor bool) string {
	if res == nil {
		return ""
	}
	lines := []string{
		stylizeBold("Result", noColor),
		"",
		fmt.Sprintf("Marks obtained: %s / %d", formatScore(res.Score), res.TotalQuestions),
		stylize(fmt.Sprintf("Correct:        %d", res.Correct), noColor, colorAnswered),
		stylize(fmt.Sprintf("Incorrect:      %d", res.Incorrect), noColor, colorSkipped),
		fmt.Sprintf("Not attended:   %d", res.NotAttempted),
		"",
	}
	switch {
	case saving:
		lines = append(lines, stylize("Saving...", noColor, colorMuted))
	case saveErr != nil:
		lines = append(lines, stylize("Not saved: "+saveErr.Error(), noColor, colorWarn))
	}
	lines = append(lines, stylize("press q to exit", noColor, colorMuted))
	return strings.Join(lines, "\n") + "\n"
}

func renderNotice(notice string, noColor bool) string {
	if notice == "" {
		return ""
	}
	return stylize(notice, noColor, colorWarn)
}

func statusColor(s examsession.Status) lipgloss.Color {
	switch s {
	case examsession.StatusAnswered, examsession.StatusAnsweredAndMarked:
		return colorAnswered
	case examsession.StatusSkipped:
		return colorSkipped
	case examsession.StatusMarked:
		return colorMarked
	}
	return colorMuted
}

func statusLabel(s examsession.Status) string {
	switch s {
	case examsession.StatusAnswered:
		return "Answered"
	case examsession.StatusSkipped:
		return "Skipped"
	case examsession.StatusMarked:
		return "Marked for review"
	case examsession.StatusAnsweredAndMarked:
		return "Answered and marked for review"
	}
	return ""
}

// statusGlyph tags a grid cell when colour is off.
func statusGlyph(s examsession.Status) string {
	switch s {
	case examsession.StatusAnswered:
		return "a"
	case examsession.StatusSkipped:
		return "s"
	case examsession.StatusMarked:
		return "m"
	case examsession.StatusAnsweredAndMarked:
		return "am"
	}
	return ""
}

// formatScore drops trailing zeros: 1.50 renders as 1.5, 2.00 as 2.
func formatScore(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// pad2 left-pads a number to two digits when needed.
func pad2(value int) string {
	return fmt.Sprintf("%02d", value)
}

// pad3 is the three-digit counter used on the submit confirmation.
func pad3(value int) string {
	return fmt.Sprintf("%03d", value)
}

func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

func stylizeBold(text string, noColor bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}
