package examsession

import (
	"fmt"
	"math"
)

// QuestionID identifies a question within a set. Sources decide the format.
type QuestionID string

// OptionID identifies an option within its question.
type OptionID string

// NoOption is the selection carried by skipped and mark-only records.
const NoOption OptionID = "none"

// Option is one selectable answer. The JSON shape follows the question list
// payload served to clients.
type Option struct {
	ID        OptionID `json:"id"`
	Text      string   `json:"option"`
	ImageRef  string   `json:"image,omitempty"`
	IsCorrect bool     `json:"is_correct,omitempty"`
}

// Question is immutable for the lifetime of a session.
type Question struct {
	ID          QuestionID `json:"question_id"`
	Ordinal     int        `json:"number"`
	Text        string     `json:"question"`
	PassageText string     `json:"comprehension,omitempty"`
	ImageRef    string     `json:"image,omitempty"`
	Options     []Option   `json:"options"`
}

// Option looks up an option of q by id.
func (q Question) Option(id OptionID) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Redacted returns a copy of q with every option's correctness cleared,
// suitable for sending to a candidate.
func (q Question) Redacted() Question {
	out := q
	out.Options = make([]Option, len(q.Options))
	for i, o := range q.Options {
		o.IsCorrect = false
		out.Options[i] = o
	}
	return out
}

// QuestionSet is what a QuestionSource hands to a session.
type QuestionSet struct {
	SetID                string     `json:"set_id,omitempty"`
	Title                string     `json:"title,omitempty"`
	TotalDurationMinutes float64    `json:"total_time"`
	TotalMarks           float64    `json:"total_marks"`
	Questions            []Question `json:"questions"`
}

// Validate reports ErrLoadFailure for sets a session cannot run.
func (s *QuestionSet) Validate() error {
	if s == nil || len(s.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrLoadFailure)
	}
	seen := make(map[QuestionID]struct{}, len(s.Questions))
	for i, q := range s.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question %d has no id", ErrLoadFailure, i+1)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrLoadFailure, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

const maxDurationMinutes = math.MaxInt32 / 60

// WholeMinutes normalises a raw duration. Negative, NaN and infinite values
// become zero; fractions are dropped.
func WholeMinutes(total float64) int {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return 0
	}
	if total > maxDurationMinutes {
		return maxDurationMinutes
	}
	return int(math.Floor(total))
}
