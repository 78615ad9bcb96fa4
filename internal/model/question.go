package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/nexlearn/exam-engine/internal/examsession"
)

// QuestionSetStatus enumerates question set states.
type QuestionSetStatus string

const (
	QuestionSetStatusDraft     QuestionSetStatus = "DRAFT"
	QuestionSetStatusPublished QuestionSetStatus = "PUBLISHED"
)

// QuestionSet is a timed paper.
type QuestionSet struct {
	ID              uuid.UUID         `json:"id"`
	Title           string            `json:"title"`
	DurationMinutes int               `json:"duration_minutes"`
	TotalMarks      float64           `json:"total_marks"`
	Status          QuestionSetStatus `json:"status"`
	PublishedAt     *time.Time        `json:"published_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Question belongs to a set. PassageText is shared by questions that refer
// to the same comprehension paragraph.
type Question struct {
	ID          uuid.UUID `json:"id"`
	SetID       uuid.UUID `json:"set_id"`
	Ordinal     int       `json:"number"`
	Text        string    `json:"question"`
	PassageText string    `json:"comprehension,omitempty"`
	ImageRef    string    `json:"image,omitempty"`
	Options     []Option  `json:"options"`
}

// Option is one answer of a question.
type Option struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Position   int       `json:"position"`
	Text       string    `json:"option"`
	ImageRef   string    `json:"image,omitempty"`
	IsCorrect  bool      `json:"is_correct"`
}

// ToSessionSet converts a stored set into what a session runs on.
func ToSessionSet(set *QuestionSet, questions []Question) *examsession.QuestionSet {
	out := &examsession.QuestionSet{
		SetID:                set.ID.String(),
		Title:                set.Title,
		TotalDurationMinutes: float64(set.DurationMinutes),
		TotalMarks:           set.TotalMarks,
		Questions:            make([]examsession.Question, len(questions)),
	}
	for i, q := range questions {
		sq := examsession.Question{
			ID:          examsession.QuestionID(q.ID.String()),
			Ordinal:     q.Ordinal,
			Text:        q.Text,
			PassageText: q.PassageText,
			ImageRef:    q.ImageRef,
			Options:     make([]examsession.Option, len(q.Options)),
		}
		for j, o := range q.Options {
			sq.Options[j] = examsession.Option{
				ID:        examsession.OptionID(o.ID.String()),
				Text:      o.Text,
				ImageRef:  o.ImageRef,
				IsCorrect: o.IsCorrect,
			}
		}
		out.Questions[i] = sq
	}
	return out
}

// FromSessionSet converts a loaded set into rows for storage. The set id is
// kept when it is a UUID; question and option ids are always regenerated.
func FromSessionSet(set *examsession.QuestionSet) (*QuestionSet, []Question) {
	stored := &QuestionSet{
		Title:           set.Title,
		DurationMinutes: examsession.WholeMinutes(set.TotalDurationMinutes),
		TotalMarks:      set.TotalMarks,
		Status:          QuestionSetStatusDraft,
	}
	if id, err := uuid.Parse(set.SetID); err == nil {
		stored.ID = id
	}

	questions := make([]Question, len(set.Questions))
	for i, q := range set.Questions {
		mq := Question{
			Ordinal:     q.Ordinal,
			Text:        q.Text,
			PassageText: q.PassageText,
			ImageRef:    q.ImageRef,
			Options:     make([]Option, len(q.Options)),
		}
		if mq.Ordinal == 0 {
			mq.Ordinal = i + 1
		}
		for j, o := range q.Options {
			mq.Options[j] = Option{
				Position:  j + 1,
				Text:      o.Text,
				ImageRef:  o.ImageRef,
				IsCorrect: o.IsCorrect,
			}
		}
		questions[i] = mq
	}
	return stored, questions
}

// QuestionListResponse is the payload of GET /question/list and
// GET /question/practice. Only the practice payload carries option correctness.
type QuestionListResponse struct {
	Success        bool                   `json:"success"`
	SetID          string                 `json:"set_id"`
	Title          string                 `json:"title"`
	TotalTime      float64                `json:"total_time"`
	TotalMarks     float64                `json:"total_marks"`
	QuestionsCount int                    `json:"questions_count"`
	Questions      []examsession.Question `json:"questions"`
}

// NewQuestionListResponse redacts set for display.
func NewQuestionListResponse(set *examsession.QuestionSet) QuestionListResponse {
	return newQuestionList(set, true)
}

// NewPracticeSetResponse keeps the answer key. Only the practice endpoint
// serves it.
func NewPracticeSetResponse(set *examsession.QuestionSet) QuestionListResponse {
	return newQuestionList(set, false)
}

func newQuestionList(set *examsession.QuestionSet, redact bool) QuestionListResponse {
	questions := make([]examsession.Question, len(set.Questions))
	for i, q := range set.Questions {
		if redact {
			q = q.Redacted()
		}
		questions[i] = q
	}
	return QuestionListResponse{
		Success:        true,
		SetID:          set.SetID,
		Title:          set.Title,
		TotalTime:      set.TotalDurationMinutes,
		TotalMarks:     set.TotalMarks,
		QuestionsCount: len(questions),
		Questions:      questions,
	}
}
