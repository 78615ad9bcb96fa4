package examsession

import (
	"context"
	"time"
)

// QuestionSource supplies the question set for a session. Implementations
// return errors wrapping ErrNotAuthenticated or ErrLoadFailure.
type QuestionSource interface {
	LoadQuestions(ctx context.Context, sessionToken string) (*QuestionSet, error)
}

// Submission is what a finished session hands to its sink.
type Submission struct {
	SessionID   string         `json:"session_id"`
	SetID       string         `json:"set_id"`
	Result      Result         `json:"result"`
	Records     []AnswerRecord `json:"records"`
	StartedAt   time.Time      `json:"started_at"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// SubmissionSink receives a session's result exactly once, after it reaches
// SUBMITTED.
type SubmissionSink interface {
	Submit(ctx context.Context, sub Submission) error
}

// SinkFunc adapts a function to SubmissionSink.
type SinkFunc func(ctx context.Context, sub Submission) error

// Submit calls f.
func (f SinkFunc) Submit(ctx context.Context, sub Submission) error { return f(ctx, sub) }
