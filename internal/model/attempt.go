package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nexlearn/exam-engine/internal/examsession"
)

// Attempt is a submitted session as stored in PostgreSQL.
type Attempt struct {
	ID             uuid.UUID       `json:"id"`
	CandidateID    int64           `json:"candidate_id"`
	SetID          uuid.UUID       `json:"set_id"`
	SetTitle       string          `json:"set_title,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	SubmittedAt    time.Time       `json:"submitted_at"`
	TotalQuestions int             `json:"total_questions"`
	Correct        int             `json:"correct"`
	Incorrect      int             `json:"incorrect"`
	NotAttempted   int             `json:"not_attempted"`
	Score          float64         `json:"score"`
	Answers        json.RawMessage `json:"answers,omitempty"`
}

// AttemptPayload is queued by the submission sink and drained by the
// result worker. Retries counts failed inserts of this payload.
type AttemptPayload struct {
	CandidateID int64                  `json:"candidate_id"`
	Submission  examsession.Submission `json:"submission"`
	Retries     int                    `json:"retries,omitempty"`
}

// ToAttempt flattens the payload into a row.
func (p *AttemptPayload) ToAttempt() (*Attempt, error) {
	id, err := uuid.Parse(p.Submission.SessionID)
	if err != nil {
		return nil, err
	}
	setID, err := uuid.Parse(p.Submission.SetID)
	if err != nil {
		return nil, err
	}
	answers, err := json.Marshal(p.Submission.Records)
	if err != nil {
		return nil, err
	}
	res := p.Submission.Result
	return &Attempt{
		ID:             id,
		CandidateID:    p.CandidateID,
		SetID:          setID,
		StartedAt:      p.Submission.StartedAt,
		SubmittedAt:    p.Submission.SubmittedAt,
		TotalQuestions: res.TotalQuestions,
		Correct:        res.Correct,
		Incorrect:      res.Incorrect,
		NotAttempted:   res.NotAttempted,
		Score:          res.Score,
		Answers:        answers,
	}, nil
}
