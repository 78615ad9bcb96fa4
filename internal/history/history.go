// Package history keeps finished practice sessions in a local SQLite file.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nexlearn/exam-engine/internal/examsession"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  set_id TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  started_at INTEGER NOT NULL,
  submitted_at INTEGER NOT NULL,
  total_questions INTEGER NOT NULL,
  correct INTEGER NOT NULL,
  incorrect INTEGER NOT NULL,
  not_attempted INTEGER NOT NULL,
  score REAL NOT NULL,
  answers_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_submitted ON attempts(submitted_at DESC);
`

// Entry is one stored attempt.
type Entry struct {
	SessionID   string
	SetID       string
	Title       string
	StartedAt   time.Time
	SubmittedAt time.Time
	Result      examsession.Result
	Answers     []examsession.AnswerRecord
}

// Store reads and writes attempts.
type Store struct {
	db *sql.DB
}

// New ensures the schema exists on db.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Sink returns a submission sink that records attempts under title.
func (s *Store) Sink(title string) examsession.SubmissionSink {
	return examsession.SinkFunc(func(ctx context.Context, sub examsession.Submission) error {
		return s.Save(ctx, title, sub)
	})
}

// Save stores one submission. Saving the same session twice is a no-op.
func (s *Store) Save(ctx context.Context, title string, sub examsession.Submission) error {
	answers, err := json.Marshal(sub.Records)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	res := sub.Result
	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO attempts (
			id, set_id, title, started_at, submitted_at,
			total_questions, correct, incorrect, not_attempted, score, answers_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.SessionID, sub.SetID, title,
		sub.StartedAt.UnixMilli(), sub.SubmittedAt.UnixMilli(),
		res.TotalQuestions, res.Correct, res.Incorrect, res.NotAttempted, res.Score,
		string(answers),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// List returns up to limit attempts, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, set_id, title, started_at, submitted_at,
		       total_questions, correct, incorrect, not_attempted, score, answers_json
		FROM attempts
		ORDER BY submitted_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                  Entry
			started, submitted int64
			answers            string
		)
		if err := rows.Scan(
			&e.SessionID, &e.SetID, &e.Title, &started, &submitted,
			&e.Result.TotalQuestions, &e.Result.Correct, &e.Result.Incorrect,
			&e.Result.NotAttempted, &e.Result.Score, &answers,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		e.StartedAt = time.UnixMilli(started)
		e.SubmittedAt = time.UnixMilli(submitted)
		if err := json.Unmarshal([]byte(answers), &e.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", e.SessionID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
