package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexlearn/exam-engine/internal/model"
)

// AttemptRepository stores submitted sessions.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// BulkInsert writes a batch with a single UNNEST statement. Attempts already
// stored are left untouched, so a requeued batch is safe to replay.
func (r *AttemptRepository) BulkInsert(ctx context.Context, batch []*model.Attempt) error {
	n := len(batch)
	ids := make([]uuid.UUID, n)
	candidates := make([]int64, n)
	sets := make([]uuid.UUID, n)
	started := make([]time.Time, n)
	submitted := make([]time.Time, n)
	totals := make([]int32, n)
	correct := make([]int32, n)
	incorrect := make([]int32, n)
	notAttempted := make([]int32, n)
	scores := make([]float64, n)
	answers := make([]string, n)

	for i, a := range batch {
		ids[i] = a.ID
		candidates[i] = a.CandidateID
		sets[i] = a.SetID
		started[i] = a.StartedAt
		submitted[i] = a.SubmittedAt
		totals[i] = int32(a.TotalQuestions)
		correct[i] = int32(a.Correct)
		incorrect[i] = int32(a.Incorrect)
		notAttempted[i] = int32(a.NotAttempted)
		scores[i] = a.Score
		answers[i] = string(a.Answers)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO attempts (
			id, candidate_id, set_id, started_at, submitted_at,
			total_questions, correct, incorrect, not_attempted, score, answers
		)
		SELECT u.id, u.candidate_id, u.set_id, u.started_at, u.submitted_at,
		       u.total_questions, u.correct, u.incorrect, u.not_attempted, u.score, u.answers::jsonb
		FROM UNNEST(
			$1::uuid[],
			$2::bigint[],
			$3::uuid[],
			$4::timestamptz[],
			$5::timestamptz[],
			$6::int[],
			$7::int[],
			$8::int[],
			$9::int[],
			$10::float8[],
			$11::text[]
		) AS u (id, candidate_id, set_id, started_at, submitted_at,
		        total_questions, correct, incorrect, not_attempted, score, answers)
		ON CONFLICT (id) DO NOTHING
	`, ids, candidates, sets, started, submitted, totals, correct, incorrect, notAttempted, scores, answers)
	return err
}

// Insert writes one attempt. Used when a batch fails and rows are retried
// individually.
func (r *AttemptRepository) Insert(ctx context.Context, a *model.Attempt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempts (
			id, candidate_id, set_id, started_at, submitted_at,
			total_questions, correct, incorrect, not_attempted, score, answers
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.CandidateID, a.SetID, a.StartedAt, a.SubmittedAt,
		a.TotalQuestions, a.Correct, a.Incorrect, a.NotAttempted, a.Score, string(a.Answers),
	)
	return err
}

// ListByCandidate returns a candidate's attempts, newest first, without the
// per-question answers.
func (r *AttemptRepository) ListByCandidate(ctx context.Context, candidateID int64, limit int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.candidate_id, a.set_id, s.title, a.started_at, a.submitted_at,
		        a.total_questions, a.correct, a.incorrect, a.not_attempted, a.score
		 FROM attempts a
		 JOIN question_sets s ON s.id = a.set_id
		 WHERE a.candidate_id = $1
		 ORDER BY a.submitted_at DESC
		 LIMIT $2`, candidateID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.SetID, &a.SetTitle, &a.StartedAt, &a.SubmittedAt,
			&a.TotalQuestions, &a.Correct, &a.Incorrect, &a.NotAttempted, &a.Score); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
