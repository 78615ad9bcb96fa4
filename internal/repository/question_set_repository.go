package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexlearn/exam-engine/internal/model"
)

var ErrQuestionSetNotFound = errors.New("question set not found")

// QuestionSetRepository handles question sets and their questions.
type QuestionSetRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionSetRepository creates a new QuestionSetRepository.
func NewQuestionSetRepository(pool *pgxpool.Pool) *QuestionSetRepository {
	return &QuestionSetRepository{pool: pool}
}

const questionSetColumns = `id, title, duration_minutes, total_marks, status, published_at, created_at, updated_at`

func scanQuestionSet(row pgx.Row) (*model.QuestionSet, error) {
	s := &model.QuestionSet{}
	err := row.Scan(&s.ID, &s.Title, &s.DurationMinutes, &s.TotalMarks, &s.Status, &s.PublishedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionSetNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a question set without its questions.
func (r *QuestionSetRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.QuestionSet, error) {
	return scanQuestionSet(r.pool.QueryRow(ctx,
		`SELECT `+questionSetColumns+` FROM question_sets WHERE id = $1`, id))
}

// GetLatestPublished returns the most recently published set.
func (r *QuestionSetRepository) GetLatestPublished(ctx context.Context) (*model.QuestionSet, error) {
	return scanQuestionSet(r.pool.QueryRow(ctx,
		`SELECT `+questionSetColumns+` FROM question_sets
		 WHERE status = 'PUBLISHED'
		 ORDER BY published_at DESC NULLS LAST
		 LIMIT 1`))
}

// ListPublished returns every published set, newest first.
func (r *QuestionSetRepository) ListPublished(ctx context.Context) ([]model.QuestionSet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionSetColumns+` FROM question_sets
		 WHERE status = 'PUBLISHED'
		 ORDER BY published_at DESC NULLS LAST`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []model.QuestionSet
	for rows.Next() {
		s, err := scanQuestionSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *s)
	}
	return sets, rows.Err()
}

// ListQuestions loads a set's questions in ordinal order with their options.
func (r *QuestionSetRepository) ListQuestions(ctx context.Context, setID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.ordinal, q.text, q.passage_text, q.image_ref,
		        o.id, o.position, o.text, o.image_ref, o.is_correct
		 FROM questions q
		 LEFT JOIN question_options o ON o.question_id = q.id
		 WHERE q.set_id = $1
		 ORDER BY q.ordinal, o.position`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var (
			q        model.Question
			optID    *uuid.UUID
			optPos   *int
			optText  *string
			optImage *string
			optRight *bool
		)
		if err := rows.Scan(&q.ID, &q.Ordinal, &q.Text, &q.PassageText, &q.ImageRef,
			&optID, &optPos, &optText, &optImage, &optRight); err != nil {
			return nil, err
		}

		if n := len(questions); n == 0 || questions[n-1].ID != q.ID {
			q.SetID = setID
			questions = append(questions, q)
		}
		if optID == nil {
			continue
		}
		last := &questions[len(questions)-1]
		last.Options = append(last.Options, model.Option{
			ID:         *optID,
			QuestionID: last.ID,
			Position:   *optPos,
			Text:       *optText,
			ImageRef:   *optImage,
			IsCorrect:  *optRight,
		})
	}
	return questions, rows.Err()
}

// CreateWithQuestions inserts a set, its questions and options in one
// transaction. IDs left as uuid.Nil are generated.
func (r *QuestionSetRepository) CreateWithQuestions(ctx context.Context, set *model.QuestionSet, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if set.ID == uuid.Nil {
		set.ID = uuid.New()
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO question_sets (id, title, duration_minutes, total_marks, status, published_at)
		 VALUES ($1, $2, $3, $4, $5, CASE WHEN $5 = 'PUBLISHED' THEN CURRENT_TIMESTAMP END)
		 RETURNING published_at, created_at, updated_at`,
		set.ID, set.Title, set.DurationMinutes, set.TotalMarks, set.Status,
	).Scan(&set.PublishedAt, &set.CreatedAt, &set.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert set: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range questions {
		q := &questions[i]
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		q.SetID = set.ID
		batch.Queue(
			`INSERT INTO questions (id, set_id, ordinal, text, passage_text, image_ref)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			q.ID, q.SetID, q.Ordinal, q.Text, q.PassageText, q.ImageRef,
		)
		for j := range q.Options {
			o := &q.Options[j]
			if o.ID == uuid.Nil {
				o.ID = uuid.New()
			}
			o.QuestionID = q.ID
			batch.Queue(
				`INSERT INTO question_options (id, question_id, position, text, image_ref, is_correct)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				o.ID, o.QuestionID, o.Position, o.Text, o.ImageRef, o.IsCorrect,
			)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}

	return tx.Commit(ctx)
}

// Publish marks a set as published now.
func (r *QuestionSetRepository) Publish(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE question_sets
		 SET status = 'PUBLISHED', published_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionSetNotFound
	}
	return nil
}
