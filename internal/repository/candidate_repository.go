package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexlearn/exam-engine/internal/model"
)

var (
	ErrDuplicateMobile   = errors.New("candidate with this mobile number already exists")
	ErrCandidateNotFound = errors.New("candidate not found")
)

// CandidateRepository handles candidate data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

const candidateColumns = `id, mobile, name, email, qualification, created_at, updated_at`

func scanCandidate(row pgx.Row) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := row.Scan(&c.ID, &c.Mobile, &c.Name, &c.Email, &c.Qualification, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id int64) (*model.Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
}

// GetByMobile retrieves a candidate by normalised mobile number.
func (r *CandidateRepository) GetByMobile(ctx context.Context, mobile string) (*model.Candidate, error) {
	return scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE mobile = $1`, mobile))
}

// Create inserts a new candidate.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO candidates (mobile, name, email, qualification)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		c.Mobile, c.Name, c.Email, c.Qualification,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateMobile
		}
		return err
	}
	return nil
}
