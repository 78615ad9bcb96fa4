package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nexlearn/exam-engine/internal/config"
	"github.com/nexlearn/exam-engine/internal/examsession"
	"github.com/nexlearn/exam-engine/internal/model"
	"github.com/nexlearn/exam-engine/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	resultsCacheTTL = 30 * time.Second
	// ResultsLimit caps the result list.
	ResultsLimit = 50
)

// AttemptService hands submitted sessions to the persistence queue and
// reads results back.
type AttemptService struct {
	repo *repository.AttemptRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(repo *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "attempt_service").Logger(),
	}
}

// SinkFor returns the submission sink for one candidate's session. The sink
// only queues; the result worker writes to PostgreSQL.
func (s *AttemptService) SinkFor(candidateID int64) examsession.SubmissionSink {
	return examsession.SinkFunc(func(ctx context.Context, sub examsession.Submission) error {
		raw, err := json.Marshal(model.AttemptPayload{CandidateID: candidateID, Submission: sub})
		if err != nil {
			return fmt.Errorf("marshal attempt: %w", err)
		}
		if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raw).Err(); err != nil {
			return fmt.Errorf("queue attempt: %w", err)
		}
		return nil
	})
}

// ListResults returns a candidate's recent attempts.
func (s *AttemptService) ListResults(ctx context.Context, candidateID int64) ([]model.Attempt, error) {
	key := config.CacheKey.CandidateAttemptsKey(candidateID)
	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached []model.Attempt
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	attempts, err := s.repo.ListByCandidate(ctx, candidateID, ResultsLimit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}

	if raw, err := json.Marshal(attempts); err == nil {
		if err := s.rdb.Set(ctx, key, raw, resultsCacheTTL).Err(); err != nil {
			s.log.Debug().Err(err).Int64("candidate_id", candidateID).Msg("Failed to cache results")
		}
	}
	return attempts, nil
}
