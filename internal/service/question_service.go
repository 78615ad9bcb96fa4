package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nexlearn/exam-engine/internal/config"
	"github.com/nexlearn/exam-engine/internal/examsession"
	"github.com/nexlearn/exam-engine/internal/model"
	"github.com/nexlearn/exam-engine/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuestionService serves the active question set. It implements
// examsession.QuestionSource: sets are read from Redis and loaded from
// PostgreSQL into Redis on a miss.
type QuestionService struct {
	setRepo *repository.QuestionSetRepository
	auth    *AuthService
	rdb     *redis.Client
	log     zerolog.Logger
}

var _ examsession.QuestionSource = (*QuestionService)(nil)

// NewQuestionService creates a new QuestionService.
func NewQuestionService(setRepo *repository.QuestionSetRepository, auth *AuthService, rdb *redis.Client, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		setRepo: setRepo,
		auth:    auth,
		rdb:     rdb,
		log:     log.With().Str("component", "question_service").Logger(),
	}
}

// LoadQuestions returns the active set for the holder of an access token.
func (s *QuestionService) LoadQuestions(ctx context.Context, sessionToken string) (*examsession.QuestionSet, error) {
	claims, err := s.auth.ValidateTokenOfType(sessionToken, TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", examsession.ErrNotAuthenticated, err)
	}
	if err := s.auth.ValidateLoginSession(ctx, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", examsession.ErrNotAuthenticated, err)
	}
	return s.ActiveSet(ctx)
}

// ActiveSet returns the set currently on offer.
func (s *QuestionService) ActiveSet(ctx context.Context) (*examsession.QuestionSet, error) {
	id, err := s.rdb.Get(ctx, config.CacheKey.ActiveSetKey()).Result()
	if err == nil {
		set, err := s.cachedSet(ctx, id)
		if err == nil {
			return set, nil
		}
		s.log.Warn().Err(err).Str("set_id", id).Msg("Cached question set unusable, reloading")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Active set lookup failed, reading PostgreSQL")
	}

	stored, err := s.setRepo.GetLatestPublished(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionSetNotFound) {
			return nil, fmt.Errorf("%w: no published question set", examsession.ErrLoadFailure)
		}
		return nil, fmt.Errorf("%w: %v", examsession.ErrLoadFailure, err)
	}

	set, err := s.WarmSet(ctx, stored)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ActiveSetKey(), set.SetID, 0).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to record active set")
	}
	return set, nil
}

// SetByID returns a specific set, cached or loaded.
func (s *QuestionService) SetByID(ctx context.Context, id uuid.UUID) (*examsession.QuestionSet, error) {
	if set, err := s.cachedSet(ctx, id.String()); err == nil {
		return set, nil
	}
	stored, err := s.setRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", examsession.ErrLoadFailure, err)
	}
	return s.WarmSet(ctx, stored)
}

// WarmSet loads a set's questions from PostgreSQL and caches the result.
func (s *QuestionService) WarmSet(ctx context.Context, stored *model.QuestionSet) (*examsession.QuestionSet, error) {
	questions, err := s.setRepo.ListQuestions(ctx, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	set := model.ToSessionSet(stored, questions)
	if err := set.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshal question set: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.QuestionSetPayloadKey(set.SetID), payload, 0).Err(); err != nil {
		return nil, fmt.Errorf("cache question set: %w", err)
	}

	s.log.Debug().
		Str("set_id", set.SetID).
		Int("questions", len(set.Questions)).
		Msg("Question set cached")
	return set, nil
}

// PrewarmAll caches every published set and marks the newest as active.
func (s *QuestionService) PrewarmAll(ctx context.Context) error {
	sets, err := s.setRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published sets: %w", err)
	}
	if len(sets) == 0 {
		s.log.Info().Msg("No published question sets to prewarm")
		return nil
	}

	warmed := 0
	for i := range sets {
		if _, err := s.WarmSet(ctx, &sets[i]); err != nil {
			s.log.Warn().Err(err).Str("set_id", sets[i].ID.String()).Msg("Failed to warm question set, skipping")
			continue
		}
		if warmed == 0 {
			if err := s.rdb.Set(ctx, config.CacheKey.ActiveSetKey(), sets[i].ID.String(), 0).Err(); err != nil {
				return fmt.Errorf("record active set: %w", err)
			}
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(sets)).
		Msg("Prewarming complete")
	return nil
}

func (s *QuestionService) cachedSet(ctx context.Context, id string) (*examsession.QuestionSet, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.QuestionSetPayloadKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var set examsession.QuestionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("unmarshal question set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}
