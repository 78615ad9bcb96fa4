package service

import (
	"context"
	"errors"

	"github.com/nexlearn/exam-engine/internal/model"
	"github.com/nexlearn/exam-engine/internal/repository"
)

// ErrProfileExists is returned when a mobile number already has a profile.
var ErrProfileExists = errors.New("profile already exists for this mobile number")

// CandidateService handles candidate profiles.
type CandidateService struct {
	repo *repository.CandidateRepository
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(repo *repository.CandidateRepository) *CandidateService {
	return &CandidateService{repo: repo}
}

// GetByID retrieves a candidate by ID.
func (s *CandidateService) GetByID(ctx context.Context, id int64) (*model.Candidate, error) {
	return s.repo.GetByID(ctx, id)
}

// FindByMobile returns the candidate registered with mobile, or nil when
// there is none.
func (s *CandidateService) FindByMobile(ctx context.Context, mobile string) (*model.Candidate, error) {
	c, err := s.repo.GetByMobile(ctx, mobile)
	if errors.Is(err, repository.ErrCandidateNotFound) {
		return nil, nil
	}
	return c, err
}

// CreateProfile registers the candidate behind a verified mobile number.
func (s *CandidateService) CreateProfile(ctx context.Context, mobile string, req *model.CreateProfileRequest) (*model.Candidate, error) {
	c := &model.Candidate{
		Mobile:        mobile,
		Name:          req.Name,
		Email:         req.Email,
		Qualification: req.Qualification,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicateMobile) {
			return nil, ErrProfileExists
		}
		return nil, err
	}
	return c, nil
}
