package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

type SchoolService interface {
	List(ctx context.Context, sess *models.Session) ([]models.School, error)
	Get(ctx context.Context, sess *models.Session, id models.ID) (*models.School, error)
	Create(ctx context.Context, sess *models.Session, req *models.SchoolRequest) (*models.School, error)
	Update(ctx context.Context, sess *models.Session, id models.ID, req *models.SchoolRequest) (*models.School, error)
	Delete(ctx context.Context, sess *models.Session, id models.ID) error
	// Resolve returns the school for the board, preferring the profile,
	// then the cache, then the backend. It never fails; an unknown school
	// gets a placeholder name.
	Resolve(ctx context.Context, sess *models.Session, id models.ID) models.School
}

type schoolService struct {
	client    integration.SchoolClient
	cache     *CacheService
	validator *validation.Validator
	logger    zerolog.Logger
}

func NewSchoolService(client integration.SchoolClient, cache *CacheService, validator *validation.Validator, logger zerolog.Logger) SchoolService {
	return &schoolService{
		client:    client,
		cache:     cache,
		validator: validator,
		logger:    logger,
	}
}

func schoolCacheKey(id models.ID) string {
	return fmt.Sprintf("school:%d", id)
}

func (s *schoolService) List(ctx context.Context, sess *models.Session) ([]models.School, error) {
	schools, err := s.client.List(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	for _, school := range schools {
		s.cache.Set(schoolCacheKey(school.ID), school)
	}
	return schools, nil
}

func (s *schoolService) Get(ctx context.Context, sess *models.Session, id models.ID) (*models.School, error) {
	school, err := s.client.Get(ctx, sess.Token, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(schoolCacheKey(school.ID), *school)
	return school, nil
}

func (s *schoolService) Create(ctx context.Context, sess *models.Session, req *models.SchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	school, err := s.client.Create(ctx, sess.Token, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("school_id", school.ID.String()).Str("name", school.Name).Msg("School created")
	return school, nil
}

func (s *schoolService) Update(ctx context.Context, sess *models.Session, id models.ID, req *models.SchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	school, err := s.client.Update(ctx, sess.Token, id, req)
	s.cache.Delete(schoolCacheKey(id))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("school_id", id.String()).Msg("School updated")
	return school, nil
}

func (s *schoolService) Delete(ctx context.Context, sess *models.Session, id models.ID) error {
	s.cache.Delete(schoolCacheKey(id))
	if err := s.client.Delete(ctx, sess.Token, id); err != nil {
		return err
	}

	s.logger.Info().Str("school_id", id.String()).Msg("School deleted")
	return nil
}

func (s *schoolService) Resolve(ctx context.Context, sess *models.Session, id models.ID) models.School {
	if sess.User.SchoolID() == id {
		if name := sess.User.SchoolName(); name != "" {
			return models.School{ID: id, Name: name}
		}
	}

	if cached, ok := s.cache.Get(schoolCacheKey(id)); ok {
		if school, ok := cached.(models.School); ok {
			return school
		}
	}

	school, err := s.Get(ctx, sess, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("school_id", id.String()).Msg("Failed to resolve school name")
		return models.School{ID: id, Name: fmt.Sprintf("School %d", id)}
	}
	return *school
}
