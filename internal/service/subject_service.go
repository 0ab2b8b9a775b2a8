package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

type SubjectService interface {
	List(ctx context.Context, sess *models.Session, schoolID models.ID) ([]models.Subject, error)
	Get(ctx context.Context, sess *models.Session, schoolID, id models.ID) (*models.Subject, error)
	Create(ctx context.Context, sess *models.Session, schoolID models.ID, req *models.SubjectRequest) (*models.Subject, error)
	Update(ctx context.Context, sess *models.Session, schoolID, id models.ID, req *models.SubjectRequest) (*models.Subject, error)
	Delete(ctx context.Context, sess *models.Session, schoolID, id models.ID) error
}

type subjectService struct {
	client    integration.SubjectClient
	validator *validation.Validator
	logger    zerolog.Logger
}

func NewSubjectService(client integration.SubjectClient, validator *validation.Validator, logger zerolog.Logger) SubjectService {
	return &subjectService{
		client:    client,
		validator: validator,
		logger:    logger,
	}
}

// List narrows the subjects to the caller's enrolment when the caller is a
// student with a non-empty subject list.
func (s *subjectService) List(ctx context.Context, sess *models.Session, schoolID models.ID) ([]models.Subject, error) {
	subjects, err := s.client.List(ctx, sess.Token, schoolID)
	if err != nil {
		return nil, err
	}
	if sess.User.PrimaryRole() == models.RoleStudent {
		subjects = filterSubjects(subjects, sess.User.SubjectIDs())
	}
	return subjects, nil
}

func (s *subjectService) Get(ctx context.Context, sess *models.Session, schoolID, id models.ID) (*models.Subject, error) {
	return s.client.Get(ctx, sess.Token, schoolID, id)
}

func (s *subjectService) Create(ctx context.Context, sess *models.Session, schoolID models.ID, req *models.SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	subject, err := s.client.Create(ctx, sess.Token, schoolID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("school_id", schoolID.String()).
		Str("subject_id", subject.ID.String()).
		Msg("Subject created")
	return subject, nil
}

func (s *subjectService) Update(ctx context.Context, sess *models.Session, schoolID, id models.ID, req *models.SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.client.Update(ctx, sess.Token, schoolID, id, req)
}

func (s *subjectService) Delete(ctx context.Context, sess *models.Session, schoolID, id models.ID) error {
	if err := s.client.Delete(ctx, sess.Token, schoolID, id); err != nil {
		return err
	}

	s.logger.Info().
		Str("school_id", schoolID.String()).
		Str("subject_id", id.String()).
		Msg("Subject deleted")
	return nil
}

// filterSubjects keeps the subjects in allow. A nil allow-list keeps all.
func filterSubjects(subjects []models.Subject, allow map[models.ID]struct{}) []models.Subject {
	if len(allow) == 0 {
		return subjects
	}
	kept := subjects[:0:0]
	for _, subj := range subjects {
		if _, ok := allow[subj.ID]; ok {
			kept = append(kept, subj)
		}
	}
	return kept
}
