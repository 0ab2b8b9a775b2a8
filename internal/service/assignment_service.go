package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

type AssignmentService interface {
	List(ctx context.Context, sess *models.Session, schoolID, subjectID models.ID) ([]models.Assignment, error)
	Get(ctx context.Context, sess *models.Session, ref models.AssignmentRef) (*models.Assignment, error)
	Create(ctx context.Context, sess *models.Session, schoolID, subjectID models.ID, req *models.AssignmentRequest) (*models.Assignment, error)
	Update(ctx context.Context, sess *models.Session, ref models.AssignmentRef, req *models.AssignmentRequest) (*models.Assignment, error)
	Delete(ctx context.Context, sess *models.Session, ref models.AssignmentRef) error
}

type assignmentService struct {
	client    integration.AssignmentClient
	validator *validation.Validator
	location  *time.Location
	logger    zerolog.Logger
}

func NewAssignmentService(client integration.AssignmentClient, validator *validation.Validator, location *time.Location, logger zerolog.Logger) AssignmentService {
	if location == nil {
		location = time.UTC
	}
	return &assignmentService{
		client:    client,
		validator: validator,
		location:  location,
		logger:    logger,
	}
}

func (s *assignmentService) List(ctx context.Context, sess *models.Session, schoolID, subjectID models.ID) ([]models.Assignment, error) {
	return s.client.List(ctx, sess.Token, schoolID, subjectID)
}

func (s *assignmentService) Get(ctx context.Context, sess *models.Session, ref models.AssignmentRef) (*models.Assignment, error) {
	return s.client.Get(ctx, sess.Token, ref.SchoolID, ref.SubjectID, ref.AssignmentID)
}

func (s *assignmentService) Create(ctx context.Context, sess *models.Session, schoolID, subjectID models.ID, req *models.AssignmentRequest) (*models.Assignment, error) {
	normalized, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	a, err := s.client.Create(ctx, sess.Token, schoolID, subjectID, normalized)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("school_id", schoolID.String()).
		Str("subject_id", subjectID.String()).
		Str("assignment_id", a.ID.String()).
		Str("deadline", normalized.Deadline).
		Msg("Assignment created")
	return a, nil
}

func (s *assignmentService) Update(ctx context.Context, sess *models.Session, ref models.AssignmentRef, req *models.AssignmentRequest) (*models.Assignment, error) {
	normalized, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	return s.client.Update(ctx, sess.Token, ref.SchoolID, ref.SubjectID, ref.AssignmentID, normalized)
}

func (s *assignmentService) Delete(ctx context.Context, sess *models.Session, ref models.AssignmentRef) error {
	if err := s.client.Delete(ctx, sess.Token, ref.SchoolID, ref.SubjectID, ref.AssignmentID); err != nil {
		return err
	}

	s.logger.Info().
		Str("school_id", ref.SchoolID.String()).
		Str("subject_id", ref.SubjectID.String()).
		Str("assignment_id", ref.AssignmentID.String()).
		Msg("Assignment deleted")
	return nil
}

// normalize validates req and rewrites the deadline in the backend's
// datetime-local layout, in the configured zone.
func (s *assignmentService) normalize(req *models.AssignmentRequest) (*models.AssignmentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	deadline, err := models.ParseDeadline(req.Deadline, s.location)
	if err != nil {
		return nil, validation.NewValidationError("invalid request", map[string]string{
			"deadline": "deadline must look like 2006-01-02T15:04",
		})
	}

	out := *req
	out.Name = strings.TrimSpace(req.Name)
	out.Deadline = deadline.In(s.location).Format(models.DeadlineLayout)
	return &out, nil
}
