package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/events"
	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

type GradeResult struct {
	SubmissionID models.ID               `json:"submission_id"`
	Grade        float64                 `json:"grade"`
	Feedback     string                  `json:"feedback,omitempty"`
	GradedAt     time.Time               `json:"graded_at"`
	Board        *models.AssignmentBoard `json:"board,omitempty"`
}

type GradingService interface {
	Grade(ctx context.Context, sess *models.Session, ref models.AssignmentRef, submissionID models.ID, req *models.GradeRequest) (*GradeResult, error)
}

type gradingService struct {
	submissions integration.SubmissionClient
	aggregator  AggregatorService
	publisher   events.Publisher
	validator   *validation.Validator
	observer    GradingObserver
	now         func() time.Time
	logger      zerolog.Logger
}

func NewGradingService(
	submissions integration.SubmissionClient,
	aggregator AggregatorService,
	publisher events.Publisher,
	validator *validation.Validator,
	observer GradingObserver,
	logger zerolog.Logger,
) GradingService {
	if observer == nil {
		observer = noopObserver{}
	}
	return &gradingService{
		submissions: submissions,
		aggregator:  aggregator,
		publisher:   publisher,
		validator:   validator,
		observer:    observer,
		now:         time.Now,
		logger:      logger,
	}
}

// Grade writes the grade, then the feedback when there is any. The two
// writes are not atomic: a failure after the grade is stored comes back as
// a GradingError with GradeSaved set.
func (s *gradingService) Grade(ctx context.Context, sess *models.Session, ref models.AssignmentRef, submissionID models.ID, req *models.GradeRequest) (*GradeResult, error) {
	if !sess.User.HasRole(models.RoleTeacher, models.RoleSuperAdmin) {
		s.observer.ObserveGrading("forbidden")
		return nil, ErrRoleNotAllowed
	}
	if err := s.validator.Struct(req); err != nil {
		s.observer.ObserveGrading("invalid")
		return nil, err
	}

	grade := *req.Grade
	feedback := strings.TrimSpace(req.Feedback)

	if err := s.submissions.Grade(ctx, sess.Token, ref, submissionID, grade); err != nil {
		s.observer.ObserveGrading("grade_failed")
		s.logger.Error().
			Err(err).
			Str("submission_id", submissionID.String()).
			Msg("Failed to save grade")
		return nil, &GradingError{Err: err}
	}

	if feedback != "" {
		if err := s.submissions.StoreFeedback(ctx, sess.Token, ref, submissionID, feedback); err != nil {
			s.observer.ObserveGrading("partial")
			s.logger.Error().
				Err(err).
				Str("submission_id", submissionID.String()).
				Float64("grade", grade).
				Msg("Grade saved but feedback failed")
			return nil, &GradingError{GradeSaved: true, Err: err}
		}
	}

	s.observer.ObserveGrading("ok")
	result := &GradeResult{
		SubmissionID: submissionID,
		Grade:        grade,
		Feedback:     feedback,
		GradedAt:     s.now().UTC(),
	}

	s.logger.Info().
		Str("session_id", sess.ID).
		Str("submission_id", submissionID.String()).
		Float64("grade", grade).
		Bool("feedback", feedback != "").
		Msg("Submission graded")

	s.publish(ctx, sess, ref, result)

	board, err := s.aggregator.Board(ctx, sess, BoardOptions{})
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("Failed to refresh board after grading")
	} else {
		result.Board = board
	}
	return result, nil
}

func (s *gradingService) publish(ctx context.Context, sess *models.Session, ref models.AssignmentRef, result *GradeResult) {
	if s.publisher == nil {
		return
	}

	event := &models.SubmissionGradedEvent{
		SubmissionID: result.SubmissionID,
		AssignmentID: ref.AssignmentID,
		SubjectID:    ref.SubjectID,
		SchoolID:     ref.SchoolID,
		Grade:        result.Grade,
		Feedback:     result.Feedback,
		GradedBy:     sess.User.ID,
		GradedAt:     result.GradedAt,
	}

	if err := s.publisher.PublishSubmissionGraded(ctx, event); err != nil {
		s.observer.ObserveEvent(s.publisher.RoutingKey(), "error")
		s.logger.Warn().Err(err).Str("submission_id", result.SubmissionID.String()).Msg("Failed to publish grading event")
		return
	}
	s.observer.ObserveEvent(s.publisher.RoutingKey(), "ok")
}
