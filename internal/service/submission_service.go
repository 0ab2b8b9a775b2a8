package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

const (
	maxSubmissionFiles   = 10
	maxSubmissionBytes   = 20 << 20
	maxCommentCharacters = 2000
)

type SubmissionService interface {
	List(ctx context.Context, sess *models.Session, ref models.AssignmentRef) ([]models.Submission, error)
	Submit(ctx context.Context, sess *models.Session, ref models.AssignmentRef, req *models.SubmitRequest) (*models.Submission, error)
}

type submissionService struct {
	client      integration.SubmissionClient
	assignments integration.AssignmentClient
	now         func() time.Time
	logger      zerolog.Logger
}

func NewSubmissionService(client integration.SubmissionClient, assignments integration.AssignmentClient, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		client:      client,
		assignments: assignments,
		now:         time.Now,
		logger:      logger,
	}
}

// List returns every submission for teachers and admins, and only the
// caller's own for students.
func (s *submissionService) List(ctx context.Context, sess *models.Session, ref models.AssignmentRef) ([]models.Submission, error) {
	subs, err := s.client.List(ctx, sess.Token, ref)
	if err != nil {
		return nil, err
	}
	if sess.User.PrimaryRole() != models.RoleStudent {
		return subs, nil
	}

	own := subs[:0:0]
	for _, sub := range subs {
		if sub.IsOwnedBy(sess.User.ID) {
			own = append(own, sub)
		}
	}
	return own, nil
}

// Submit uploads the files for a student. It refuses when the deadline has
// passed or the student already submitted, mirroring can_submit.
func (s *submissionService) Submit(ctx context.Context, sess *models.Session, ref models.AssignmentRef, req *models.SubmitRequest) (*models.Submission, error) {
	if sess.User.PrimaryRole() != models.RoleStudent {
		return nil, ErrRoleNotAllowed
	}
	if err := validateUpload(req); err != nil {
		return nil, err
	}

	assignment, err := s.assignments.Get(ctx, sess.Token, ref.SchoolID, ref.SubjectID, ref.AssignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Deadline != nil && assignment.Deadline.Before(s.now()) {
		return nil, ErrDeadlinePassed
	}

	existing, err := s.List(ctx, sess, ref)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrAlreadySubmitted
	}

	sub, err := s.client.Submit(ctx, sess.Token, ref, req)
	if err != nil {
		return nil, err
	}
	if sub.UserID == 0 {
		sub.UserID = sess.User.ID
	}

	s.logger.Info().
		Str("assignment_id", ref.AssignmentID.String()).
		Str("user_id", sess.User.ID.String()).
		Int("files", len(req.Files)).
		Msg("Assignment submitted")
	return sub, nil
}

func validateUpload(req *models.SubmitRequest) error {
	fields := map[string]string{}
	switch {
	case len(req.Files) == 0:
		fields["files"] = "at least one file is required"
	case len(req.Files) > maxSubmissionFiles:
		fields["files"] = "too many files"
	}

	total := 0
	for _, f := range req.Files {
		total += len(f.Content)
		if f.Name == "" {
			fields["files"] = "every file needs a name"
		}
	}
	if total > maxSubmissionBytes {
		fields["files"] = "upload is too large"
	}
	if utf8.RuneCountInString(req.Comment) > maxCommentCharacters {
		fields["comment"] = "comment must be at most 2000 characters"
	}

	if len(fields) > 0 {
		return validation.NewValidationError("invalid request", fields)
	}
	return nil
}
