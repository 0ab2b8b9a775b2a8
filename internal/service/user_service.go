package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

type UserService interface {
	List(ctx context.Context, sess *models.Session, filter models.UserFilter) ([]models.UserProfile, error)
	Get(ctx context.Context, sess *models.Session, id models.ID) (*models.UserProfile, error)
	Create(ctx context.Context, sess *models.Session, req *models.UserRequest) (*models.UserProfile, error)
	Update(ctx context.Context, sess *models.Session, id models.ID, req *models.UserRequest) (*models.UserProfile, error)
	Delete(ctx context.Context, sess *models.Session, id models.ID) error
	AssignSchools(ctx context.Context, sess *models.Session, id models.ID, req *models.AssignSchoolsRequest) error
}

type userService struct {
	client    integration.UserClient
	validator *validation.Validator
	logger    zerolog.Logger
}

func NewUserService(client integration.UserClient, validator *validation.Validator, logger zerolog.Logger) UserService {
	return &userService{
		client:    client,
		validator: validator,
		logger:    logger,
	}
}

func (s *userService) List(ctx context.Context, sess *models.Session, filter models.UserFilter) ([]models.UserProfile, error) {
	users, err := s.client.List(ctx, sess.Token)
	if err != nil {
		return nil, err
	}

	kept := users[:0:0]
	for i := range users {
		if filter.Matches(&users[i]) {
			kept = append(kept, users[i])
		}
	}
	return kept, nil
}

func (s *userService) Get(ctx context.Context, sess *models.Session, id models.ID) (*models.UserProfile, error) {
	return s.client.Get(ctx, sess.Token, id)
}

// Create sends roles by name. The backend contract for role assignment is
// the "roles" field only.
func (s *userService) Create(ctx context.Context, sess *models.Session, req *models.UserRequest) (*models.UserProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, validation.NewValidationError("invalid request", map[string]string{
			"password": "password is a required field",
		})
	}
	if req.PasswordConfirmation == "" {
		withConfirmation := *req
		withConfirmation.PasswordConfirmation = req.Password
		req = &withConfirmation
	}

	user, err := s.client.Create(ctx, sess.Token, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Strs("roles", req.Roles).Msg("User created")
	return user, nil
}

func (s *userService) Update(ctx context.Context, sess *models.Session, id models.ID, req *models.UserRequest) (*models.UserProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.client.Update(ctx, sess.Token, id, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id.String()).Strs("roles", req.Roles).Msg("User updated")
	return user, nil
}

func (s *userService) Delete(ctx context.Context, sess *models.Session, id models.ID) error {
	if err := s.client.Delete(ctx, sess.Token, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id.String()).Msg("User deleted")
	return nil
}

func (s *userService) AssignSchools(ctx context.Context, sess *models.Session, id models.ID, req *models.AssignSchoolsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if err := s.client.AssignSchools(ctx, sess.Token, id, req.SchoolIDs); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", id.String()).Int("schools", len(req.SchoolIDs)).Msg("User schools assigned")
	return nil
}
