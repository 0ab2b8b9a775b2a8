package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

type RoleService interface {
	Catalog(ctx context.Context, sess *models.Session) (*models.RoleCatalog, error)
	Get(ctx context.Context, sess *models.Session, id models.ID) (*models.Role, error)
	Create(ctx context.Context, sess *models.Session, req *models.RoleRequest) (*models.Role, error)
	Update(ctx context.Context, sess *models.Session, id models.ID, req *models.RoleRequest) (*models.Role, error)
	Delete(ctx context.Context, sess *models.Session, id models.ID) error
}

type roleService struct {
	client    integration.RoleClient
	validator *validation.Validator
	logger    zerolog.Logger
}

func NewRoleService(client integration.RoleClient, validator *validation.Validator, logger zerolog.Logger) RoleService {
	return &roleService{
		client:    client,
		validator: validator,
		logger:    logger,
	}
}

// Catalog lists the roles with every known permission grouped by resource.
// When the backend sends no permission list, it is built from the roles.
func (s *roleService) Catalog(ctx context.Context, sess *models.Session) (*models.RoleCatalog, error) {
	roles, perms, err := s.client.List(ctx, sess.Token)
	if err != nil {
		return nil, err
	}

	if len(perms) == 0 {
		seen := make(map[string]struct{})
		for _, r := range roles {
			for _, p := range r.Permissions {
				if _, ok := seen[p.Name]; ok {
					continue
				}
				seen[p.Name] = struct{}{}
				perms = append(perms, p)
			}
		}
	}

	return &models.RoleCatalog{
		Roles:       roles,
		Permissions: models.GroupPermissions(perms),
	}, nil
}

func (s *roleService) Get(ctx context.Context, sess *models.Session, id models.ID) (*models.Role, error) {
	return s.client.Get(ctx, sess.Token, id)
}

func (s *roleService) Create(ctx context.Context, sess *models.Session, req *models.RoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	role, err := s.client.Create(ctx, sess.Token, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("role_id", role.ID.String()).Str("name", role.Name).Msg("Role created")
	return role, nil
}

func (s *roleService) Update(ctx context.Context, sess *models.Session, id models.ID, req *models.RoleRequest) (*models.Role, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.client.Update(ctx, sess.Token, id, req)
}

func (s *roleService) Delete(ctx context.Context, sess *models.Session, id models.ID) error {
	if err := s.client.Delete(ctx, sess.Token, id); err != nil {
		return err
	}
	s.logger.Info().Str("role_id", id.String()).Msg("Role deleted")
	return nil
}
