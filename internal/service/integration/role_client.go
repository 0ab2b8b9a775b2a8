package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

type RoleClient interface {
	List(ctx context.Context, token string) ([]models.Role, []models.Permission, error)
	Get(ctx context.Context, token string, id models.ID) (*models.Role, error)
	Create(ctx context.Context, token string, req *models.RoleRequest) (*models.Role, error)
	Update(ctx context.Context, token string, id models.ID, req *models.RoleRequest) (*models.Role, error)
	Delete(ctx context.Context, token string, id models.ID) error
}

type roleClient struct {
	rest *RestClient
}

func NewRoleClient(rest *RestClient) RoleClient {
	return &roleClient{rest: rest}
}

func (c *roleClient) List(ctx context.Context, token string) ([]models.Role, []models.Permission, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     "/role",
		resource: "role",
		token:    token,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list roles: %w", err)
	}

	rawRoles, rawPerms := DecodeRoleCatalog(raw)

	roles := make([]models.Role, 0, len(rawRoles))
	for _, item := range rawRoles {
		var r models.Role
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		roles = append(roles, r)
	}

	perms := make([]models.Permission, 0, len(rawPerms))
	for _, item := range rawPerms {
		var p models.Permission
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		perms = append(perms, p)
	}
	return roles, perms, nil
}

func (c *roleClient) Get(ctx context.Context, token string, id models.ID) (*models.Role, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/role/show/%d", id),
		resource: "role",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get role %d: %w", id, err)
	}
	return decodeOne[models.Role](raw, "role")
}

func (c *roleClient) Create(ctx context.Context, token string, req *models.RoleRequest) (*models.Role, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPost,
		path:     "/role/store",
		resource: "role",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return decodeOne[models.Role](raw, "role")
}

func (c *roleClient) Update(ctx context.Context, token string, id models.ID, req *models.RoleRequest) (*models.Role, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("/role/update/%d", id),
		resource: "role",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update role %d: %w", id, err)
	}
	return decodeOne[models.Role](raw, "role")
}

func (c *roleClient) Delete(ctx context.Context, token string, id models.ID) error {
	_, err := c.rest.do(ctx, request{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/role/delete/%d", id),
		resource: "role",
		token:    token,
	})
	if err != nil {
		return fmt.Errorf("failed to delete role %d: %w", id, err)
	}
	return nil
}
