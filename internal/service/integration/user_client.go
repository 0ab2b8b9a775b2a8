package integration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

type UserClient interface {
	List(ctx context.Context, token string) ([]models.UserProfile, error)
	Get(ctx context.Context, token string, id models.ID) (*models.UserProfile, error)
	Create(ctx context.Context, token string, req *models.UserRequest) (*models.UserProfile, error)
	Update(ctx context.Context, token string, id models.ID, req *models.UserRequest) (*models.UserProfile, error)
	Delete(ctx context.Context, token string, id models.ID) error
	AssignSchools(ctx context.Context, token string, id models.ID, schoolIDs []models.ID) error
}

type userClient struct {
	rest *RestClient
}

func NewUserClient(rest *RestClient) UserClient {
	return &userClient{rest: rest}
}

func (c *userClient) List(ctx context.Context, token string) ([]models.UserProfile, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     "/user",
		resource: "user",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return decodeItems[models.UserProfile](raw, "users")
}

func (c *userClient) Get(ctx context.Context, token string, id models.ID) (*models.UserProfile, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/user/show/%d", id),
		resource: "user",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return decodeOne[models.UserProfile](raw, "user")
}

func (c *userClient) Create(ctx context.Context, token string, req *models.UserRequest) (*models.UserProfile, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPost,
		path:     "/user/store",
		resource: "user",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return decodeOne[models.UserProfile](raw, "user")
}

func (c *userClient) Update(ctx context.Context, token string, id models.ID, req *models.UserRequest) (*models.UserProfile, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("/user/update/%d", id),
		resource: "user",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return decodeOne[models.UserProfile](raw, "user")
}

func (c *userClient) Delete(ctx context.Context, token string, id models.ID) error {
	_, err := c.rest.do(ctx, request{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/user/delete/%d", id),
		resource: "user",
		token:    token,
	})
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}

func (c *userClient) AssignSchools(ctx context.Context, token string, id models.ID, schoolIDs []models.ID) error {
	if schoolIDs == nil {
		schoolIDs = []models.ID{}
	}
	_, err := c.rest.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("/user/%d/schools", id),
		resource: "user_schools",
		token:    token,
		body:     map[string][]models.ID{"school_ids": schoolIDs},
	})
	if err != nil {
		return fmt.Errorf("failed to assign schools to user %d: %w", id, err)
	}
	return nil
}
