package integration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

type SchoolClient interface {
	List(ctx context.Context, token string) ([]models.School, error)
	Get(ctx context.Context, token string, id models.ID) (*models.School, error)
	Create(ctx context.Context, token string, req *models.SchoolRequest) (*models.School, error)
	Update(ctx context.Context, token string, id models.ID, req *models.SchoolRequest) (*models.School, error)
	Delete(ctx context.Context, token string, id models.ID) error
}

type schoolClient struct {
	rest *RestClient
}

func NewSchoolClient(rest *RestClient) SchoolClient {
	return &schoolClient{rest: rest}
}

func (c *schoolClient) List(ctx context.Context, token string) ([]models.School, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     "/school",
		resource: "school",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	return decodeItems[models.School](raw, "schools")
}

func (c *schoolClient) Get(ctx context.Context, token string, id models.ID) (*models.School, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/school/show/%d", id),
		resource: "school",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get school %d: %w", id, err)
	}
	return decodeOne[models.School](raw, "school")
}

func (c *schoolClient) Create(ctx context.Context, token string, req *models.SchoolRequest) (*models.School, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPost,
		path:     "/school/store",
		resource: "school",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create school: %w", err)
	}
	return decodeOne[models.School](raw, "school")
}

func (c *schoolClient) Update(ctx context.Context, token string, id models.ID, req *models.SchoolRequest) (*models.School, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("/school/update/%d", id),
		resource: "school",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update school %d: %w", id, err)
	}
	return decodeOne[models.School](raw, "school")
}

func (c *schoolClient) Delete(ctx context.Context, token string, id models.ID) error {
	_, err := c.rest.do(ctx, request{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/school/delete/%d", id),
		resource: "school",
		token:    token,
	})
	if err != nil {
		return fmt.Errorf("failed to delete school %d: %w", id, err)
	}
	return nil
}
