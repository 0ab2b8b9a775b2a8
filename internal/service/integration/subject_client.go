package integration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

type SubjectClient interface {
	List(ctx context.Context, token string, schoolID models.ID) ([]models.Subject, error)
	Get(ctx context.Context, token string, schoolID, id models.ID) (*models.Subject, error)
	Create(ctx context.Context, token string, schoolID models.ID, req *models.SubjectRequest) (*models.Subject, error)
	Update(ctx context.Context, token string, schoolID, id models.ID, req *models.SubjectRequest) (*models.Subject, error)
	Delete(ctx context.Context, token string, schoolID, id models.ID) error
}

type subjectClient struct {
	rest *RestClient
}

func NewSubjectClient(rest *RestClient) SubjectClient {
	return &subjectClient{rest: rest}
}

func subjectPath(schoolID models.ID) string {
	return fmt.Sprintf("/school/%d/subject", schoolID)
}

func (c *subjectClient) List(ctx context.Context, token string, schoolID models.ID) ([]models.Subject, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     subjectPath(schoolID),
		resource: "subject",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects of school %d: %w", schoolID, err)
	}

	subjects, err := decodeItems[models.Subject](raw, "subjects")
	if err != nil {
		return nil, err
	}
	for i := range subjects {
		if subjects[i].SchoolID == 0 {
			subjects[i].SchoolID = schoolID
		}
	}
	return subjects, nil
}

func (c *subjectClient) Get(ctx context.Context, token string, schoolID, id models.ID) (*models.Subject, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("%s/show/%d", subjectPath(schoolID), id),
		resource: "subject",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get subject %d: %w", id, err)
	}
	return c.withSchool(raw, schoolID)
}

func (c *subjectClient) Create(ctx context.Context, token string, schoolID models.ID, req *models.SubjectRequest) (*models.Subject, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPost,
		path:     subjectPath(schoolID) + "/store",
		resource: "subject",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	return c.withSchool(raw, schoolID)
}

func (c *subjectClient) Update(ctx context.Context, token string, schoolID, id models.ID, req *models.SubjectRequest) (*models.Subject, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("%s/update/%d", subjectPath(schoolID), id),
		resource: "subject",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update subject %d: %w", id, err)
	}
	return c.withSchool(raw, schoolID)
}

func (c *subjectClient) Delete(ctx context.Context, token string, schoolID, id models.ID) error {
	_, err := c.rest.do(ctx, request{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("%s/delete/%d", subjectPath(schoolID), id),
		resource: "subject",
		token:    token,
	})
	if err != nil {
		return fmt.Errorf("failed to delete subject %d: %w", id, err)
	}
	return nil
}

func (c *subjectClient) withSchool(raw []byte, schoolID models.ID) (*models.Subject, error) {
	subject, err := decodeOne[models.Subject](raw, "subject")
	if err != nil {
		return nil, err
	}
	if subject.SchoolID == 0 {
		subject.SchoolID = schoolID
	}
	return subject, nil
}
