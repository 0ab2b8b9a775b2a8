package integration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

type AssignmentClient interface {
	List(ctx context.Context, token string, schoolID, subjectID models.ID) ([]models.Assignment, error)
	Get(ctx context.Context, token string, schoolID, subjectID, id models.ID) (*models.Assignment, error)
	Create(ctx context.Context, token string, schoolID, subjectID models.ID, req *models.AssignmentRequest) (*models.Assignment, error)
	Update(ctx context.Context, token string, schoolID, subjectID, id models.ID, req *models.AssignmentRequest) (*models.Assignment, error)
	Delete(ctx context.Context, token string, schoolID, subjectID, id models.ID) error
}

type assignmentClient struct {
	rest *RestClient
}

func NewAssignmentClient(rest *RestClient) AssignmentClient {
	return &assignmentClient{rest: rest}
}

func assignmentPath(schoolID, subjectID models.ID) string {
	return fmt.Sprintf("/school/%d/subject/%d/assignment", schoolID, subjectID)
}

func (c *assignmentClient) List(ctx context.Context, token string, schoolID, subjectID models.ID) ([]models.Assignment, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     assignmentPath(schoolID, subjectID),
		resource: "assignment",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments of subject %d: %w", subjectID, err)
	}

	assignments, err := decodeItems[models.Assignment](raw, "assignments")
	if err != nil {
		return nil, err
	}
	for i := range assignments {
		c.normalize(&assignments[i], schoolID, subjectID)
	}
	return assignments, nil
}

func (c *assignmentClient) Get(ctx context.Context, token string, schoolID, subjectID, id models.ID) (*models.Assignment, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("%s/show/%d", assignmentPath(schoolID, subjectID), id),
		resource: "assignment",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment %d: %w", id, err)
	}
	return c.decode(raw, schoolID, subjectID)
}

func (c *assignmentClient) Create(ctx context.Context, token string, schoolID, subjectID models.ID, req *models.AssignmentRequest) (*models.Assignment, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPost,
		path:     assignmentPath(schoolID, subjectID) + "/store",
		resource: "assignment",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	return c.decode(raw, schoolID, subjectID)
}

func (c *assignmentClient) Update(ctx context.Context, token string, schoolID, subjectID, id models.ID, req *models.AssignmentRequest) (*models.Assignment, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("%s/update/%d", assignmentPath(schoolID, subjectID), id),
		resource: "assignment",
		token:    token,
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update assignment %d: %w", id, err)
	}
	return c.decode(raw, schoolID, subjectID)
}

func (c *assignmentClient) Delete(ctx context.Context, token string, schoolID, subjectID, id models.ID) error {
	_, err := c.rest.do(ctx, request{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("%s/delete/%d", assignmentPath(schoolID, subjectID), id),
		resource: "assignment",
		token:    token,
	})
	if err != nil {
		return fmt.Errorf("failed to delete assignment %d: %w", id, err)
	}
	return nil
}

func (c *assignmentClient) decode(raw []byte, schoolID, subjectID models.ID) (*models.Assignment, error) {
	a, err := decodeOne[models.Assignment](raw, "assignment")
	if err != nil {
		return nil, err
	}
	c.normalize(a, schoolID, subjectID)
	return a, nil
}

func (c *assignmentClient) normalize(a *models.Assignment, schoolID, subjectID models.ID) {
	if a.SchoolID == 0 {
		a.SchoolID = schoolID
	}
	if a.SubjectID == 0 {
		a.SubjectID = subjectID
	}
	a.ResolveDeadline(c.rest.location)
}
