package integration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

type SubmissionClient interface {
	List(ctx context.Context, token string, ref models.AssignmentRef) ([]models.Submission, error)
	Submit(ctx context.Context, token string, ref models.AssignmentRef, req *models.SubmitRequest) (*models.Submission, error)
	Grade(ctx context.Context, token string, ref models.AssignmentRef, submissionID models.ID, grade float64) error
	StoreFeedback(ctx context.Context, token string, ref models.AssignmentRef, submissionID models.ID, feedback string) error
}

type submissionClient struct {
	rest *RestClient
}

func NewSubmissionClient(rest *RestClient) SubmissionClient {
	return &submissionClient{rest: rest}
}

func submissionPath(ref models.AssignmentRef) string {
	return fmt.Sprintf("/schools/%d/subjects/%d/assignments/%d/submissions", ref.SchoolID, ref.SubjectID, ref.AssignmentID)
}

func (c *submissionClient) List(ctx context.Context, token string, ref models.AssignmentRef) ([]models.Submission, error) {
	raw, err := c.rest.do(ctx, request{
		method:   http.MethodGet,
		path:     submissionPath(ref),
		resource: "submission",
		token:    token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions of assignment %d: %w", ref.AssignmentID, err)
	}

	subs, err := decodeItems[models.Submission](raw, "submissions")
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].AssignmentID == 0 {
			subs[i].AssignmentID = ref.AssignmentID
		}
	}
	return subs, nil
}

func (c *submissionClient) Submit(ctx context.Context, token string, ref models.AssignmentRef, req *models.SubmitRequest) (*models.Submission, error) {
	files := make([]formFile, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, formFile{field: "files[]", name: f.Name, content: f.Content})
	}
	var fields map[string]string
	if req.Comment != "" {
		fields = map[string]string{"comment": req.Comment}
	}

	raw, err := c.rest.do(ctx, request{
		method:   http.MethodPost,
		path:     submissionPath(ref) + "/store",
		resource: "submission",
		token:    token,
		fields:   fields,
		files:    files,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	c.rest.logger.Info().
		Str("assignment_id", ref.AssignmentID.String()).
		Int("files", len(files)).
		Msg("Submission uploaded")

	if len(raw) == 0 {
		return &models.Submission{AssignmentID: ref.AssignmentID, Status: models.SubmissionStatusSubmitted}, nil
	}
	sub, err := decodeOne[models.Submission](raw, "submission")
	if err != nil {
		return nil, err
	}
	if sub.AssignmentID == 0 {
		sub.AssignmentID = ref.AssignmentID
	}
	return sub, nil
}

func (c *submissionClient) Grade(ctx context.Context, token string, ref models.AssignmentRef, submissionID models.ID, grade float64) error {
	_, err := c.rest.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("%s/%d/grade", submissionPath(ref), submissionID),
		resource: "grade",
		token:    token,
		body:     map[string]float64{"grade": grade},
	})
	if err != nil {
		return fmt.Errorf("failed to grade submission %d: %w", submissionID, err)
	}
	return nil
}

func (c *submissionClient) StoreFeedback(ctx context.Context, token string, ref models.AssignmentRef, submissionID models.ID, feedback string) error {
	_, err := c.rest.do(ctx, request{
		method:   http.MethodPost,
		path:     fmt.Sprintf("%s/%d/feedbacks/store", submissionPath(ref), submissionID),
		resource: "feedback",
		token:    token,
		body:     map[string]string{"feedback": feedback},
	})
	if err != nil {
		return fmt.Errorf("failed to store feedback for submission %d: %w", submissionID, err)
	}
	return nil
}
