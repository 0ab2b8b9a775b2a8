package models

import "time"

// SubmissionGradedRoutingKey is the default routing key and message type
// of SubmissionGradedEvent.
const SubmissionGradedRoutingKey = "submission.graded"

type SubmissionGradedEvent struct {
	SubmissionID ID        `json:"submission_id"`
	AssignmentID ID        `json:"assignment_id"`
	SubjectID    ID        `json:"subject_id"`
	SchoolID     ID        `json:"school_id"`
	Grade        float64   `json:"grade"`
	Feedback     string    `json:"feedback,omitempty"`
	GradedBy     ID        `json:"graded_by"`
	GradedAt     time.Time `json:"graded_at"`
}
