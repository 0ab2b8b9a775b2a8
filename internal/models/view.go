package models

import (
	"math"
	"time"
)

// AssignmentView is an assignment projected for one caller, with its school
// and subject context and the status fields derived at read time.
type AssignmentView struct {
	ID          ID         `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status"`
	SchoolID    ID         `json:"school_id"`
	SchoolName  string     `json:"school_name"`
	SubjectID   ID         `json:"subject_id"`
	SubjectName string     `json:"subject_name"`

	DeadlinePassed     bool `json:"deadline_passed"`
	HasSubmitted       bool `json:"has_submitted"`
	CanSubmit          bool `json:"can_submit"`
	HoursUntilDeadline *int `json:"hours_until_deadline"`

	SubmissionID     *ID        `json:"submission_id,omitempty"`
	SubmissionStatus string     `json:"submission_status,omitempty"`
	Grade            *float64   `json:"grade,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	Feedback         string     `json:"feedback,omitempty"`
	HasFeedback      bool       `json:"has_feedback"`

	SubmissionCount *int `json:"submission_count,omitempty"`
	GradedCount     *int `json:"graded_count,omitempty"`
}

// NewAssignmentView derives the status fields of a relative to now. own is
// the caller's submission, if any.
func NewAssignmentView(a Assignment, school School, subject Subject, own *Submission, now time.Time) AssignmentView {
	v := AssignmentView{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Deadline:    a.Deadline,
		Status:      a.Status,
		SchoolID:    school.ID,
		SchoolName:  school.Name,
		SubjectID:   subject.ID,
		SubjectName: subject.Name,
	}

	if a.Deadline != nil {
		v.DeadlinePassed = a.Deadline.Before(now)
		hours := int(math.Floor(a.Deadline.Sub(now).Hours()))
		v.HoursUntilDeadline = &hours
	}

	if own != nil {
		v.HasSubmitted = true
		id := own.ID
		v.SubmissionID = &id
		v.SubmissionStatus = own.Status
		if v.SubmissionStatus == "" {
			v.SubmissionStatus = SubmissionStatusSubmitted
			if own.Graded() {
				v.SubmissionStatus = SubmissionStatusGraded
			}
		}
		v.Grade = own.Grade
		v.SubmittedAt = own.SubmittedAt
		v.Feedback, v.HasFeedback = own.FeedbackText()
	}

	v.CanSubmit = !v.DeadlinePassed && !v.HasSubmitted
	return v
}

// WithCounts attaches the submission totals a teacher sees.
func (v AssignmentView) WithCounts(subs []Submission) AssignmentView {
	total := len(subs)
	graded := 0
	for i := range subs {
		if subs[i].Graded() {
			graded++
		}
	}
	v.SubmissionCount = &total
	v.GradedCount = &graded
	return v
}

type BoardSummary struct {
	Total          int `json:"total"`
	CanSubmit      int `json:"can_submit"`
	HasSubmitted   int `json:"has_submitted"`
	DeadlinePassed int `json:"deadline_passed"`
	Graded         int `json:"graded"`
}

func Summarize(views []AssignmentView) BoardSummary {
	s := BoardSummary{Total: len(views)}
	for i := range views {
		if views[i].CanSubmit {
			s.CanSubmit++
		}
		if views[i].HasSubmitted {
			s.HasSubmitted++
		}
		if views[i].DeadlinePassed {
			s.DeadlinePassed++
		}
		if views[i].Grade != nil {
			s.Graded++
		}
	}
	return s
}

// AssignmentBoard is the result of one aggregation run.
type AssignmentBoard struct {
	Role       string           `json:"role"`
	Generation uint64           `json:"generation"`
	Items      []AssignmentView `json:"items"`
	Summary    BoardSummary     `json:"summary"`
	Message    string           `json:"message,omitempty"`
	Failures   int              `json:"failures"`
}
