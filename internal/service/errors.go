package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSchoolScope means a student or teacher profile carries no school.
	ErrNoSchoolScope = errors.New("no school assigned to this account")
	// ErrSchoolsUnavailable means the school list behind a super-admin
	// board could not be loaded.
	ErrSchoolsUnavailable = errors.New("schools could not be loaded")
	// ErrStaleGeneration means a newer board run for the same session
	// started before this one finished.
	ErrStaleGeneration  = errors.New("superseded by a newer refresh")
	ErrRoleNotAllowed   = errors.New("role not allowed")
	ErrDeadlinePassed   = errors.New("assignment deadline has passed")
	ErrAlreadySubmitted = errors.New("assignment already submitted")
)

// GradingError reports how far a grading operation got before failing.
// The grade and feedback writes are independent; nothing is rolled back.
type GradingError struct {
	GradeSaved    bool
	FeedbackSaved bool
	Err           error
}

func (e *GradingError) Error() string {
	switch {
	case e.GradeSaved && !e.FeedbackSaved:
		return fmt.Sprintf("grade saved but feedback was not: %v", e.Err)
	default:
		return fmt.Sprintf("grade was not saved: %v", e.Err)
	}
}

func (e *GradingError) Unwrap() error {
	return e.Err
}

func (e *GradingError) Partial() bool {
	return e.GradeSaved != e.FeedbackSaved
}
