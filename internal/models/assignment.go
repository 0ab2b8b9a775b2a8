package models

import (
	"fmt"
	"strings"
	"time"
)

// DeadlineLayout is the wire format used when sending deadlines to the backend.
const DeadlineLayout = "2006-01-02T15:04"

var deadlineLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDeadline parses the formats the backend and the page forms produce.
// Values without an offset are taken to be in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty deadline")
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised deadline %q", s)
}

type Assignment struct {
	ID          ID         `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status"`
	SubjectID   ID         `json:"subject_id"`
	SchoolID    ID         `json:"school_id"`

	// DeadlineRaw keeps the backend value so the deadline can be resolved
	// again in the configured zone.
	DeadlineRaw string `json:"-"`
}

func (a *Assignment) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}

	a.ID = f.id("id")
	a.Name = f.str("name", "nama", "title")
	if a.Name == "" {
		a.Name = fmt.Sprintf("Assignment %d", a.ID)
	}
	a.Description = f.str("description", "deskripsi")
	a.Status = f.str("status")
	if a.Status == "" {
		a.Status = "active"
	}
	a.SubjectID = f.id("subject_id")
	a.SchoolID = f.id("school_id")

	a.DeadlineRaw = f.str("deadline", "tanggal_akhir")
	a.ResolveDeadline(time.UTC)
	return nil
}

// ResolveDeadline re-parses DeadlineRaw in loc. An unparseable deadline is
// treated as absent.
func (a *Assignment) ResolveDeadline(loc *time.Location) {
	a.Deadline = nil
	if a.DeadlineRaw == "" {
		return
	}
	if t, err := ParseDeadline(a.DeadlineRaw, loc); err == nil {
		a.Deadline = &t
	}
}

type AssignmentRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description,omitempty" validate:"max=5000"`
	Deadline    string `json:"deadline" validate:"required"`
}

// AssignmentRef locates an assignment in the school/subject hierarchy.
type AssignmentRef struct {
	SchoolID     ID `json:"school_id"`
	SubjectID    ID `json:"subject_id"`
	AssignmentID ID `json:"assignment_id"`
}
