package models

import (
	"encoding/json"
	"path"
	"strings"
	"time"
)

const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusGraded    = "graded"

	MinGrade = 0
	MaxGrade = 100
)

type FileDescriptor struct {
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
}

func (d *FileDescriptor) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		d.URL = url
		d.OriginalName = path.Base(url)
		return nil
	}

	f, err := decodeFields(data)
	if err != nil {
		return err
	}
	d.URL = f.str("url", "path", "file_url")
	d.OriginalName = f.str("original_name", "name", "filename")
	if d.OriginalName == "" && d.URL != "" {
		d.OriginalName = path.Base(d.URL)
	}
	return nil
}

type Submission struct {
	ID           ID               `json:"id"`
	AssignmentID ID               `json:"assignment_id"`
	UserID       ID               `json:"user_id"`
	StudentName  string           `json:"student_name,omitempty"`
	Files        []FileDescriptor `json:"file_urls"`
	Grade        *float64         `json:"grade"`
	Feedback     string           `json:"feedback,omitempty"`
	Status       string           `json:"status"`
	Comment      string           `json:"comment,omitempty"`
	SubmittedAt  *time.Time       `json:"submitted_at,omitempty"`
}

func (s *Submission) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}

	s.ID = f.id("id")
	s.AssignmentID = f.id("assignment_id")
	s.UserID = f.id("user_id", "student_id")
	s.Status = f.str("status")
	s.Comment = f.str("comment")

	if user, ok := f.object("user"); ok {
		if s.UserID == 0 {
			s.UserID = user.id("id")
		}
		s.StudentName = user.str("name")
	}
	if s.StudentName == "" {
		s.StudentName = f.str("student_name")
	}

	s.Files = s.Files[:0]
	for _, raw := range f.list("file_urls", "files") {
		var d FileDescriptor
		if err := json.Unmarshal(raw, &d); err == nil && d.URL != "" {
			s.Files = append(s.Files, d)
		}
	}

	s.Grade = nil
	if g, ok := f.number("grade", "nilai"); ok && g >= MinGrade && g <= MaxGrade {
		s.Grade = &g
	}

	s.Feedback = extractFeedback(f)

	s.SubmittedAt = nil
	if raw := f.str("submitted_at", "created_at"); raw != "" {
		if t, err := ParseDeadline(raw, time.UTC); err == nil {
			s.SubmittedAt = &t
		}
	}
	return nil
}

// extractFeedback accepts `feedback` as a plain string or as an object
// carrying the text under `feedback`, and falls back to the latest entry of
// a `feedbacks` list.
func extractFeedback(f rawFields) string {
	if text := strings.TrimSpace(f.str("feedback")); text != "" {
		return text
	}
	if obj, ok := f.object("feedback"); ok {
		if text := strings.TrimSpace(obj.str("feedback", "content", "text")); text != "" {
			return text
		}
	}

	items := f.list("feedbacks")
	for i := len(items) - 1; i >= 0; i-- {
		var text string
		if err := json.Unmarshal(items[i], &text); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		entry, err := decodeFields(items[i])
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(entry.str("feedback", "content", "text")); text != "" {
			return text
		}
	}
	return ""
}

func (s *Submission) Graded() bool {
	return s.Status == SubmissionStatusGraded || s.Grade != nil
}

// IsOwnedBy reports whether the submission belongs to userID. Unknown
// owners never match, on either side.
func (s *Submission) IsOwnedBy(userID ID) bool {
	return userID != 0 && s.UserID == userID
}

// FeedbackText returns the teacher's feedback and whether there is any.
func (s *Submission) FeedbackText() (string, bool) {
	if s.Feedback == "" {
		return "", false
	}
	return s.Feedback, true
}

type GradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required,min=0,max=100"`
	Feedback string   `json:"feedback,omitempty" validate:"max=2000"`
}

// UploadFile is one file of a multipart submission.
type UploadFile struct {
	Name    string
	Content []byte
}

type SubmitRequest struct {
	Files   []UploadFile
	Comment string
}
