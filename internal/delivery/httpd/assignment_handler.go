package httpd

import (
	"io"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

const maxUploadMemory = 32 << 20

func (h *Handler) GetAllAssignments(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}
	subjectID, ok := idParam(w, r, "subjectID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	assignments, err := h.assignmentService.List(r.Context(), sess, schoolID, subjectID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"assignments": assignments,
		"total":       len(assignments),
	})
}

func (h *Handler) GetAssignmentByID(w http.ResponseWriter, r *http.Request) {
	ref, ok := assignmentRef(w, r)
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	assignment, err := h.assignmentService.Get(r.Context(), sess, ref)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}
	subjectID, ok := idParam(w, r, "subjectID")
	if !ok {
		return
	}

	var req models.AssignmentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	assignment, err := h.assignmentService.Create(r.Context(), sess, schoolID, subjectID, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeStatus(w, http.StatusCreated, assignment)
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	ref, ok := assignmentRef(w, r)
	if !ok {
		return
	}

	var req models.AssignmentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	assignment, err := h.assignmentService.Update(r.Context(), sess, ref, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	ref, ok := assignmentRef(w, r)
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	if err := h.assignmentService.Delete(r.Context(), sess, ref); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Assignment deleted successfully"})
}

func (h *Handler) GetSubmissions(w http.ResponseWriter, r *http.Request) {
	ref, ok := assignmentRef(w, r)
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	submissions, err := h.submissionService.List(r.Context(), sess, ref)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// SubmitAssignment accepts a multipart form with one or more files[] parts
// and an optional comment.
func (h *Handler) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	ref, ok := assignmentRef(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := &models.SubmitRequest{Comment: r.FormValue("comment")}
	headers := r.MultipartForm.File["files[]"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["files"]
	}
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read file")
			return
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read file")
			return
		}
		req.Files = append(req.Files, models.UploadFile{Name: header.Filename, Content: content})
	}

	sess, _ := SessionFromContext(r.Context())
	submission, err := h.submissionService.Submit(r.Context(), sess, ref, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeStatus(w, http.StatusCreated, submission)
}
