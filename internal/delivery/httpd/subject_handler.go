package httpd

import (
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

func (h *Handler) GetAllSubjects(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	subjects, err := h.subjectService.List(r.Context(), sess, schoolID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"subjects": subjects,
		"total":    len(subjects),
	})
}

func (h *Handler) GetSubjectByID(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}
	id, ok := idParam(w, r, "subjectID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	subject, err := h.subjectService.Get(r.Context(), sess, schoolID, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, subject)
}

func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}

	var req models.SubjectRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	subject, err := h.subjectService.Create(r.Context(), sess, schoolID, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeStatus(w, http.StatusCreated, subject)
}

func (h *Handler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}
	id, ok := idParam(w, r, "subjectID")
	if !ok {
		return
	}

	var req models.SubjectRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	subject, err := h.subjectService.Update(r.Context(), sess, schoolID, id, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, subject)
}

func (h *Handler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}
	id, ok := idParam(w, r, "subjectID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	if err := h.subjectService.Delete(r.Context(), sess, schoolID, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Subject deleted successfully"})
}
