package httpd

import (
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

func (h *Handler) GetAllSchools(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	schools, err := h.schoolService.List(r.Context(), sess)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"schools": schools,
		"total":   len(schools),
	})
}

func (h *Handler) GetSchoolByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	school, err := h.schoolService.Get(r.Context(), sess, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, school)
}

func (h *Handler) CreateSchool(w http.ResponseWriter, r *http.Request) {
	var req models.SchoolRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	school, err := h.schoolService.Create(r.Context(), sess, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeStatus(w, http.StatusCreated, school)
}

func (h *Handler) UpdateSchool(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}

	var req models.SchoolRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	school, err := h.schoolService.Update(r.Context(), sess, id, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, school)
}

func (h *Handler) DeleteSchool(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "schoolID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	if err := h.schoolService.Delete(r.Context(), sess, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "School deleted successfully"})
}
