package httpd

import (
	"errors"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service"
)

// GetBoard returns the caller's aggregated assignment list. An account
// without a school, or a school list that failed to load, gets an empty
// board with an explanation instead of an error.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var opts service.BoardOptions
	if raw := r.URL.Query().Get("school_id"); raw != "" {
		id, err := models.ParseID(raw)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid school_id")
			return
		}
		opts.SchoolID = id
	}

	board, err := h.aggregator.Board(r.Context(), sess, opts)
	if err != nil {
		if board != nil && (errors.Is(err, service.ErrNoSchoolScope) || errors.Is(err, service.ErrSchoolsUnavailable)) {
			writeSuccess(w, board)
			return
		}
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, board)
}

func (h *Handler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	ref, ok := assignmentRef(w, r)
	if !ok {
		return
	}
	submissionID, ok := idParam(w, r, "submissionID")
	if !ok {
		return
	}

	var req models.GradeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	result, err := h.gradingService.Grade(r.Context(), sess, ref, submissionID, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, result)
}
