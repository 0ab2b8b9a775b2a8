package httpd

import (
	"errors"
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.handleError(w, r, err)
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, integration.ErrUnauthorized) || errors.Is(err, integration.ErrValidation) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, models.LoginResponse{
		SessionID: sess.ID,
		User:      sess.User,
		Role:      sess.User.PrimaryRole(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	h.aggregator.Cancel(sess.ID)
	if err := h.sessions.Logout(sess.ID); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"redirect": loginPath})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	writeSuccess(w, map[string]interface{}{
		"user":        sess.User,
		"role":        sess.User.PrimaryRole(),
		"school_id":   sess.User.SchoolID(),
		"school_name": sess.User.SchoolName(),
	})
}
