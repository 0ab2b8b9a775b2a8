package httpd

import (
	"net/http"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

func (h *Handler) GetAllRoles(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	catalog, err := h.roleService.Catalog(r.Context(), sess)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, catalog)
}

func (h *Handler) GetRoleByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "roleID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	role, err := h.roleService.Get(r.Context(), sess, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, role)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req models.RoleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	role, err := h.roleService.Create(r.Context(), sess, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeStatus(w, http.StatusCreated, role)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "roleID")
	if !ok {
		return
	}

	var req models.RoleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	role, err := h.roleService.Update(r.Context(), sess, id, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, role)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "roleID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	if err := h.roleService.Delete(r.Context(), sess, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Role deleted successfully"})
}

func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	filter := models.UserFilter{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
	}

	sess, _ := SessionFromContext(r.Context())
	users, err := h.userService.List(r.Context(), sess, filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

func (h *Handler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "userID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	user, err := h.userService.Get(r.Context(), sess, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, user)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	user, err := h.userService.Create(r.Context(), sess, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeStatus(w, http.StatusCreated, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "userID")
	if !ok {
		return
	}

	var req models.UserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	user, err := h.userService.Update(r.Context(), sess, id, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "userID")
	if !ok {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	if err := h.userService.Delete(r.Context(), sess, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "User deleted successfully"})
}

func (h *Handler) AssignUserSchools(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "userID")
	if !ok {
		return
	}

	var req models.AssignSchoolsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, _ := SessionFromContext(r.Context())
	if err := h.userService.AssignSchools(r.Context(), sess, id, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Schools assigned successfully"})
}
