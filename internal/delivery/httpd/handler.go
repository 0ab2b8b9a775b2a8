package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

const loginPath = "/login"

// SessionManager is the part of the session lifecycle the handlers use.
type SessionManager interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Get(id string) (*models.Session, error)
	Logout(id string) error
	Invalidate(id string)
}

// WorkerStats reports the fan-out pool state for /health.
type WorkerStats interface {
	Stats() map[string]interface{}
}

type Handler struct {
	sessions          SessionManager
	sessionHeader     string
	schoolService     service.SchoolService
	subjectService    service.SubjectService
	assignmentService service.AssignmentService
	submissionService service.SubmissionService
	roleService       service.RoleService
	userService       service.UserService
	aggregator        service.AggregatorService
	gradingService    service.GradingService
	workers           WorkerStats
	validator         *validation.Validator
	logger            zerolog.Logger
}

type Services struct {
	Schools     service.SchoolService
	Subjects    service.SubjectService
	Assignments service.AssignmentService
	Submissions service.SubmissionService
	Roles       service.RoleService
	Users       service.UserService
	Aggregator  service.AggregatorService
	Grading     service.GradingService
	Workers     WorkerStats
}

func NewHandler(
	sessions SessionManager,
	sessionHeader string,
	services Services,
	validator *validation.Validator,
	logger zerolog.Logger,
) *Handler {
	if sessionHeader == "" {
		sessionHeader = "X-Session-ID"
	}
	return &Handler{
		sessions:          sessions,
		sessionHeader:     sessionHeader,
		schoolService:     services.Schools,
		subjectService:    services.Subjects,
		assignmentService: services.Assignments,
		submissionService: services.Submissions,
		roleService:       services.Roles,
		userService:       services.Users,
		aggregator:        services.Aggregator,
		gradingService:    services.Grading,
		workers:           services.Workers,
		validator:         validator,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/login", h.Login)

		api.Group(func(r chi.Router) {
			r.Use(h.RequireSession)

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)
			r.Get("/assignments/board", h.GetBoard)

			r.Route("/schools", func(r chi.Router) {
				r.Get("/", h.GetAllSchools)
				r.With(h.RequireRole(models.RoleSuperAdmin)).Post("/", h.CreateSchool)

				r.Route("/{schoolID}", func(r chi.Router) {
					r.Get("/", h.GetSchoolByID)
					r.With(h.RequireRole(models.RoleSuperAdmin)).Put("/", h.UpdateSchool)
					r.With(h.RequireRole(models.RoleSuperAdmin)).Delete("/", h.DeleteSchool)

					r.Route("/subjects", func(r chi.Router) {
						r.Get("/", h.GetAllSubjects)
						r.With(h.RequireRole(models.RoleSuperAdmin, models.RoleTeacher)).Post("/", h.CreateSubject)

						r.Route("/{subjectID}", func(r chi.Router) {
							r.Get("/", h.GetSubjectByID)
							r.With(h.RequireRole(models.RoleSuperAdmin, models.RoleTeacher)).Put("/", h.UpdateSubject)
							r.With(h.RequireRole(models.RoleSuperAdmin, models.RoleTeacher)).Delete("/", h.DeleteSubject)
							h.registerAssignmentRoutes(r)
						})
					})
				})
			})

			r.Route("/roles", func(r chi.Router) {
				r.Use(h.RequireRole(models.RoleSuperAdmin))
				r.Get("/", h.GetAllRoles)
				r.Post("/", h.CreateRole)
				r.Get("/{roleID}", h.GetRoleByID)
				r.Put("/{roleID}", h.UpdateRole)
				r.Delete("/{roleID}", h.DeleteRole)
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(h.RequireRole(models.RoleSuperAdmin))
				r.Get("/", h.GetAllUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{userID}", h.GetUserByID)
				r.Put("/{userID}", h.UpdateUser)
				r.Delete("/{userID}", h.DeleteUser)
				r.Put("/{userID}/schools", h.AssignUserSchools)
			})
		})
	})
}

func (h *Handler) registerAssignmentRoutes(r chi.Router) {
	teacherOnly := h.RequireRole(models.RoleSuperAdmin, models.RoleTeacher)

	r.Route("/assignments", func(r chi.Router) {
		r.Get("/", h.GetAllAssignments)
		r.With(teacherOnly).Post("/", h.CreateAssignment)

		r.Route("/{assignmentID}", func(r chi.Router) {
			r.Get("/", h.GetAssignmentByID)
			r.With(teacherOnly).Put("/", h.UpdateAssignment)
			r.With(teacherOnly).Delete("/", h.DeleteAssignment)

			r.Get("/submissions", h.GetSubmissions)
			r.With(h.RequireRole(models.RoleStudent)).Post("/submissions", h.SubmitAssignment)
			r.With(teacherOnly).Put("/submissions/{submissionID}/grade", h.GradeSubmission)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "edusmart-portal",
		"timestamp": time.Now().UTC(),
	}
	if h.workers != nil {
		response["workers"] = h.workers.Stats()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleError maps service and backend errors to responses. A 401 from
// the backend ends the session.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *validation.ValidationError
		gradingErr    *service.GradingError
		apiErr        *integration.APIError
	)

	switch {
	case errors.As(err, &validationErr):
		writeFieldErrors(w, http.StatusBadRequest, validationErr.Error(), validationErr.Fields)
	case errors.Is(err, integration.ErrUnauthorized):
		if sess, ok := SessionFromContext(r.Context()); ok {
			h.aggregator.Cancel(sess.ID)
			h.sessions.Invalidate(sess.ID)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":    http.StatusText(http.StatusUnauthorized),
			"message":  "Session expired, please sign in again",
			"redirect": loginPath,
		})
	case errors.As(err, &gradingErr):
		h.logger.Error().Err(err).Bool("grade_saved", gradingErr.GradeSaved).Msg("Grading failed")
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":          http.StatusText(http.StatusBadGateway),
			"message":        gradingErr.Error(),
			"grade_saved":    gradingErr.GradeSaved,
			"feedback_saved": gradingErr.FeedbackSaved,
		})
	case errors.As(err, &apiErr) && errors.Is(err, integration.ErrValidation):
		writeFieldErrors(w, apiErr.StatusCode, apiErr.Message, apiErr.Fields)
	case errors.Is(err, integration.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, integration.ErrForbidden), errors.Is(err, service.ErrRoleNotAllowed):
		writeError(w, http.StatusForbidden, "You are not allowed to do this")
	case errors.Is(err, service.ErrAlreadySubmitted), errors.Is(err, integration.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStaleGeneration):
		writeError(w, http.StatusConflict, "A newer refresh replaced this one")
	case errors.Is(err, service.ErrDeadlinePassed):
		writeError(w, http.StatusUnprocessableEntity, "The deadline for this assignment has passed")
	case errors.Is(err, integration.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Could not reach the school server, check your connection")
	case errors.Is(err, integration.ErrUnexpectedResponse), errors.Is(err, integration.ErrUpstream):
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Backend error")
		writeError(w, http.StatusBadGateway, "The school server returned an unexpected response")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// idParam reads a numeric path parameter, writing a 400 when it is not one.
func idParam(w http.ResponseWriter, r *http.Request, key string) (models.ID, bool) {
	id, err := models.ParseID(chi.URLParam(r, key))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+key)
		return 0, false
	}
	return id, true
}

func assignmentRef(w http.ResponseWriter, r *http.Request) (models.AssignmentRef, bool) {
	var ref models.AssignmentRef
	var ok bool
	if ref.SchoolID, ok = idParam(w, r, "schoolID"); !ok {
		return ref, false
	}
	if ref.SubjectID, ok = idParam(w, r, "subjectID"); !ok {
		return ref, false
	}
	if ref.AssignmentID, ok = idParam(w, r, "assignmentID"); !ok {
		return ref, false
	}
	return ref, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeFieldErrors(w http.ResponseWriter, status int, message string, fields map[string]string) {
	body := map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	writeJSON(w, status, body)
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeStatus(w, http.StatusOK, data)
}

func writeStatus(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, status, response)
}
