package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/internal/worker"
)

const (
	noSchoolMessage      = "Your account is not linked to a school yet. Ask an administrator to assign one."
	schoolsFailedMessage = "Could not load schools. Please try again later."
)

type BoardOptions struct {
	// SchoolID narrows a super-admin board to one school.
	SchoolID models.ID
}

type AggregatorService interface {
	Board(ctx context.Context, sess *models.Session, opts BoardOptions) (*models.AssignmentBoard, error)
	// Cancel aborts the board run in flight for the session, if any.
	Cancel(sessionID string)
}

type aggregatorService struct {
	schools     SchoolService
	subjects    integration.SubjectClient
	assignments integration.AssignmentClient
	submissions integration.SubmissionClient
	pool        *worker.Pool
	observer    AggregationObserver
	generations *generations
	now         func() time.Time
	logger      zerolog.Logger
}

func NewAggregatorService(
	schools SchoolService,
	subjects integration.SubjectClient,
	assignments integration.AssignmentClient,
	submissions integration.SubmissionClient,
	pool *worker.Pool,
	observer AggregationObserver,
	logger zerolog.Logger,
) AggregatorService {
	if observer == nil {
		observer = noopObserver{}
	}
	return &aggregatorService{
		schools:     schools,
		subjects:    subjects,
		assignments: assignments,
		submissions: submissions,
		pool:        pool,
		observer:    observer,
		generations: newGenerations(),
		now:         time.Now,
		logger:      logger,
	}
}

func (s *aggregatorService) Cancel(sessionID string) {
	s.generations.cancel(sessionID)
}

// Board assembles every assignment the caller can see, annotated for the
// caller's role and sorted by deadline with undated ones last.
func (s *aggregatorService) Board(ctx context.Context, sess *models.Session, opts BoardOptions) (*models.AssignmentBoard, error) {
	start := time.Now()
	role := sess.User.PrimaryRole()

	runCtx, gen, cancel := s.generations.begin(ctx, sess.ID)
	defer cancel()
	defer s.generations.end(sess.ID, gen)

	run := &boardRun{
		aggregatorService: s,
		sess:              sess,
		role:              role,
		now:               s.now(),
		cancel:            cancel,
	}
	views, err := run.execute(runCtx, opts)

	switch {
	case run.isUnauthorized():
		err = integration.ErrUnauthorized
	case ctx.Err() != nil:
		err = ctx.Err()
	case !s.generations.current(sess.ID, gen):
		err = ErrStaleGeneration
	}

	result := "ok"
	switch {
	case errors.Is(err, ErrNoSchoolScope):
		result = "no_scope"
	case errors.Is(err, ErrSchoolsUnavailable):
		result = "scope_failed"
	case errors.Is(err, ErrStaleGeneration):
		result = "stale"
	case errors.Is(err, integration.ErrUnauthorized):
		result = "unauthorized"
	case err != nil:
		result = "error"
	}
	s.observer.ObserveAggregation(role, result, time.Since(start))

	if errors.Is(err, ErrNoSchoolScope) {
		s.logger.Info().Str("session_id", sess.ID).Str("role", role).Msg("Board requested without school scope")
		return emptyBoard(role, gen, noSchoolMessage, 0), err
	}
	if errors.Is(err, ErrSchoolsUnavailable) {
		return emptyBoard(role, gen, schoolsFailedMessage, run.failureCount()), err
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("session_id", sess.ID).Uint64("generation", gen).Msg("Board run discarded")
		return nil, err
	}

	if views == nil {
		views = []models.AssignmentView{}
	}
	board := &models.AssignmentBoard{
		Role:       role,
		Generation: gen,
		Items:      views,
		Summary:    models.Summarize(views),
		Failures:   run.failureCount(),
	}

	s.logger.Info().
		Str("session_id", sess.ID).
		Str("role", role).
		Uint64("generation", gen).
		Int("items", len(views)).
		Int("failures", board.Failures).
		Dur("duration", time.Since(start)).
		Msg("Board assembled")
	return board, nil
}

func emptyBoard(role string, gen uint64, message string, failures int) *models.AssignmentBoard {
	return &models.AssignmentBoard{
		Role:       role,
		Generation: gen,
		Items:      []models.AssignmentView{},
		Message:    message,
		Failures:   failures,
	}
}

type subjectBranch struct {
	school  models.School
	subject models.Subject
}

type assignmentBranch struct {
	school     models.School
	subject    models.Subject
	assignment models.Assignment
}

// boardRun holds the state of one aggregation run.
type boardRun struct {
	*aggregatorService
	sess   *models.Session
	role   string
	now    time.Time
	cancel context.CancelFunc

	mu           sync.Mutex
	failures     int
	unauthorized bool
}

func (r *boardRun) execute(ctx context.Context, opts BoardOptions) ([]models.AssignmentView, error) {
	schools, err := r.scope(ctx, opts)
	if err != nil {
		return nil, err
	}

	perSchool, err := worker.Map(ctx, r.pool, schools, r.subjectsOf)
	if err != nil {
		return nil, err
	}
	var subjects []subjectBranch
	for _, branches := range perSchool {
		subjects = append(subjects, branches...)
	}

	perSubject, err := worker.Map(ctx, r.pool, subjects, r.assignmentsOf)
	if err != nil {
		return nil, err
	}
	var assignments []assignmentBranch
	for _, branches := range perSubject {
		assignments = append(assignments, branches...)
	}

	views, err := worker.Map(ctx, r.pool, assignments, r.viewOf)
	if err != nil {
		return nil, err
	}

	sortByDeadline(views)
	return views, nil
}

// scope resolves the schools the caller may see.
func (r *boardRun) scope(ctx context.Context, opts BoardOptions) ([]models.School, error) {
	switch r.role {
	case models.RoleSuperAdmin:
		if opts.SchoolID != 0 {
			return []models.School{r.schools.Resolve(ctx, r.sess, opts.SchoolID)}, nil
		}
		schools, err := r.schools.List(ctx, r.sess)
		if err != nil {
			r.failed(ctx, "schools", err, zerolog.Dict())
			if r.isUnauthorized() {
				return nil, integration.ErrUnauthorized
			}
			return nil, fmt.Errorf("%w: %w", ErrSchoolsUnavailable, err)
		}
		return schools, nil
	case models.RoleTeacher, models.RoleStudent:
		id := r.sess.User.SchoolID()
		if id == 0 {
			return nil, ErrNoSchoolScope
		}
		return []models.School{r.schools.Resolve(ctx, r.sess, id)}, nil
	default:
		return nil, ErrRoleNotAllowed
	}
}

func (r *boardRun) subjectsOf(ctx context.Context, school models.School) []subjectBranch {
	subjects, err := r.subjects.List(ctx, r.sess.Token, school.ID)
	if err != nil {
		r.failed(ctx, "subjects", err, zerolog.Dict().Str("school_id", school.ID.String()))
		return nil
	}

	if r.role != models.RoleSuperAdmin {
		subjects = filterSubjects(subjects, r.sess.User.SubjectIDs())
	}

	branches := make([]subjectBranch, 0, len(subjects))
	for _, subj := range subjects {
		branches = append(branches, subjectBranch{school: school, subject: subj})
	}
	return branches
}

func (r *boardRun) assignmentsOf(ctx context.Context, b subjectBranch) []assignmentBranch {
	assignments, err := r.assignments.List(ctx, r.sess.Token, b.school.ID, b.subject.ID)
	if err != nil {
		r.failed(ctx, "assignments", err, zerolog.Dict().
			Str("school_id", b.school.ID.String()).
			Str("subject_id", b.subject.ID.String()))
		return nil
	}

	branches := make([]assignmentBranch, 0, len(assignments))
	for _, a := range assignments {
		branches = append(branches, assignmentBranch{school: b.school, subject: b.subject, assignment: a})
	}
	return branches
}

// viewOf projects one assignment. Students get their own submission,
// teachers get submission counts. A failed submission fetch still lists
// the assignment, without submission data.
func (r *boardRun) viewOf(ctx context.Context, b assignmentBranch) models.AssignmentView {
	if r.role == models.RoleSuperAdmin {
		return models.NewAssignmentView(b.assignment, b.school, b.subject, nil, r.now)
	}

	ref := models.AssignmentRef{SchoolID: b.school.ID, SubjectID: b.subject.ID, AssignmentID: b.assignment.ID}
	subs, err := r.submissions.List(ctx, r.sess.Token, ref)
	if err != nil {
		r.failed(ctx, "submissions", err, zerolog.Dict().
			Str("school_id", b.school.ID.String()).
			Str("subject_id", b.subject.ID.String()).
			Str("assignment_id", b.assignment.ID.String()))
		return models.NewAssignmentView(b.assignment, b.school, b.subject, nil, r.now)
	}

	if r.role == models.RoleTeacher {
		return models.NewAssignmentView(b.assignment, b.school, b.subject, nil, r.now).WithCounts(subs)
	}

	var own *models.Submission
	for i := range subs {
		if subs[i].IsOwnedBy(r.sess.User.ID) {
			own = &subs[i]
			break
		}
	}
	return models.NewAssignmentView(b.assignment, b.school, b.subject, own, r.now)
}

// failed records a branch failure. A 401 aborts the whole run; failures
// caused by the run being cancelled are not counted.
func (r *boardRun) failed(ctx context.Context, stage string, err error, ids *zerolog.Event) {
	if errors.Is(err, integration.ErrUnauthorized) {
		r.mu.Lock()
		r.unauthorized = true
		r.mu.Unlock()
		r.cancel()
		return
	}
	if ctx.Err() != nil {
		return
	}

	r.mu.Lock()
	r.failures++
	r.mu.Unlock()
	r.observer.BranchFailed(stage)

	r.logger.Warn().
		Err(err).
		Str("session_id", r.sess.ID).
		Str("stage", stage).
		Dict("branch", ids).
		Msg("Board branch failed")
}

func (r *boardRun) isUnauthorized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unauthorized
}

func (r *boardRun) failureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}

// sortByDeadline orders views by deadline ascending with nil deadlines
// last. Equal deadlines keep their input order.
func sortByDeadline(views []models.AssignmentView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].Deadline, views[j].Deadline
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}
