package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/internal/worker"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

var testNow = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func at(offset time.Duration) *time.Time {
	t := testNow.Add(offset)
	return &t
}

// fakeBackend is an in-memory EduSmart API shared by the fake clients.
type fakeBackend struct {
	mu          sync.Mutex
	nextID      models.ID
	schools     []models.School
	subjects    map[models.ID][]models.Subject
	assignments map[models.ID][]models.Assignment
	submissions map[models.ID][]models.Submission
	roles       []models.Role
	permissions []models.Permission
	users       []models.UserProfile

	failSchools     error
	failSubjects    map[models.ID]error
	failAssignments map[models.ID]error
	failSubmissions map[models.ID]error
	gradeErr        error
	feedbackErr     error

	grades    map[models.ID]float64
	feedbacks map[models.ID]string
	created   []*models.UserRequest

	// blockAssignments makes the next assignment listing wait for its
	// context to end, closing entered first.
	blockAssignments atomic.Bool
	entered          chan struct{}

	submissionCalls atomic.Int32
	feedbackCalls   atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID:          1000,
		subjects:        make(map[models.ID][]models.Subject),
		assignments:     make(map[models.ID][]models.Assignment),
		submissions:     make(map[models.ID][]models.Submission),
		failSubjects:    make(map[models.ID]error),
		failAssignments: make(map[models.ID]error),
		failSubmissions: make(map[models.ID]error),
		grades:          make(map[models.ID]float64),
		feedbacks:       make(map[models.ID]string),
		entered:         make(chan struct{}),
	}
}

func (b *fakeBackend) id() models.ID {
	b.nextID++
	return b.nextID
}

type fakeSchools struct{ *fakeBackend }

func (f fakeSchools) List(_ context.Context, _ string) ([]models.School, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSchools != nil {
		return nil, f.failSchools
	}
	return append([]models.School(nil), f.schools...), nil
}

func (f fakeSchools) Get(_ context.Context, _ string, id models.ID) (*models.School, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSchools != nil {
		return nil, f.failSchools
	}
	for _, s := range f.schools {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, &integration.APIError{StatusCode: 404, Message: "not found"}
}

func (f fakeSchools) Create(_ context.Context, _ string, req *models.SchoolRequest) (*models.School, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := models.School{ID: f.id(), Name: req.Name}
	f.schools = append(f.schools, s)
	return &s, nil
}

func (f fakeSchools) Update(_ context.Context, _ string, id models.ID, req *models.SchoolRequest) (*models.School, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.schools {
		if f.schools[i].ID == id {
			f.schools[i].Name = req.Name
			s := f.schools[i]
			return &s, nil
		}
	}
	return nil, &integration.APIError{StatusCode: 404, Message: "not found"}
}

func (f fakeSchools) Delete(_ context.Context, _ string, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.schools {
		if f.schools[i].ID == id {
			f.schools = append(f.schools[:i], f.schools[i+1:]...)
			return nil
		}
	}
	return &integration.APIError{StatusCode: 404, Message: "not found"}
}

type fakeSubjects struct{ *fakeBackend }

func (f fakeSubjects) List(_ context.Context, _ string, schoolID models.ID) ([]models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSubjects[schoolID]; err != nil {
		return nil, err
	}
	return append([]models.Subject(nil), f.subjects[schoolID]...), nil
}

func (f fakeSubjects) Get(_ context.Context, _ string, schoolID, id models.ID) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subjects[schoolID] {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, integration.ErrNotFound
}

func (f fakeSubjects) Create(_ context.Context, _ string, schoolID models.ID, req *models.SubjectRequest) (*models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := models.Subject{ID: f.id(), Name: req.Name, SchoolID: schoolID}
	f.subjects[schoolID] = append(f.subjects[schoolID], s)
	return &s, nil
}

func (f fakeSubjects) Update(_ context.Context, _ string, schoolID, id models.ID, req *models.SubjectRequest) (*models.Subject, error) {
	return nil, integration.ErrNotFound
}

func (f fakeSubjects) Delete(_ context.Context, _ string, schoolID, id models.ID) error {
	return integration.ErrNotFound
}

type fakeAssignments struct{ *fakeBackend }

func (f fakeAssignments) List(ctx context.Context, _ string, _, subjectID models.ID) ([]models.Assignment, error) {
	if f.blockAssignments.CompareAndSwap(true, false) {
		close(f.entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failAssignments[subjectID]; err != nil {
		return nil, err
	}
	return append([]models.Assignment(nil), f.assignments[subjectID]...), nil
}

func (f fakeAssignments) Get(_ context.Context, _ string, _, subjectID, id models.ID) (*models.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments[subjectID] {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, &integration.APIError{StatusCode: 404, Message: "Assignment not found"}
}

func (f fakeAssignments) Create(_ context.Context, _ string, schoolID, subjectID models.ID, req *models.AssignmentRequest) (*models.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := models.Assignment{
		ID:          f.id(),
		Name:        req.Name,
		Description: req.Description,
		Status:      "active",
		SchoolID:    schoolID,
		SubjectID:   subjectID,
		DeadlineRaw: req.Deadline,
	}
	a.ResolveDeadline(time.UTC)
	f.assignments[subjectID] = append(f.assignments[subjectID], a)
	return &a, nil
}

func (f fakeAssignments) Update(_ context.Context, _ string, _, subjectID, id models.ID, req *models.AssignmentRequest) (*models.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.assignments[subjectID]
	for i := range list {
		if list[i].ID == id {
			list[i].Name = req.Name
			list[i].DeadlineRaw = req.Deadline
			list[i].ResolveDeadline(time.UTC)
			a := list[i]
			return &a, nil
		}
	}
	return nil, integration.ErrNotFound
}

func (f fakeAssignments) Delete(_ context.Context, _ string, _, subjectID, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.assignments[subjectID]
	for i := range list {
		if list[i].ID == id {
			f.assignments[subjectID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return &integration.APIError{StatusCode: 404, Message: "Assignment not found"}
}

type fakeSubmissions struct{ *fakeBackend }

func (f fakeSubmissions) List(_ context.Context, _ string, ref models.AssignmentRef) ([]models.Submission, error) {
	f.submissionCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSubmissions[ref.AssignmentID]; err != nil {
		return nil, err
	}
	return append([]models.Submission(nil), f.submissions[ref.AssignmentID]...), nil
}

func (f fakeSubmissions) Submit(_ context.Context, _ string, ref models.AssignmentRef, req *models.SubmitRequest) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := models.Submission{
		ID:           f.id(),
		AssignmentID: ref.AssignmentID,
		Status:       models.SubmissionStatusSubmitted,
		Comment:      req.Comment,
	}
	for _, file := range req.Files {
		sub.Files = append(sub.Files, models.FileDescriptor{URL: "/storage/" + file.Name, OriginalName: file.Name})
	}
	return &sub, nil
}

func (f fakeSubmissions) Grade(_ context.Context, _ string, _ models.AssignmentRef, submissionID models.ID, grade float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gradeErr != nil {
		return f.gradeErr
	}
	f.grades[submissionID] = grade
	return nil
}

func (f fakeSubmissions) StoreFeedback(_ context.Context, _ string, _ models.AssignmentRef, submissionID models.ID, feedback string) error {
	f.feedbackCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.feedbackErr != nil {
		return f.feedbackErr
	}
	f.feedbacks[submissionID] = feedback
	return nil
}

type fakeRoles struct{ *fakeBackend }

func (f fakeRoles) List(_ context.Context, _ string) ([]models.Role, []models.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles, f.permissions, nil
}

func (f fakeRoles) Get(_ context.Context, _ string, id models.ID) (*models.Role, error) {
	return nil, integration.ErrNotFound
}

func (f fakeRoles) Create(_ context.Context, _ string, req *models.RoleRequest) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := models.Role{ID: f.id(), Name: req.Name}
	f.roles = append(f.roles, r)
	return &r, nil
}

func (f fakeRoles) Update(_ context.Context, _ string, id models.ID, req *models.RoleRequest) (*models.Role, error) {
	return nil, integration.ErrNotFound
}

func (f fakeRoles) Delete(_ context.Context, _ string, id models.ID) error {
	return integration.ErrNotFound
}

type fakeUsers struct{ *fakeBackend }

func (f fakeUsers) List(_ context.Context, _ string) ([]models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.UserProfile(nil), f.users...), nil
}

func (f fakeUsers) Get(_ context.Context, _ string, id models.ID) (*models.UserProfile, error) {
	return nil, integration.ErrNotFound
}

func (f fakeUsers) Create(_ context.Context, _ string, req *models.UserRequest) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	u := models.UserProfile{ID: f.id(), Name: req.Name, Email: req.Email}
	for _, r := range req.Roles {
		u.Roles = append(u.Roles, models.RoleRef{Name: r})
	}
	f.users = append(f.users, u)
	return &u, nil
}

func (f fakeUsers) Update(_ context.Context, _ string, id models.ID, req *models.UserRequest) (*models.UserProfile, error) {
	return nil, integration.ErrNotFound
}

func (f fakeUsers) Delete(_ context.Context, _ string, id models.ID) error {
	return integration.ErrNotFound
}

func (f fakeUsers) AssignSchools(_ context.Context, _ string, id models.ID, schoolIDs []models.ID) error {
	return nil
}

// recordingObserver counts aggregation and grading outcomes.
type recordingObserver struct {
	mu       sync.Mutex
	results  []string
	branches map[string]int
	gradings []string
	events   []string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{branches: make(map[string]int)}
}

func (o *recordingObserver) ObserveAggregation(_ string, result string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *recordingObserver) BranchFailed(stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.branches[stage]++
}

func (o *recordingObserver) ObserveGrading(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gradings = append(o.gradings, result)
}

func (o *recordingObserver) ObserveEvent(_ string, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, result)
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []*models.SubmissionGradedEvent
}

func (p *fakePublisher) PublishSubmissionGraded(_ context.Context, event *models.SubmissionGradedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) RoutingKey() string { return "submission.graded" }
func (p *fakePublisher) Close() error       { return nil }

func newTestPool(t *testing.T, workers int) *worker.Pool {
	t.Helper()
	pool := worker.NewPool(workers, 8, zerolog.Nop())
	pool.Start()
	t.Cleanup(pool.Stop)
	return pool
}

func newTestSchoolService(b *fakeBackend) SchoolService {
	return NewSchoolService(fakeSchools{b}, NewCacheService(time.Minute, time.Minute), validation.New(), zerolog.Nop())
}

func newTestAggregator(t *testing.T, b *fakeBackend, workers int, obs AggregationObserver) *aggregatorService {
	t.Helper()
	agg := NewAggregatorService(
		newTestSchoolService(b),
		fakeSubjects{b},
		fakeAssignments{b},
		fakeSubmissions{b},
		newTestPool(t, workers),
		obs,
		zerolog.Nop(),
	).(*aggregatorService)
	agg.now = func() time.Time { return testNow }
	return agg
}

func session(id models.ID, role string, schoolID models.ID, subjects ...models.ID) *models.Session {
	user := models.UserProfile{
		ID:    id,
		Name:  "User",
		Roles: []models.RoleRef{{Name: role}},
	}
	if schoolID != 0 {
		user.Schools = []models.SchoolRef{{ID: schoolID, Name: "North High"}}
	}
	for _, s := range subjects {
		user.Subjects = append(user.Subjects, models.SubjectRef{ID: s})
	}
	return &models.Session{ID: "sess-" + id.String(), Token: "token", User: user}
}
