package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
	"github.com/RubachokBoss/edusmart-portal/pkg/validation"
)

func TestSchoolService_Resolve(t *testing.T) {
	b := newFakeBackend()
	b.schools = []models.School{{ID: 2, Name: "South High"}}
	svc := newTestSchoolService(b)
	ctx := context.Background()

	t.Run("profile name", func(t *testing.T) {
		got := svc.Resolve(ctx, session(7, models.RoleStudent, 1), 1)
		assert.Equal(t, models.School{ID: 1, Name: "North High"}, got)
	})

	t.Run("backend then cache", func(t *testing.T) {
		sess := session(7, models.RoleSuperAdmin, 0)
		got := svc.Resolve(ctx, sess, 2)
		assert.Equal(t, "South High", got.Name)

		b.failSchools = integration.ErrUnavailable
		defer func() { b.failSchools = nil }()
		got = svc.Resolve(ctx, sess, 2)
		assert.Equal(t, "South High", got.Name, "second lookup is served from cache")
	})

	t.Run("placeholder", func(t *testing.T) {
		got := svc.Resolve(ctx, session(7, models.RoleSuperAdmin, 0), 5)
		assert.Equal(t, models.School{ID: 5, Name: "School 5"}, got)
	})
}

func TestSchoolService_DeleteTwice(t *testing.T) {
	b := newFakeBackend()
	b.schools = []models.School{{ID: 2, Name: "South High"}}
	svc := newTestSchoolService(b)
	sess := session(1, models.RoleSuperAdmin, 0)

	require.NoError(t, svc.Delete(context.Background(), sess, 2))
	err := svc.Delete(context.Background(), sess, 2)
	assert.ErrorIs(t, err, integration.ErrNotFound)
}

func TestSchoolService_CreateValidates(t *testing.T) {
	b := newFakeBackend()
	svc := newTestSchoolService(b)
	sess := session(1, models.RoleSuperAdmin, 0)

	_, err := svc.Create(context.Background(), sess, &models.SchoolRequest{Name: ""})
	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Empty(t, b.schools)

	school, err := svc.Create(context.Background(), sess, &models.SchoolRequest{Name: "East High"})
	require.NoError(t, err)
	assert.Equal(t, "East High", school.Name)
}

func TestSubjectService_StudentEnrolmentFilter(t *testing.T) {
	b := newFakeBackend()
	seedSchool(b)
	svc := NewSubjectService(fakeSubjects{b}, validation.New(), zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name string
		sess *models.Session
		want []models.ID
	}{
		{"enrolled student", session(7, models.RoleStudent, 1, 11), []models.ID{11}},
		{"student without enrolment", session(7, models.RoleStudent, 1), []models.ID{10, 11}},
		{"teacher ignores enrolment", session(3, models.RoleTeacher, 1, 11), []models.ID{10, 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subjects, err := svc.List(ctx, tt.sess, 1)
			require.NoError(t, err)
			var ids []models.ID
			for _, s := range subjects {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestAssignmentService_CreateRoundTrip(t *testing.T) {
	b := newFakeBackend()
	b.subjects[1] = []models.Subject{{ID: 10, Name: "Math", SchoolID: 1}}
	svc := NewAssignmentService(fakeAssignments{b}, validation.New(), time.UTC, zerolog.Nop())
	sess := session(3, models.RoleTeacher, 1)
	ctx := context.Background()

	created, err := svc.Create(ctx, sess, 1, 10, &models.AssignmentRequest{Name: " Quiz 1 ", Deadline: "2025-01-01T10:00"})
	require.NoError(t, err)

	list, err := svc.List(ctx, sess, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "Quiz 1", list[0].Name)
	require.NotNil(t, list[0].Deadline)
	assert.Equal(t, "2025-01-01T10:00", list[0].Deadline.Format(models.DeadlineLayout))

	ref := models.AssignmentRef{SchoolID: 1, SubjectID: 10, AssignmentID: created.ID}
	require.NoError(t, svc.Delete(ctx, sess, ref))
	assert.ErrorIs(t, svc.Delete(ctx, sess, ref), integration.ErrNotFound)
}

func TestAssignmentService_NormalizesDeadline(t *testing.T) {
	b := newFakeBackend()
	svc := NewAssignmentService(fakeAssignments{b}, validation.New(), time.UTC, zerolog.Nop())
	sess := session(3, models.RoleTeacher, 1)

	a, err := svc.Create(context.Background(), sess, 1, 10, &models.AssignmentRequest{Name: "HW2", Deadline: "2025-03-01 08:30:00"})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01T08:30", a.DeadlineRaw)

	_, err = svc.Create(context.Background(), sess, 1, 10, &models.AssignmentRequest{Name: "HW3", Deadline: "next friday"})
	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "deadline")
}

func newTestSubmissionService(b *fakeBackend) *submissionService {
	svc := NewSubmissionService(fakeSubmissions{b}, fakeAssignments{b}, zerolog.Nop()).(*submissionService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestSubmissionService_ListForStudent(t *testing.T) {
	b := newFakeBackend()
	seedSchool(b)
	svc := newTestSubmissionService(b)
	ref := models.AssignmentRef{SchoolID: 1, SubjectID: 10, AssignmentID: 102}

	own, err := svc.List(context.Background(), session(7, models.RoleStudent, 1), ref)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, models.ID(501), own[0].ID)

	all, err := svc.List(context.Background(), session(3, models.RoleTeacher, 1), ref)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSubmissionService_ListWithoutUserID(t *testing.T) {
	b := newFakeBackend()
	seedSchool(b)
	b.submissions[101] = append(b.submissions[101], models.Submission{ID: 900, AssignmentID: 101})
	svc := newTestSubmissionService(b)
	ref := models.AssignmentRef{SchoolID: 1, SubjectID: 10, AssignmentID: 101}

	own, err := svc.List(context.Background(), session(0, models.RoleStudent, 1), ref)
	require.NoError(t, err)
	assert.Empty(t, own)
}

func TestSubmissionService_Submit(t *testing.T) {
	files := []models.UploadFile{{Name: "answer.pdf", Content: []byte("%PDF")}}

	tests := []struct {
		name       string
		sess       *models.Session
		assignment models.ID
		req        *models.SubmitRequest
		wantErr    error
		field      string
	}{
		{
			name:       "open assignment",
			sess:       session(7, models.RoleStudent, 1),
			assignment: 100,
			req:        &models.SubmitRequest{Files: files, Comment: "done"},
		},
		{
			name:       "deadline passed",
			sess:       session(9, models.RoleStudent, 1),
			assignment: 102,
			req:        &models.SubmitRequest{Files: files},
			wantErr:    ErrDeadlinePassed,
		},
		{
			name:       "already submitted",
			sess:       session(8, models.RoleStudent, 1),
			assignment: 101,
			req:        &models.SubmitRequest{Files: files},
			wantErr:    ErrAlreadySubmitted,
		},
		{
			name:       "teacher",
			sess:       session(3, models.RoleTeacher, 1),
			assignment: 100,
			req:        &models.SubmitRequest{Files: files},
			wantErr:    ErrRoleNotAllowed,
		},
		{
			name:       "no files",
			sess:       session(7, models.RoleStudent, 1),
			assignment: 100,
			req:        &models.SubmitRequest{},
			field:      "files",
		},
		{
			name:       "multibyte comment at the limit",
			sess:       session(7, models.RoleStudent, 1),
			assignment: 100,
			req:        &models.SubmitRequest{Files: files, Comment: strings.Repeat("é", 2000)},
		},
		{
			name:       "comment too long",
			sess:       session(7, models.RoleStudent, 1),
			assignment: 100,
			req:        &models.SubmitRequest{Files: files, Comment: strings.Repeat("a", 2001)},
			field:      "comment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			seedSchool(b)
			svc := newTestSubmissionService(b)
			ref := models.AssignmentRef{SchoolID: 1, SubjectID: 10, AssignmentID: tt.assignment}

			sub, err := svc.Submit(context.Background(), tt.sess, ref, tt.req)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.field != "":
				var verr *validation.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, tt.field)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.sess.User.ID, sub.UserID)
				assert.Equal(t, "answer.pdf", sub.Files[0].OriginalName)
			}
		})
	}
}

func TestRoleService_Catalog(t *testing.T) {
	b := newFakeBackend()
	b.roles = []models.Role{
		{ID: 1, Name: "teacher", Permissions: []models.Permission{{ID: 1, Name: "view assignment"}, {ID: 2, Name: "grade submission"}}},
		{ID: 2, Name: "student", Permissions: []models.Permission{{ID: 1, Name: "view assignment"}}},
	}
	svc := NewRoleService(fakeRoles{b}, validation.New(), zerolog.Nop())

	catalog, err := svc.Catalog(context.Background(), session(1, models.RoleSuperAdmin, 0))
	require.NoError(t, err)
	assert.Len(t, catalog.Roles, 2)
	require.Len(t, catalog.Permissions, 2)
	assert.Equal(t, "assignment", catalog.Permissions[0].Resource)
	assert.Equal(t, "submission", catalog.Permissions[1].Resource)
	assert.Len(t, catalog.Permissions[0].Permissions, 1, "permissions shared by roles are listed once")
}

func TestRoleService_CreateValidates(t *testing.T) {
	b := newFakeBackend()
	svc := NewRoleService(fakeRoles{b}, validation.New(), zerolog.Nop())

	_, err := svc.Create(context.Background(), session(1, models.RoleSuperAdmin, 0), &models.RoleRequest{Name: "  "})
	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	role, err := svc.Create(context.Background(), session(1, models.RoleSuperAdmin, 0), &models.RoleRequest{Name: "librarian", Permissions: []models.ID{1}})
	require.NoError(t, err)
	assert.Equal(t, "librarian", role.Name)
}

func TestUserService(t *testing.T) {
	b := newFakeBackend()
	b.users = []models.UserProfile{
		{ID: 1, Name: "Ana Teacher", Email: "ana@school.test", Roles: []models.RoleRef{{Name: "teacher"}}},
		{ID: 2, Name: "Budi", Email: "budi@school.test", Roles: []models.RoleRef{{Name: "student"}}},
		{ID: 3, Name: "Citra", Email: "citra@school.test", Roles: []models.RoleRef{{Name: "student"}}},
	}
	svc := NewUserService(fakeUsers{b}, validation.New(), zerolog.Nop())
	sess := session(1, models.RoleSuperAdmin, 0)
	ctx := context.Background()

	t.Run("filter", func(t *testing.T) {
		students, err := svc.List(ctx, sess, models.UserFilter{Role: "student"})
		require.NoError(t, err)
		assert.Len(t, students, 2)

		found, err := svc.List(ctx, sess, models.UserFilter{Search: "CITRA"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, models.ID(3), found[0].ID)
	})

	t.Run("create requires password", func(t *testing.T) {
		_, err := svc.Create(ctx, sess, &models.UserRequest{Name: "Dewi", Email: "dewi@school.test", Roles: []string{"student"}})
		var verr *validation.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "password")
	})

	t.Run("create sends role names", func(t *testing.T) {
		user, err := svc.Create(ctx, sess, &models.UserRequest{
			Name:     "Dewi",
			Email:    "dewi@school.test",
			Password: "secret123",
			Roles:    []string{"student"},
		})
		require.NoError(t, err)
		assert.True(t, user.HasRole("student"))

		sent := b.created[len(b.created)-1]
		assert.Equal(t, []string{"student"}, sent.Roles)
		assert.Equal(t, "secret123", sent.PasswordConfirmation)
	})

	t.Run("assign schools validates", func(t *testing.T) {
		err := svc.AssignSchools(ctx, sess, 2, &models.AssignSchoolsRequest{})
		var verr *validation.ValidationError
		require.ErrorAs(t, err, &verr)

		assert.NoError(t, svc.AssignSchools(ctx, sess, 2, &models.AssignSchoolsRequest{SchoolIDs: []models.ID{1, 2}}))
	})
}
