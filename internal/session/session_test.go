package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
)

type fakeAuth struct {
	result *integration.LoginResult
	err    error
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*integration.LoginResult, error) {
	return f.result, f.err
}

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "nested", "sessions.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStore_SaveGetDelete(t *testing.T) {
	store := openTestStore(t)

	sess := &models.Session{
		ID:        "s1",
		Token:     "tok",
		User:      models.UserProfile{ID: 3, Name: "Siti", Roles: []models.RoleRef{{Name: "student"}}, Schools: []models.SchoolRef{{ID: 10}}},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(sess))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, models.RoleStudent, got.User.PrimaryRole())
	assert.Equal(t, models.ID(10), got.User.SchoolID())
	assert.True(t, sess.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, store.Delete("s1"))
	require.NoError(t, store.Delete("s1"))

	_, err = store.Get("s1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBoltStore_PurgeExpired(t *testing.T) {
	store := openTestStore(t)
	now := time.Now()

	require.NoError(t, store.Save(&models.Session{ID: "old", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Save(&models.Session{ID: "fresh", CreatedAt: now}))

	n, err := store.PurgeExpired(24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get("old")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.Get("fresh")
	assert.NoError(t, err)
}

func TestManager_Lifecycle(t *testing.T) {
	store := openTestStore(t)
	auth := &fakeAuth{result: &integration.LoginResult{
		Token: "backend-token",
		User:  models.UserProfile{ID: 7, Roles: []models.RoleRef{{Name: "teacher"}}},
	}}
	m := NewManager(auth, store, time.Hour, zerolog.Nop())

	sess, err := m.Login(context.Background(), "guru@x.id", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.NotEqual(t, "backend-token", sess.ID)

	got, err := m.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "backend-token", got.Token)

	m.Invalidate(sess.ID)
	_, err = m.Get(sess.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	sess, err = m.Login(context.Background(), "guru@x.id", "secret")
	require.NoError(t, err)
	require.NoError(t, m.Logout(sess.ID))
	_, err = m.Get(sess.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestManager_LoginFailure(t *testing.T) {
	m := NewManager(&fakeAuth{err: integration.ErrUnauthorized}, openTestStore(t), time.Hour, zerolog.Nop())

	_, err := m.Login(context.Background(), "a@x.id", "wrong")
	assert.True(t, errors.Is(err, integration.ErrUnauthorized))
}

func TestManager_LoginRejectsProfileWithoutID(t *testing.T) {
	store := openTestStore(t)
	auth := &fakeAuth{result: &integration.LoginResult{
		Token: "backend-token",
		User:  models.UserProfile{Name: "Nobody", Roles: []models.RoleRef{{Name: "student"}}},
	}}
	m := NewManager(auth, store, time.Hour, zerolog.Nop())

	sess, err := m.Login(context.Background(), "siswa@x.id", "secret")
	assert.Nil(t, sess)
	assert.True(t, errors.Is(err, integration.ErrUnexpectedResponse))
}

func TestManager_Expired(t *testing.T) {
	store := openTestStore(t)
	m := NewManager(&fakeAuth{}, store, time.Hour, zerolog.Nop())
	require.NoError(t, store.Save(&models.Session{ID: "s", CreatedAt: time.Now().Add(-2 * time.Hour)}))

	_, err := m.Get("s")
	assert.True(t, errors.Is(err, ErrExpired))

	_, err = store.Get("s")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestManager_EmptyID(t *testing.T) {
	m := NewManager(&fakeAuth{}, openTestStore(t), time.Hour, zerolog.Nop())
	_, err := m.Get("")
	assert.True(t, errors.Is(err, ErrNotFound))
}
