package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
	"github.com/RubachokBoss/edusmart-portal/internal/service/integration"
)

// Manager owns the session lifecycle: login populates a session, logout
// and a 401 from the backend clear it.
type Manager struct {
	auth   integration.AuthClient
	store  Store
	maxAge time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

func NewManager(auth integration.AuthClient, store Store, maxAge time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		auth:   auth,
		store:  store,
		maxAge: maxAge,
		now:    time.Now,
		logger: logger,
	}
}

func (m *Manager) Login(ctx context.Context, email, password string) (*models.Session, error) {
	result, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if result.User.ID == 0 {
		return nil, fmt.Errorf("%w: login profile carries no user id", integration.ErrUnexpectedResponse)
	}

	sess := &models.Session{
		ID:        uuid.NewString(),
		Token:     result.Token,
		User:      result.User,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Info().
		Str("session_id", sess.ID).
		Str("user_id", sess.User.ID.String()).
		Str("role", sess.User.PrimaryRole()).
		Msg("Session created")

	return sess, nil
}

func (m *Manager) Get(id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	sess, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	if sess.Expired(m.maxAge, m.now()) {
		if err := m.store.Delete(id); err != nil {
			m.logger.Error().Err(err).Str("session_id", id).Msg("Failed to delete expired session")
		}
		return nil, ErrExpired
	}
	return sess, nil
}

func (m *Manager) Logout(id string) error {
	if err := m.store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	m.logger.Info().Str("session_id", id).Msg("Session closed")
	return nil
}

// Invalidate tears the session down after the backend rejected its token.
func (m *Manager) Invalidate(id string) {
	if err := m.store.Delete(id); err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.Error().Err(err).Str("session_id", id).Msg("Failed to invalidate session")
		return
	}
	m.logger.Warn().Str("session_id", id).Msg("Session invalidated by backend")
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.maxAge <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.store.PurgeExpired(m.maxAge, m.now())
			if err != nil {
				m.logger.Error().Err(err).Msg("Failed to purge expired sessions")
				continue
			}
			if n > 0 {
				m.logger.Info().Int("purged", n).Msg("Expired sessions purged")
			}
		}
	}
}
