// Package session keeps the signed-in user id of a local client in the same
// key-value backend as the state document.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/pkg/kv"
)

// DefaultKey holds the current user id.
const DefaultKey = "chat-app:session-user-id"

// Manager tracks the current user of a single local client.
type Manager struct {
	store  *state.Store
	kv     kv.Store
	key    string
	logger *zap.Logger

	mu      sync.RWMutex
	current *models.UserPublic
}

// NewManager creates a Manager. An empty key selects DefaultKey.
func NewManager(store *state.Store, backend kv.Store, key string, logger *zap.Logger) *Manager {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, kv: backend, key: key, logger: logger}
}

// Current returns the signed-in user, or nil.
func (m *Manager) Current() *models.UserPublic {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	u := *m.current
	return &u
}

func (m *Manager) set(u *models.UserPublic) {
	m.mu.Lock()
	m.current = u
	m.mu.Unlock()
}

func (m *Manager) remember(ctx context.Context, u models.UserPublic) (models.UserPublic, error) {
	if err := m.kv.Set(ctx, m.key, []byte(u.ID)); err != nil {
		return models.UserPublic{}, apperr.Internal("Unable to save session", err)
	}
	m.set(&u)
	return u, nil
}

// Login authenticates and records the session.
func (m *Manager) Login(ctx context.Context, email, password string) (models.UserPublic, error) {
	u, err := m.store.AuthenticateUser(ctx, email, password)
	if err != nil {
		return models.UserPublic{}, err
	}
	return m.remember(ctx, u)
}

// Signup registers an account and records the session.
func (m *Manager) Signup(ctx context.Context, name, email, password string) (models.UserPublic, error) {
	u, err := m.store.RegisterUser(ctx, name, email, password)
	if err != nil {
		return models.UserPublic{}, err
	}
	return m.remember(ctx, u)
}

// Logout forgets the session.
func (m *Manager) Logout(ctx context.Context) error {
	m.set(nil)
	if err := m.kv.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Restore bootstraps the store and reloads the recorded user. A recorded id
// that no longer resolves clears the session and yields no user.
func (m *Manager) Restore(ctx context.Context) (*models.UserPublic, error) {
	if err := m.store.Bootstrap(ctx); err != nil {
		m.logger.Warn("session bootstrap failed", zap.Error(err))
		_ = m.kv.Delete(ctx, m.key)
		return nil, err
	}
	raw, err := m.kv.Get(ctx, m.key)
	if errors.Is(err, kv.ErrNotFound) || (err == nil && len(raw) == 0) {
		m.set(nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	u, err := m.store.GetUserByID(ctx, string(raw))
	if errors.Is(err, apperr.ErrNotFound) {
		m.logger.Info("dropping stale session", zap.String("user_id", string(raw)))
		m.set(nil)
		if err := m.kv.Delete(ctx, m.key); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.set(&u)
	return m.Current(), nil
}

// Refresh reloads the current user from the store.
func (m *Manager) Refresh(ctx context.Context) (*models.UserPublic, error) {
	cur := m.Current()
	if cur == nil {
		return nil, nil
	}
	u, err := m.store.GetUserByID(ctx, cur.ID)
	if err != nil {
		return nil, err
	}
	m.set(&u)
	return m.Current(), nil
}

// RequireUser returns the current user or an auth error.
func (m *Manager) RequireUser() (models.UserPublic, error) {
	cur := m.Current()
	if cur == nil {
		return models.UserPublic{}, apperr.Auth("Not authenticated")
	}
	return *cur, nil
}
