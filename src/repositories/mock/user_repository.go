package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/repositories"
	"github.com/google/uuid"
)

// UserRepository is an in-memory implementation of
// repositories.UserRepository for tests
type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User

	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// NewUserRepository creates an empty in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*models.User)}
}

// Create stores the user, enforcing email uniqueness
func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	u := *user
	m.users[user.ID] = &u
	return nil
}

// GetByID loads a user by id
func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, repositories.ErrNotFound
}

// GetByEmail loads a user by email
func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// HasAdmins reports whether an admin account exists
func (m *UserRepository) HasAdmins(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

// UpdateLastLogin stamps the most recent login
func (m *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

var _ repositories.UserRepository = (*UserRepository)(nil)
