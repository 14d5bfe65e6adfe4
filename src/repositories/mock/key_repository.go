package mock

import (
	"context"
	"sync"
	"time"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/repositories"
	"github.com/google/uuid"
)

// KeyRepository is an in-memory implementation of
// repositories.KeyRepository for tests. Default behavior operates on
// the in-memory store; individual methods can be overridden with
// function stubs to inject failures.
type KeyRepository struct {
	mu   sync.Mutex
	keys map[uuid.UUID]*models.APIKey

	CreateFunc         func(ctx context.Context, key *models.APIKey) error
	GetByValueFunc     func(ctx context.Context, keyValue string) (*models.APIKey, error)
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.APIKey, error)
	IncrementUsageFunc func(ctx context.Context, id uuid.UUID) error

	// Calls tracks invocation counts per method name
	Calls map[string]int
}

// NewKeyRepository creates an empty in-memory key repository
func NewKeyRepository() *KeyRepository {
	return &KeyRepository{
		keys:  make(map[uuid.UUID]*models.APIKey),
		Calls: make(map[string]int),
	}
}

func (m *KeyRepository) track(method string) {
	m.Calls[method]++
}

func copyKey(k *models.APIKey) *models.APIKey {
	c := *k
	c.Permissions = append([]string(nil), k.Permissions...)
	if k.RateLimit != nil {
		rl := *k.RateLimit
		c.RateLimit = &rl
	}
	return &c
}

// Create stores the key, enforcing key_value uniqueness
func (m *KeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, key)
	}
	for _, existing := range m.keys {
		if existing.KeyValue == key.KeyValue {
			return repositories.ErrDuplicate
		}
	}
	m.keys[key.ID] = copyKey(key)
	return nil
}

// GetByValue looks a key up by raw value
func (m *KeyRepository) GetByValue(ctx context.Context, keyValue string) (*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("GetByValue")
	if m.GetByValueFunc != nil {
		return m.GetByValueFunc(ctx, keyValue)
	}
	for _, k := range m.keys {
		if k.KeyValue == keyValue {
			return copyKey(k), nil
		}
	}
	return nil, repositories.ErrNotFound
}

// GetByID looks a key up by id
func (m *KeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("GetByID")
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	if k, ok := m.keys[id]; ok {
		return copyKey(k), nil
	}
	return nil, repositories.ErrNotFound
}

// List returns keys matching the filter
func (m *KeyRepository) List(ctx context.Context, filter repositories.KeyFilter) ([]*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("List")
	var out []*models.APIKey
	for _, k := range m.keys {
		if filter.CourierCode != nil && (k.Scope.CourierCode == nil || *k.Scope.CourierCode != *filter.CourierCode) {
			continue
		}
		if filter.WarehouseID != nil && (k.Scope.WarehouseID == nil || *k.Scope.WarehouseID != *filter.WarehouseID) {
			continue
		}
		if filter.OwnerID != nil && k.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Active != nil && k.IsActive != *filter.Active {
			continue
		}
		out = append(out, copyKey(k))
	}
	return out, nil
}

// SetActive flips is_active and refreshes updated_at
func (m *KeyRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("SetActive")
	k, ok := m.keys[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	k.IsActive = active
	k.UpdatedAt = time.Now()
	return copyKey(k), nil
}

// Delete permanently removes the key
func (m *KeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("Delete")
	if _, ok := m.keys[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.keys, id)
	return nil
}

// IncrementUsage bumps usage_count under the store lock, mirroring the
// atomic in-place UPDATE of the real repository
func (m *KeyRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("IncrementUsage")
	if m.IncrementUsageFunc != nil {
		return m.IncrementUsageFunc(ctx, id)
	}
	k, ok := m.keys[id]
	if !ok {
		return repositories.ErrNotFound
	}
	k.UsageCount++
	now := time.Now()
	k.LastUsedAt = &now
	return nil
}

// CountActive returns the number of active keys
func (m *KeyRepository) CountActive(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("CountActive")
	count := 0
	for _, k := range m.keys {
		if k.IsActive {
			count++
		}
	}
	return count, nil
}

// Seed inserts a key directly, bypassing uniqueness checks
func (m *KeyRepository) Seed(key *models.APIKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key.ID] = copyKey(key)
}

// Get returns the stored key without copy semantics checks, for assertions
func (m *KeyRepository) Get(id uuid.UUID) *models.APIKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.keys[id]; ok {
		return copyKey(k)
	}
	return nil
}

var _ repositories.KeyRepository = (*KeyRepository)(nil)
