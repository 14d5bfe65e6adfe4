package repositories

import (
	"context"
	"errors"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates no record matched the lookup
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a uniqueness constraint was violated
	ErrDuplicate = errors.New("duplicate record")
)

// KeyFilter narrows List results. Nil fields are ignored.
type KeyFilter struct {
	CourierCode *string
	WarehouseID *uuid.UUID
	OwnerID     *uuid.UUID
	Active      *bool
}

// KeyRepository defines data access for API key records
type KeyRepository interface {
	// Create persists a new key record. Returns ErrDuplicate if the
	// key value collides with a live or historical record.
	Create(ctx context.Context, key *models.APIKey) error

	// GetByValue looks a key up by its exact raw value. Returns
	// ErrNotFound if no record matches.
	GetByValue(ctx context.Context, keyValue string) (*models.APIKey, error)

	// GetByID returns ErrNotFound if the id is unknown
	GetByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error)

	// List returns all records matching the filter, newest first
	List(ctx context.Context, filter KeyFilter) ([]*models.APIKey, error)

	// SetActive flips is_active and refreshes updated_at, returning the
	// stored record. Setting the current value is not an error.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.APIKey, error)

	// Delete permanently removes the record. No soft delete.
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementUsage atomically bumps usage_count by 1 and sets
	// last_used_at. The increment happens in the storage layer, never
	// as an application-side read-modify-write.
	IncrementUsage(ctx context.Context, id uuid.UUID) error

	// CountActive returns the number of currently active keys
	CountActive(ctx context.Context) (int, error)
}

// UserRepository defines the narrow read surface this layer needs from
// the accounts subsystem, plus first-run admin seeding.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	HasAdmins(ctx context.Context) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}
