package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// KeyValuePattern is the fixed format of a raw API key: the "whk_"
// prefix followed by 64 hex characters (32 random bytes).
var KeyValuePattern = regexp.MustCompile(`^whk_[0-9a-f]{64}$`)

// KeyValuePrefix is prepended to every generated key value
const KeyValuePrefix = "whk_"

// RateLimitPolicy holds the logical request quotas for a key. The
// numbers are stored and exposed for an external throttling component;
// this service never enforces them.
type RateLimitPolicy struct {
	PerMinute int `json:"per_minute"`
	PerHour   int `json:"per_hour"`
	PerDay    int `json:"per_day"`
}

// KeyScope narrows which business records a key may touch. A key is
// scoped to a courier, to a warehouse, or to neither (unscoped).
type KeyScope struct {
	CourierCode *string    `json:"courier_code,omitempty"`
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
}

// APIKey is the persisted representation of a machine credential.
type APIKey struct {
	ID          uuid.UUID        `json:"id"`
	KeyValue    string           `json:"-"`
	OwnerID     uuid.UUID        `json:"owner_id"`
	Description string           `json:"description"`
	Scope       KeyScope         `json:"scope"`
	Permissions []string         `json:"permissions"`
	IsActive    bool             `json:"is_active"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	UsageCount  int64            `json:"usage_count"`
	LastUsedAt  *time.Time       `json:"last_used_at,omitempty"`
	RateLimit   *RateLimitPolicy `json:"rate_limit,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsExpired reports whether the key's expiry has passed. Keys without
// an expiry never expire.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(now)
}

// CanUse reports whether the key may authenticate a request right now.
// Activity and expiry are independent predicates; both must pass.
func (k *APIKey) CanUse(now time.Time) bool {
	return k.IsActive && !k.IsExpired(now)
}

// HasPermission reports whether the key holds the given capability token
func (k *APIKey) HasPermission(perm string) bool {
	for _, p := range k.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// APIKeyInfo is the secret-stripped view of an APIKey returned by every
// read path other than issuance.
type APIKeyInfo struct {
	ID          uuid.UUID        `json:"id"`
	OwnerID     uuid.UUID        `json:"owner_id"`
	Description string           `json:"description"`
	Scope       KeyScope         `json:"scope"`
	Permissions []string         `json:"permissions"`
	IsActive    bool             `json:"is_active"`
	IsExpired   bool             `json:"is_expired"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	UsageCount  int64            `json:"usage_count"`
	LastUsedAt  *time.Time       `json:"last_used_at,omitempty"`
	RateLimit   *RateLimitPolicy `json:"rate_limit,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Info returns the secret-stripped view of the key with the derived
// is_expired flag computed at read time.
func (k *APIKey) Info(now time.Time) APIKeyInfo {
	perms := k.Permissions
	if perms == nil {
		perms = []string{}
	}
	return APIKeyInfo{
		ID:          k.ID,
		OwnerID:     k.OwnerID,
		Description: k.Description,
		Scope:       k.Scope,
		Permissions: perms,
		IsActive:    k.IsActive,
		IsExpired:   k.IsExpired(now),
		ExpiresAt:   k.ExpiresAt,
		UsageCount:  k.UsageCount,
		LastUsedAt:  k.LastUsedAt,
		RateLimit:   k.RateLimit,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   k.UpdatedAt,
	}
}
