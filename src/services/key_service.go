package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/repositories"
	"github.com/google/uuid"
)

// courierCodePattern validates partner courier codes (e.g. "ACME", "KCD")
var courierCodePattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// issueRetries bounds the number of regeneration attempts after a key
// value collision. Collisions are astronomically unlikely with 32
// random bytes, so one retry is already generous.
const issueRetries = 3

// KeyService owns the API key lifecycle: issuance, listing, the
// activate/deactivate toggles and permanent deletion.
type KeyService struct {
	repo repositories.KeyRepository
}

// NewKeyService creates a new key service
func NewKeyService(repo repositories.KeyRepository) *KeyService {
	return &KeyService{repo: repo}
}

// IssueParams describes a key to be created
type IssueParams struct {
	OwnerID       uuid.UUID
	Description   string
	CourierCode   string
	WarehouseID   string
	Permissions   []string
	ExpiresInDays int
	RateLimit     *models.RateLimitPolicy
}

// Issue generates a new API key and persists it. The returned record is
// the only place the raw key value ever appears; every other read path
// strips it.
func (ks *KeyService) Issue(ctx context.Context, params IssueParams) (*models.APIKey, error) {
	scope, err := validateScope(params.CourierCode, params.WarehouseID)
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if params.ExpiresInDays > 0 {
		t := time.Now().AddDate(0, 0, params.ExpiresInDays)
		expiresAt = &t
	}

	perms := normalizePermissions(params.Permissions)

	for attempt := 0; attempt < issueRetries; attempt++ {
		keyValue, err := generateKeyValue()
		if err != nil {
			return nil, err
		}

		now := time.Now()
		key := &models.APIKey{
			ID:          uuid.New(),
			KeyValue:    keyValue,
			OwnerID:     params.OwnerID,
			Description: params.Description,
			Scope:       scope,
			Permissions: perms,
			IsActive:    true,
			ExpiresAt:   expiresAt,
			RateLimit:   params.RateLimit,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = ks.repo.Create(ctx, key)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create api key: %w", err)
		}
	}
	return nil, ErrDuplicateKey
}

// ListFilter narrows List results
type ListFilter struct {
	CourierCode string
	Active      *bool
}

// List returns all matching keys with the secret stripped and the
// derived is_expired flag computed at read time
func (ks *KeyService) List(ctx context.Context, filter ListFilter) ([]models.APIKeyInfo, error) {
	repoFilter := repositories.KeyFilter{Active: filter.Active}
	if filter.CourierCode != "" {
		repoFilter.CourierCode = &filter.CourierCode
	}

	keys, err := ks.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}

	now := time.Now()
	infos := make([]models.APIKeyInfo, 0, len(keys))
	for _, k := range keys {
		infos = append(infos, k.Info(now))
	}
	return infos, nil
}

// Get returns a single key with the secret stripped
func (ks *KeyService) Get(ctx context.Context, id uuid.UUID) (*models.APIKeyInfo, error) {
	key, err := ks.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	info := key.Info(time.Now())
	return &info, nil
}

// Deactivate marks the key inactive. Idempotent: deactivating an
// already-inactive key succeeds and just refreshes updated_at.
func (ks *KeyService) Deactivate(ctx context.Context, id uuid.UUID) (*models.APIKeyInfo, error) {
	return ks.setActive(ctx, id, false)
}

// Activate marks the key active. Reactivating an expired key succeeds
// but the key stays unusable until its expiry is also extended; expiry
// and activity are independent predicates.
func (ks *KeyService) Activate(ctx context.Context, id uuid.UUID) (*models.APIKeyInfo, error) {
	return ks.setActive(ctx, id, true)
}

func (ks *KeyService) setActive(ctx context.Context, id uuid.UUID, active bool) (*models.APIKeyInfo, error) {
	key, err := ks.repo.SetActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to update key status: %w", err)
	}
	info := key.Info(time.Now())
	return &info, nil
}

// Delete permanently removes the key. Once gone, the record cannot be
// listed or reactivated; key values are never reused.
func (ks *KeyService) Delete(ctx context.Context, id uuid.UUID) error {
	err := ks.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	return nil
}

// ConnectionInfo is the non-secret integration metadata shown in the
// partner portal configuration screen
type ConnectionInfo struct {
	APIBaseURL     string   `json:"api_base_url"`
	WebhookURL     string   `json:"webhook_url"`
	APIKeyHeaders  []string `json:"api_key_headers"`
	WebhookHeaders []string `json:"webhook_headers"`
	ActiveKeyCount int      `json:"active_key_count"`
}

// GetConnectionInfo returns integration metadata for configuring the
// external partner's portal. Never includes key values.
func (ks *KeyService) GetConnectionInfo(ctx context.Context, externalHost string) (*ConnectionInfo, error) {
	count, err := ks.repo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active keys: %w", err)
	}
	return &ConnectionInfo{
		APIBaseURL:     externalHost + "/api/v1",
		WebhookURL:     externalHost + "/webhooks/tracking",
		APIKeyHeaders:  models.APIKeyHeaderAliases,
		WebhookHeaders: models.WebhookKeyHeaderAliases,
		ActiveKeyCount: count,
	}, nil
}

// validateScope checks the scope identifiers and builds the KeyScope.
// A key may be scoped to a courier, a warehouse, both, or neither.
func validateScope(courierCode, warehouseID string) (models.KeyScope, error) {
	var scope models.KeyScope
	if courierCode != "" {
		if !courierCodePattern.MatchString(courierCode) {
			return scope, fmt.Errorf("%w: courier code %q must match %s",
				ErrInvalidScope, courierCode, courierCodePattern.String())
		}
		scope.CourierCode = &courierCode
	}
	if warehouseID != "" {
		id, err := uuid.Parse(warehouseID)
		if err != nil {
			return scope, fmt.Errorf("%w: warehouse id %q is not a valid UUID", ErrInvalidScope, warehouseID)
		}
		scope.WarehouseID = &id
	}
	return scope, nil
}

// normalizePermissions drops empty and duplicate tokens, preserving order
func normalizePermissions(perms []string) []string {
	seen := make(map[string]bool, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// generateKeyValue produces a raw key matching models.KeyValuePattern:
// the whk_ prefix followed by 32 random bytes hex-encoded
func generateKeyValue() (string, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return models.KeyValuePrefix + hex.EncodeToString(keyBytes), nil
}
