package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/repositories"
	"github.com/google/uuid"
)

// ExtractHeader returns the first non-empty value among the given
// header aliases. Lookup is case-insensitive (net/http canonicalizes
// header names). The boolean reports whether anything was found.
func ExtractHeader(h http.Header, aliases []string) (string, bool) {
	for _, name := range aliases {
		if v := strings.TrimSpace(h.Get(name)); v != "" {
			return v, true
		}
	}
	return "", false
}

// ExtractBearerToken returns the bearer token from the Authorization
// header. Parsing is tolerant: a missing "Bearer " prefix is accepted
// since API clients frequently drop it.
func ExtractBearerToken(h http.Header) (string, bool) {
	raw := strings.TrimSpace(h.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	if len(raw) > 7 && strings.EqualFold(raw[:7], "Bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}

// Resolver turns a raw request's headers into a Principal. It owns the
// scheme-selection contract: an API-key header always wins over a
// bearer header, since the machine credential is the less ambiguous
// signal.
type Resolver struct {
	keys repositories.KeyRepository
	auth *AuthService
}

// NewResolver creates a new credential resolver
func NewResolver(keys repositories.KeyRepository, auth *AuthService) *Resolver {
	return &Resolver{keys: keys, auth: auth}
}

// Resolve is the combined mode used by routes reachable by both staff
// and the external partner: API key if its header is present, else
// bearer if present, else MissingCredential naming both schemes.
func (r *Resolver) Resolve(ctx context.Context, h http.Header) (*models.Principal, error) {
	if _, ok := ExtractHeader(h, models.APIKeyHeaderAliases); ok {
		return r.ResolveAPIKey(ctx, h)
	}
	if _, ok := ExtractBearerToken(h); ok {
		return r.ResolveSession(ctx, h)
	}
	return nil, ErrCredentialMissing
}

// ResolveAPIKey resolves a machine credential from the API key header
func (r *Resolver) ResolveAPIKey(ctx context.Context, h http.Header) (*models.Principal, error) {
	value, ok := ExtractHeader(h, models.APIKeyHeaderAliases)
	if !ok {
		return nil, ErrCredentialMissing
	}
	return r.resolveKeyValue(ctx, value)
}

// ResolveSession resolves a human credential from the bearer header.
// The signed token is verified cryptographically, then the referenced
// user is re-loaded so a status change since issuance is honored.
func (r *Resolver) ResolveSession(ctx context.Context, h http.Header) (*models.Principal, error) {
	token, ok := ExtractBearerToken(h)
	if !ok {
		return nil, ErrCredentialMissing
	}

	claims, err := r.auth.VerifySessionToken(token)
	if err != nil {
		return nil, err
	}

	user, err := r.auth.LoadSessionUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	return &models.Principal{
		Kind: models.PrincipalHuman,
		ID:   user.ID,
		Role: user.Role,
	}, nil
}

// ResolveWebhook resolves a machine credential for an inbound webhook
// call. It accepts the wider webhook alias set and never falls back to
// bearer resolution: a webhook call without a key header is always
// MissingCredential. On success it returns a WebhookContext rather
// than a full Principal.
func (r *Resolver) ResolveWebhook(ctx context.Context, h http.Header) (*models.WebhookContext, error) {
	value, ok := ExtractHeader(h, models.WebhookKeyHeaderAliases)
	if !ok {
		return nil, ErrCredentialMissing
	}

	principal, err := r.resolveKeyValue(ctx, value)
	if err != nil {
		return nil, err
	}

	source := "partner"
	if principal.Scope.CourierCode != nil {
		source = *principal.Scope.CourierCode
	}
	return &models.WebhookContext{
		KeyID:       principal.APIKeyID,
		Source:      source,
		ValidatedAt: time.Now(),
	}, nil
}

// resolveKeyValue is the shared machine-credential path: format check,
// exact-value lookup, then the canUse predicate evaluated fresh for
// this request.
func (r *Resolver) resolveKeyValue(ctx context.Context, value string) (*models.Principal, error) {
	if !models.KeyValuePattern.MatchString(value) {
		return nil, ErrCredentialMalformed
	}

	key, err := r.keys.GetByValue(ctx, value)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}

	now := time.Now()
	if !key.CanUse(now) {
		// Expiry takes precedence over inactivity: an expired key
		// communicates the more actionable remediation.
		if key.IsExpired(now) {
			return nil, ErrCredentialExpired
		}
		return nil, ErrCredentialInactive
	}

	return &models.Principal{
		Kind:        models.PrincipalMachine,
		ID:          key.OwnerID,
		Permissions: key.Permissions,
		Scope:       key.Scope,
		APIKeyID:    key.ID,
	}, nil
}

// Authorize checks a resolved principal against a route requirement.
// Human principals are checked by exact role membership (no hierarchy:
// admin does not implicitly satisfy a customer-only route). Machine
// principals must hold every required permission token.
func Authorize(p *models.Principal, req Requirement) error {
	switch p.Kind {
	case models.PrincipalHuman:
		for _, role := range req.Roles {
			if p.Role == role {
				return nil
			}
		}
		return &ForbiddenError{
			Kind:     ForbiddenRole,
			Required: rolesToStrings(req.Roles),
			Actual:   []string{string(p.Role)},
		}
	case models.PrincipalMachine:
		if p.HasAllPermissions(req.Permissions) {
			return nil
		}
		return &ForbiddenError{
			Kind:     ForbiddenPermission,
			Required: req.Permissions,
			Actual:   p.Permissions,
		}
	default:
		return &ForbiddenError{Kind: ForbiddenRole, Required: rolesToStrings(req.Roles)}
	}
}

// Requirement enumerates what a route demands from each caller
// population. Roles gate human principals; Permissions gate machine
// principals (conjunction, not disjunction).
type Requirement struct {
	Roles       []models.Role
	Permissions []string
}

// CheckCourierScope verifies a machine principal's courier scope
// against the courier owning the business record. Unscoped keys pass;
// human principals are never scope-checked.
func CheckCourierScope(p *models.Principal, courierCode string) error {
	if p.Kind != models.PrincipalMachine || p.Scope.CourierCode == nil {
		return nil
	}
	if *p.Scope.CourierCode == courierCode {
		return nil
	}
	return &ForbiddenError{
		Kind:     ForbiddenScopeMismatch,
		Required: []string{courierCode},
		Actual:   []string{*p.Scope.CourierCode},
	}
}

// CheckWarehouseScope is the warehouse analogue of CheckCourierScope
func CheckWarehouseScope(p *models.Principal, warehouseID uuid.UUID) error {
	if p.Kind != models.PrincipalMachine || p.Scope.WarehouseID == nil {
		return nil
	}
	if *p.Scope.WarehouseID == warehouseID {
		return nil
	}
	return &ForbiddenError{
		Kind:     ForbiddenScopeMismatch,
		Required: []string{warehouseID.String()},
		Actual:   []string{p.Scope.WarehouseID.String()},
	}
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
