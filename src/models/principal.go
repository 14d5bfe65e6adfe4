package models

import (
	"time"

	"github.com/google/uuid"
)

// PrincipalKind distinguishes interactive users from machine callers
type PrincipalKind string

const (
	// PrincipalHuman is a staff/admin/customer user resolved from a session token
	PrincipalHuman PrincipalKind = "human"
	// PrincipalMachine is a partner integration resolved from an API key
	PrincipalMachine PrincipalKind = "machine"
)

// Principal is the resolved identity attached to a request. It is
// constructed fresh per request by the resolver and never persisted.
type Principal struct {
	Kind PrincipalKind
	ID   uuid.UUID

	// Role is set only for human principals
	Role Role

	// Permissions, Scope and APIKeyID are set only for machine
	// principals. APIKeyID identifies the credential itself, while ID
	// is the key's owning entity.
	Permissions []string
	Scope       KeyScope
	APIKeyID    uuid.UUID
}

// HasPermission reports whether a machine principal holds the token
func (p *Principal) HasPermission(perm string) bool {
	for _, held := range p.Permissions {
		if held == perm {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every required token is held.
// The empty requirement is always satisfied.
func (p *Principal) HasAllPermissions(perms []string) bool {
	for _, perm := range perms {
		if !p.HasPermission(perm) {
			return false
		}
	}
	return true
}

// WebhookContext is the lightweight credential attachment for webhook
// calls. Webhook handlers key idempotency off payload fields, not
// caller identity, so no full Principal is built.
type WebhookContext struct {
	KeyID       uuid.UUID
	Source      string
	ValidatedAt time.Time
}
