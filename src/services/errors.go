package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for explicit error handling. Callers distinguish
// failure modes with errors.Is() instead of string matching.

var (
	// ErrCredentialMissing indicates no credential was supplied. The
	// message names both accepted schemes because callers legitimately
	// confuse them.
	ErrCredentialMissing = errors.New("missing credentials: supply an API key via the X-API-Key header or a session token via Authorization: Bearer <token>")

	// ErrCredentialMalformed indicates the supplied API key does not
	// match the expected key format
	ErrCredentialMalformed = errors.New("malformed API key: expected whk_ prefix followed by 64 hex characters")

	// ErrCredentialNotFound indicates no key record matches the value
	ErrCredentialNotFound = errors.New("API key not recognized")

	// ErrCredentialInactive indicates the key exists but was deactivated
	ErrCredentialInactive = errors.New("API key has been deactivated; ask an administrator to reactivate it or issue a new key")

	// ErrCredentialExpired indicates the key exists but its expiry passed
	ErrCredentialExpired = errors.New("API key has expired; ask an administrator to issue a new key")

	// ErrSessionInvalid indicates the session token failed verification
	ErrSessionInvalid = errors.New("session token is invalid; log in again via /auth/login")

	// ErrSessionExpired indicates the session token is past its expiry
	ErrSessionExpired = errors.New("session token has expired; log in again via /auth/login")

	// ErrAccountInactive indicates the credential verified but the
	// referenced account is no longer active. Distinct from the
	// authentication failures above: the credential itself was fine.
	ErrAccountInactive = errors.New("account is not active")

	// ErrInvalidCredentials indicates a login attempt with a wrong
	// email/password combination
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrKeyNotFound indicates an admin operation referenced an unknown key id
	ErrKeyNotFound = errors.New("API key not found")

	// ErrUserNotFound indicates the referenced user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidScope indicates a scope identifier failed validation at issuance
	ErrInvalidScope = errors.New("invalid key scope")

	// ErrDuplicateKey indicates a generated key value collided with an
	// existing record; the caller should retry generation
	ErrDuplicateKey = errors.New("generated key value already exists, retry")

	// ErrForbidden is the base class for authorization failures
	ErrForbidden = errors.New("forbidden")
)

// ForbiddenKind tags the specific authorization failure
type ForbiddenKind string

const (
	// ForbiddenRole means the human principal's role is not in the route's allowed set
	ForbiddenRole ForbiddenKind = "role"
	// ForbiddenPermission means the machine principal is missing at least one required token
	ForbiddenPermission ForbiddenKind = "permission"
	// ForbiddenScopeMismatch means the key is scoped to a different courier or warehouse
	ForbiddenScopeMismatch ForbiddenKind = "scope_mismatch"
)

// ForbiddenError reports an authorization failure. It always carries
// what the route required and what the principal actually had, so
// integration failures are debuggable without leaking other
// principals' data.
type ForbiddenError struct {
	Kind     ForbiddenKind
	Required []string
	Actual   []string
}

func (e *ForbiddenError) Error() string {
	switch e.Kind {
	case ForbiddenScopeMismatch:
		return fmt.Sprintf("forbidden: key is scoped to %s but the resource belongs to %s",
			strings.Join(e.Actual, ","), strings.Join(e.Required, ","))
	case ForbiddenRole:
		return fmt.Sprintf("forbidden: route allows roles [%s] but principal has role %s",
			strings.Join(e.Required, ", "), strings.Join(e.Actual, ", "))
	default:
		return fmt.Sprintf("forbidden: route requires permissions [%s] but key holds [%s]",
			strings.Join(e.Required, ", "), strings.Join(e.Actual, ", "))
	}
}

// Is makes errors.Is(err, ErrForbidden) match every ForbiddenError
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}
