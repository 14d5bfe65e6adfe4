package models

// Role is the access level of a human user
type Role string

const (
	// RoleAdmin can manage API keys and all warehouse data
	RoleAdmin Role = "admin"
	// RoleWarehouseStaff can operate on packages, manifests and inventory
	RoleWarehouseStaff Role = "warehouse_staff"
	// RoleCustomer can read their own shipments
	RoleCustomer Role = "customer"
)

// UserStatus represents the account status of a user
type UserStatus string

const (
	// UserStatusActive indicates the account may authenticate
	UserStatusActive UserStatus = "active"
	// UserStatusSuspended indicates the account is temporarily blocked
	UserStatusSuspended UserStatus = "suspended"
	// UserStatusDisabled indicates the account is permanently blocked
	UserStatusDisabled UserStatus = "disabled"
)

// Capability tokens granted to API keys
const (
	// PermPackagesRead allows reading package records
	PermPackagesRead = "packages:read"
	// PermPackagesWrite allows creating and updating package records
	PermPackagesWrite = "packages:write"
	// PermManifestsRead allows reading manifests
	PermManifestsRead = "manifests:read"
	// PermManifestsWrite allows creating and updating manifests
	PermManifestsWrite = "manifests:write"
	// PermInventoryRead allows reading inventory levels
	PermInventoryRead = "inventory:read"
	// PermKCDIntegration marks keys issued to the KCD logistics partner
	PermKCDIntegration = "kcd_integration"
)

// HeaderAPIKey is the canonical machine-credential header
const HeaderAPIKey = "X-API-Key"

// APIKeyHeaderAliases lists the header names accepted for machine
// credentials on first-party API routes, in match order
var APIKeyHeaderAliases = []string{HeaderAPIKey, "Api-Key"}

// WebhookKeyHeaderAliases lists the header names accepted on webhook
// intake routes. Webhook senders are less consistent than first-party
// API clients, so the alias set is wider.
var WebhookKeyHeaderAliases = []string{HeaderAPIKey, "Api-Key", "X-Webhook-Key", "X-Auth-Token", "Token"}
