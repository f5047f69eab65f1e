package model

import "time"

// Roles a user can hold inside an organization.
const (
	RoleOwner = "OWNER"
	RoleStaff = "STAFF"
)

// Organization is the tenant every other record belongs to: one
// restaurant with its halls, tables, stock and staff.
type Organization struct {
	ID        uint64    `json:"id"`         // organizations.id
	Name      string    `json:"name"`       // organizations.name
	CreatedAt time.Time `json:"created_at"` // organizations.created_at
	UpdatedAt time.Time `json:"updated_at"` // organizations.updated_at
}

// User represents an application user record as stored in the
// `users` table.  The password hash never leaves the server.
//
// Fields:
//
//	ID             – primary key identifier of the user.
//	OrganizationID – organization the user works for.
//	Email          – unique email address.
//	PasswordHash   – bcrypt hashed password.
//	Role           – OWNER or STAFF.
//	IsActive       – whether the account is active.
type User struct {
	ID             uint64    `json:"id"`              // users.id
	OrganizationID uint64    `json:"organization_id"` // users.organization_id
	Email          string    `json:"email"`           // users.email
	PasswordHash   string    `json:"-"`               // users.password_hash
	Role           string    `json:"role"`            // users.role
	IsActive       bool      `json:"is_active"`       // users.is_active
	CreatedAt      time.Time `json:"created_at"`      // users.created_at
	UpdatedAt      time.Time `json:"updated_at"`      // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
