package model

import "time"

// User represents an application account: hotel staff or a guest.  Accounts
// are soft-deleted so reservations and invoices keep a valid client
// reference after a guest is removed from the active roster.
//
// Fields:
//  ID            – primary key identifier.
//  Email         – unique email address.
//  PasswordHash  – bcrypt hashed password.
//  FirstName     – given name.
//  LastName      – family name.
//  RoleID        – foreign key into the roles table.
//  Role          – role name (ADMIN, CLIENT, RECEPTIONIST) when joined in.
//  DeactivatedAt – soft-delete timestamp; nil means active.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64     // users.id
	Email         string     // users.email
	PasswordHash  string     // users.password_hash
	FirstName     string     // users.first_name
	LastName      string     // users.last_name
	RoleID        uint8      // users.role_id (references roles.id)
	Role          string     // roles.name via join
	DeactivatedAt *time.Time // users.deactivated_at (nullable)
	CreatedAt     time.Time  // users.created_at
	UpdatedAt     time.Time  // users.updated_at
}

// Role maps a small integer ID to a role name.
//
// Fields:
//  ID   – numeric identifier of the role.
//  Name – unique role name (ADMIN, CLIENT, RECEPTIONIST).
type Role struct {
	ID   uint8  // roles.id
	Name string // roles.name
}

// Role names as stored in the roles table and carried in the JWT "role"
// claim.
const (
	RoleAdmin        = "ADMIN"
	RoleClient       = "CLIENT"
	RoleReceptionist = "RECEPTIONIST"
)

// RefreshToken models an entry in the refresh_tokens table.  Each refresh
// token belongs to a user and contains metadata for expiry and revocation.
// The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
