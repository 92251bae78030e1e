package model

import "time"

// Roles stored in users.role and carried in the access token.  A
// CUSTOMER books seats; an ADMIN may additionally pull showings from
// sale.
const (
    RoleCustomer = "CUSTOMER"
    RoleAdmin    = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  The engine only needs users to attribute reservations; the
// wider account management surface lives outside this service.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER or ADMIN.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only
// the SHA-256 hash of the raw token is stored.  SessionKey ties the
// token to one login's staging session so a refreshed access token
// keeps the same staged selection.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owner of the token.
//  SessionKey – staging session this login belongs to.
//  TokenHash  – SHA-256 hex digest of the token value.
//  ExpiresAt  – expiration timestamp of the token.
//  RevokedAt  – when the token was revoked (null if still active).
//  CreatedAt  – timestamp of creation.
type RefreshToken struct {
    ID         uint64     // refresh_tokens.id
    UserID     uint64     // refresh_tokens.user_id
    SessionKey string     // refresh_tokens.session_key
    TokenHash  string     // refresh_tokens.token_hash
    ExpiresAt  time.Time  // refresh_tokens.expires_at
    RevokedAt  *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt  time.Time  // refresh_tokens.created_at
}
