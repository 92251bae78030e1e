package repository

import (
    "context"
    "database/sql"
    "time"
)

// TokenRepo persists and validates refresh tokens.  Only the SHA-256
// hash of a token is stored.  Each token row also carries the staging
// session key of the login it belongs to, so refreshing tokens keeps
// the same session and its staged selection.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row bound to a session.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, sessionKey, tokenHash string, exp time.Time) error {
    _, err := r.DB.ExecContext(ctx,
        "INSERT INTO refresh_tokens (user_id, session_key, token_hash, expires_at) VALUES (?,?,?,?)",
        userID, sessionKey, tokenHash, exp)
    return err
}

// ValidateRefresh returns the owning user ID and session key if a
// non-revoked, non-expired token with this hash exists; sql.ErrNoRows
// otherwise.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, string, error) {
    var (
        userID     uint64
        sessionKey string
        expiresAt  time.Time
        revokedAt  sql.NullTime
    )
    err := r.DB.QueryRowContext(ctx,
        "SELECT user_id, session_key, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
        tokenHash).Scan(&userID, &sessionKey, &expiresAt, &revokedAt)
    if err != nil {
        return 0, "", err
    }
    if revokedAt.Valid {
        return 0, "", sql.ErrNoRows
    }
    if time.Now().UTC().After(expiresAt) {
        return 0, "", sql.ErrNoRows
    }
    return userID, sessionKey, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
        tokenHash)
    return err
}

// RevokeAllForUser revokes every active token of a user, ending all of
// their sessions at once.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
        userID)
    return err
}
