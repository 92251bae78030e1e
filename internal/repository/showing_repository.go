package repository

import (
    "context"
    "database/sql"
    "errors"

    "cinebook/internal/model"
)

// ShowingRepo manages persistence for showings.  The status column is
// written only through UpdateStatus, and only with the transitions the
// booking engine performs; there is no unconditional status setter.
type ShowingRepo struct {
    db *sql.DB
}

// NewShowingRepo constructs a ShowingRepo with the given DB handle.
func NewShowingRepo(db *sql.DB) *ShowingRepo { return &ShowingRepo{db: db} }

// Create inserts a new showing and populates the generated ID and the
// DB-default fields (status, timestamps) on the passed struct.  New
// showings always start in SCHEDULED.
func (r *ShowingRepo) Create(ctx context.Context, s *model.Showing) error {
    const q = `INSERT INTO showings (room_id, movie_title, starts_at, language) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, s.RoomID, s.MovieTitle, s.StartsAt.UTC().Format("2006-01-02 15:04:05"), s.Language)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    const sel = `SELECT id, room_id, movie_title, starts_at, language, status, created_at, updated_at FROM showings WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, s.ID).Scan(
        &s.ID, &s.RoomID, &s.MovieTitle, &s.StartsAt, &s.Language, &s.Status, &s.CreatedAt, &s.UpdatedAt,
    )
}

// GetByID retrieves a showing by its ID.  It returns ErrShowingNotFound
// when no matching row exists.
func (r *ShowingRepo) GetByID(ctx context.Context, id uint64) (*model.Showing, error) {
    const q = `SELECT id, room_id, movie_title, starts_at, language, status, created_at, updated_at FROM showings WHERE id = ?`
    var s model.Showing
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &s.ID, &s.RoomID, &s.MovieTitle, &s.StartsAt, &s.Language, &s.Status, &s.CreatedAt, &s.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrShowingNotFound
        }
        return nil, err
    }
    return &s, nil
}

// ListUpcoming returns all non-cancelled showings that start after the
// current UTC time, ordered by start time.  Used by the public browse
// endpoints.
func (r *ShowingRepo) ListUpcoming(ctx context.Context) ([]model.Showing, error) {
    const q = `SELECT id, room_id, movie_title, starts_at, language, status, created_at, updated_at
               FROM showings
               WHERE status <> 'CANCELLED' AND starts_at > UTC_TIMESTAMP()
               ORDER BY starts_at ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    result := make([]model.Showing, 0)
    for rows.Next() {
        var s model.Showing
        if err := rows.Scan(
            &s.ID, &s.RoomID, &s.MovieTitle, &s.StartsAt, &s.Language, &s.Status, &s.CreatedAt, &s.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// UpdateStatus performs a conditional status transition.  The row is
// updated only when its current status equals from, which makes the
// SOLD_OUT flip idempotent under racing last-seat commits and prevents
// any other path from resurrecting a cancelled showing.  A no-op
// (status already moved on) is not an error.
func (r *ShowingRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
    const q = `UPDATE showings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`
    _, err := r.db.ExecContext(ctx, q, to, id, from)
    return err
}
