package repository

import (
    "context"
    "database/sql"
    "strings"

    "cinebook/internal/model"
)

// TicketRepo reads ticket types from the pricing catalog.  The booking
// engine treats pricing as an external policy: it looks prices up by
// ticket type id and never writes them.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// PricesByIDs returns a map from ticket type id to price in cents for
// all active ticket types among the given ids.  Callers detect unknown
// or inactive ticket types by a missing map entry.
func (r *TicketRepo) PricesByIDs(ctx context.Context, ids []uint64) (map[uint64]uint32, error) {
    prices := make(map[uint64]uint32, len(ids))
    if len(ids) == 0 {
        return prices, nil
    }
    placeholders := make([]string, 0, len(ids))
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    q := `SELECT id, price_cents FROM ticket_types WHERE is_active = 1 AND id IN (` + strings.Join(placeholders, ",") + `)`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var id uint64
        var cents uint32
        if err := rows.Scan(&id, &cents); err != nil {
            return nil, err
        }
        prices[id] = cents
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return prices, nil
}

// List returns all active ticket types ordered by price, for display in
// the selection step.
func (r *TicketRepo) List(ctx context.Context) ([]model.TicketType, error) {
    const q = `SELECT id, code, name, price_cents, is_active, created_at, updated_at
               FROM ticket_types
               WHERE is_active = 1
               ORDER BY price_cents ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    types := make([]model.TicketType, 0)
    for rows.Next() {
        var t model.TicketType
        if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.PriceCents, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
            return nil, err
        }
        types = append(types, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return types, nil
}
