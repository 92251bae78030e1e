package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "cinebook/internal/model"
)

// RoomRepo provides read access to rooms and their static seat layout.
// The layout never changes per showing; availability is derived
// elsewhere from reservation details.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// Create inserts a room and fills in its generated ID.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO rooms (name, is_active) VALUES (?,?)",
        room.Name, room.IsActive)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    room.ID = uint64(id)
    return nil
}

// GetByID retrieves a room by its ID.  It returns ErrRoomNotFound when
// no matching row exists.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
    const q = `SELECT id, name, is_active, created_at, updated_at FROM rooms WHERE id = ?`
    var room model.Room
    err := r.db.QueryRowContext(ctx, q, id).Scan(&room.ID, &room.Name, &room.IsActive, &room.CreatedAt, &room.UpdatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrRoomNotFound
        }
        return nil, err
    }
    return &room, nil
}

// SeatsForRoom returns the static seat layout of a room, ordered by row
// and column for deterministic output.  Inactive seats are included;
// callers that only sell active seats filter on IsActive.
func (r *RoomRepo) SeatsForRoom(ctx context.Context, roomID uint64) ([]model.Seat, error) {
    const q = `SELECT id, room_id, row_label, col_number, category, is_active, created_at, updated_at
               FROM seats
               WHERE room_id = ?
               ORDER BY row_label, col_number`
    rows, err := r.db.QueryContext(ctx, q, roomID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    seats := make([]model.Seat, 0)
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(&s.ID, &s.RoomID, &s.RowLabel, &s.ColNumber, &s.Category, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// ActiveSeatCount returns the number of sellable seats in a room.  This
// is the capacity term of the free-seat computation.
func (r *RoomRepo) ActiveSeatCount(ctx context.Context, roomID uint64) (int, error) {
    const q = `SELECT COUNT(*) FROM seats WHERE room_id = ? AND is_active = 1`
    var n int
    if err := r.db.QueryRowContext(ctx, q, roomID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// CreateSeatsBulk inserts multiple seats for a room in one statement.
// Used when provisioning a room's layout.  Passing an empty slice has
// no effect and returns nil.
func (r *RoomRepo) CreateSeatsBulk(ctx context.Context, seats []model.Seat) error {
    if len(seats) == 0 {
        return nil
    }
    var sb strings.Builder
    sb.WriteString(`INSERT INTO seats (room_id, row_label, col_number, category, is_active) VALUES `)
    args := make([]interface{}, 0, len(seats)*5)
    for i, s := range seats {
        if i > 0 {
            sb.WriteString(",")
        }
        sb.WriteString("(?, ?, ?, ?, ?)")
        args = append(args, s.RoomID, s.RowLabel, s.ColNumber, s.Category, s.IsActive)
    }
    _, err := r.db.ExecContext(ctx, sb.String(), args...)
    return err
}
