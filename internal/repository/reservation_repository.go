package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "cinebook/internal/model"
)

// ReservationRepo provides persistence for reservations and their
// detail rows.  A reservation owns its details: they are inserted in
// the same transaction as the header and cascade-delete with it.  Seat
// claims are never stored as independent state; a seat is claimed for a
// showing exactly when a detail row of a non-cancelled reservation
// references it, which is what ClaimedSeats and ClaimedSeatCount query.
// All timestamp fields are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ClaimedSeats returns the subset of seatIDs currently claimed for the
// showing.  When seatIDs is empty, all claimed seat ids for the showing
// are returned, which the availability endpoints use to render a seat
// map.  A claim counts only while its reservation is not CANCELLED.
func (r *ReservationRepo) ClaimedSeats(ctx context.Context, showingID uint64, seatIDs []uint64) ([]uint64, error) {
    var sb strings.Builder
    sb.WriteString(`SELECT rd.seat_id
                    FROM reservation_details rd
                    JOIN reservations res ON res.id = rd.reservation_id
                    WHERE res.showing_id = ? AND res.status <> 'CANCELLED'`)
    args := []interface{}{showingID}
    if len(seatIDs) > 0 {
        placeholders := make([]string, 0, len(seatIDs))
        for _, id := range seatIDs {
            placeholders = append(placeholders, "?")
            args = append(args, id)
        }
        sb.WriteString(` AND rd.seat_id IN (` + strings.Join(placeholders, ",") + `)`)
    }
    rows, err := r.db.QueryContext(ctx, sb.String(), args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    claimed := make([]uint64, 0)
    for rows.Next() {
        var sid uint64
        if err := rows.Scan(&sid); err != nil {
            return nil, err
        }
        claimed = append(claimed, sid)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return claimed, nil
}

// ClaimedSeatCount returns the number of seats claimed for the showing.
func (r *ReservationRepo) ClaimedSeatCount(ctx context.Context, showingID uint64) (int, error) {
    const q = `SELECT COUNT(*)
               FROM reservation_details rd
               JOIN reservations res ON res.id = rd.reservation_id
               WHERE res.showing_id = ? AND res.status <> 'CANCELLED'`
    var n int
    if err := r.db.QueryRowContext(ctx, q, showingID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// Create persists a reservation header, its QR payload and one detail
// row per seat in a single transaction.  The qr callback receives the
// generated reservation id and returns the opaque payload to store; it
// must be fast and local since it runs inside the transaction.  On
// success the generated ID, QRPayload and timestamps are populated on
// the passed header.  On any failure the transaction is rolled back and
// no rows survive, so a failed commit can never leave orphan claims.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation, details []model.ReservationDetail, qr func(reservationID uint64) []byte) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const ins = `INSERT INTO reservations (user_id, showing_id, status, total_amount_cents) VALUES (?, ?, 'CONFIRMED', ?)`
    result, err := tx.ExecContext(ctx, ins, res.UserID, res.ShowingID, res.TotalAmountCents)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    res.QRPayload = qr(res.ID)
    if _, err := tx.ExecContext(ctx, `UPDATE reservations SET qr_payload = ? WHERE id = ?`, res.QRPayload, res.ID); err != nil {
        return err
    }
    if len(details) > 0 {
        var sb strings.Builder
        sb.WriteString(`INSERT INTO reservation_details (reservation_id, seat_id, ticket_type_id, price_cents) VALUES `)
        args := make([]interface{}, 0, len(details)*4)
        for i := range details {
            details[i].ReservationID = res.ID
            if i > 0 {
                sb.WriteString(",")
            }
            sb.WriteString("(?, ?, ?, ?)")
            args = append(args, res.ID, details[i].SeatID, details[i].TicketTypeID, details[i].PriceCents)
        }
        if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
            return err
        }
    }
    // Query back the header to populate status and timestamps.
    const sel = `SELECT status, created_at, updated_at FROM reservations WHERE id = ?`
    if err := tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.Status, &res.CreatedAt, &res.UpdatedAt); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetByID loads a reservation header.  It returns ErrReservationNotFound
// when no matching row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    const q = `SELECT id, user_id, showing_id, status, total_amount_cents, qr_payload, created_at, updated_at
               FROM reservations WHERE id = ?`
    var res model.Reservation
    var qrPayload []byte
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &res.ID, &res.UserID, &res.ShowingID, &res.Status, &res.TotalAmountCents, &qrPayload, &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    res.QRPayload = qrPayload
    return &res, nil
}

// CancelByID flips a CONFIRMED reservation to CANCELLED inside a
// transaction, locking the row to serialize against a concurrent
// cancellation.  It returns the reservation as it was after the flip.
// Cancelling frees the reservation's seat claims implicitly, because
// claims are derived from non-cancelled reservations only.  It returns
// ErrReservationNotFound for a missing row and ErrAlreadyCancelled when
// the reservation was cancelled before.
func (r *ReservationRepo) CancelByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const sel = `SELECT id, user_id, showing_id, status, total_amount_cents, created_at, updated_at
                 FROM reservations WHERE id = ? FOR UPDATE`
    var res model.Reservation
    err = tx.QueryRowContext(ctx, sel, id).Scan(
        &res.ID, &res.UserID, &res.ShowingID, &res.Status, &res.TotalAmountCents, &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    if res.Status == model.ReservationCancelled {
        return nil, ErrAlreadyCancelled
    }
    if _, err := tx.ExecContext(ctx, `UPDATE reservations SET status = 'CANCELLED', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    res.Status = model.ReservationCancelled
    return &res, nil
}

// ReservationView aggregates a reservation with its showing and seat
// lines for display to customers.
type ReservationView struct {
    ID               uint64     `json:"id"`
    ShowingID        uint64     `json:"showing_id"`
    Status           string     `json:"status"`
    TotalAmountCents uint32     `json:"total_amount_cents"`
    MovieTitle       string     `json:"movie_title"`
    StartsAt         string     `json:"starts_at"`
    RoomName         string     `json:"room_name"`
    Seats            []SeatLine `json:"seats"`
}

// SeatLine is one seat of a reservation as shown to the customer.
type SeatLine struct {
    SeatID     uint64 `json:"seat_id"`
    RowLabel   string `json:"row_label"`
    ColNumber  uint32 `json:"col_number"`
    TicketCode string `json:"ticket_code"`
    PriceCents uint32 `json:"price_cents"`
}

// GetViewForUser returns a single reservation for the given user with
// showing, room and seat details.  Ownership is enforced in the query:
// a reservation belonging to another user reports ErrReservationNotFound
// rather than leaking its existence.
func (r *ReservationRepo) GetViewForUser(ctx context.Context, reservationID, userID uint64) (*ReservationView, error) {
    const q = `SELECT res.id, res.showing_id, res.status, res.total_amount_cents,
                      sh.movie_title, sh.starts_at, rm.name
               FROM reservations res
               JOIN showings sh ON sh.id = res.showing_id
               JOIN rooms rm ON rm.id = sh.room_id
               WHERE res.id = ? AND res.user_id = ?`
    var v ReservationView
    var startsAt sql.NullTime
    err := r.db.QueryRowContext(ctx, q, reservationID, userID).Scan(
        &v.ID, &v.ShowingID, &v.Status, &v.TotalAmountCents, &v.MovieTitle, &startsAt, &v.RoomName,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    if startsAt.Valid {
        v.StartsAt = startsAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
    }
    v.Seats, err = r.seatLines(ctx, v.ID)
    if err != nil {
        return nil, err
    }
    return &v, nil
}

// ListByUser returns all reservations for the given user ordered by
// creation time descending.  When none exist, an empty slice is
// returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationView, error) {
    const q = `SELECT res.id, res.showing_id, res.status, res.total_amount_cents,
                      sh.movie_title, sh.starts_at, rm.name
               FROM reservations res
               JOIN showings sh ON sh.id = res.showing_id
               JOIN rooms rm ON rm.id = sh.room_id
               WHERE res.user_id = ?
               ORDER BY res.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    views := make([]ReservationView, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var v ReservationView
        var startsAt sql.NullTime
        if err := rows.Scan(&v.ID, &v.ShowingID, &v.Status, &v.TotalAmountCents, &v.MovieTitle, &startsAt, &v.RoomName); err != nil {
            return nil, err
        }
        if startsAt.Valid {
            v.StartsAt = startsAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
        }
        v.Seats = []SeatLine{}
        index[v.ID] = len(views)
        views = append(views, v)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(views) == 0 {
        return views, nil
    }
    // Populate seat lines for all reservations in a single query.
    ids := make([]interface{}, 0, len(views))
    placeholders := make([]string, 0, len(views))
    for _, v := range views {
        ids = append(ids, v.ID)
        placeholders = append(placeholders, "?")
    }
    q2 := `SELECT rd.reservation_id, rd.seat_id, se.row_label, se.col_number, tt.code, rd.price_cents
           FROM reservation_details rd
           JOIN seats se ON se.id = rd.seat_id
           JOIN ticket_types tt ON tt.id = rd.ticket_type_id
           WHERE rd.reservation_id IN (` + strings.Join(placeholders, ",") + `)
           ORDER BY rd.reservation_id, se.row_label, se.col_number`
    srows, err := r.db.QueryContext(ctx, q2, ids...)
    if err != nil {
        return nil, err
    }
    defer srows.Close()
    for srows.Next() {
        var rid uint64
        var line SeatLine
        if err := srows.Scan(&rid, &line.SeatID, &line.RowLabel, &line.ColNumber, &line.TicketCode, &line.PriceCents); err != nil {
            return nil, err
        }
        if idx, ok := index[rid]; ok {
            views[idx].Seats = append(views[idx].Seats, line)
        }
    }
    if err := srows.Err(); err != nil {
        return nil, err
    }
    return views, nil
}

// seatLines loads the seat lines for one reservation ordered by row and
// column.
func (r *ReservationRepo) seatLines(ctx context.Context, reservationID uint64) ([]SeatLine, error) {
    const q = `SELECT rd.seat_id, se.row_label, se.col_number, tt.code, rd.price_cents
               FROM reservation_details rd
               JOIN seats se ON se.id = rd.seat_id
               JOIN ticket_types tt ON tt.id = rd.ticket_type_id
               WHERE rd.reservation_id = ?
               ORDER BY se.row_label, se.col_number`
    rows, err := r.db.QueryContext(ctx, q, reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    lines := make([]SeatLine, 0)
    for rows.Next() {
        var line SeatLine
        if err := rows.Scan(&line.SeatID, &line.RowLabel, &line.ColNumber, &line.TicketCode, &line.PriceCents); err != nil {
            return nil, err
        }
        lines = append(lines, line)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return lines, nil
}
