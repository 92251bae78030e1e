// Package booking implements the seat reservation engine: staging of
// in-progress selections, the atomic conversion of a staged selection
// into a durable reservation, and cancellation.  Seat availability is
// always derived from reservation details; the staging store never
// holds seats.
package booking

import (
    "context"
    "errors"
    "fmt"
    "time"

    "cinebook/internal/model"
    "cinebook/internal/repository"
    "cinebook/internal/stage"
)

// ErrEmptySelection is returned when a staging request names no seats.
var ErrEmptySelection = errors.New("selection is empty")

// ShowingStore is the slice of the showing registry the engine needs.
// Status writes go exclusively through UpdateStatus with an expected
// current status, keeping transitions monotonic.
type ShowingStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Showing, error)
    UpdateStatus(ctx context.Context, id uint64, from, to string) error
}

// RoomStore exposes the static seat layout used to validate selections
// and to compute capacity.
type RoomStore interface {
    SeatsForRoom(ctx context.Context, roomID uint64) ([]model.Seat, error)
    ActiveSeatCount(ctx context.Context, roomID uint64) (int, error)
}

// TicketStore looks up prices in the external ticket catalog.
type TicketStore interface {
    PricesByIDs(ctx context.Context, ids []uint64) (map[uint64]uint32, error)
}

// ReservationStore persists reservations and answers seat-claim
// queries.  Create must be all-or-nothing across the header and all
// detail rows.
type ReservationStore interface {
    ClaimedSeats(ctx context.Context, showingID uint64, seatIDs []uint64) ([]uint64, error)
    ClaimedSeatCount(ctx context.Context, showingID uint64) (int, error)
    Create(ctx context.Context, res *model.Reservation, details []model.ReservationDetail, qr func(reservationID uint64) []byte) error
    GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
    CancelByID(ctx context.Context, id uint64) (*model.Reservation, error)
}

// Engine ties the staging store and the persistence layer together and
// enforces the per-showing serialization of commits.
type Engine struct {
    showings     ShowingStore
    rooms        RoomStore
    tickets      TicketStore
    reservations ReservationStore
    stage        stage.Store
    qrSecret     []byte
    locks        *showingLocks
}

// NewEngine constructs an Engine.  qrSecret signs the opaque payload
// attached to each reservation.
func NewEngine(showings ShowingStore, rooms RoomStore, tickets TicketStore, reservations ReservationStore, st stage.Store, qrSecret []byte) *Engine {
    if showings == nil || rooms == nil || tickets == nil || reservations == nil || st == nil {
        panic("nil dependency passed to NewEngine")
    }
    return &Engine{
        showings:     showings,
        rooms:        rooms,
        tickets:      tickets,
        reservations: reservations,
        stage:        st,
        qrSecret:     qrSecret,
        locks:        newShowingLocks(),
    }
}

// StageSelection validates the chosen seats and ticket types against
// the showing's room and the ticket catalog, computes the total and
// overwrites the session's staged selection.  Staging performs no
// availability check and holds nothing: a staged seat can still be
// claimed by anyone else until this session commits.
func (e *Engine) StageSelection(ctx context.Context, sessionKey string, showingID uint64, items []stage.Item) (uint32, error) {
    showing, err := e.showings.GetByID(ctx, showingID)
    if err != nil {
        return 0, err
    }
    if len(items) == 0 {
        return 0, ErrEmptySelection
    }
    seats, err := e.rooms.SeatsForRoom(ctx, showing.RoomID)
    if err != nil {
        return 0, err
    }
    sellable := make(map[uint64]bool, len(seats))
    for _, s := range seats {
        if s.IsActive {
            sellable[s.ID] = true
        }
    }
    // Deduplicate by seat id; the last ticket type named for a seat
    // wins, mirroring the overwrite semantics of staging itself.
    bySeat := make(map[uint64]uint64, len(items))
    order := make([]uint64, 0, len(items))
    for _, it := range items {
        if !sellable[it.SeatID] {
            return 0, fmt.Errorf("%w: seat %d", repository.ErrSeatUnknown, it.SeatID)
        }
        if _, seen := bySeat[it.SeatID]; !seen {
            order = append(order, it.SeatID)
        }
        bySeat[it.SeatID] = it.TicketTypeID
    }
    ticketIDs := make([]uint64, 0, len(order))
    for _, sid := range order {
        ticketIDs = append(ticketIDs, bySeat[sid])
    }
    prices, err := e.tickets.PricesByIDs(ctx, ticketIDs)
    if err != nil {
        return 0, err
    }
    var total uint32
    sel := stage.Selection{ShowingID: showingID, Items: make([]stage.Item, 0, len(order))}
    for _, sid := range order {
        tid := bySeat[sid]
        price, ok := prices[tid]
        if !ok {
            return 0, fmt.Errorf("%w: ticket type %d", repository.ErrTicketTypeUnknown, tid)
        }
        total += price
        sel.Items = append(sel.Items, stage.Item{SeatID: sid, TicketTypeID: tid})
    }
    sel.TotalCents = total
    sel.CreatedAt = time.Now().UTC()
    if err := e.stage.Stage(ctx, sessionKey, sel); err != nil {
        return 0, err
    }
    return total, nil
}

// FreeSeatCount returns the number of sellable seats of the showing's
// room not currently claimed by a non-cancelled reservation.
func (e *Engine) FreeSeatCount(ctx context.Context, showingID uint64) (int, error) {
    showing, err := e.showings.GetByID(ctx, showingID)
    if err != nil {
        return 0, err
    }
    return e.freeSeatCount(ctx, showing)
}

func (e *Engine) freeSeatCount(ctx context.Context, showing *model.Showing) (int, error) {
    capacity, err := e.rooms.ActiveSeatCount(ctx, showing.RoomID)
    if err != nil {
        return 0, err
    }
    claimed, err := e.reservations.ClaimedSeatCount(ctx, showing.ID)
    if err != nil {
        return 0, err
    }
    free := capacity - claimed
    if free < 0 {
        free = 0
    }
    return free, nil
}

// SeatAvailability returns the showing's seat layout annotated with the
// per-seat claimed flag.
func (e *Engine) SeatAvailability(ctx context.Context, showingID uint64) ([]SeatStatus, error) {
    showing, err := e.showings.GetByID(ctx, showingID)
    if err != nil {
        return nil, err
    }
    seats, err := e.rooms.SeatsForRoom(ctx, showing.RoomID)
    if err != nil {
        return nil, err
    }
    claimed, err := e.reservations.ClaimedSeats(ctx, showingID, nil)
    if err != nil {
        return nil, err
    }
    claimedSet := make(map[uint64]bool, len(claimed))
    for _, id := range claimed {
        claimedSet[id] = true
    }
    out := make([]SeatStatus, 0, len(seats))
    for _, s := range seats {
        if !s.IsActive {
            continue
        }
        out = append(out, SeatStatus{
            SeatID:    s.ID,
            RowLabel:  s.RowLabel,
            ColNumber: s.ColNumber,
            Category:  s.Category,
            Claimed:   claimedSet[s.ID],
        })
    }
    return out, nil
}

// SeatStatus is one seat of a showing with its derived availability.
type SeatStatus struct {
    SeatID    uint64 `json:"seat_id"`
    RowLabel  string `json:"row_label"`
    ColNumber uint32 `json:"col_number"`
    Category  string `json:"category"`
    Claimed   bool   `json:"claimed"`
}

// ReservationForSession resolves the reservation committed earlier in
// this session, for receipt lookups after the selection entry is gone.
func (e *Engine) ReservationForSession(ctx context.Context, sessionKey string) (uint64, error) {
    return e.stage.FetchReservationID(ctx, sessionKey)
}
