package booking

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "cinebook/internal/model"
    "cinebook/internal/repository"
    "cinebook/internal/stage"
)

// Commit states.  A commit walks PENDING -> VALIDATING -> ALLOCATING
// and terminates in PERSISTED or REJECTED; there is no partial outcome.
const (
    StatePending    = "PENDING"
    StateValidating = "VALIDATING"
    StateAllocating = "ALLOCATING"
    StatePersisted  = "PERSISTED"
    StateRejected   = "REJECTED"
)

// Reject reasons carried by CommitError.
const (
    ReasonNoActiveSelection  = "NO_ACTIVE_SELECTION"
    ReasonShowingUnavailable = "SHOWING_UNAVAILABLE"
    ReasonSeatConflict       = "SEAT_CONFLICT"
    ReasonPriceUnavailable   = "PRICE_UNAVAILABLE"
)

// CommitError is the terminal REJECTED outcome of a commit attempt.
// ConflictSeats is populated only for ReasonSeatConflict.
type CommitError struct {
    Reason        string
    ConflictSeats []uint64
    err           error
}

func (e *CommitError) Error() string {
    if e.err != nil {
        return fmt.Sprintf("commit rejected (%s): %v", e.Reason, e.err)
    }
    return fmt.Sprintf("commit rejected (%s)", e.Reason)
}

func (e *CommitError) Unwrap() error { return e.err }

// Receipt is the result of a successful commit.
type Receipt struct {
    ReservationID    uint64    `json:"reservation_id"`
    ShowingID        uint64    `json:"showing_id"`
    TotalAmountCents uint32    `json:"total_amount_cents"`
    QRPayload        []byte    `json:"qr_payload"`
    SeatIDs          []uint64  `json:"seat_ids"`
    CreatedAt        time.Time `json:"created_at"`
}

// Commit converts the session's staged selection into a durable
// reservation.  The staged entry is consumed no matter the outcome:
// a rejected commit clears it too, so a retry starts from a fresh
// selection.  All availability checking and persistence for one
// showing runs under that showing's lock, so two overlapping commits
// can never both observe their seats free.
func (e *Engine) Commit(ctx context.Context, sessionKey string, userID uint64) (*Receipt, error) {
    sel, err := e.stage.Fetch(ctx, sessionKey)
    if err != nil {
        if errors.Is(err, stage.ErrNoSelection) {
            return nil, &CommitError{Reason: ReasonNoActiveSelection, err: err}
        }
        return nil, err
    }
    defer func() {
        // Consume the selection regardless of outcome.
        _ = e.stage.Clear(context.WithoutCancel(ctx), sessionKey)
    }()

    // VALIDATING: re-price against the live catalog.  Staged totals are
    // advisory only; a price changed since staging is re-read here.
    ticketIDs := make([]uint64, 0, len(sel.Items))
    for _, it := range sel.Items {
        ticketIDs = append(ticketIDs, it.TicketTypeID)
    }
    prices, err := e.tickets.PricesByIDs(ctx, ticketIDs)
    if err != nil {
        return nil, err
    }
    var total uint32
    for _, it := range sel.Items {
        price, ok := prices[it.TicketTypeID]
        if !ok {
            return nil, &CommitError{Reason: ReasonPriceUnavailable, err: fmt.Errorf("ticket type %d no longer sold", it.TicketTypeID)}
        }
        total += price
    }

    mu := e.locks.get(sel.ShowingID)
    mu.Lock()
    receipt, err := e.commitLocked(ctx, sel, prices, total, userID)
    mu.Unlock()
    if err != nil {
        return nil, err
    }

    if err := e.stage.RecordReservationID(ctx, sessionKey, receipt.ReservationID); err != nil {
        // The reservation is durable; losing the session pointer only
        // degrades the receipt-by-session lookup.
        return receipt, nil
    }
    return receipt, nil
}

// commitLocked runs the ALLOCATING phase.  Caller holds the showing
// lock.
func (e *Engine) commitLocked(ctx context.Context, sel *stage.Selection, prices map[uint64]uint32, total uint32, userID uint64) (*Receipt, error) {
    showing, err := e.showings.GetByID(ctx, sel.ShowingID)
    if err != nil {
        if errors.Is(err, repository.ErrShowingNotFound) {
            return nil, &CommitError{Reason: ReasonShowingUnavailable, err: err}
        }
        return nil, err
    }
    if showing.Status != model.ShowingScheduled {
        return nil, &CommitError{Reason: ReasonShowingUnavailable, err: fmt.Errorf("showing %d is %s", showing.ID, showing.Status)}
    }

    seatIDs := make([]uint64, 0, len(sel.Items))
    for _, it := range sel.Items {
        seatIDs = append(seatIDs, it.SeatID)
    }
    taken, err := e.reservations.ClaimedSeats(ctx, sel.ShowingID, seatIDs)
    if err != nil {
        return nil, err
    }
    if len(taken) > 0 {
        return nil, &CommitError{Reason: ReasonSeatConflict, ConflictSeats: taken}
    }

    res := &model.Reservation{
        UserID:           userID,
        ShowingID:        sel.ShowingID,
        Status:           model.ReservationConfirmed,
        TotalAmountCents: total,
    }
    details := make([]model.ReservationDetail, 0, len(sel.Items))
    for _, it := range sel.Items {
        details = append(details, model.ReservationDetail{
            SeatID:       it.SeatID,
            TicketTypeID: it.TicketTypeID,
            PriceCents:   prices[it.TicketTypeID],
        })
    }
    nonce := uuid.New()
    err = e.reservations.Create(ctx, res, details, func(reservationID uint64) []byte {
        return QRPayload(e.qrSecret, reservationID, sel.ShowingID, nonce)
    })
    if err != nil {
        return nil, err
    }

    // Flip to SOLD_OUT when this claim exhausted the room.  The
    // conditional update is a no-op if another path already flipped it.
    free, err := e.freeSeatCount(ctx, showing)
    if err == nil && free == 0 {
        _ = e.showings.UpdateStatus(ctx, showing.ID, model.ShowingScheduled, model.ShowingSoldOut)
    }

    return &Receipt{
        ReservationID:    res.ID,
        ShowingID:        sel.ShowingID,
        TotalAmountCents: total,
        QRPayload:        res.QRPayload,
        SeatIDs:          seatIDs,
        CreatedAt:        res.CreatedAt,
    }, nil
}

// CancelShowing pulls a showing from sale.  CANCELLED is terminal:
// neither commits nor reservation cancellations ever leave it.  The
// transition is taken under the showing lock so a racing commit either
// lands before it or is rejected after it.
func (e *Engine) CancelShowing(ctx context.Context, showingID uint64) error {
    mu := e.locks.get(showingID)
    mu.Lock()
    defer mu.Unlock()

    showing, err := e.showings.GetByID(ctx, showingID)
    if err != nil {
        return err
    }
    if showing.Status == model.ShowingCancelled {
        return repository.ErrAlreadyCancelled
    }
    return e.showings.UpdateStatus(ctx, showingID, showing.Status, model.ShowingCancelled)
}

// Cancel marks the caller's reservation CANCELLED and releases its
// seats.  If the showing was SOLD_OUT, freeing seats reopens it; that
// is the only path back from SOLD_OUT to SCHEDULED.
func (e *Engine) Cancel(ctx context.Context, reservationID, userID uint64) error {
    res, err := e.reservations.GetByID(ctx, reservationID)
    if err != nil {
        return err
    }
    if res.UserID != userID {
        return repository.ErrForbidden
    }

    mu := e.locks.get(res.ShowingID)
    mu.Lock()
    defer mu.Unlock()

    if _, err := e.reservations.CancelByID(ctx, reservationID); err != nil {
        return err
    }

    showing, err := e.showings.GetByID(ctx, res.ShowingID)
    if err != nil {
        return nil
    }
    if showing.Status == model.ShowingSoldOut {
        free, err := e.freeSeatCount(ctx, showing)
        if err == nil && free > 0 {
            _ = e.showings.UpdateStatus(ctx, showing.ID, model.ShowingSoldOut, model.ShowingScheduled)
        }
    }
    return nil
}
