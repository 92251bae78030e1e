// Package handler exposes HTTP handlers for both authenticated and
// public endpoints.  This file covers the reservation flow: staging a
// seat selection, committing it, cancelling, and reading reservations
// back.
package handler

import (
    "context"
    "encoding/base64"
    "errors"
    "fmt"
    "log"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "cinebook/internal/booking"
    "cinebook/internal/middleware"
    "cinebook/internal/queue"
    "cinebook/internal/repository"
    queue_publisher "cinebook/internal/service"
    "cinebook/internal/stage"
)

// ReservationReader is the read side of the reservation store used for
// listings and receipts.
type ReservationReader interface {
    GetViewForUser(ctx context.Context, reservationID, userID uint64) (*repository.ReservationView, error)
    ListByUser(ctx context.Context, userID uint64) ([]repository.ReservationView, error)
}

// BookingHandler bundles the reservation engine with the read-side
// store and the event publisher settings.
type BookingHandler struct {
    Engine       *booking.Engine
    Reservations ReservationReader
    Stage        stage.Store
    AMQPURL      string
}

func NewBookingHandler(engine *booking.Engine, reservations ReservationReader, st stage.Store, amqpURL string) *BookingHandler {
    return &BookingHandler{Engine: engine, Reservations: reservations, Stage: st, AMQPURL: amqpURL}
}

// ----- DTOs -----

type stageItemReq struct {
    SeatID       uint64 `json:"seat_id"`
    TicketTypeID uint64 `json:"ticket_type_id"`
}

type stageReq struct {
    ShowingID uint64         `json:"showing_id"`
    Items     []stageItemReq `json:"items"`
}

type stageResp struct {
    ShowingID  uint64 `json:"showing_id"`
    SeatCount  int    `json:"seat_count"`
    TotalCents uint32 `json:"total_cents"`
}

type receiptResp struct {
    ReservationID    uint64   `json:"reservation_id"`
    ShowingID        uint64   `json:"showing_id"`
    TotalAmountCents uint32   `json:"total_amount_cents"`
    QRPayload        string   `json:"qr_payload"` // base64
    SeatIDs          []uint64 `json:"seat_ids"`
}

// identity pulls the authenticated user id and session key set by the
// JWT middleware.
func identity(c echo.Context) (uint64, string, bool) {
    userID, ok := c.Get(middleware.ContextUserID).(uint64)
    if !ok {
        return 0, "", false
    }
    sessionKey, ok := c.Get(middleware.ContextSessionKey).(string)
    if !ok || sessionKey == "" {
        return 0, "", false
    }
    return userID, sessionKey, true
}

// StageSelection validates the requested seats and prices and stores
// them as the session's staged selection, replacing any previous one.
// Nothing is held: the returned total is advisory until commit.
func (h *BookingHandler) StageSelection(c echo.Context) error {
    _, sessionKey, ok := identity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req stageReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.ShowingID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "showing_id required"})
    }

    items := make([]stage.Item, 0, len(req.Items))
    for _, it := range req.Items {
        items = append(items, stage.Item{SeatID: it.SeatID, TicketTypeID: it.TicketTypeID})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    total, err := h.Engine.StageSelection(ctx, sessionKey, req.ShowingID, items)
    if err != nil {
        switch {
        case errors.Is(err, booking.ErrEmptySelection):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "items required"})
        case errors.Is(err, repository.ErrShowingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
        case errors.Is(err, repository.ErrSeatUnknown):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
        case errors.Is(err, repository.ErrTicketTypeUnknown):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stage failed"})
    }

    return c.JSON(http.StatusOK, stageResp{ShowingID: req.ShowingID, SeatCount: len(items), TotalCents: total})
}

// GetSelection returns the session's current staged selection, if any.
func (h *BookingHandler) GetSelection(c echo.Context) error {
    _, sessionKey, ok := identity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    sel, err := h.Stage.Fetch(ctx, sessionKey)
    if err != nil {
        if errors.Is(err, stage.ErrNoSelection) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no staged selection"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch failed"})
    }
    return c.JSON(http.StatusOK, sel)
}

// ClearSelection drops the session's staged selection.  Clearing an
// absent selection still succeeds.
func (h *BookingHandler) ClearSelection(c echo.Context) error {
    _, sessionKey, ok := identity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Stage.Clear(ctx, sessionKey); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "selection cleared"})
}

// Commit turns the session's staged selection into a durable
// reservation.  On success it responds 201 with the receipt and
// publishes a reservation.confirmed event; on rejection it responds
// with the reject reason and, for seat conflicts, the contested seats.
func (h *BookingHandler) Commit(c echo.Context) error {
    userID, sessionKey, ok := identity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    receipt, err := h.Engine.Commit(ctx, sessionKey, userID)
    if err != nil {
        var ce *booking.CommitError
        if errors.As(err, &ce) {
            status := http.StatusConflict
            if ce.Reason == booking.ReasonNoActiveSelection {
                status = http.StatusBadRequest
            }
            body := echo.Map{"error": "commit rejected", "reason": ce.Reason}
            if len(ce.ConflictSeats) > 0 {
                body["conflict_seats"] = ce.ConflictSeats
            }
            return c.JSON(status, body)
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
    }

    go h.publishConfirmed(receipt.ReservationID, userID)

    return c.JSON(http.StatusCreated, receiptResp{
        ReservationID:    receipt.ReservationID,
        ShowingID:        receipt.ShowingID,
        TotalAmountCents: receipt.TotalAmountCents,
        QRPayload:        base64.StdEncoding.EncodeToString(receipt.QRPayload),
        SeatIDs:          receipt.SeatIDs,
    })
}

// publishConfirmed loads the committed reservation's view and publishes
// the reservation.confirmed event.  Failures are logged only; the
// reservation is already durable.
func (h *BookingHandler) publishConfirmed(reservationID, userID uint64) {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    v, err := h.Reservations.GetViewForUser(ctx, reservationID, userID)
    if err != nil {
        log.Printf("booking: load reservation %d for event failed: %v", reservationID, err)
        return
    }
    seats := make([]string, 0, len(v.Seats))
    for _, s := range v.Seats {
        seats = append(seats, fmt.Sprintf("%s%d", s.RowLabel, s.ColNumber))
    }
    ev := queue.ReservationConfirmedEvent{
        ReservationID:    v.ID,
        UserID:           userID,
        ShowingID:        v.ShowingID,
        RoomName:         v.RoomName,
        MovieTitle:       v.MovieTitle,
        StartsAt:         v.StartsAt,
        SeatLabels:       seats,
        TotalAmountCents: v.TotalAmountCents,
        ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
    }
    _ = queue_publisher.PublishReservationConfirmed(ctx, h.AMQPURL, ev)
}

// Cancel marks one of the caller's reservations CANCELLED, releasing
// its seats.
func (h *BookingHandler) Cancel(c echo.Context) error {
    userID, _, ok := identity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if err := h.Engine.Cancel(ctx, id, userID); err != nil {
        switch {
        case errors.Is(err, repository.ErrReservationNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
        case errors.Is(err, repository.ErrAlreadyCancelled):
            return c.JSON(http.StatusConflict, echo.Map{"error": "already cancelled"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled"})
}

// CancelShowing pulls a showing from sale.  Commits racing this call
// either land before the status flips or are rejected afterwards.
func (h *BookingHandler) CancelShowing(c echo.Context) error {
    _, _, ok := identity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if err := h.Engine.CancelShowing(ctx, id); err != nil {
        switch {
        case errors.Is(err, repository.ErrShowingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
        case errors.Is(err, repository.ErrAlreadyCancelled):
            return c.JSON(http.StatusConflict, echo.Map{"error": "already cancelled"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "showing cancelled"})
}

// ListMine returns all of the caller's reservations, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
    userID, _, ok := identity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    views, err := h.Reservations.ListByUser(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": views})
}

// GetOne returns a single reservation of the caller with seat lines.
func (h *BookingHandler) GetOne(c echo.Context) error {
    userID, _, ok := identity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    v, err := h.Reservations.GetViewForUser(ctx, id, userID)
    if err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, v)
}

// SessionReceipt returns the reservation committed earlier in this
// session, letting a client that lost the commit response recover its
// receipt.
func (h *BookingHandler) SessionReceipt(c echo.Context) error {
    userID, sessionKey, ok := identity(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Engine.ReservationForSession(ctx, sessionKey)
    if err != nil {
        if errors.Is(err, stage.ErrNoReservation) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no reservation in this session"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
    }
    v, err := h.Reservations.GetViewForUser(ctx, id, userID)
    if err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, v)
}
