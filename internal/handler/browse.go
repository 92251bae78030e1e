// This file defines handlers for the public browsing API.  These
// routes let unauthenticated users list showings, inspect a showing's
// live seat availability and read the ticket catalog.
package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "cinebook/internal/booking"
    "cinebook/internal/repository"
)

// BrowseHandler aggregates the read-side dependencies for public
// browsing.  Availability always goes through the engine so the public
// view and the commit path derive it the same way.
type BrowseHandler struct {
    Showings *repository.ShowingRepo
    Tickets  *repository.TicketRepo
    Engine   *booking.Engine
}

func NewBrowseHandler(showings *repository.ShowingRepo, tickets *repository.TicketRepo, engine *booking.Engine) *BrowseHandler {
    return &BrowseHandler{Showings: showings, Tickets: tickets, Engine: engine}
}

// PublicShowing is a showing in list responses, reduced to safe fields.
type PublicShowing struct {
    ID         uint64    `json:"id"`
    RoomID     uint64    `json:"room_id"`
    MovieTitle string    `json:"movie_title"`
    StartsAt   time.Time `json:"starts_at"`
    Language   string    `json:"language"`
    Status     string    `json:"status"`
}

// ListShowings returns upcoming non-cancelled showings ordered by
// start time.
func (h *BrowseHandler) ListShowings(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rows, err := h.Showings.ListUpcoming(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]PublicShowing, 0, len(rows))
    for _, s := range rows {
        out = append(out, PublicShowing{
            ID:         s.ID,
            RoomID:     s.RoomID,
            MovieTitle: s.MovieTitle,
            StartsAt:   s.StartsAt,
            Language:   s.Language,
            Status:     s.Status,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"showings": out})
}

// ShowingSeats returns the seat map of one showing with per-seat
// availability and the free seat count, derived live from confirmed
// reservations.
func (h *BrowseHandler) ShowingSeats(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    showing, err := h.Showings.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrShowingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    seats, err := h.Engine.SeatAvailability(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability failed"})
    }
    free := 0
    for _, s := range seats {
        if !s.Claimed {
            free++
        }
    }
    return c.JSON(http.StatusOK, echo.Map{
        "showing_id": id,
        "status":     showing.Status,
        "free_seats": free,
        "seats":      seats,
    })
}

// PublicTicketType is one ticket catalog entry as exposed publicly.
type PublicTicketType struct {
    ID         uint64 `json:"id"`
    Code       string `json:"code"`
    Name       string `json:"name"`
    PriceCents uint32 `json:"price_cents"`
}

// ListTicketTypes returns the active ticket catalog.
func (h *BrowseHandler) ListTicketTypes(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    types, err := h.Tickets.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]PublicTicketType, 0, len(types))
    for _, t := range types {
        if t.IsActive {
            out = append(out, PublicTicketType{ID: t.ID, Code: t.Code, Name: t.Name, PriceCents: t.PriceCents})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"ticket_types": out})
}
