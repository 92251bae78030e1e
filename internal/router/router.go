package router // route registration for the API

import (
    "github.com/labstack/echo/v4"

    "cinebook/internal/handler"
    "cinebook/internal/middleware"
    "cinebook/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while protected
// endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    // Logout accepts a refresh token in the body and does not require a
    // JWT; with a JWT and no body token it revokes all of the user's
    // sessions.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
}

// RegisterBrowse registers unauthenticated browse endpoints: showings,
// live seat availability and the ticket catalog.
func RegisterBrowse(e *echo.Echo, b *handler.BrowseHandler) {
    e.GET("/v1/showings", b.ListShowings)
    e.GET("/v1/showings/:id/seats", b.ShowingSeats)
    e.GET("/v1/ticket-types", b.ListTicketTypes)
}

// RegisterBooking registers the reservation flow.  All routes require a
// valid access token; the staging routes operate on the token's session.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
    g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

    // Staged selection of the current session.
    g.POST("/selection", h.StageSelection)
    g.GET("/selection", h.GetSelection)
    g.DELETE("/selection", h.ClearSelection)

    // Commit the staged selection into a reservation.
    g.POST("/reservations/commit", h.Commit)

    // Read and manage own reservations.
    g.GET("/my-reservations", h.ListMine)
    g.GET("/session/reservation", h.SessionReceipt)
    g.GET("/reservations/:id", h.GetOne)
    g.POST("/reservations/:id/cancel", h.Cancel)

    // Pull a showing from sale.  Cancelling a showing does not touch
    // existing reservations; their seats simply stop mattering.  Only
    // staff accounts may do this.
    g.POST("/showings/:id/cancel", h.CancelShowing, middleware.RequireRole(model.RoleAdmin))
}
