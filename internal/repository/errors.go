// Package repository defines sentinel error values shared across the
// data access layer.  Handlers and the booking engine use errors.Is
// against these values to translate failures into HTTP statuses and
// commit reject reasons.  Every error here is recoverable from the
// caller's point of view: re-select seats, retry, or correct the
// request.
package repository

import "errors"

// ErrShowingNotFound indicates the requested showing does not exist.
var ErrShowingNotFound = errors.New("showing not found")

// ErrRoomNotFound indicates the requested room does not exist.
var ErrRoomNotFound = errors.New("room not found")

// ErrSeatUnknown indicates a selection referenced a seat that does not
// belong to the showing's room or is inactive.
var ErrSeatUnknown = errors.New("unknown seat for room")

// ErrTicketTypeUnknown indicates a selection referenced a ticket type
// that does not exist or is no longer sold.
var ErrTicketTypeUnknown = errors.New("unknown ticket type")

// ErrReservationNotFound indicates the requested reservation does not
// exist.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrAlreadyCancelled indicates a cancellation was attempted on a
// reservation or showing that is already CANCELLED.
var ErrAlreadyCancelled = errors.New("already cancelled")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists indicates a registration attempt with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound indicates no user matches the given credentials key.
var ErrUserNotFound = errors.New("user not found")
