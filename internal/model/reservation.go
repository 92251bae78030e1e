package model

import "time"

// Reservation status values.  Once CONFIRMED, a reservation's detail
// rows are immutable; the only further transition is CANCELLED, which
// releases the seats it claimed.
const (
    ReservationConfirmed = "CONFIRMED"
    ReservationCancelled = "CANCELLED"
)

// Reservation records a user's committed booking for a showing.  It
// aggregates one detail row per (seat, ticket) pair and owns those
// rows: details are deleted in cascade with their reservation.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – user who made the reservation.
//  ShowingID        – showing being reserved.
//  Status           – CONFIRMED or CANCELLED.
//  TotalAmountCents – total price in cents for all seats.
//  QRPayload        – opaque binary payload handed to the QR service.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Reservation struct {
    ID               uint64    // reservations.id
    UserID           uint64    // reservations.user_id
    ShowingID        uint64    // reservations.showing_id
    Status           string    // reservations.status
    TotalAmountCents uint32    // reservations.total_amount_cents
    QRPayload        []byte    // reservations.qr_payload
    CreatedAt        time.Time // reservations.created_at
    UpdatedAt        time.Time // reservations.updated_at
}

// ReservationDetail is one (seat, ticket) line of a reservation.  A
// seat is claimed for a showing iff a detail row of a non-cancelled
// reservation references it; at most one such claim exists per
// (seat, showing) pair at any time.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  SeatID        – seat claimed by this line.
//  TicketTypeID  – ticket type applied to this seat.
//  PriceCents    – price for this line at commit time.
//  CreatedAt     – creation timestamp.
type ReservationDetail struct {
    ID            uint64    // reservation_details.id
    ReservationID uint64    // reservation_details.reservation_id
    SeatID        uint64    // reservation_details.seat_id
    TicketTypeID  uint64    // reservation_details.ticket_type_id
    PriceCents    uint32    // reservation_details.price_cents
    CreatedAt     time.Time // reservation_details.created_at
}
