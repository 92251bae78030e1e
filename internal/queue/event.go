// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a commit persists a
// reservation.  It carries enough information for downstream consumers
// to log, notify, or trigger analytics without querying the primary
// database.
type ReservationConfirmedEvent struct {
    ReservationID    uint64   `json:"reservation_id"`
    UserID           uint64   `json:"user_id"`
    ShowingID        uint64   `json:"showing_id"`
    RoomID           uint64   `json:"room_id"`
    RoomName         string   `json:"room_name"`
    MovieTitle       string   `json:"movie_title"`
    StartsAt         string   `json:"starts_at"`
    SeatLabels       []string `json:"seats"`
    TotalAmountCents uint32   `json:"total_amount_cents"`
    ConfirmedAt      string   `json:"confirmed_at"`
}
