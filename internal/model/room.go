package model

import "time"

// Seat categories.  The category affects which ticket types may be
// offered for a seat but plays no role in availability.
const (
    SeatStandard   = "STANDARD"
    SeatVIP        = "VIP"
    SeatAccessible = "ACCESSIBLE"
)

// Room represents a screening room.  A room owns its seats; seats have
// no back-pointer to the room beyond the RoomID foreign key.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique room name.
//  IsActive  – whether the room is in service.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Room struct {
    ID        uint64    // rooms.id
    Name      string    // rooms.name
    IsActive  bool      // rooms.is_active
    CreatedAt time.Time // rooms.created_at
    UpdatedAt time.Time // rooms.updated_at
}

// Seat describes a physical seat in a room.  Availability is NOT a seat
// attribute: the same physical seat is free or claimed per showing,
// depending on whether a non-cancelled reservation detail references
// the (seat, showing) pair.
//
// Fields:
//  ID        – primary key identifier.
//  RoomID    – room to which this seat belongs.
//  RowLabel  – letter or string designating the row.
//  ColNumber – number of the seat within the row.
//  Category  – seat category (STANDARD, VIP, ACCESSIBLE).
//  IsActive  – whether the seat is sellable.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Seat struct {
    ID        uint64    // seats.id
    RoomID    uint64    // seats.room_id
    RowLabel  string    // seats.row_label
    ColNumber uint32    // seats.col_number
    Category  string    // seats.category
    IsActive  bool      // seats.is_active
    CreatedAt time.Time // seats.created_at
    UpdatedAt time.Time // seats.updated_at
}
