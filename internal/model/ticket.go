package model

import "time"

// TicketType represents a pricing policy entry from the ticket catalog
// (e.g. ADULT, CHILD, SENIOR).  The reservation engine only reads
// ticket types; maintaining them is a catalog concern.
//
// Fields:
//  ID         – primary key identifier.
//  Code       – unique short code (ADULT, CHILD, ...).
//  Name       – human readable name.
//  PriceCents – price in cents for one seat under this ticket type.
//  IsActive   – whether the ticket type can be sold.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type TicketType struct {
    ID         uint64    // ticket_types.id
    Code       string    // ticket_types.code
    Name       string    // ticket_types.name
    PriceCents uint32    // ticket_types.price_cents
    IsActive   bool      // ticket_types.is_active
    CreatedAt  time.Time // ticket_types.created_at
    UpdatedAt  time.Time // ticket_types.updated_at
}
