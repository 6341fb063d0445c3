package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Table booking statuses.
const (
	BookingBooked    = "BOOKED"
	BookingSeated    = "SEATED"
	BookingCancelled = "CANCELLED"
)

// TableBooking reserves one table for a party and a time window. An active
// booking keeps its table RESERVED until the party is seated or the booking
// is cancelled.
type TableBooking struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TableID      primitive.ObjectID `bson:"table_id" json:"table_id"`
	TableNumber  string             `bson:"table_number" json:"table_number"`
	CustomerName string             `bson:"customer_name" json:"customer_name"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	GuestCount   int                `bson:"guest_count" json:"guest_count"`
	StartsAt     time.Time          `bson:"starts_at" json:"starts_at"`
	EndsAt       time.Time          `bson:"ends_at" json:"ends_at"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// Settings is the per-tenant feature-flag document. There is exactly one per
// tenant database; reads go through a short-lived cache.
type Settings struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Flags     map[string]bool    `bson:"flags" json:"flags"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
