package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KOTStatus is the kitchen-side ticket progression, independent from the
// front-of-house order status.
type KOTStatus string

const (
	KOTPending    KOTStatus = "PENDING"
	KOTInProgress KOTStatus = "IN_PROGRESS"
	KOTCompleted  KOTStatus = "COMPLETED"
	KOTCancelled  KOTStatus = "CANCELLED"
)

var kotTransitions = map[KOTStatus][]KOTStatus{
	KOTPending:    {KOTInProgress, KOTCancelled},
	KOTInProgress: {KOTCompleted, KOTCancelled},
}

// Valid reports whether s is a member of the closed status enumeration.
func (s KOTStatus) Valid() bool {
	switch s {
	case KOTPending, KOTInProgress, KOTCompleted, KOTCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s KOTStatus) Terminal() bool {
	return s == KOTCompleted || s == KOTCancelled
}

// CanTransition reports whether s -> next is an allowed progression step.
func (s KOTStatus) CanTransition(next KOTStatus) bool {
	for _, t := range kotTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// KOT priorities, highest first.
const (
	KOTPriorityHigh   = 1
	KOTPriorityNormal = 2
	KOTPriorityLow    = 3
)

// KOT is a kitchen order ticket derived from an order. TableID/TableNumber
// mirror the parent order's table assignment and must be rewritten together
// with it.
type KOT struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	KOTNumber   string              `bson:"kot_number" json:"kot_number"`
	OrderID     primitive.ObjectID  `bson:"order_id" json:"order_id"`
	TableID     *primitive.ObjectID `bson:"table_id,omitempty" json:"table_id,omitempty"`
	TableNumber string              `bson:"table_number,omitempty" json:"table_number,omitempty"`
	Items       []OrderItem         `bson:"items" json:"items"`
	Status      KOTStatus           `bson:"status" json:"status"`
	Priority    int                 `bson:"priority" json:"priority"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}
