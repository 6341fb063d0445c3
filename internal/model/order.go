package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the front-of-house order progression. CANCELLED is absorbing
// from every non-terminal state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderAccepted  OrderStatus = "ORDER_ACCEPTED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderServed    OrderStatus = "SERVED"
	OrderComplete  OrderStatus = "COMPLETE"
	OrderCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderAccepted, OrderCancelled},
	OrderAccepted:  {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderServed, OrderCancelled},
	OrderServed:    {OrderComplete, OrderCancelled},
}

// Valid reports whether s is a member of the closed status enumeration.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderPreparing, OrderReady, OrderServed, OrderComplete, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderComplete || s == OrderCancelled
}

// CanTransition reports whether s -> next is an allowed progression step.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order. Price is the unit price snapshot taken
// at order time.
type OrderItem struct {
	MenuItemID primitive.ObjectID `bson:"menu_item_id" json:"menu_item_id"`
	Name       string             `bson:"name" json:"name"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Price      float64            `bson:"price" json:"price"`
}

// Order is a tenant-scoped dine-in order. TableID/TableNumber are a snapshot
// of the current table assignment and are rewritten whenever the order moves
// tables (transfer, replacement).
type Order struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderNumber string              `bson:"order_number" json:"order_number"`
	TableID     *primitive.ObjectID `bson:"table_id,omitempty" json:"table_id,omitempty"`
	TableNumber string              `bson:"table_number,omitempty" json:"table_number,omitempty"`
	Items       []OrderItem         `bson:"items" json:"items"`
	TotalAmount float64             `bson:"total_amount" json:"total_amount"`
	GuestCount  int                 `bson:"guest_count,omitempty" json:"guest_count,omitempty"`
	Status      OrderStatus         `bson:"status" json:"status"`
	CreatedBy   string              `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}
