package event

import "time"

const (
	// TableStatusTopic delivers authoritative status changes for tables.
	TableStatusTopic = "tables.status"
	// OrderTableTopic groups events relating orders to table operations.
	OrderTableTopic = "orders.tables"

	EventTableStatusChanged = "table.status.changed"
	EventTableMerged        = "table.merged"
	EventTableReplaced      = "table.replaced"
	EventOrderTransferred   = "order.transferred"
)

// TableStatusEvent captures a single table status change, including the
// operation that caused it.
type TableStatusEvent struct {
	EventType      string    `json:"event_type"`
	TableID        string    `json:"table_id"`
	TableNumber    string    `json:"table_number"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Tenant         string    `json:"tenant"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// TableMergeEvent announces a new merge group, or the re-formed group after a
// member replacement.
type TableMergeEvent struct {
	EventType   string    `json:"event_type"`
	GroupID     string    `json:"group_id"`
	GroupNumber string    `json:"group_number"`
	MemberIDs   []string  `json:"member_ids"`
	GuestCount  int       `json:"guest_count"`
	Capacity    int       `json:"capacity"`
	Tenant      string    `json:"tenant"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// OrderTransferEvent records an order moving between tables.
type OrderTransferEvent struct {
	EventType   string    `json:"event_type"`
	OrderID     string    `json:"order_id"`
	FromTableID string    `json:"from_table_id"`
	ToTableID   string    `json:"to_table_id"`
	Tenant      string    `json:"tenant"`
	OccurredAt  time.Time `json:"occurred_at"`
}
