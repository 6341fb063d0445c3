package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TableStatus is the closed set of dine-in table states. All transitions are
// operator-driven; none are timed.
type TableStatus string

const (
	TableAvailable   TableStatus = "AVAILABLE"
	TableOccupied    TableStatus = "OCCUPIED"
	TableReserved    TableStatus = "RESERVED"
	TableMaintenance TableStatus = "MAINTENANCE"
)

// Valid reports whether s is a member of the closed status enumeration.
func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableMaintenance:
		return true
	}
	return false
}

// MergeNumberPrefix is the reserved prefix for synthetic merge-group table
// numbers. Ordinary tables never use it, so clients can tell a merge group
// apart from a physical table by number alone.
const MergeNumberPrefix = "MT-"

// Table locations. Single-valued today; kept as an enum for forward
// compatibility with multi-floor layouts.
const (
	LocationIndoor = "INDOOR"
)

// Table is one physical dine-in table, or a synthetic table representing a
// merge group. Synthetic tables carry MergedWith (the member table ids) and a
// number matching MergeNumberPrefix; their capacity is the sum of the members'.
type Table struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Number           string               `bson:"number" json:"number"`
	Capacity         int                  `bson:"capacity" json:"capacity"`
	Location         string               `bson:"location" json:"location"`
	Status           TableStatus          `bson:"status" json:"status"`
	IsActive         bool                 `bson:"is_active" json:"is_active"`
	MergedWith       []primitive.ObjectID `bson:"merged_with,omitempty" json:"merged_with,omitempty"`
	MergedGuestCount int                  `bson:"merged_guest_count,omitempty" json:"merged_guest_count,omitempty"`
	CreatedAt        time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at" json:"updated_at"`
}

// IsSynthetic reports whether the table is a merge-group placeholder rather
// than a physical table.
func (t *Table) IsSynthetic() bool {
	return strings.HasPrefix(t.Number, MergeNumberPrefix)
}

// HasMember reports whether id is one of the merge group's member tables.
func (t *Table) HasMember(id primitive.ObjectID) bool {
	for _, m := range t.MergedWith {
		if m == id {
			return true
		}
	}
	return false
}
