package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category groups menu items on the tenant's menu.
type Category struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	SortOrder int                `bson:"sort_order" json:"sort_order"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// MenuItem is one sellable item on the tenant's menu.
type MenuItem struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	CategoryID  primitive.ObjectID   `bson:"category_id" json:"category_id"`
	Price       float64              `bson:"price" json:"price"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	AddonIDs    []primitive.ObjectID `bson:"addon_ids,omitempty" json:"addon_ids,omitempty"`
	IsAvailable bool                 `bson:"is_available" json:"is_available"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}

// Addon is an optional extra attachable to menu items.
type Addon struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Variation is a size or preparation variant of a menu item.
type Variation struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MenuItemID primitive.ObjectID `bson:"menu_item_id" json:"menu_item_id"`
	Name       string             `bson:"name" json:"name"`
	Price      float64            `bson:"price" json:"price"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
