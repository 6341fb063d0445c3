package store

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Entity identifies one tenant-scoped collection type. The set is closed;
// the provisioner refuses slugs and entities outside it.
type Entity string

const (
	EntityUsers          Entity = "users"
	EntityMenuItems      Entity = "menu_items"
	EntityCategories     Entity = "categories"
	EntityAddons         Entity = "addons"
	EntityVariations     Entity = "variations"
	EntityOrders         Entity = "orders"
	EntityKOTs           Entity = "kots"
	EntityTables         Entity = "tables"
	EntityTableBookings  Entity = "table_bookings"
	EntityStaff          Entity = "staff"
	EntityInventory      Entity = "inventory"
	EntityAttendance     Entity = "attendance"
	EntityRecipes        Entity = "recipes"
	EntityWastage        Entity = "wastage"
	EntityVendors        Entity = "vendors"
	EntityVendorPrices   Entity = "vendor_prices"
	EntityPurchaseOrders Entity = "purchase_orders"
	EntitySplitBills     Entity = "split_bills"
	EntitySettings       Entity = "settings"
)

// entityDescriptor binds an entity to its collection name and the indexes the
// provisioner ensures on first use. Handle construction is generic over this
// table; there are no per-entity constructors.
type entityDescriptor struct {
	collection string
	indexes    []mongo.IndexModel
}

func uniqueIndex(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
}

func index(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys}
}

var entityDescriptors = map[Entity]entityDescriptor{
	EntityUsers: {"users", []mongo.IndexModel{
		uniqueIndex(bson.D{{Key: "email", Value: 1}}),
	}},
	EntityMenuItems: {"menu_items", []mongo.IndexModel{
		index(bson.D{{Key: "category_id", Value: 1}}),
		index(bson.D{{Key: "name", Value: 1}}),
	}},
	EntityCategories: {"categories", []mongo.IndexModel{
		uniqueIndex(bson.D{{Key: "name", Value: 1}}),
	}},
	EntityAddons:     {"addons", nil},
	EntityVariations: {"variations", []mongo.IndexModel{
		index(bson.D{{Key: "menu_item_id", Value: 1}}),
	}},
	EntityOrders: {"orders", []mongo.IndexModel{
		uniqueIndex(bson.D{{Key: "order_number", Value: 1}}),
		index(bson.D{{Key: "table_id", Value: 1}}),
		index(bson.D{{Key: "status", Value: 1}}),
	}},
	EntityKOTs: {"kots", []mongo.IndexModel{
		index(bson.D{{Key: "order_id", Value: 1}}),
		index(bson.D{{Key: "table_id", Value: 1}}),
		index(bson.D{{Key: "status", Value: 1}}),
	}},
	EntityTables: {"tables", []mongo.IndexModel{
		uniqueIndex(bson.D{{Key: "number", Value: 1}}),
		index(bson.D{{Key: "status", Value: 1}}),
	}},
	EntityTableBookings: {"table_bookings", []mongo.IndexModel{
		index(bson.D{{Key: "table_id", Value: 1}}),
		index(bson.D{{Key: "starts_at", Value: 1}}),
	}},
	EntityStaff: {"staff", []mongo.IndexModel{
		index(bson.D{{Key: "role", Value: 1}}),
	}},
	EntityInventory: {"inventory", []mongo.IndexModel{
		uniqueIndex(bson.D{{Key: "name", Value: 1}}),
	}},
	EntityAttendance: {"attendance", []mongo.IndexModel{
		uniqueIndex(bson.D{{Key: "staff_id", Value: 1}, {Key: "date", Value: 1}}),
	}},
	EntityRecipes: {"recipes", []mongo.IndexModel{
		uniqueIndex(bson.D{{Key: "menu_item_id", Value: 1}}),
	}},
	EntityWastage: {"wastage", []mongo.IndexModel{
		index(bson.D{{Key: "inventory_item_id", Value: 1}}),
	}},
	EntityVendors: {"vendors", nil},
	EntityVendorPrices: {"vendor_prices", []mongo.IndexModel{
		uniqueIndex(bson.D{{Key: "vendor_id", Value: 1}, {Key: "inventory_item_id", Value: 1}}),
	}},
	EntityPurchaseOrders: {"purchase_orders", []mongo.IndexModel{
		index(bson.D{{Key: "vendor_id", Value: 1}}),
		index(bson.D{{Key: "status", Value: 1}}),
	}},
	EntitySplitBills: {"split_bills", []mongo.IndexModel{
		index(bson.D{{Key: "order_id", Value: 1}}),
	}},
	EntitySettings: {"settings", nil},
}

// Entities returns every known entity in a stable order, the order eager
// provisioning walks them in.
func Entities() []Entity {
	return []Entity{
		EntityUsers, EntityMenuItems, EntityCategories, EntityAddons,
		EntityVariations, EntityOrders, EntityKOTs, EntityTables,
		EntityTableBookings, EntityStaff, EntityInventory, EntityAttendance,
		EntityRecipes, EntityWastage, EntityVendors, EntityVendorPrices,
		EntityPurchaseOrders, EntitySplitBills, EntitySettings,
	}
}
