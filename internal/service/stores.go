package service

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shinepos/pos-backend/internal/model"
)

// The services depend on these narrow store interfaces. store.TenantData and
// store.TenantStore are the production implementations; tests substitute
// map-backed fakes.

type TableStore interface {
	InsertTable(ctx context.Context, slug string, t *model.Table) error
	FindTableByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.Table, error)
	FindTableByNumber(ctx context.Context, slug, number string) (*model.Table, error)
	ListTables(ctx context.Context, slug string) ([]model.Table, error)
	SetTableStatus(ctx context.Context, slug string, id primitive.ObjectID, status model.TableStatus) error
	FindActiveMergeGroupFor(ctx context.Context, slug string, memberID primitive.ObjectID) (*model.Table, error)
	FindReplacementCandidates(ctx context.Context, slug string, minCapacity int, exclude []primitive.ObjectID, limit int) ([]model.Table, error)
	MaxMergeSequence(ctx context.Context, slug string) (int, error)
}

type OrderStore interface {
	InsertOrder(ctx context.Context, slug string, o *model.Order) error
	FindOrderByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, slug string, id primitive.ObjectID, status model.OrderStatus) error
	SetOrderTable(ctx context.Context, slug string, id, tableID primitive.ObjectID, tableNumber string) error
	FindActiveOrdersByTable(ctx context.Context, slug string, tableID primitive.ObjectID) ([]model.Order, error)
}

type KOTStore interface {
	InsertKOT(ctx context.Context, slug string, k *model.KOT) error
	FindKOTByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.KOT, error)
	FindKOTsByOrder(ctx context.Context, slug string, orderID primitive.ObjectID) ([]model.KOT, error)
	UpdateKOTStatus(ctx context.Context, slug string, id primitive.ObjectID, status model.KOTStatus) error
	SetKOTTableForOrder(ctx context.Context, slug string, orderID, tableID primitive.ObjectID, tableNumber string) error
	RepointKOTs(ctx context.Context, slug string, orderIDs []primitive.ObjectID, oldTableID, newTableID primitive.ObjectID, newTableNumber string) error
	CancelOpenKOTsForOrder(ctx context.Context, slug string, orderID primitive.ObjectID) error
}

type CatalogStore interface {
	InsertCategory(ctx context.Context, slug string, c *model.Category) error
	FindCategoryByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.Category, error)
	ListCategories(ctx context.Context, slug string) ([]model.Category, error)
	InsertMenuItem(ctx context.Context, slug string, m *model.MenuItem) error
	ListMenuItems(ctx context.Context, slug string, categoryID *primitive.ObjectID) ([]model.MenuItem, error)
}

type BookingStore interface {
	InsertBooking(ctx context.Context, slug string, b *model.TableBooking) error
	FindBookingByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.TableBooking, error)
	SetBookingStatus(ctx context.Context, slug string, id primitive.ObjectID, status string) error
}

// TxRunner runs fn atomically: either every write issued through fn's ctx is
// visible, or none is.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TenantRegistry is the control-plane restaurant registry.
type TenantRegistry interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	Update(ctx context.Context, tenant *model.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateProvisioningLog(ctx context.Context, tenantID uuid.UUID, step, status string, details interface{}) error
}

// Provisioner creates a tenant's data-plane storage structures.
type Provisioner interface {
	Provision(ctx context.Context, slug string) error
}
