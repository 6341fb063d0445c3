package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shinepos/pos-backend/internal/event"
	"github.com/shinepos/pos-backend/internal/model"
	"github.com/shinepos/pos-backend/internal/monitoring"
)

// OrderService owns order intake and the order/KOT status progressions.
type OrderService struct {
	tables TableStore
	orders OrderStore
	kots   KOTStore
	pub    event.Publisher
}

type OrderServiceDeps struct {
	Tables    TableStore
	Orders    OrderStore
	KOTs      KOTStore
	Publisher event.Publisher
}

func NewOrderService(deps OrderServiceDeps) *OrderService {
	return &OrderService{
		tables: deps.Tables,
		orders: deps.Orders,
		kots:   deps.KOTs,
		pub:    deps.Publisher,
	}
}

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	MenuItemID primitive.ObjectID `json:"menu_item_id"`
	Name       string             `json:"name"`
	Quantity   int                `json:"quantity"`
	Price      float64            `json:"price"`
}

// CreateOrderRequest describes a new dine-in order. TableID is optional for
// counter sales.
type CreateOrderRequest struct {
	TableID    *primitive.ObjectID `json:"table_id,omitempty"`
	GuestCount int                 `json:"guest_count"`
	Items      []OrderItemInput    `json:"items"`
	Priority   int                 `json:"priority"`
	CreatedBy  string              `json:"created_by"`
}

// CreateOrder validates and stores a new order and cuts its first kitchen
// ticket. Ordering on an AVAILABLE or RESERVED table seats the party there.
func (s *OrderService) CreateOrder(ctx context.Context, slug string, req CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, Validation("order needs at least one item")
	}
	items := make([]model.OrderItem, 0, len(req.Items))
	total := 0.0
	for i, in := range req.Items {
		if strings.TrimSpace(in.Name) == "" {
			return nil, Validation("item %d has no name", i+1)
		}
		if in.Quantity <= 0 {
			return nil, Validation("item %s has non-positive quantity", in.Name)
		}
		if in.Price < 0 {
			return nil, Validation("item %s has negative price", in.Name)
		}
		items = append(items, model.OrderItem{
			MenuItemID: in.MenuItemID,
			Name:       in.Name,
			Quantity:   in.Quantity,
			Price:      in.Price,
		})
		total += in.Price * float64(in.Quantity)
	}
	priority := req.Priority
	if priority == 0 {
		priority = model.KOTPriorityNormal
	}
	if priority < model.KOTPriorityHigh || priority > model.KOTPriorityLow {
		return nil, Validation("priority must be between %d and %d", model.KOTPriorityHigh, model.KOTPriorityLow)
	}

	var table *model.Table
	if req.TableID != nil {
		var err error
		table, err = s.tables.FindTableByID(ctx, slug, *req.TableID)
		if err != nil {
			return nil, Infra(err, "cannot load table")
		}
		if table == nil {
			return nil, NotFound("table %s not found", req.TableID.Hex())
		}
		if table.Status == model.TableMaintenance {
			return nil, Conflict("table %s is under maintenance", table.Number)
		}
	}

	order := &model.Order{
		OrderNumber: generateNumber("ORD"),
		Items:       items,
		TotalAmount: total,
		GuestCount:  req.GuestCount,
		Status:      model.OrderPending,
		CreatedBy:   req.CreatedBy,
	}
	if table != nil {
		order.TableID = &table.ID
		order.TableNumber = table.Number
	}
	if err := s.orders.InsertOrder(ctx, slug, order); err != nil {
		return nil, Infra(err, "cannot create order")
	}

	kot := &model.KOT{
		KOTNumber:   generateNumber("KOT"),
		OrderID:     order.ID,
		TableID:     order.TableID,
		TableNumber: order.TableNumber,
		Items:       items,
		Status:      model.KOTPending,
		Priority:    priority,
	}
	if err := s.kots.InsertKOT(ctx, slug, kot); err != nil {
		return nil, Infra(err, "order created but kitchen ticket not cut")
	}

	if table != nil && table.Status != model.TableOccupied {
		if err := s.tables.SetTableStatus(ctx, slug, table.ID, model.TableOccupied); err != nil {
			return nil, Infra(err, "order created but table not occupied")
		}
	}

	monitoring.OrdersCreated.Inc()
	return order, nil
}

// UpdateOrderStatus advances the order along its progression. Completing or
// cancelling the last open order on a physical table frees the table.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, slug string, id primitive.ObjectID, next model.OrderStatus) (*model.Order, error) {
	if !next.Valid() {
		return nil, Validation("unknown order status %q", next)
	}
	order, err := s.orders.FindOrderByID(ctx, slug, id)
	if err != nil {
		return nil, Infra(err, "cannot load order")
	}
	if order == nil {
		return nil, NotFound("order %s not found", id.Hex())
	}
	if !order.Status.CanTransition(next) {
		return nil, Conflict("order %s cannot go from %s to %s", order.OrderNumber, order.Status, next)
	}

	if err := s.orders.UpdateOrderStatus(ctx, slug, id, next); err != nil {
		return nil, Infra(err, "cannot update order status")
	}
	order.Status = next

	if next == model.OrderCancelled {
		if err := s.kots.CancelOpenKOTsForOrder(ctx, slug, id); err != nil {
			return nil, Infra(err, "order cancelled but kitchen tickets not cancelled")
		}
	}

	if next.Terminal() && order.TableID != nil {
		if err := s.releaseTableIfIdle(ctx, slug, *order.TableID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// releaseTableIfIdle frees a physical table once no open orders remain on it.
// Synthetic merge-group tables are released only by explicit table
// operations.
func (s *OrderService) releaseTableIfIdle(ctx context.Context, slug string, tableID primitive.ObjectID) error {
	table, err := s.tables.FindTableByID(ctx, slug, tableID)
	if err != nil {
		return Infra(err, "cannot load table")
	}
	if table == nil || table.IsSynthetic() || table.Status != model.TableOccupied {
		return nil
	}
	remaining, err := s.orders.FindActiveOrdersByTable(ctx, slug, tableID)
	if err != nil {
		return Infra(err, "cannot check open orders")
	}
	if len(remaining) > 0 {
		return nil
	}
	if err := s.tables.SetTableStatus(ctx, slug, tableID, model.TableAvailable); err != nil {
		return Infra(err, "cannot free table")
	}
	return nil
}

// UpdateKOTStatus advances a kitchen ticket along its own progression.
func (s *OrderService) UpdateKOTStatus(ctx context.Context, slug string, id primitive.ObjectID, next model.KOTStatus) (*model.KOT, error) {
	if !next.Valid() {
		return nil, Validation("unknown KOT status %q", next)
	}
	kot, err := s.kots.FindKOTByID(ctx, slug, id)
	if err != nil {
		return nil, Infra(err, "cannot load KOT")
	}
	if kot == nil {
		return nil, NotFound("KOT %s not found", id.Hex())
	}
	if !kot.Status.CanTransition(next) {
		return nil, Conflict("KOT %s cannot go from %s to %s", kot.KOTNumber, kot.Status, next)
	}
	if err := s.kots.UpdateKOTStatus(ctx, slug, id, next); err != nil {
		return nil, Infra(err, "cannot update KOT status")
	}
	kot.Status = next
	return kot, nil
}

// generateNumber makes a short human-readable ticket number.
func generateNumber(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(suffix))
}
