package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shinepos/pos-backend/internal/model"
)

func newOrderService(data *fakeData) *OrderService {
	return NewOrderService(OrderServiceDeps{
		Tables:    data,
		Orders:    data,
		KOTs:      data,
		Publisher: &mockPublisher{},
	})
}

func orderItems() []OrderItemInput {
	return []OrderItemInput{
		{MenuItemID: primitive.NewObjectID(), Name: "Margherita", Quantity: 2, Price: 9.5},
		{MenuItemID: primitive.NewObjectID(), Name: "Cola", Quantity: 1, Price: 2.0},
	}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newOrderService(data)

	table := seedTable(t, data, "T1", 4, model.TableAvailable)

	order, err := svc.CreateOrder(ctx, testSlug, CreateOrderRequest{
		TableID:    &table.ID,
		GuestCount: 3,
		Items:      orderItems(),
		CreatedBy:  "waiter-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))
	assert.Equal(t, 21.0, order.TotalAmount)
	assert.Equal(t, "T1", order.TableNumber)

	// Ordering seats the party.
	got, _ := data.FindTableByID(ctx, testSlug, table.ID)
	assert.Equal(t, model.TableOccupied, got.Status)

	// The first kitchen ticket is cut with the order.
	kots, err := data.FindKOTsByOrder(ctx, testSlug, order.ID)
	require.NoError(t, err)
	require.Len(t, kots, 1)
	assert.Equal(t, model.KOTPending, kots[0].Status)
	assert.Equal(t, model.KOTPriorityNormal, kots[0].Priority)
	assert.Equal(t, "T1", kots[0].TableNumber)
}

func TestCreateOrderWithoutTable(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newOrderService(data)

	order, err := svc.CreateOrder(ctx, testSlug, CreateOrderRequest{Items: orderItems()})
	require.NoError(t, err)
	assert.Nil(t, order.TableID)
	assert.Empty(t, order.TableNumber)
}

func TestCreateOrderOnMaintenanceTable(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newOrderService(data)

	table := seedTable(t, data, "T1", 4, model.TableMaintenance)

	_, err := svc.CreateOrder(ctx, testSlug, CreateOrderRequest{TableID: &table.ID, Items: orderItems()})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(newFakeData())

	tests := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"no items", CreateOrderRequest{}},
		{"unnamed item", CreateOrderRequest{Items: []OrderItemInput{{Quantity: 1}}}},
		{"zero quantity", CreateOrderRequest{Items: []OrderItemInput{{Name: "Cola", Quantity: 0}}}},
		{"negative price", CreateOrderRequest{Items: []OrderItemInput{{Name: "Cola", Quantity: 1, Price: -1}}}},
		{"bad priority", CreateOrderRequest{Items: orderItems(), Priority: 7}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, testSlug, tc.req)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestUpdateOrderStatusProgression(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newOrderService(data)

	table := seedTable(t, data, "T1", 4, model.TableAvailable)
	order, err := svc.CreateOrder(ctx, testSlug, CreateOrderRequest{TableID: &table.ID, Items: orderItems()})
	require.NoError(t, err)

	for _, next := range []model.OrderStatus{
		model.OrderAccepted, model.OrderPreparing, model.OrderReady, model.OrderServed, model.OrderComplete,
	} {
		got, err := svc.UpdateOrderStatus(ctx, testSlug, order.ID, next)
		require.NoError(t, err, "transition to %s", next)
		assert.Equal(t, next, got.Status)
	}

	// Completing the only order frees the table.
	freed, _ := data.FindTableByID(ctx, testSlug, table.ID)
	assert.Equal(t, model.TableAvailable, freed.Status)

	// Terminal orders cannot move again.
	_, err = svc.UpdateOrderStatus(ctx, testSlug, order.ID, model.OrderCancelled)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestUpdateOrderStatusRejectsSkips(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newOrderService(data)

	order, err := svc.CreateOrder(ctx, testSlug, CreateOrderRequest{Items: orderItems()})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, testSlug, order.ID, model.OrderReady)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCancelOrderCancelsOpenKOTs(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newOrderService(data)

	table := seedTable(t, data, "T1", 4, model.TableAvailable)
	order, err := svc.CreateOrder(ctx, testSlug, CreateOrderRequest{TableID: &table.ID, Items: orderItems()})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, testSlug, order.ID, model.OrderCancelled)
	require.NoError(t, err)

	kots, err := data.FindKOTsByOrder(ctx, testSlug, order.ID)
	require.NoError(t, err)
	require.Len(t, kots, 1)
	assert.Equal(t, model.KOTCancelled, kots[0].Status)

	freed, _ := data.FindTableByID(ctx, testSlug, table.ID)
	assert.Equal(t, model.TableAvailable, freed.Status)
}

func TestTableStaysOccupiedWithOtherOpenOrders(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newOrderService(data)

	table := seedTable(t, data, "T1", 6, model.TableAvailable)
	first, err := svc.CreateOrder(ctx, testSlug, CreateOrderRequest{TableID: &table.ID, Items: orderItems()})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, testSlug, CreateOrderRequest{TableID: &table.ID, Items: orderItems()})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, testSlug, first.ID, model.OrderCancelled)
	require.NoError(t, err)

	got, _ := data.FindTableByID(ctx, testSlug, table.ID)
	assert.Equal(t, model.TableOccupied, got.Status)
}

func TestSyntheticTableNotAutoReleased(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	tables := newTableService(data)
	svc := newOrderService(data)

	t1 := seedTable(t, data, "T1", 2, model.TableAvailable)
	t2 := seedTable(t, data, "T2", 4, model.TableAvailable)
	group, err := tables.MergeTables(ctx, testSlug, []primitive.ObjectID{t1.ID, t2.ID}, 4)
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, testSlug, CreateOrderRequest{TableID: &group.ID, Items: orderItems()})
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, testSlug, order.ID, model.OrderCancelled)
	require.NoError(t, err)

	got, _ := data.FindTableByID(ctx, testSlug, group.ID)
	assert.Equal(t, model.TableOccupied, got.Status)
}

func TestUpdateKOTStatus(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newOrderService(data)

	order, err := svc.CreateOrder(ctx, testSlug, CreateOrderRequest{Items: orderItems()})
	require.NoError(t, err)
	kots, err := data.FindKOTsByOrder(ctx, testSlug, order.ID)
	require.NoError(t, err)
	require.Len(t, kots, 1)
	id := kots[0].ID

	got, err := svc.UpdateKOTStatus(ctx, testSlug, id, model.KOTInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.KOTInProgress, got.Status)

	got, err = svc.UpdateKOTStatus(ctx, testSlug, id, model.KOTCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.KOTCompleted, got.Status)

	_, err = svc.UpdateKOTStatus(ctx, testSlug, id, model.KOTCancelled)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = svc.UpdateKOTStatus(ctx, testSlug, primitive.NewObjectID(), model.KOTInProgress)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestReserveTable(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newTableService(data)

	table := seedTable(t, data, "T1", 4, model.TableAvailable)
	now := time.Now()

	booking, err := svc.ReserveTable(ctx, testSlug, ReserveTableRequest{
		TableID:      table.ID,
		CustomerName: "Ada",
		GuestCount:   3,
		StartsAt:     now,
		EndsAt:       now.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingBooked, booking.Status)
	assert.Equal(t, "T1", booking.TableNumber)

	got, _ := data.FindTableByID(ctx, testSlug, table.ID)
	assert.Equal(t, model.TableReserved, got.Status)

	// The table is no longer bookable.
	_, err = svc.ReserveTable(ctx, testSlug, ReserveTableRequest{
		TableID:      table.ID,
		CustomerName: "Grace",
		GuestCount:   2,
		StartsAt:     now,
		EndsAt:       now.Add(time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestReserveTableOverCapacity(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newTableService(data)

	table := seedTable(t, data, "T1", 2, model.TableAvailable)
	now := time.Now()

	_, err := svc.ReserveTable(ctx, testSlug, ReserveTableRequest{
		TableID:      table.ID,
		CustomerName: "Ada",
		GuestCount:   5,
		StartsAt:     now,
		EndsAt:       now.Add(time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	data := newFakeData()
	svc := newTableService(data)

	table := seedTable(t, data, "T1", 4, model.TableAvailable)
	now := time.Now()
	booking, err := svc.ReserveTable(ctx, testSlug, ReserveTableRequest{
		TableID:      table.ID,
		CustomerName: "Ada",
		GuestCount:   2,
		StartsAt:     now,
		EndsAt:       now.Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelBooking(ctx, testSlug, booking.ID))

	got, _ := data.FindBookingByID(ctx, testSlug, booking.ID)
	assert.Equal(t, model.BookingCancelled, got.Status)
	freed, _ := data.FindTableByID(ctx, testSlug, table.ID)
	assert.Equal(t, model.TableAvailable, freed.Status)

	// Cancelling twice conflicts.
	err = svc.CancelBooking(ctx, testSlug, booking.ID)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestGenerateNumberFormat(t *testing.T) {
	n := generateNumber("ORD")
	assert.True(t, strings.HasPrefix(n, "ORD-"))
	assert.Len(t, n, len("ORD-")+8)
	assert.NotEqual(t, n, generateNumber("ORD"))
}
