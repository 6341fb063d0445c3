package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shinepos/pos-backend/internal/model"
)

func (d *TenantData) orders(ctx context.Context, slug string) (*mongo.Collection, error) {
	return d.reg.Collection(ctx, slug, EntityOrders)
}

func (d *TenantData) InsertOrder(ctx context.Context, slug string, o *model.Order) error {
	col, err := d.orders(ctx, slug)
	if err != nil {
		return err
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	res, err := col.InsertOne(ctx, o)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("cannot insert order: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = id
	}
	return nil
}

func (d *TenantData) FindOrderByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.Order, error) {
	col, err := d.orders(ctx, slug)
	if err != nil {
		return nil, err
	}
	var o model.Order
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot find order: %w", err)
	}
	return &o, nil
}

func (d *TenantData) UpdateOrderStatus(ctx context.Context, slug string, id primitive.ObjectID, status model.OrderStatus) error {
	col, err := d.orders(ctx, slug)
	if err != nil {
		return err
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("cannot update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("order %s not matched", id.Hex())
	}
	return nil
}

// SetOrderTable rewrites the order's table snapshot fields.
func (d *TenantData) SetOrderTable(ctx context.Context, slug string, id, tableID primitive.ObjectID, tableNumber string) error {
	col, err := d.orders(ctx, slug)
	if err != nil {
		return err
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"table_id":     tableID,
		"table_number": tableNumber,
		"updated_at":   time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("cannot move order: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("order %s not matched", id.Hex())
	}
	return nil
}

// FindActiveOrdersByTable returns every non-terminal order currently assigned
// to the table.
func (d *TenantData) FindActiveOrdersByTable(ctx context.Context, slug string, tableID primitive.ObjectID) ([]model.Order, error) {
	col, err := d.orders(ctx, slug)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		"table_id": tableID,
		"status":   bson.M{"$nin": bson.A{model.OrderComplete, model.OrderCancelled}},
	}
	cursor, err := col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("cannot find active orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []model.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("cannot decode active orders: %w", err)
	}
	return orders, nil
}
