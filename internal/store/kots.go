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

func (d *TenantData) kots(ctx context.Context, slug string) (*mongo.Collection, error) {
	return d.reg.Collection(ctx, slug, EntityKOTs)
}

func (d *TenantData) InsertKOT(ctx context.Context, slug string, k *model.KOT) error {
	col, err := d.kots(ctx, slug)
	if err != nil {
		return err
	}
	now := time.Now()
	k.CreatedAt = now
	k.UpdatedAt = now
	res, err := col.InsertOne(ctx, k)
	if err != nil {
		return fmt.Errorf("cannot insert KOT: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		k.ID = id
	}
	return nil
}

func (d *TenantData) FindKOTByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.KOT, error) {
	col, err := d.kots(ctx, slug)
	if err != nil {
		return nil, err
	}
	var k model.KOT
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&k)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot find KOT: %w", err)
	}
	return &k, nil
}

func (d *TenantData) FindKOTsByOrder(ctx context.Context, slug string, orderID primitive.ObjectID) ([]model.KOT, error) {
	col, err := d.kots(ctx, slug)
	if err != nil {
		return nil, err
	}
	cursor, err := col.Find(ctx, bson.M{"order_id": orderID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("cannot find KOTs for order: %w", err)
	}
	defer cursor.Close(ctx)

	var kots []model.KOT
	if err := cursor.All(ctx, &kots); err != nil {
		return nil, fmt.Errorf("cannot decode KOTs: %w", err)
	}
	return kots, nil
}

func (d *TenantData) UpdateKOTStatus(ctx context.Context, slug string, id primitive.ObjectID, status model.KOTStatus) error {
	col, err := d.kots(ctx, slug)
	if err != nil {
		return err
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("cannot update KOT status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("KOT %s not matched", id.Hex())
	}
	return nil
}

// SetKOTTableForOrder rewrites the table snapshot fields on every KOT of one
// order, keeping kitchen tickets consistent with the order's table move.
func (d *TenantData) SetKOTTableForOrder(ctx context.Context, slug string, orderID, tableID primitive.ObjectID, tableNumber string) error {
	col, err := d.kots(ctx, slug)
	if err != nil {
		return err
	}
	_, err = col.UpdateMany(ctx, bson.M{"order_id": orderID}, bson.M{"$set": bson.M{
		"table_id":     tableID,
		"table_number": tableNumber,
		"updated_at":   time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("cannot move KOTs for order: %w", err)
	}
	return nil
}

// RepointKOTs rewrites the table snapshot on every KOT that references one of
// the given orders or the old table directly. Used by merge-group replacement
// inside its transaction.
func (d *TenantData) RepointKOTs(ctx context.Context, slug string, orderIDs []primitive.ObjectID, oldTableID, newTableID primitive.ObjectID, newTableNumber string) error {
	col, err := d.kots(ctx, slug)
	if err != nil {
		return err
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"order_id": bson.M{"$in": orderIDs}},
		bson.M{"table_id": oldTableID},
	}}
	_, err = col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"table_id":     newTableID,
		"table_number": newTableNumber,
		"updated_at":   time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("cannot repoint KOTs: %w", err)
	}
	return nil
}

// CancelOpenKOTsForOrder cancels every non-terminal KOT of an order, used
// when the order itself is cancelled.
func (d *TenantData) CancelOpenKOTsForOrder(ctx context.Context, slug string, orderID primitive.ObjectID) error {
	col, err := d.kots(ctx, slug)
	if err != nil {
		return err
	}
	filter := bson.M{
		"order_id": orderID,
		"status":   bson.M{"$nin": bson.A{model.KOTCompleted, model.KOTCancelled}},
	}
	_, err = col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"status":     model.KOTCancelled,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("cannot cancel KOTs for order: %w", err)
	}
	return nil
}
