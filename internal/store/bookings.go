package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shinepos/pos-backend/internal/model"
)

func (d *TenantData) bookings(ctx context.Context, slug string) (*mongo.Collection, error) {
	return d.reg.Collection(ctx, slug, EntityTableBookings)
}

func (d *TenantData) InsertBooking(ctx context.Context, slug string, b *model.TableBooking) error {
	col, err := d.bookings(ctx, slug)
	if err != nil {
		return err
	}
	b.CreatedAt = time.Now()
	res, err := col.InsertOne(ctx, b)
	if err != nil {
		return fmt.Errorf("cannot insert booking: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		b.ID = id
	}
	return nil
}

func (d *TenantData) FindBookingByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.TableBooking, error) {
	col, err := d.bookings(ctx, slug)
	if err != nil {
		return nil, err
	}
	var b model.TableBooking
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot find booking: %w", err)
	}
	return &b, nil
}

func (d *TenantData) SetBookingStatus(ctx context.Context, slug string, id primitive.ObjectID, status string) error {
	col, err := d.bookings(ctx, slug)
	if err != nil {
		return err
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("cannot update booking status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking %s not matched", id.Hex())
	}
	return nil
}
