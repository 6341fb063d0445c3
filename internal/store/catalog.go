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

func (d *TenantData) categories(ctx context.Context, slug string) (*mongo.Collection, error) {
	return d.reg.Collection(ctx, slug, EntityCategories)
}

func (d *TenantData) menuItems(ctx context.Context, slug string) (*mongo.Collection, error) {
	return d.reg.Collection(ctx, slug, EntityMenuItems)
}

func (d *TenantData) InsertCategory(ctx context.Context, slug string, c *model.Category) error {
	col, err := d.categories(ctx, slug)
	if err != nil {
		return err
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := col.InsertOne(ctx, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("cannot insert category: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = id
	}
	return nil
}

func (d *TenantData) FindCategoryByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.Category, error) {
	col, err := d.categories(ctx, slug)
	if err != nil {
		return nil, err
	}
	var c model.Category
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot find category: %w", err)
	}
	return &c, nil
}

func (d *TenantData) ListCategories(ctx context.Context, slug string) ([]model.Category, error) {
	col, err := d.categories(ctx, slug)
	if err != nil {
		return nil, err
	}
	cursor, err := col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("cannot list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var categories []model.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("cannot decode categories: %w", err)
	}
	return categories, nil
}

func (d *TenantData) InsertMenuItem(ctx context.Context, slug string, m *model.MenuItem) error {
	col, err := d.menuItems(ctx, slug)
	if err != nil {
		return err
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	res, err := col.InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("cannot insert menu item: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = id
	}
	return nil
}

// ListMenuItems returns the tenant's menu, optionally restricted to one
// category.
func (d *TenantData) ListMenuItems(ctx context.Context, slug string, categoryID *primitive.ObjectID) ([]model.MenuItem, error) {
	col, err := d.menuItems(ctx, slug)
	if err != nil {
		return nil, err
	}
	filter := bson.M{}
	if categoryID != nil {
		filter["category_id"] = *categoryID
	}
	cursor, err := col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []model.MenuItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}
	return items, nil
}
