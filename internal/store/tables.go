package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shinepos/pos-backend/internal/model"
)

// ErrDuplicateKey is returned when an insert violates a unique index, e.g. a
// table number already taken within the tenant.
var ErrDuplicateKey = errors.New("duplicate key")

// TenantData exposes tenant-scoped document operations on top of the
// provisioning registry. Every method resolves its collection handle through
// the registry, so first access provisions lazily.
type TenantData struct {
	reg *Registry
}

func NewTenantData(reg *Registry) *TenantData {
	return &TenantData{reg: reg}
}

// WithTransaction runs fn inside a multi-document transaction. Writes issued
// through the ctx handed to fn join the transaction; on error the whole
// transaction aborts and no partial state becomes visible.
func (d *TenantData) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := d.reg.Client().StartSession()
	if err != nil {
		return fmt.Errorf("cannot start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (d *TenantData) tables(ctx context.Context, slug string) (*mongo.Collection, error) {
	return d.reg.Collection(ctx, slug, EntityTables)
}

func (d *TenantData) InsertTable(ctx context.Context, slug string, t *model.Table) error {
	col, err := d.tables(ctx, slug)
	if err != nil {
		return err
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	res, err := col.InsertOne(ctx, t)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("cannot insert table: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = id
	}
	return nil
}

func (d *TenantData) FindTableByID(ctx context.Context, slug string, id primitive.ObjectID) (*model.Table, error) {
	col, err := d.tables(ctx, slug)
	if err != nil {
		return nil, err
	}
	var t model.Table
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot find table: %w", err)
	}
	return &t, nil
}

func (d *TenantData) FindTableByNumber(ctx context.Context, slug, number string) (*model.Table, error) {
	col, err := d.tables(ctx, slug)
	if err != nil {
		return nil, err
	}
	var t model.Table
	err = col.FindOne(ctx, bson.M{"number": number}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot find table by number: %w", err)
	}
	return &t, nil
}

func (d *TenantData) ListTables(ctx context.Context, slug string) ([]model.Table, error) {
	col, err := d.tables(ctx, slug)
	if err != nil {
		return nil, err
	}
	cursor, err := col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}
	defer cursor.Close(ctx)

	var tables []model.Table
	if err := cursor.All(ctx, &tables); err != nil {
		return nil, fmt.Errorf("cannot decode tables: %w", err)
	}
	return tables, nil
}

func (d *TenantData) SetTableStatus(ctx context.Context, slug string, id primitive.ObjectID, status model.TableStatus) error {
	col, err := d.tables(ctx, slug)
	if err != nil {
		return err
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("cannot update table status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("table %s not matched", id.Hex())
	}
	return nil
}

// FindActiveMergeGroupFor returns the non-maintenance synthetic table whose
// member list contains memberID, or nil when the table is not part of any
// active merge group.
func (d *TenantData) FindActiveMergeGroupFor(ctx context.Context, slug string, memberID primitive.ObjectID) (*model.Table, error) {
	col, err := d.tables(ctx, slug)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		"number":      bson.M{"$regex": "^" + model.MergeNumberPrefix},
		"status":      bson.M{"$ne": model.TableMaintenance},
		"merged_with": memberID,
	}
	var t model.Table
	err = col.FindOne(ctx, filter).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot find merge group: %w", err)
	}
	return &t, nil
}

// FindReplacementCandidates returns available, active, physical tables with
// at least minCapacity seats, excluding the given ids, ordered by ascending
// capacity then table number, capped at limit.
func (d *TenantData) FindReplacementCandidates(ctx context.Context, slug string, minCapacity int, exclude []primitive.ObjectID, limit int) ([]model.Table, error) {
	col, err := d.tables(ctx, slug)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		"status":    model.TableAvailable,
		"is_active": true,
		"capacity":  bson.M{"$gte": minCapacity},
		"number":    bson.M{"$not": bson.M{"$regex": "^" + model.MergeNumberPrefix}},
	}
	if len(exclude) > 0 {
		filter["_id"] = bson.M{"$nin": exclude}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "capacity", Value: 1}, {Key: "number", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find replacement candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var tables []model.Table
	if err := cursor.All(ctx, &tables); err != nil {
		return nil, fmt.Errorf("cannot decode replacement candidates: %w", err)
	}
	return tables, nil
}

// MaxMergeSequence returns the highest numeric suffix among sequential
// synthetic table numbers (MT-001, MT-002, ...), zero when none exist.
// Randomized replacement numbers (MT-R-...) are ignored.
func (d *TenantData) MaxMergeSequence(ctx context.Context, slug string) (int, error) {
	col, err := d.tables(ctx, slug)
	if err != nil {
		return 0, err
	}
	filter := bson.M{"number": bson.M{"$regex": "^" + model.MergeNumberPrefix + "[0-9]+$"}}
	opts := options.Find().SetProjection(bson.M{"number": 1})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return 0, fmt.Errorf("cannot scan synthetic table numbers: %w", err)
	}
	defer cursor.Close(ctx)

	max := 0
	for cursor.Next(ctx) {
		var doc struct {
			Number string `bson:"number"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return 0, fmt.Errorf("cannot decode synthetic table number: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimPrefix(doc.Number, model.MergeNumberPrefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, cursor.Err()
}
