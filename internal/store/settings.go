package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shinepos/pos-backend/internal/model"
)

const flagCacheTTL = 5 * time.Minute

// SettingsStore reads per-tenant feature flags through a short-lived cache.
// The flags document lives in the tenant database; the cache only shields the
// hot read path and is invalidated on every write.
type SettingsStore struct {
	data  *TenantData
	cache RedisClient
}

func NewSettingsStore(data *TenantData, cache RedisClient) *SettingsStore {
	return &SettingsStore{data: data, cache: cache}
}

func flagCacheKey(slug string) string {
	return fmt.Sprintf("flags:%s", slug)
}

func (s *SettingsStore) collection(ctx context.Context, slug string) (*mongo.Collection, error) {
	return s.data.reg.Collection(ctx, slug, EntitySettings)
}

// Flags returns the tenant's feature flags, from cache when fresh.
func (s *SettingsStore) Flags(ctx context.Context, slug string) (map[string]bool, error) {
	key := flagCacheKey(slug)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			var flags map[string]bool
			if err := json.Unmarshal([]byte(cached), &flags); err == nil {
				return flags, nil
			}
		}
	}

	col, err := s.collection(ctx, slug)
	if err != nil {
		return nil, err
	}
	var doc model.Settings
	err = col.FindOne(ctx, bson.M{}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		doc.Flags = map[string]bool{}
	} else if err != nil {
		return nil, fmt.Errorf("cannot read settings: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(doc.Flags); err == nil {
			s.cache.SetEx(ctx, key, data, flagCacheTTL)
		}
	}
	return doc.Flags, nil
}

// SetFlag upserts one flag and invalidates the cache.
func (s *SettingsStore) SetFlag(ctx context.Context, slug, name string, value bool) error {
	col, err := s.collection(ctx, slug)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"flags." + name: value,
		"updated_at":    time.Now(),
	}}
	_, err = col.UpdateOne(ctx, bson.M{}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot set flag %s: %w", name, err)
	}
	if s.cache != nil {
		s.cache.Del(ctx, flagCacheKey(slug))
	}
	return nil
}
