package store

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// dbNamePrefix prefixes every tenant database name so tenant databases are
// recognizable next to system databases on a shared cluster.
const dbNamePrefix = "posdb_"

var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidSlug reports whether slug is a well-formed tenant identifier.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// DatabaseName derives the tenant's logical database name from its slug.
func DatabaseName(slug string) string {
	return dbNamePrefix + slug
}

// Registry is the tenant data-access provisioner. It lazily creates and
// caches, per tenant slug, the logical database handle and the schema-bound
// collection handles for every entity type. Creation is guarded by a per-slug
// lock, so concurrent first access still yields exactly one handle set.
type Registry struct {
	client *mongo.Client

	mu      sync.Mutex
	tenants map[string]*tenantHandles
}

type tenantHandles struct {
	mu          sync.Mutex
	db          *mongo.Database
	collections map[Entity]*mongo.Collection
}

// NewRegistry connects to the document store and returns an empty registry.
// The connection is shared by every tenant; tenant isolation is by database,
// never by connection.
func NewRegistry(ctx context.Context, uri string) (*Registry, error) {
	opts := options.Client().ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to document store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("cannot ping document store: %w", err)
	}
	return &Registry{
		client:  client,
		tenants: make(map[string]*tenantHandles),
	}, nil
}

// Close disconnects from the document store. Cached handles become invalid.
func (r *Registry) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *Registry) handles(slug string) (*tenantHandles, error) {
	if !ValidSlug(slug) {
		return nil, fmt.Errorf("invalid tenant slug %q", slug)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	th, ok := r.tenants[slug]
	if !ok {
		th = &tenantHandles{
			db:          r.client.Database(DatabaseName(slug)),
			collections: make(map[Entity]*mongo.Collection),
		}
		r.tenants[slug] = th
	}
	return th, nil
}

// Database returns the cached database handle for slug, creating it if
// absent. At most one handle exists per slug for the process lifetime.
func (r *Registry) Database(slug string) (*mongo.Database, error) {
	th, err := r.handles(slug)
	if err != nil {
		return nil, err
	}
	return th.db, nil
}

// Collection returns the cached handle for (slug, entity), creating it from
// the entity's descriptor if absent. Index creation runs once per process per
// handle; failures are surfaced and the handle is not cached, so the next
// caller retries provisioning.
func (r *Registry) Collection(ctx context.Context, slug string, entity Entity) (*mongo.Collection, error) {
	desc, ok := entityDescriptors[entity]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", entity)
	}
	th, err := r.handles(slug)
	if err != nil {
		return nil, err
	}

	th.mu.Lock()
	defer th.mu.Unlock()
	if col, ok := th.collections[entity]; ok {
		return col, nil
	}

	col := th.db.Collection(desc.collection)
	if len(desc.indexes) > 0 {
		if _, err := col.Indexes().CreateMany(ctx, desc.indexes); err != nil {
			return nil, fmt.Errorf("cannot ensure indexes on %s/%s: %w", DatabaseName(slug), desc.collection, err)
		}
	}
	th.collections[entity] = col
	return col, nil
}

// Provision eagerly creates every entity's collection handle and indexes for
// slug, so the tenant's storage exists immediately after registration.
// Idempotent; safe on an already-provisioned tenant.
func (r *Registry) Provision(ctx context.Context, slug string) error {
	for _, entity := range Entities() {
		if _, err := r.Collection(ctx, slug, entity); err != nil {
			return fmt.Errorf("provisioning %s for tenant %s: %w", entity, slug, err)
		}
	}
	log.Debug().Str("tenant", slug).Msg("Tenant storage provisioned")
	return nil
}

// Client exposes the underlying connection for session-bound transactions.
func (r *Registry) Client() *mongo.Client {
	return r.client
}
