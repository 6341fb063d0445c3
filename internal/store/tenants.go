package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/shinepos/pos-backend/internal/crypto"
	"github.com/shinepos/pos-backend/internal/model"
)

const tenantCacheTTL = 1 * time.Hour

// RedisClient is the subset of redis.Client the store needs; tests substitute
// their own implementation.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// TenantStore is the control-plane restaurant registry, backed by the
// relational registry database with a read-through cache on the slug lookup
// (the per-request hot path).
type TenantStore struct {
	db    *sql.DB
	cache RedisClient
}

// NewTenantStore opens the registry database and verifies connectivity.
func NewTenantStore(dsn string, cache RedisClient) (*TenantStore, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot parse registry DSN: %w", err)
	}
	db := stdlib.OpenDB(*config)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("cannot reach registry database: %w", err)
	}
	return &TenantStore{db: db, cache: cache}, nil
}

// Close closes the registry database and cache connections.
func (s *TenantStore) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	return s.db.Close()
}

func tenantCacheKey(slug string) string {
	return fmt.Sprintf("tenant:slug:%s", slug)
}

// Create inserts a new tenant row. The contact email is encrypted at rest.
func (s *TenantStore) Create(ctx context.Context, tenant *model.Tenant) error {
	if tenant.ContactEmail != "" {
		encrypted, iv, err := crypto.Encrypt(tenant.ContactEmail)
		if err != nil {
			return err
		}
		tenant.EncryptedEmail = encrypted
		tenant.EmailIV = iv
	}

	tenant.ID = uuid.New()
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = tenant.CreatedAt

	query := `
		INSERT INTO tenants (id, name, slug, encrypted_email, email_iv, plan, status, provisioned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		tenant.ID, tenant.Name, tenant.Slug, tenant.EncryptedEmail, tenant.EmailIV,
		tenant.Plan, tenant.Status, tenant.Provisioned, tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Del(ctx, tenantCacheKey(tenant.Slug))
	}
	return nil
}

func (s *TenantStore) scanTenant(row *sql.Row) (*model.Tenant, error) {
	tenant := &model.Tenant{}
	err := row.Scan(
		&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.EncryptedEmail, &tenant.EmailIV,
		&tenant.Plan, &tenant.Status, &tenant.Provisioned,
		&tenant.CreatedAt, &tenant.UpdatedAt, &tenant.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(tenant.EncryptedEmail) > 0 && len(tenant.EmailIV) > 0 {
		email, err := crypto.Decrypt(tenant.EncryptedEmail, tenant.EmailIV)
		if err != nil {
			return nil, err
		}
		tenant.ContactEmail = email
	}
	return tenant, nil
}

// GetByID retrieves a tenant by registry id.
func (s *TenantStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	query := `
		SELECT id, name, slug, encrypted_email, email_iv, plan, status, provisioned, created_at, updated_at, deleted_at
		FROM tenants WHERE id = $1 AND deleted_at IS NULL
	`
	return s.scanTenant(s.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves a tenant by slug, consulting the cache first.
func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	key := tenantCacheKey(slug)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			tenant := &model.Tenant{}
			if err := json.Unmarshal([]byte(cached), tenant); err == nil {
				return tenant, nil
			}
		}
	}

	query := `
		SELECT id, name, slug, encrypted_email, email_iv, plan, status, provisioned, created_at, updated_at, deleted_at
		FROM tenants WHERE slug = $1 AND deleted_at IS NULL
	`
	tenant, err := s.scanTenant(s.db.QueryRowContext(ctx, query, slug))
	if err != nil || tenant == nil {
		return tenant, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(tenant); err == nil {
			s.cache.SetEx(ctx, key, data, tenantCacheTTL)
		}
	}
	return tenant, nil
}

// Update rewrites the mutable registry fields. The slug is immutable and is
// used only to address the row.
func (s *TenantStore) Update(ctx context.Context, tenant *model.Tenant) error {
	if tenant.ContactEmail != "" {
		encrypted, iv, err := crypto.Encrypt(tenant.ContactEmail)
		if err != nil {
			return err
		}
		tenant.EncryptedEmail = encrypted
		tenant.EmailIV = iv
	}

	query := `
		UPDATE tenants
		SET name = $2, encrypted_email = $3, email_iv = $4, plan = $5, status = $6, provisioned = $7, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		tenant.ID, tenant.Name, tenant.EncryptedEmail, tenant.EmailIV,
		tenant.Plan, tenant.Status, tenant.Provisioned,
	).Scan(&tenant.UpdatedAt)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Del(ctx, tenantCacheKey(tenant.Slug))
	}
	return nil
}

// Delete soft-deletes a tenant. The tenant's document database is left in
// place; only the registry row is retired.
func (s *TenantStore) Delete(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tenant == nil {
		return sql.ErrNoRows
	}

	query := `
		UPDATE tenants
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	if s.cache != nil {
		s.cache.Del(ctx, tenantCacheKey(tenant.Slug))
	}
	return nil
}

// CreateProvisioningLog records one provisioning step for audit.
func (s *TenantStore) CreateProvisioningLog(ctx context.Context, tenantID uuid.UUID, step, status string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tenant_provisioning_logs (tenant_id, step, status, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query, tenantID, step, status, detailsJSON, time.Now())
	return err
}
