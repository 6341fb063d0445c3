package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a row in the control-plane restaurant registry. Each
// tenant owns one logical document database on the data plane, derived from
// its slug. Slugs are immutable once assigned.
type Tenant struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	ContactEmail   string     `json:"-"` // plaintext, transient
	EncryptedEmail []byte     `json:"-"`
	EmailIV        []byte     `json:"-"`
	Plan           string     `json:"plan"`
	Status         string     `json:"status"`
	Provisioned    bool       `json:"provisioned"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Tenant registry statuses.
const (
	TenantStatusProvisioning = "provisioning"
	TenantStatusActive       = "active"
	TenantStatusSuspended    = "suspended"
	TenantStatusError        = "error"
)

// ProvisioningLog records one step of a tenant's data-plane provisioning run.
type ProvisioningLog struct {
	ID        int64     `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Step      string    `json:"step"`
	Status    string    `json:"status"`
	Details   []byte    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
