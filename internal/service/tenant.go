package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shinepos/pos-backend/internal/model"
	"github.com/shinepos/pos-backend/internal/store"
)

// Subscription plans.
const (
	PlanBasic    = "basic"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// ProvisioningQueue accepts tenants for background data-plane provisioning.
type ProvisioningQueue interface {
	QueueForProvisioning(tenant *model.Tenant)
}

// TenantService handles restaurant onboarding and registry management.
type TenantService struct {
	registry TenantRegistry
	queue    ProvisioningQueue
}

func NewTenantService(registry TenantRegistry, queue ProvisioningQueue) *TenantService {
	return &TenantService{registry: registry, queue: queue}
}

// RegisterRestaurantRequest onboards a new restaurant.
type RegisterRestaurantRequest struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ContactEmail string `json:"contact_email"`
	Plan         string `json:"plan"`
}

// RegisterRestaurant creates the registry record and queues the tenant's
// data-plane storage for provisioning. The slug is immutable afterwards.
func (s *TenantService) RegisterRestaurant(ctx context.Context, req RegisterRestaurantRequest) (*model.Tenant, error) {
	if err := validateRegisterRequest(&req); err != nil {
		return nil, err
	}

	existing, err := s.registry.GetBySlug(ctx, req.Slug)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check slug uniqueness")
		return nil, Infra(err, "cannot check slug uniqueness")
	}
	if existing != nil {
		return nil, Conflict("slug %s already taken", req.Slug)
	}

	tenant := &model.Tenant{
		Name:         req.Name,
		Slug:         req.Slug,
		ContactEmail: req.ContactEmail,
		Plan:         req.Plan,
		Status:       model.TenantStatusProvisioning,
	}
	if err := s.registry.Create(ctx, tenant); err != nil {
		log.Error().Err(err).Msg("Failed to create tenant")
		return nil, Infra(err, "cannot create tenant")
	}

	if s.queue != nil {
		s.queue.QueueForProvisioning(tenant)
	}
	return tenant, nil
}

// GetRestaurant retrieves a tenant by slug.
func (s *TenantService) GetRestaurant(ctx context.Context, slug string) (*model.Tenant, error) {
	tenant, err := s.registry.GetBySlug(ctx, slug)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get tenant")
		return nil, Infra(err, "cannot load tenant")
	}
	if tenant == nil {
		return nil, NotFound("restaurant %s not found", slug)
	}
	return tenant, nil
}

// RequireActive resolves a slug to an active tenant, the guard every
// tenant-scoped request goes through.
func (s *TenantService) RequireActive(ctx context.Context, slug string) (*model.Tenant, error) {
	tenant, err := s.GetRestaurant(ctx, slug)
	if err != nil {
		return nil, err
	}
	if tenant.Status == model.TenantStatusSuspended {
		return nil, Conflict("restaurant %s is suspended", slug)
	}
	return tenant, nil
}

// UpdateRestaurantRequest mutates registry fields. The slug never changes.
type UpdateRestaurantRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	Plan         string `json:"plan"`
	Status       string `json:"status"`
}

// UpdateRestaurant rewrites the mutable registry fields of a tenant.
func (s *TenantService) UpdateRestaurant(ctx context.Context, id uuid.UUID, req UpdateRestaurantRequest) (*model.Tenant, error) {
	tenant, err := s.registry.GetByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get tenant")
		return nil, Infra(err, "cannot load tenant")
	}
	if tenant == nil {
		return nil, NotFound("restaurant %s not found", id)
	}

	if req.Name == "" {
		return nil, Validation("name is required")
	}
	if !validPlan(req.Plan) {
		return nil, Validation("unknown plan %q", req.Plan)
	}
	if !validTenantStatus(req.Status) {
		return nil, Validation("unknown status %q", req.Status)
	}
	if req.ContactEmail != "" && !isValidEmail(req.ContactEmail) {
		return nil, Validation("invalid email format")
	}

	tenant.Name = req.Name
	tenant.ContactEmail = req.ContactEmail
	tenant.Plan = req.Plan
	tenant.Status = req.Status
	if err := s.registry.Update(ctx, tenant); err != nil {
		log.Error().Err(err).Msg("Failed to update tenant")
		return nil, Infra(err, "cannot update tenant")
	}
	return tenant, nil
}

// DeleteRestaurant soft-deletes a tenant's registry record.
func (s *TenantService) DeleteRestaurant(ctx context.Context, id uuid.UUID) error {
	if err := s.registry.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFound("restaurant %s not found", id)
		}
		log.Error().Err(err).Msg("Failed to delete tenant")
		return Infra(err, "cannot delete tenant")
	}
	return nil
}

func validateRegisterRequest(req *RegisterRestaurantRequest) error {
	if req.Name == "" {
		return Validation("name is required")
	}
	if req.Slug == "" {
		return Validation("slug is required")
	}
	if !store.ValidSlug(req.Slug) {
		return Validation("invalid slug format")
	}
	if req.ContactEmail == "" {
		return Validation("contact email is required")
	}
	if !isValidEmail(req.ContactEmail) {
		return Validation("invalid email format")
	}
	if req.Plan == "" {
		req.Plan = PlanBasic
	}
	if !validPlan(req.Plan) {
		return Validation("unknown plan %q", req.Plan)
	}
	return nil
}

func validPlan(plan string) bool {
	return plan == PlanBasic || plan == PlanStandard || plan == PlanPremium
}

func validTenantStatus(status string) bool {
	switch status {
	case model.TenantStatusActive, model.TenantStatusProvisioning,
		model.TenantStatusSuspended, model.TenantStatusError:
		return true
	}
	return false
}

func isValidEmail(email string) bool {
	if len(email) < 3 || !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return false
	}
	return true
}
