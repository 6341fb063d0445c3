package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shinepos/pos-backend/internal/model"
	"github.com/shinepos/pos-backend/internal/monitoring"
	"github.com/shinepos/pos-backend/internal/store"
)

const provisionTimeout = 30 * time.Second

// ProvisioningService creates tenant data-plane storage in the background so
// registration returns immediately. The registry row tracks progress.
type ProvisioningService struct {
	registry    TenantRegistry
	provisioner Provisioner
	queue       chan *model.Tenant
}

func NewProvisioningService(registry TenantRegistry, provisioner Provisioner) *ProvisioningService {
	ps := &ProvisioningService{
		registry:    registry,
		provisioner: provisioner,
		queue:       make(chan *model.Tenant, 10),
	}
	go ps.worker()
	return ps
}

func (ps *ProvisioningService) worker() {
	for tenant := range ps.queue {
		log.Info().Str("tenant", tenant.Slug).Msg("Starting provisioning")
		if err := ps.provision(tenant); err != nil {
			log.Error().Err(err).Str("tenant", tenant.Slug).Msg("Provisioning failed")
		}
	}
}

func (ps *ProvisioningService) provision(tenant *model.Tenant) error {
	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer cancel()

	if err := ps.registry.CreateProvisioningLog(ctx, tenant.ID, "init", "pending", nil); err != nil {
		return err
	}

	start := time.Now()
	err := ps.provisioner.Provision(ctx, tenant.Slug)
	monitoring.ProvisioningDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		_ = ps.registry.CreateProvisioningLog(ctx, tenant.ID, "storage_setup", "failed",
			map[string]interface{}{"error": err.Error()})
		tenant.Status = model.TenantStatusError
		if uerr := ps.registry.Update(ctx, tenant); uerr != nil {
			log.Error().Err(uerr).Str("tenant", tenant.Slug).Msg("Failed to record provisioning error")
		}
		monitoring.TenantsProvisioned.WithLabelValues("error").Inc()
		monitoring.Alert("tenant provisioning failed", map[string]string{"tenant": tenant.Slug})
		return err
	}

	if err := ps.registry.CreateProvisioningLog(ctx, tenant.ID, "storage_setup", "success",
		map[string]interface{}{"database": store.DatabaseName(tenant.Slug)}); err != nil {
		return err
	}
	tenant.Status = model.TenantStatusActive
	tenant.Provisioned = true
	if err := ps.registry.Update(ctx, tenant); err != nil {
		return err
	}
	monitoring.TenantsProvisioned.WithLabelValues("success").Inc()
	return nil
}

// QueueForProvisioning adds a tenant to the provisioning queue.
func (ps *ProvisioningService) QueueForProvisioning(tenant *model.Tenant) {
	ps.queue <- tenant
}

// Stop closes the queue; the worker drains it and exits.
func (ps *ProvisioningService) Stop() {
	close(ps.queue)
}
