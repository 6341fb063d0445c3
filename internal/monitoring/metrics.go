package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	TenantsProvisioned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_tenants_provisioned_total",
			Help: "Total number of tenants provisioned by outcome",
		},
		[]string{"status"},
	)
	ProvisioningDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pos_tenant_provisioning_duration_seconds",
			Help:    "Duration of tenant data-plane provisioning in seconds",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
	)
	TableOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_table_operations_total",
			Help: "Table lifecycle operations by kind and outcome",
		},
		[]string{"operation", "result"},
	)
	OrdersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_orders_created_total",
			Help: "Total number of orders created",
		},
	)
)

func InitMetrics() {
	for _, c := range []prometheus.Collector{
		TenantsProvisioned, ProvisioningDuration, TableOperations, OrdersCreated,
	} {
		if err := prometheus.Register(c); err != nil {
			log.Error().Err(err).Msg("Failed to register metric")
		}
	}
}
