package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shinepos/pos-backend/internal/event"
	"github.com/shinepos/pos-backend/internal/httpapi"
	"github.com/shinepos/pos-backend/internal/monitoring"
	"github.com/shinepos/pos-backend/internal/service"
	"github.com/shinepos/pos-backend/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		port      = flag.Int("port", 8080, "HTTP port")
		dbHost    = flag.String("db-host", "localhost", "Registry database host")
		dbPort    = flag.Int("db-port", 5432, "Registry database port")
		dbUser    = flag.String("db-user", "admin", "Registry database user")
		dbPass    = flag.String("db-pass", "securepassword", "Registry database password")
		dbName    = flag.String("db-name", "pos_registry", "Registry database name")
		mongoURI  = flag.String("mongo-uri", "mongodb://localhost:27017", "Document store URI")
		redisAddr = flag.String("redis-addr", "localhost:6379", "Redis address")
		natsURL   = flag.String("nats-url", "", "NATS URL for lifecycle events (empty disables)")
	)
	flag.Parse()

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		*dbHost, *dbPort, *dbUser, *dbPass, *dbName)

	cache := redis.NewClient(&redis.Options{Addr: *redisAddr})

	tenants, err := store.NewTenantStore(dsn, cache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to registry database")
	}
	defer tenants.Close()

	ctx := context.Background()
	registry, err := store.NewRegistry(ctx, *mongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to document store")
	}
	defer registry.Close(ctx)

	var publisher event.Publisher
	if *natsURL != "" {
		nats, err := event.NewNATSPublisher(*natsURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer nats.Close()
		publisher = nats
	}

	monitoring.InitMetrics()

	data := store.NewTenantData(registry)
	flags := store.NewSettingsStore(data, cache)

	provisioning := service.NewProvisioningService(tenants, registry)
	defer provisioning.Stop()

	tenantService := service.NewTenantService(tenants, provisioning)
	tableService := service.NewTableService(service.TableServiceDeps{
		Tables:    data,
		Orders:    data,
		KOTs:      data,
		Bookings:  data,
		Tx:        data,
		Publisher: publisher,
	})
	orderService := service.NewOrderService(service.OrderServiceDeps{
		Tables:    data,
		Orders:    data,
		KOTs:      data,
		Publisher: publisher,
	})
	catalogService := service.NewCatalogService(data)

	api := httpapi.New(tenantService, tableService, orderService, catalogService, flags)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           api.Router(),
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Msgf("POS backend listening on port %d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
	log.Info().Msg("Server exiting")
}
