package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/shinepos/pos-backend/internal/service"
	"github.com/shinepos/pos-backend/internal/store"
)

// API is the thin JSON translation layer in front of the services. All
// business rules live in internal/service; handlers only decode, dispatch,
// and encode.
type API struct {
	tenants *service.TenantService
	tables  *service.TableService
	orders  *service.OrderService
	catalog *service.CatalogService
	flags   *store.SettingsStore
}

func New(tenants *service.TenantService, tables *service.TableService, orders *service.OrderService, catalog *service.CatalogService, flags *store.SettingsStore) *API {
	return &API{tenants: tenants, tables: tables, orders: orders, catalog: catalog, flags: flags}
}

// Router wires every route. Tenant-scoped routes live under /t/{slug} and
// resolve the tenant through the registry before touching tenant data.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/restaurants", a.registerRestaurant)
	r.Get("/restaurants/{slug}", a.getRestaurant)
	r.Put("/restaurants/{slug}", a.updateRestaurant)
	r.Delete("/restaurants/{slug}", a.deleteRestaurant)

	r.Route("/t/{slug}", func(r chi.Router) {
		r.Use(a.requireTenant)

		r.Post("/tables", a.createTable)
		r.Get("/tables", a.listTables)
		r.Patch("/tables/{id}/status", a.updateTableStatus)
		r.Post("/tables/merge", a.mergeTables)
		r.Post("/tables/transfer", a.transferOrder)
		r.Get("/tables/{id}/replacement-options", a.replacementOptions)
		r.Post("/tables/replace", a.transferAndMerge)
		r.Post("/tables/{id}/bookings", a.reserveTable)
		r.Delete("/bookings/{id}", a.cancelBooking)

		r.Post("/menu/categories", a.createCategory)
		r.Get("/menu/categories", a.listCategories)
		r.Post("/menu/items", a.createMenuItem)
		r.Get("/menu/items", a.listMenuItems)

		r.Post("/orders", a.createOrder)
		r.Patch("/orders/{id}/status", a.updateOrderStatus)
		r.Patch("/kots/{id}/status", a.updateKOTStatus)

		r.Get("/settings/flags", a.getFlags)
		r.Put("/settings/flags/{name}", a.setFlag)
	})

	return r
}

// requireTenant rejects requests for unknown or suspended tenants before any
// tenant data is touched.
func (a *API) requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if _, err := a.tenants.RequireActive(r.Context(), slug); err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Error().Err(err).Msg("Failed to encode response")
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindValidation:
		code = http.StatusBadRequest
	case service.KindNotFound:
		code = http.StatusNotFound
	case service.KindConflict:
		code = http.StatusConflict
	case service.KindInfrastructure:
		code = http.StatusServiceUnavailable
	}
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return service.Validation("invalid request body: %v", err)
	}
	return nil
}
