package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shinepos/pos-backend/internal/model"
	"github.com/shinepos/pos-backend/internal/service"
)

func objectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, service.Validation("invalid %s identifier", name)
	}
	return id, nil
}

func (a *API) registerRestaurant(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRestaurantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	tenant, err := a.tenants.RegisterRestaurant(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (a *API) getRestaurant(w http.ResponseWriter, r *http.Request) {
	tenant, err := a.tenants.GetRestaurant(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (a *API) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	tenant, err := a.tenants.GetRestaurant(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req service.UpdateRestaurantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updated, err := a.tenants.UpdateRestaurant(r.Context(), tenant.ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	tenant, err := a.tenants.GetRestaurant(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.tenants.DeleteRestaurant(r.Context(), tenant.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) createTable(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTableRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	table, err := a.tables.CreateTable(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (a *API) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := a.tables.ListTables(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (a *API) updateTableStatus(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Status model.TableStatus `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := a.tables.UpdateStatus(r.Context(), chi.URLParam(r, "slug"), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) mergeTables(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableIDs   []string `json:"table_ids"`
		GuestCount int      `json:"guest_count"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(req.TableIDs))
	for _, raw := range req.TableIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeError(w, service.Validation("invalid table identifier %q", raw))
			return
		}
		ids = append(ids, id)
	}
	group, err := a.tables.MergeTables(r.Context(), chi.URLParam(r, "slug"), ids, req.GuestCount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (a *API) transferOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
		TableID string `json:"table_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		writeError(w, service.Validation("invalid order identifier"))
		return
	}
	tableID, err := primitive.ObjectIDFromHex(req.TableID)
	if err != nil {
		writeError(w, service.Validation("invalid table identifier"))
		return
	}
	order, err := a.tables.TransferOrder(r.Context(), chi.URLParam(r, "slug"), orderID, tableID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) replacementOptions(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	options, err := a.tables.ReplacementOptions(r.Context(), chi.URLParam(r, "slug"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

func (a *API) transferAndMerge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BrokenTableID      string `json:"broken_table_id"`
		ReplacementTableID string `json:"replacement_table_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	brokenID, err := primitive.ObjectIDFromHex(req.BrokenTableID)
	if err != nil {
		writeError(w, service.Validation("invalid broken table identifier"))
		return
	}
	replacementID, err := primitive.ObjectIDFromHex(req.ReplacementTableID)
	if err != nil {
		writeError(w, service.Validation("invalid replacement table identifier"))
		return
	}
	group, err := a.tables.TransferAndMerge(r.Context(), chi.URLParam(r, "slug"), brokenID, replacementID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (a *API) reserveTable(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req service.ReserveTableRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.TableID = id
	booking, err := a.tables.ReserveTable(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (a *API) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.tables.CancelBooking(r.Context(), chi.URLParam(r, "slug"), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCategoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	category, err := a.catalog.CreateCategory(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.catalog.ListCategories(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *API) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateMenuItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	item, err := a.catalog.CreateMenuItem(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) listMenuItems(w http.ResponseWriter, r *http.Request) {
	var categoryID *primitive.ObjectID
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeError(w, service.Validation("invalid category identifier"))
			return
		}
		categoryID = &id
	}
	items, err := a.catalog.ListMenuItems(r.Context(), chi.URLParam(r, "slug"), categoryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	order, err := a.orders.CreateOrder(r.Context(), chi.URLParam(r, "slug"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (a *API) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	order, err := a.orders.UpdateOrderStatus(r.Context(), chi.URLParam(r, "slug"), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) updateKOTStatus(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Status model.KOTStatus `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	kot, err := a.orders.UpdateKOTStatus(r.Context(), chi.URLParam(r, "slug"), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kot)
}

func (a *API) getFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := a.flags.Flags(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flags)
}

func (a *API) setFlag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value bool `json:"value"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, service.Validation("flag name is required"))
		return
	}
	if err := a.flags.SetFlag(r.Context(), chi.URLParam(r, "slug"), name, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
