// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opentrusty/rentals/internal/observability/logger"
	"github.com/opentrusty/rentals/internal/rental"
)

// recentPaymentsLimit is how many payments the dashboard lists.
const recentPaymentsLimit = 5

func (h *Handler) apartments() resource[rental.Apartment] {
	return resource[rental.Apartment]{
		kind:   rental.KindApartment,
		label:  "apartment",
		list:   h.ListApartments,
		get:    h.store.GetApartment,
		add:    h.store.AddApartment,
		update: h.store.UpdateApartment,
		remove: h.store.DeleteApartment,
	}
}

func (h *Handler) flats() resource[rental.Flat] {
	return resource[rental.Flat]{
		kind:   rental.KindFlat,
		label:  "flat",
		list:   h.ListFlats,
		get:    h.store.GetFlat,
		add:    h.store.AddFlat,
		update: h.store.UpdateFlat,
		remove: h.store.DeleteFlat,
	}
}

func (h *Handler) tenants() resource[rental.Tenant] {
	return resource[rental.Tenant]{
		kind:   rental.KindTenant,
		label:  "tenant",
		list:   h.ListTenants,
		get:    h.store.GetTenant,
		add:    h.store.AddTenant,
		update: h.store.UpdateTenant,
		remove: h.store.DeleteTenant,
		fill: func(t *rental.Tenant) {
			if t.Status == "" {
				t.Status = rental.TenantActive
			}
		},
	}
}

func (h *Handler) leases() resource[rental.Lease] {
	return resource[rental.Lease]{
		kind:   rental.KindLease,
		label:  "lease",
		list:   h.ListLeases,
		get:    h.store.GetLease,
		add:    h.store.AddLease,
		update: h.store.UpdateLease,
		remove: h.store.DeleteLease,
		fill:   h.store.FillLeaseRefs,
	}
}

func (h *Handler) payments() resource[rental.RentPayment] {
	return resource[rental.RentPayment]{
		kind:   rental.KindPayment,
		label:  "payment",
		list:   h.ListPayments,
		get:    h.store.GetPayment,
		add:    h.store.AddPayment,
		update: h.store.UpdatePayment,
		remove: h.store.DeletePayment,
		fill:   h.store.FillPaymentRefs,
	}
}

func (h *Handler) maintenance() resource[rental.Maintenance] {
	return resource[rental.Maintenance]{
		kind:   rental.KindMaintenance,
		label:  "maintenance request",
		list:   h.ListMaintenance,
		get:    h.store.GetMaintenance,
		add:    h.store.AddMaintenance,
		update: h.store.UpdateMaintenance,
		remove: h.store.DeleteMaintenance,
		fill: func(m *rental.Maintenance) {
			if m.ApartmentID != "" {
				return
			}
			if f, ok := h.store.GetFlat(m.FlatID); ok {
				m.ApartmentID = f.ApartmentID
			}
		},
	}
}

// ListApartments filters by ?search= (name, address, city) and ?status=.
func (h *Handler) ListApartments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items := h.store.SearchApartments(rental.ApartmentQuery{
		Search: q.Get("search"),
		Status: rental.ApartmentStatus(q.Get("status")),
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"apartments": items,
		"summary":    rental.SummarizeApartments(h.store.Apartments()),
	})
}

// ListFlats filters by ?status= and ?apartment_id=.
func (h *Handler) ListFlats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var items []rental.Flat
	if status := q.Get("status"); status != "" {
		items = h.store.FlatsByStatus(rental.FlatStatus(status))
	} else {
		items = h.store.Flats()
	}
	if aptID := q.Get("apartment_id"); aptID != "" {
		kept := items[:0]
		for _, f := range items {
			if f.ApartmentID == aptID {
				kept = append(kept, f)
			}
		}
		items = kept
	}
	respondJSON(w, http.StatusOK, map[string]any{"flats": items})
}

// ListTenants filters by ?search= and the derived ?status=.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	snap := h.store.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"tenants": rental.TenantViews(snap, rental.TenantQuery{Search: q.Get("search"), Status: q.Get("status")}),
		"summary": rental.SummarizeTenants(rental.TenantViews(snap, rental.TenantQuery{})),
	})
}

// ListLeases joins leases with flat and tenant, filtered by ?status=.
func (h *Handler) ListLeases(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	now := h.now()
	respondJSON(w, http.StatusOK, map[string]any{
		"leases":  rental.LeaseDetails(snap, rental.LeaseStatus(r.URL.Query().Get("status")), now),
		"summary": rental.SummarizeLeases(snap.Leases, now),
	})
}

// ListPayments filters by ?status=.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	all := h.store.Payments()
	items := all
	if status := r.URL.Query().Get("status"); status != "" {
		items = h.store.PaymentsByStatus(rental.PaymentStatus(status))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"payments": items,
		"summary":  rental.SummarizePayments(all),
	})
}

// ListMaintenance filters by ?status=.
func (h *Handler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	var items []rental.Maintenance
	if status := r.URL.Query().Get("status"); status != "" {
		items = h.store.MaintenanceByStatus(rental.MaintenanceStatus(status))
	} else {
		items = h.store.MaintenanceRequests()
	}
	respondJSON(w, http.StatusOK, map[string]any{"maintenance": items})
}

func (h *Handler) ApartmentStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.GetApartment(id); !ok {
		respondError(w, http.StatusNotFound, "apartment not found")
		return
	}
	respondJSON(w, http.StatusOK, h.store.ApartmentStats(id))
}

func (h *Handler) ApartmentFlats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.GetApartment(id); !ok {
		respondError(w, http.StatusNotFound, "apartment not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"flats": h.store.FlatsByApartment(id)})
}

func (h *Handler) FlatTenants(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.GetFlat(id); !ok {
		respondError(w, http.StatusNotFound, "flat not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tenants": h.store.TenantsByFlat(id)})
}

func (h *Handler) FlatLeases(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.GetFlat(id); !ok {
		respondError(w, http.StatusNotFound, "flat not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"leases": h.store.LeasesByFlat(id)})
}

func (h *Handler) TenantLeases(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.GetTenant(id); !ok {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"leases": h.store.LeasesByTenant(id)})
}

func (h *Handler) TenantPayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.GetTenant(id); !ok {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"payments": h.store.PaymentsByTenant(id)})
}

func (h *Handler) LeasePayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.GetLease(id); !ok {
		respondError(w, http.StatusNotFound, "lease not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"payments": h.store.PaymentsByLease(id)})
}

// DashboardResponse is the overview page.
type DashboardResponse struct {
	Stats          rental.DashboardStats               `json:"stats"`
	FlatsByStatus  map[rental.FlatStatus][]rental.Flat `json:"flats_by_status"`
	RecentPayments []rental.RentPayment                `json:"recent_payments"`
	Error          string                              `json:"error,omitempty"`
}

// Dashboard computes every figure from one snapshot.
// @Summary Dashboard
// @Tags Dashboard
// @Produce json
// @Security CookieAuth
// @Success 200 {object} DashboardResponse
// @Router /dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()

	byStatus := map[rental.FlatStatus][]rental.Flat{
		rental.FlatVacant:      {},
		rental.FlatOccupied:    {},
		rental.FlatMaintenance: {},
		rental.FlatReserved:    {},
	}
	for _, f := range snap.Flats {
		byStatus[f.Status] = append(byStatus[f.Status], f)
	}

	respondJSON(w, http.StatusOK, DashboardResponse{
		Stats:          rental.ComputeDashboard(snap, h.now()),
		FlatsByStatus:  byStatus,
		RecentPayments: rental.RecentPayments(snap.Payments, recentPaymentsLimit),
		Error:          h.store.LastError(),
	})
}

// Status reports the banner message of the last failure.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"error": h.store.LastError()})
}

// ClearStatusError dismisses the banner.
func (h *Handler) ClearStatusError(w http.ResponseWriter, r *http.Request) {
	h.store.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

// ResetData restores the demo dataset.
// @Summary Reset data
// @Tags Admin
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /admin/reset [post]
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	h.store.Reset(r.Context())
	slog.InfoContext(r.Context(), "rental data reset",
		logger.UserID(GetUserID(r.Context())), logger.Component("http"))

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "data reset to demo dataset",
		"stats":   rental.ComputeDashboard(h.store.Snapshot(), h.now()),
	})
}
