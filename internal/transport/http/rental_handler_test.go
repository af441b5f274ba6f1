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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentrusty/rentals/internal/rental"
)

func validFlat() map[string]any {
	return map[string]any{
		"apartment_id": "apt-1",
		"flat_number":  "103",
		"floor":        1,
		"bedrooms":     2,
		"bathrooms":    1,
		"area_sqft":    780,
		"monthly_rent": 1350,
		"status":       "vacant",
		"description":  "Garden view",
	}
}

// TestPurpose: Validates the dashboard aggregates over the demo dataset.
// Scope: Unit Test
// Expected: Counts, occupancy and expiring leases match the seed records.
// Test Case ID: DSH-01
func TestDashboard_SeedData(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("user@rental.com")

	w := env.do(http.MethodGet, "/api/v1/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[DashboardResponse](t, w)

	assert.Equal(t, 2, resp.Stats.TotalApartments)
	assert.Equal(t, 3, resp.Stats.TotalFlats)
	assert.InDelta(t, 66.67, resp.Stats.OccupancyRate, 0.01)
	assert.Equal(t, 1, resp.Stats.ExpiringLeases)
	assert.Equal(t, 1, resp.Stats.PendingPayments)
	assert.Len(t, resp.FlatsByStatus[rental.FlatOccupied], 2)
	assert.Len(t, resp.FlatsByStatus[rental.FlatVacant], 1)
	assert.Empty(t, resp.FlatsByStatus[rental.FlatReserved])
	assert.Len(t, resp.RecentPayments, 4)
	assert.Empty(t, resp.Error)
}

// TestPurpose: Validates that invalid forms never reach the store.
// Scope: Unit Test
// Expected: 422 with the first message per field and the flat count unchanged.
// Test Case ID: FRM-01
func TestRecords_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("manager@rental.com")

	body := validFlat()
	delete(body, "flat_number")
	body["area_sqft"] = 50

	w := env.do(http.MethodPost, "/api/v1/flats", body, cookie)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Equal(t, "Flat number is required", resp.Fields["flat_number"])
	assert.Equal(t, "Area must be at least 100 sq ft", resp.Fields["area_sqft"])
	assert.Len(t, env.store.Flats(), 3)
}

// TestPurpose: Validates the create, read, update and delete cycle of a record.
// Scope: Unit Test
// Expected: Each step answers the documented status and the store reflects it.
// Test Case ID: CRUD-01
func TestRecords_FlatLifecycle(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("manager@rental.com")

	w := env.do(http.MethodPost, "/api/v1/flats", validFlat(), cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[rental.Flat](t, w)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "103", created.FlatNumber)

	w = env.do(http.MethodGet, "/api/v1/flats/"+created.ID, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPatch, "/api/v1/flats/"+created.ID, map[string]any{"status": "occupied", "id": "hijack"}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode[rental.Flat](t, w)
	assert.Equal(t, rental.FlatOccupied, patched.Status)
	assert.Equal(t, created.ID, patched.ID)
	assert.Equal(t, "103", patched.FlatNumber)

	w = env.do(http.MethodPatch, "/api/v1/flats/"+created.ID, map[string]any{"status": "demolished"}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(http.MethodGet, "/api/v1/flats?apartment_id=apt-1&status=occupied", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]rental.Flat](t, w)["flats"], 2)

	w = env.do(http.MethodDelete, "/api/v1/flats/"+created.ID, nil, cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/api/v1/flats/"+created.ID, nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"flat not found"}`, w.Body.String())

	for _, method := range []string{http.MethodPatch, http.MethodDelete} {
		w = env.do(method, "/api/v1/flats/missing", map[string]any{"status": "vacant"}, cookie)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
}

// TestPurpose: Validates reference fill on payments.
// Scope: Unit Test
// Expected: A payment posted with only a lease id inherits flat, tenant and apartment from the lease.
// Test Case ID: CRUD-02
func TestRecords_PaymentInheritsLeaseRefs(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("manager@rental.com")

	w := env.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"lease_id":       "lease-2",
		"amount":         2200,
		"due_date":       "2026-04-01",
		"payment_method": "online",
		"status":         "paid",
		"payment_date":   "2026-03-14",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	p := decode[rental.RentPayment](t, w)
	assert.Equal(t, "flat-3", p.FlatID)
	assert.Equal(t, "tenant-2", p.TenantID)
	assert.Equal(t, "apt-2", p.ApartmentID)

	w = env.do(http.MethodGet, "/api/v1/leases/lease-2/payments", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]rental.RentPayment](t, w)["payments"], 3)
}

// TestPurpose: Validates the page filters and relation routes.
// Scope: Unit Test
// Expected: Search, status filters and sub-collections return the matching seed records.
// Test Case ID: VW-01
func TestRecords_ListsAndRelations(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("user@rental.com")

	w := env.do(http.MethodGet, "/api/v1/tenants?search=smith", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	tenants := decode[struct {
		Tenants []rental.TenantView  `json:"tenants"`
		Summary rental.TenantSummary `json:"summary"`
	}](t, w)
	require.Len(t, tenants.Tenants, 1)
	assert.Equal(t, "tenant-1", tenants.Tenants[0].ID)
	assert.Equal(t, "101", tenants.Tenants[0].FlatNumber)
	assert.Equal(t, 3, tenants.Summary.TotalTenants)
	assert.Equal(t, 2, tenants.Summary.ActiveTenants)

	w = env.do(http.MethodGet, "/api/v1/leases?status=active", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	leases := decode[struct {
		Leases  []rental.LeaseDetail `json:"leases"`
		Summary rental.LeaseSummary  `json:"summary"`
	}](t, w)
	require.Len(t, leases.Leases, 2)
	assert.Equal(t, "John Smith", leases.Leases[0].TenantName)
	assert.Equal(t, 3700.0, leases.Summary.MonthlyRevenue)

	w = env.do(http.MethodGet, "/api/v1/payments?status=overdue", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	payments := decode[struct {
		Payments []rental.RentPayment  `json:"payments"`
		Summary  rental.PaymentSummary `json:"summary"`
	}](t, w)
	require.Len(t, payments.Payments, 1)
	assert.Equal(t, "pay-4", payments.Payments[0].ID)
	assert.Equal(t, 3700.0, payments.Summary.TotalCollected)

	w = env.do(http.MethodGet, "/api/v1/apartments/apt-1/stats", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[rental.DashboardStats](t, w)
	assert.Equal(t, 1, stats.TotalApartments)
	assert.Equal(t, 2, stats.TotalFlats)

	w = env.do(http.MethodGet, "/api/v1/apartments/apt-404/stats", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/v1/flats/flat-1/tenants", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]rental.Tenant](t, w)["tenants"], 1)

	w = env.do(http.MethodGet, "/api/v1/maintenance?status=pending", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]rental.Maintenance](t, w)["maintenance"], 1)
}

// TestPurpose: Validates that only admins can reset the dataset.
// Scope: Unit Test
// Security: Role-based access control
// Expected: A user gets 403 and nothing changes; an admin restores the deleted apartment.
// Test Case ID: ADM-01
func TestAdmin_ResetRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login("admin@rental.com")
	user := env.login("user@rental.com")

	w := env.do(http.MethodDelete, "/api/v1/apartments/apt-1", nil, admin)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodPost, "/api/v1/admin/reset", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	_, ok := env.store.GetApartment("apt-1")
	assert.False(t, ok)

	w = env.do(http.MethodPost, "/api/v1/admin/reset", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok = env.store.GetApartment("apt-1")
	assert.True(t, ok)
}

// TestPurpose: Validates the banner status endpoints.
// Scope: Unit Test
// Expected: The stored error is reported and can be dismissed.
// Test Case ID: STS-01
func TestStatus_BannerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("user@rental.com")
	env.store.SetError(rental.MsgPersistFailed)

	w := env.do(http.MethodGet, "/api/v1/status", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":"Failed to persist data"}`, w.Body.String())

	w = env.do(http.MethodDelete, "/api/v1/status/error", nil, cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, env.store.LastError())
}

// TestPurpose: Validates that mistyped patch values are reported as field errors.
// Scope: Unit Test
// Expected: A fractional floor answers 422 with the field message and the flat is unchanged.
// Test Case ID: FRM-03
func TestRecords_PatchRejectsFractionalFloor(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("manager@rental.com")

	w := env.do(http.MethodPatch, "/api/v1/flats/flat-1", map[string]any{"floor": 2.5}, cookie)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	resp := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Equal(t, map[string]string{"floor": "Floor must be a whole number"}, resp.Fields)

	before, ok := env.store.GetFlat("flat-1")
	require.True(t, ok)
	w = env.do(http.MethodGet, "/api/v1/flats/flat-1", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before.Floor, decode[rental.Flat](t, w).Floor)
	assert.Empty(t, env.store.LastError())
}

// TestPurpose: Validates that lease references are not checked against other records.
// Scope: Unit Test
// Expected: A lease naming an unknown flat and tenant answers 201 and reads back unchanged.
// Test Case ID: CRUD-03
func TestRecords_LeaseWithUnknownRefs(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login("manager@rental.com")

	w := env.do(http.MethodPost, "/api/v1/leases", map[string]any{
		"flat_id":          "flat-ghost",
		"tenant_id":        "tenant-ghost",
		"start_date":       "2026-05-01",
		"end_date":         "2027-04-30",
		"monthly_rent":     1500,
		"security_deposit": 1500,
		"status":           "pending",
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[rental.Lease](t, w)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "flat-ghost", created.FlatID)
	assert.Equal(t, "tenant-ghost", created.TenantID)
	assert.Empty(t, created.ApartmentID)

	w = env.do(http.MethodGet, "/api/v1/leases/"+created.ID, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[rental.Lease](t, w))
}
