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

package rental

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeDashboard_SeedScenario(t *testing.T) {
	st := ComputeDashboard(SeedData(testNow), testNow)

	assert.Equal(t, 2, st.TotalApartments)
	assert.Equal(t, 3, st.TotalFlats)
	assert.Equal(t, 3, st.TotalTenants)
	assert.Equal(t, 2, st.TotalLeases)
	assert.Equal(t, 3700.0, st.TotalRevenue)
	assert.Equal(t, 1500.0, st.MonthlyRevenue)
	assert.InDelta(t, 66.67, st.OccupancyRate, 0.01)
	assert.InDelta(t, 1633.33, st.AverageRent, 0.01)
	assert.Equal(t, 1, st.PendingPayments)
	assert.Equal(t, 1, st.OverduePayments)
	assert.Equal(t, 1, st.MaintenanceRequests)
	assert.Equal(t, 1, st.ExpiringLeases)
	assert.Equal(t, 2, st.OccupiedFlats)
	assert.Equal(t, 1, st.VacantFlats)
	assert.Equal(t, 2200.0, st.TotalRentPending)
}

func TestComputeDashboard_NoFlats(t *testing.T) {
	st := ComputeDashboard(Snapshot{}, testNow)
	assert.Equal(t, DashboardStats{}, st)
}

func TestComputeDashboard_OrderIndependent(t *testing.T) {
	snap := SeedData(testNow)
	reversed := Snapshot{
		Apartments:  slices.Clone(snap.Apartments),
		Flats:       slices.Clone(snap.Flats),
		Tenants:     slices.Clone(snap.Tenants),
		Leases:      slices.Clone(snap.Leases),
		Payments:    slices.Clone(snap.Payments),
		Maintenance: slices.Clone(snap.Maintenance),
	}
	slices.Reverse(reversed.Flats)
	slices.Reverse(reversed.Leases)
	slices.Reverse(reversed.Payments)
	slices.Reverse(reversed.Maintenance)

	assert.Equal(t, ComputeDashboard(snap, testNow), ComputeDashboard(reversed, testNow))
}

func TestComputeDashboard_MonthlyRevenueUsesPaymentDate(t *testing.T) {
	snap := Snapshot{Payments: []RentPayment{
		{Amount: 100, Status: PaymentPaid, PaymentDate: "2026-03-01"},
		{Amount: 200, Status: PaymentPaid, PaymentDate: "2026-03-31"},
		{Amount: 400, Status: PaymentPaid, PaymentDate: "2025-03-10"},
		{Amount: 800, Status: PaymentPaid},
		{Amount: 1600, Status: PaymentPending, PaymentDate: "2026-03-02"},
	}}
	st := ComputeDashboard(snap, testNow)
	assert.Equal(t, 300.0, st.MonthlyRevenue)
	assert.Equal(t, 1500.0, st.TotalRevenue)
}

func TestIsExpiring_Boundaries(t *testing.T) {
	at := func(offsetDays int) string { return FormatDate(testNow.AddDate(0, 0, offsetDays)) }

	tests := []struct {
		name   string
		lease  Lease
		expect bool
	}{
		{"ends today", Lease{Status: LeaseActive, EndDate: at(0)}, true},
		{"ends in 30 days", Lease{Status: LeaseActive, EndDate: at(30)}, true},
		{"ends in 31 days", Lease{Status: LeaseActive, EndDate: at(31)}, false},
		{"ended yesterday", Lease{Status: LeaseActive, EndDate: at(-1)}, false},
		{"terminated", Lease{Status: LeaseTerminated, EndDate: at(5)}, false},
		{"no end date", Lease{Status: LeaseActive}, false},
		{"malformed end date", Lease{Status: LeaseActive, EndDate: "soon"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, IsExpiring(tt.lease, testNow))
		})
	}
}

func TestDaysUntil_CountsCalendarDays(t *testing.T) {
	late := time.Date(2026, time.March, 15, 23, 59, 0, 0, time.UTC)
	days, ok := DaysUntil("2026-03-16", late)
	assert.True(t, ok)
	assert.Equal(t, 1, days)

	days, ok = DaysUntil("2026-03-15", late)
	assert.True(t, ok)
	assert.Equal(t, 0, days)
}

func TestApartmentStats(t *testing.T) {
	s := NewStore(nil, WithClock(func() time.Time { return testNow }))
	s.Load(t.Context(), fakeRemote{snap: SeedData(testNow)})

	st := s.ApartmentStats("apt-1")
	assert.Equal(t, 1, st.TotalApartments)
	assert.Equal(t, 2, st.TotalFlats)
	assert.Equal(t, 1, st.TotalTenants)
	assert.Equal(t, 1, st.TotalLeases)
	assert.Equal(t, 50.0, st.OccupancyRate)
	assert.Equal(t, 1500.0, st.TotalRevenue)
	assert.Equal(t, 1, st.OverduePayments)
	assert.Equal(t, 1, st.MaintenanceRequests)
	assert.Equal(t, 1, st.ExpiringLeases)

	empty := s.ApartmentStats("apt-404")
	assert.Equal(t, DashboardStats{}, empty)
}
