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

import "time"

// ExpiringWindowDays is how far ahead an active lease counts as expiring.
const ExpiringWindowDays = 30

// DashboardStats are the aggregates shown on the overview page.
type DashboardStats struct {
	TotalApartments     int     `json:"total_apartments"`
	TotalFlats          int     `json:"total_flats"`
	TotalTenants        int     `json:"total_tenants"`
	TotalLeases         int     `json:"total_leases"`
	TotalRevenue        float64 `json:"total_revenue"`
	MonthlyRevenue      float64 `json:"monthly_revenue"`
	OccupancyRate       float64 `json:"occupancy_rate"`
	AverageRent         float64 `json:"average_rent"`
	PendingPayments     int     `json:"pending_payments"`
	OverduePayments     int     `json:"overdue_payments"`
	MaintenanceRequests int     `json:"maintenance_requests"`
	ExpiringLeases      int     `json:"expiring_leases"`

	OccupiedFlats    int     `json:"occupied_flats"`
	VacantFlats      int     `json:"vacant_flats"`
	MaintenanceFlats int     `json:"maintenance_flats"`
	ReservedFlats    int     `json:"reserved_flats"`
	TotalRentPending float64 `json:"total_rent_pending"`
}

// ComputeDashboard derives DashboardStats from snap as of now. It is pure
// and independent of collection order.
func ComputeDashboard(snap Snapshot, now time.Time) DashboardStats {
	st := DashboardStats{
		TotalApartments: len(snap.Apartments),
		TotalFlats:      len(snap.Flats),
		TotalTenants:    len(snap.Tenants),
		TotalLeases:     len(snap.Leases),
	}

	var rentSum float64
	for _, f := range snap.Flats {
		rentSum += f.MonthlyRent
		switch f.Status {
		case FlatOccupied:
			st.OccupiedFlats++
		case FlatVacant:
			st.VacantFlats++
		case FlatMaintenance:
			st.MaintenanceFlats++
		case FlatReserved:
			st.ReservedFlats++
		}
	}
	if st.TotalFlats > 0 {
		st.OccupancyRate = float64(st.OccupiedFlats) / float64(st.TotalFlats) * 100
		st.AverageRent = rentSum / float64(st.TotalFlats)
	}

	year, month, _ := now.Date()
	for _, p := range snap.Payments {
		switch p.Status {
		case PaymentPaid:
			st.TotalRevenue += p.Amount
			if d, ok := parseDate(p.PaymentDate); ok && d.Year() == year && d.Month() == month {
				st.MonthlyRevenue += p.Amount
			}
		case PaymentPending:
			st.PendingPayments++
			st.TotalRentPending += p.Amount
		case PaymentOverdue:
			st.OverduePayments++
		}
	}

	for _, m := range snap.Maintenance {
		if m.Status == MaintenancePending {
			st.MaintenanceRequests++
		}
	}

	for _, l := range snap.Leases {
		if IsExpiring(l, now) {
			st.ExpiringLeases++
		}
	}
	return st
}

// IsExpiring reports whether an active lease ends within the next
// ExpiringWindowDays calendar days, today included. Leases already past
// their end date are not expiring.
func IsExpiring(l Lease, now time.Time) bool {
	if l.Status != LeaseActive {
		return false
	}
	days, ok := DaysUntil(l.EndDate, now)
	return ok && days >= 0 && days <= ExpiringWindowDays
}

// DaysUntil counts whole calendar days from now's date to date.
func DaysUntil(date string, now time.Time) (int, bool) {
	end, ok := parseDate(date)
	if !ok {
		return 0, false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(today).Hours() / 24), true
}

// ApartmentSnapshot restricts snap to one apartment: its flats, leases,
// payments and maintenance, plus the tenants holding its leases.
func ApartmentSnapshot(snap Snapshot, apartmentID string) Snapshot {
	out := Snapshot{
		Apartments:  filter(snap.Apartments, func(a Apartment) bool { return a.ID == apartmentID }),
		Flats:       filter(snap.Flats, func(f Flat) bool { return f.ApartmentID == apartmentID }),
		Leases:      filter(snap.Leases, func(l Lease) bool { return l.ApartmentID == apartmentID }),
		Payments:    filter(snap.Payments, func(p RentPayment) bool { return p.ApartmentID == apartmentID }),
		Maintenance: filter(snap.Maintenance, func(m Maintenance) bool { return m.ApartmentID == apartmentID }),
	}
	tenantIDs := map[string]bool{}
	for _, l := range out.Leases {
		tenantIDs[l.TenantID] = true
	}
	out.Tenants = filter(snap.Tenants, func(t Tenant) bool { return tenantIDs[t.ID] })
	return out
}

// DashboardStats computes overview aggregates from the current records.
func (s *Store) DashboardStats() DashboardStats {
	return ComputeDashboard(s.Snapshot(), s.now())
}

// ApartmentStats computes the same aggregates limited to one apartment.
func (s *Store) ApartmentStats(apartmentID string) DashboardStats {
	return ComputeDashboard(ApartmentSnapshot(s.Snapshot(), apartmentID), s.now())
}
