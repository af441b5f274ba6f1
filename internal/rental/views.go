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
	"strings"
	"time"
)

// NotAvailable is shown in place of a missing flat number or tenant name.
const NotAvailable = "N/A"

// ApartmentQuery narrows the apartments page. Empty fields match everything.
type ApartmentQuery struct {
	Search string
	Status ApartmentStatus
}

func (q ApartmentQuery) match(a Apartment) bool {
	if q.Status != "" && a.Status != q.Status {
		return false
	}
	return containsFold(q.Search, a.Name, a.Address, a.City)
}

// ApartmentSummary are the header figures of the apartments page.
type ApartmentSummary struct {
	TotalApartments  int     `json:"total_apartments"`
	ActiveApartments int     `json:"active_apartments"`
	TotalFlats       int     `json:"total_flats"`
	OccupiedFlats    int     `json:"occupied_flats"`
	MonthlyRevenue   float64 `json:"monthly_revenue"`
	OccupancyRate    float64 `json:"occupancy_rate"`
}

// SearchApartments returns apartments matching q in insertion order.
func (s *Store) SearchApartments(q ApartmentQuery) []Apartment {
	return list(s, &s.data.Apartments, q.match)
}

// SummarizeApartments totals the figures recorded on each apartment.
func SummarizeApartments(apartments []Apartment) ApartmentSummary {
	var sum ApartmentSummary
	sum.TotalApartments = len(apartments)
	for _, a := range apartments {
		if a.Status == ApartmentActive {
			sum.ActiveApartments++
		}
		sum.TotalFlats += a.TotalFlats
		sum.OccupiedFlats += a.OccupiedFlats
		sum.MonthlyRevenue += a.MonthlyRevenue
	}
	if sum.TotalFlats > 0 {
		sum.OccupancyRate = float64(sum.OccupiedFlats) / float64(sum.TotalFlats) * 100
	}
	return sum
}

// Tenant display statuses. A tenant is shown active while holding an active
// lease, regardless of the stored status.
const (
	DisplayActive   = "active"
	DisplayInactive = "inactive"
)

// TenantView is a tenant with its derived display status and current flat.
type TenantView struct {
	Tenant
	DisplayStatus string  `json:"display_status"`
	FlatID        string  `json:"current_flat_id,omitempty"`
	FlatNumber    string  `json:"current_flat_number,omitempty"`
	CurrentRent   float64 `json:"current_rent"`
}

// TenantQuery narrows the tenants page. Status compares against the display
// status.
type TenantQuery struct {
	Search string
	Status string
}

// TenantSummary are the header figures of the tenants page.
type TenantSummary struct {
	TotalTenants    int     `json:"total_tenants"`
	ActiveTenants   int     `json:"active_tenants"`
	InactiveTenants int     `json:"inactive_tenants"`
	TotalRent       float64 `json:"total_rent"`
}

// TenantViews derives display status for every tenant in snap and keeps
// those matching q.
func TenantViews(snap Snapshot, q TenantQuery) []TenantView {
	flats := make(map[string]Flat, len(snap.Flats))
	for _, f := range snap.Flats {
		flats[f.ID] = f
	}
	// first active lease per tenant
	current := map[string]Lease{}
	for _, l := range snap.Leases {
		if l.Status != LeaseActive {
			continue
		}
		if _, ok := current[l.TenantID]; !ok {
			current[l.TenantID] = l
		}
	}

	out := make([]TenantView, 0, len(snap.Tenants))
	for _, t := range snap.Tenants {
		v := TenantView{Tenant: t, DisplayStatus: DisplayInactive}
		if l, ok := current[t.ID]; ok {
			v.DisplayStatus = DisplayActive
			if f, ok := flats[l.FlatID]; ok {
				v.FlatID = f.ID
				v.FlatNumber = f.FlatNumber
				v.CurrentRent = f.MonthlyRent
			}
		}
		if q.Status != "" && v.DisplayStatus != q.Status {
			continue
		}
		if !containsFold(q.Search, t.FullName, t.Email, t.Phone, t.IDNumber) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SummarizeTenants counts display statuses and the rent of occupied flats.
func SummarizeTenants(views []TenantView) TenantSummary {
	sum := TenantSummary{TotalTenants: len(views)}
	for _, v := range views {
		switch v.DisplayStatus {
		case DisplayActive:
			sum.ActiveTenants++
			sum.TotalRent += v.CurrentRent
		case DisplayInactive:
			sum.InactiveTenants++
		}
	}
	return sum
}

// LeaseDetail is a lease joined with its flat number and tenant name.
type LeaseDetail struct {
	Lease
	FlatNumber string `json:"flat_number"`
	TenantName string `json:"tenant_name"`
	DaysLeft   *int   `json:"days_left,omitempty"`
	Expiring   bool   `json:"expiring"`
}

// LeaseSummary are the header figures of the leases page.
type LeaseSummary struct {
	TotalLeases    int     `json:"total_leases"`
	ActiveLeases   int     `json:"active_leases"`
	ExpiredLeases  int     `json:"expired_leases"`
	MonthlyRevenue float64 `json:"monthly_revenue"`
	ExpiringLeases int     `json:"expiring_leases"`
}

// LeaseDetails joins every lease in snap, optionally limited to status.
func LeaseDetails(snap Snapshot, status LeaseStatus, now time.Time) []LeaseDetail {
	flats := make(map[string]string, len(snap.Flats))
	for _, f := range snap.Flats {
		flats[f.ID] = f.FlatNumber
	}
	tenants := make(map[string]string, len(snap.Tenants))
	for _, t := range snap.Tenants {
		tenants[t.ID] = t.FullName
	}

	out := make([]LeaseDetail, 0, len(snap.Leases))
	for _, l := range snap.Leases {
		if status != "" && l.Status != status {
			continue
		}
		d := LeaseDetail{Lease: l, FlatNumber: NotAvailable, TenantName: NotAvailable}
		if n, ok := flats[l.FlatID]; ok && n != "" {
			d.FlatNumber = n
		}
		if n, ok := tenants[l.TenantID]; ok && n != "" {
			d.TenantName = n
		}
		if days, ok := DaysUntil(l.EndDate, now); ok {
			d.DaysLeft = &days
		}
		d.Expiring = IsExpiring(l, now)
		out = append(out, d)
	}
	return out
}

// SummarizeLeases counts leases by status and sums active rent.
func SummarizeLeases(leases []Lease, now time.Time) LeaseSummary {
	sum := LeaseSummary{TotalLeases: len(leases)}
	for _, l := range leases {
		switch l.Status {
		case LeaseActive:
			sum.ActiveLeases++
			sum.MonthlyRevenue += l.MonthlyRent
		case LeaseExpired:
			sum.ExpiredLeases++
		}
		if IsExpiring(l, now) {
			sum.ExpiringLeases++
		}
	}
	return sum
}

// PaymentSummary are the header figures of the payments page.
type PaymentSummary struct {
	TotalPayments  int     `json:"total_payments"`
	TotalCollected float64 `json:"total_collected"`
	PaidCount      int     `json:"paid_count"`
	TotalPending   float64 `json:"total_pending"`
	PendingCount   int     `json:"pending_count"`
	TotalOverdue   float64 `json:"total_overdue"`
	OverdueCount   int     `json:"overdue_count"`
}

// SummarizePayments sums amounts per status.
func SummarizePayments(payments []RentPayment) PaymentSummary {
	sum := PaymentSummary{TotalPayments: len(payments)}
	for _, p := range payments {
		switch p.Status {
		case PaymentPaid:
			sum.PaidCount++
			sum.TotalCollected += p.Amount
		case PaymentPending:
			sum.PendingCount++
			sum.TotalPending += p.Amount
		case PaymentOverdue:
			sum.OverdueCount++
			sum.TotalOverdue += p.Amount
		}
	}
	return sum
}

// RecentPayments returns up to n payments, newest creation first.
func RecentPayments(payments []RentPayment, n int) []RentPayment {
	out := slices.Clone(payments)
	slices.SortStableFunc(out, func(a, b RentPayment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
