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

import "context"

// Add* assign an id and timestamps, append, and persist. Update* is a no-op
// for unknown ids. Delete* never cascades.

func (s *Store) AddApartment(ctx context.Context, a Apartment) Apartment {
	return add(ctx, s, KindApartment, &s.data.Apartments, a)
}

func (s *Store) UpdateApartment(ctx context.Context, id string, patch Patch) error {
	return update[Apartment](ctx, s, KindApartment, &s.data.Apartments, id, patch)
}

func (s *Store) DeleteApartment(ctx context.Context, id string) error {
	return remove[Apartment](ctx, s, KindApartment, &s.data.Apartments, id)
}

func (s *Store) GetApartment(id string) (Apartment, bool) {
	return get[Apartment](s, &s.data.Apartments, id)
}

func (s *Store) Apartments() []Apartment {
	return list(s, &s.data.Apartments, nil)
}

func (s *Store) AddFlat(ctx context.Context, f Flat) Flat {
	return add(ctx, s, KindFlat, &s.data.Flats, f)
}

func (s *Store) UpdateFlat(ctx context.Context, id string, patch Patch) error {
	return update[Flat](ctx, s, KindFlat, &s.data.Flats, id, patch)
}

func (s *Store) DeleteFlat(ctx context.Context, id string) error {
	return remove[Flat](ctx, s, KindFlat, &s.data.Flats, id)
}

func (s *Store) GetFlat(id string) (Flat, bool) {
	return get[Flat](s, &s.data.Flats, id)
}

func (s *Store) Flats() []Flat {
	return list(s, &s.data.Flats, nil)
}

func (s *Store) FlatsByStatus(status FlatStatus) []Flat {
	return list(s, &s.data.Flats, func(f Flat) bool { return f.Status == status })
}

func (s *Store) FlatsByApartment(apartmentID string) []Flat {
	return list(s, &s.data.Flats, func(f Flat) bool { return f.ApartmentID == apartmentID })
}

func (s *Store) AddTenant(ctx context.Context, t Tenant) Tenant {
	return add(ctx, s, KindTenant, &s.data.Tenants, t)
}

func (s *Store) UpdateTenant(ctx context.Context, id string, patch Patch) error {
	return update[Tenant](ctx, s, KindTenant, &s.data.Tenants, id, patch)
}

func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	return remove[Tenant](ctx, s, KindTenant, &s.data.Tenants, id)
}

func (s *Store) GetTenant(id string) (Tenant, bool) {
	return get[Tenant](s, &s.data.Tenants, id)
}

func (s *Store) Tenants() []Tenant {
	return list(s, &s.data.Tenants, nil)
}

// TenantsByFlat returns every tenant that holds or held a lease on the flat.
func (s *Store) TenantsByFlat(flatID string) []Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := map[string]bool{}
	for _, l := range s.data.Leases {
		if l.FlatID == flatID {
			ids[l.TenantID] = true
		}
	}
	return cloneAll(filter(s.data.Tenants, func(t Tenant) bool { return ids[t.ID] }))
}

func (s *Store) AddLease(ctx context.Context, l Lease) Lease {
	return add(ctx, s, KindLease, &s.data.Leases, l)
}

func (s *Store) UpdateLease(ctx context.Context, id string, patch Patch) error {
	return update[Lease](ctx, s, KindLease, &s.data.Leases, id, patch)
}

func (s *Store) DeleteLease(ctx context.Context, id string) error {
	return remove[Lease](ctx, s, KindLease, &s.data.Leases, id)
}

func (s *Store) GetLease(id string) (Lease, bool) {
	return get[Lease](s, &s.data.Leases, id)
}

func (s *Store) Leases() []Lease {
	return list(s, &s.data.Leases, nil)
}

func (s *Store) LeasesByStatus(status LeaseStatus) []Lease {
	return list(s, &s.data.Leases, func(l Lease) bool { return l.Status == status })
}

func (s *Store) LeasesByFlat(flatID string) []Lease {
	return list(s, &s.data.Leases, func(l Lease) bool { return l.FlatID == flatID })
}

func (s *Store) LeasesByTenant(tenantID string) []Lease {
	return list(s, &s.data.Leases, func(l Lease) bool { return l.TenantID == tenantID })
}

func (s *Store) AddPayment(ctx context.Context, p RentPayment) RentPayment {
	return add(ctx, s, KindPayment, &s.data.Payments, p)
}

func (s *Store) UpdatePayment(ctx context.Context, id string, patch Patch) error {
	return update[RentPayment](ctx, s, KindPayment, &s.data.Payments, id, patch)
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	return remove[RentPayment](ctx, s, KindPayment, &s.data.Payments, id)
}

func (s *Store) GetPayment(id string) (RentPayment, bool) {
	return get[RentPayment](s, &s.data.Payments, id)
}

func (s *Store) Payments() []RentPayment {
	return list(s, &s.data.Payments, nil)
}

func (s *Store) PaymentsByStatus(status PaymentStatus) []RentPayment {
	return list(s, &s.data.Payments, func(p RentPayment) bool { return p.Status == status })
}

func (s *Store) PaymentsByLease(leaseID string) []RentPayment {
	return list(s, &s.data.Payments, func(p RentPayment) bool { return p.LeaseID == leaseID })
}

func (s *Store) PaymentsByTenant(tenantID string) []RentPayment {
	return list(s, &s.data.Payments, func(p RentPayment) bool { return p.TenantID == tenantID })
}

func (s *Store) AddMaintenance(ctx context.Context, m Maintenance) Maintenance {
	return add(ctx, s, KindMaintenance, &s.data.Maintenance, m)
}

func (s *Store) UpdateMaintenance(ctx context.Context, id string, patch Patch) error {
	return update[Maintenance](ctx, s, KindMaintenance, &s.data.Maintenance, id, patch)
}

func (s *Store) DeleteMaintenance(ctx context.Context, id string) error {
	return remove[Maintenance](ctx, s, KindMaintenance, &s.data.Maintenance, id)
}

func (s *Store) GetMaintenance(id string) (Maintenance, bool) {
	return get[Maintenance](s, &s.data.Maintenance, id)
}

func (s *Store) MaintenanceRequests() []Maintenance {
	return list(s, &s.data.Maintenance, nil)
}

func (s *Store) MaintenanceByStatus(status MaintenanceStatus) []Maintenance {
	return list(s, &s.data.Maintenance, func(m Maintenance) bool { return m.Status == status })
}

func (s *Store) MaintenanceByFlat(flatID string) []Maintenance {
	return list(s, &s.data.Maintenance, func(m Maintenance) bool { return m.FlatID == flatID })
}

// FillLeaseRefs copies the flat's apartment onto a lease that lacks one.
// Missing flats are tolerated.
func (s *Store) FillLeaseRefs(l *Lease) {
	if l.ApartmentID != "" {
		return
	}
	if f, ok := s.GetFlat(l.FlatID); ok {
		l.ApartmentID = f.ApartmentID
	}
}

// FillPaymentRefs copies flat, tenant and apartment ids from the payment's
// lease when they are not set.
func (s *Store) FillPaymentRefs(p *RentPayment) {
	l, ok := s.GetLease(p.LeaseID)
	if !ok {
		return
	}
	if p.FlatID == "" {
		p.FlatID = l.FlatID
	}
	if p.TenantID == "" {
		p.TenantID = l.TenantID
	}
	if p.ApartmentID == "" {
		p.ApartmentID = l.ApartmentID
	}
}
