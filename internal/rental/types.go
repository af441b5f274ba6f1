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
	"errors"
	"slices"
	"time"
)

// DateLayout is the civil date format used by every date field.
const DateLayout = "2006-01-02"

// Domain errors
var (
	ErrMerge = errors.New("patch could not be merged")
)

// Kind names an entity collection.
type Kind string

const (
	KindApartment   Kind = "apartment"
	KindFlat        Kind = "flat"
	KindTenant      Kind = "tenant"
	KindLease       Kind = "lease"
	KindPayment     Kind = "payment"
	KindMaintenance Kind = "maintenance"
)

type ApartmentStatus string

const (
	ApartmentActive      ApartmentStatus = "active"
	ApartmentInactive    ApartmentStatus = "inactive"
	ApartmentMaintenance ApartmentStatus = "maintenance"
)

type FlatStatus string

const (
	FlatVacant      FlatStatus = "vacant"
	FlatOccupied    FlatStatus = "occupied"
	FlatMaintenance FlatStatus = "maintenance"
	FlatReserved    FlatStatus = "reserved"
)

type TenantStatus string

const (
	TenantActive   TenantStatus = "active"
	TenantInactive TenantStatus = "inactive"
	TenantEvicted  TenantStatus = "evicted"
	TenantPending  TenantStatus = "pending"
)

type LeaseStatus string

const (
	LeaseActive     LeaseStatus = "active"
	LeaseExpired    LeaseStatus = "expired"
	LeaseTerminated LeaseStatus = "terminated"
	LeasePending    LeaseStatus = "pending"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCancelled PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodCheck        PaymentMethod = "check"
	MethodOnline       PaymentMethod = "online"
	MethodCreditCard   PaymentMethod = "credit_card"
)

type MaintenanceCategory string

const (
	CategoryRepair     MaintenanceCategory = "repair"
	CategoryCleaning   MaintenanceCategory = "cleaning"
	CategoryInspection MaintenanceCategory = "inspection"
	CategoryEmergency  MaintenanceCategory = "emergency"
	CategoryPreventive MaintenanceCategory = "preventive"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// Meta is the identity and audit block shared by every record.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Meta) meta() *Meta { return m }

// clone methods copy a record so the result shares no slices with it.

func (a *Apartment) clone() Apartment {
	out := *a
	out.Amenities = slices.Clone(a.Amenities)
	return out
}

func (f *Flat) clone() Flat {
	out := *f
	out.Amenities = slices.Clone(f.Amenities)
	out.Features = slices.Clone(f.Features)
	out.Images = slices.Clone(f.Images)
	return out
}

func (t *Tenant) clone() Tenant {
	out := *t
	out.References = slices.Clone(t.References)
	out.Documents = slices.Clone(t.Documents)
	return out
}

func (l *Lease) clone() Lease { return *l }

func (p *RentPayment) clone() RentPayment { return *p }

func (m *Maintenance) clone() Maintenance {
	out := *m
	out.Images = slices.Clone(m.Images)
	return out
}

// Apartment is a property that contains flats.
type Apartment struct {
	Meta
	Name             string          `json:"name"`
	Address          string          `json:"address"`
	City             string          `json:"city"`
	State            string          `json:"state"`
	ZipCode          string          `json:"zip_code"`
	TotalFlats       int             `json:"total_flats"`
	OccupiedFlats    int             `json:"occupied_flats"`
	VacantFlats      int             `json:"vacant_flats"`
	MaintenanceFlats int             `json:"maintenance_flats"`
	MonthlyRevenue   float64         `json:"monthly_revenue"`
	YearlyRevenue    float64         `json:"yearly_revenue"`
	Amenities        []string        `json:"amenities"`
	PropertyManager  string          `json:"property_manager"`
	ContactPhone     string          `json:"contact_phone"`
	ContactEmail     string          `json:"contact_email"`
	Status           ApartmentStatus `json:"status"`
}

// Flat is a single rentable unit. ApartmentID is not checked against the
// apartments collection.
type Flat struct {
	Meta
	ApartmentID         string     `json:"apartment_id"`
	FlatNumber          string     `json:"flat_number"`
	Floor               int        `json:"floor"`
	Bedrooms            int        `json:"bedrooms"`
	Bathrooms           int        `json:"bathrooms"`
	AreaSqft            float64    `json:"area_sqft"`
	MonthlyRent         float64    `json:"monthly_rent"`
	SecurityDeposit     float64    `json:"security_deposit"`
	Status              FlatStatus `json:"status"`
	Description         string     `json:"description"`
	Amenities           []string   `json:"amenities"`
	Features            []string   `json:"features"`
	Images              []string   `json:"images"`
	LastMaintenanceDate string     `json:"last_maintenance_date"`
	NextMaintenanceDate string     `json:"next_maintenance_date"`
}

type Tenant struct {
	Meta
	FullName         string       `json:"full_name"`
	Email            string       `json:"email"`
	Phone            string       `json:"phone"`
	EmergencyContact string       `json:"emergency_contact"`
	EmergencyPhone   string       `json:"emergency_phone"`
	IDNumber         string       `json:"id_number"`
	Occupation       string       `json:"occupation"`
	DateOfBirth      string       `json:"date_of_birth"`
	Address          string       `json:"address"`
	PreviousAddress  string       `json:"previous_address"`
	Employer         string       `json:"employer"`
	MonthlyIncome    float64      `json:"monthly_income"`
	CreditScore      int          `json:"credit_score"`
	RentalHistory    string       `json:"rental_history"`
	References       []string     `json:"references"`
	Documents        []string     `json:"documents"`
	Status           TenantStatus `json:"status"`
}

// Lease binds one tenant to one flat for a date range.
type Lease struct {
	Meta
	FlatID            string      `json:"flat_id"`
	TenantID          string      `json:"tenant_id"`
	ApartmentID       string      `json:"apartment_id"`
	LeaseNumber       string      `json:"lease_number"`
	StartDate         string      `json:"start_date"`
	EndDate           string      `json:"end_date"`
	MonthlyRent       float64     `json:"monthly_rent"`
	SecurityDeposit   float64     `json:"security_deposit"`
	LateFee           float64     `json:"late_fee"`
	UtilitiesIncluded bool        `json:"utilities_included"`
	PetDeposit        float64     `json:"pet_deposit"`
	ParkingSpaces     int         `json:"parking_spaces"`
	Status            LeaseStatus `json:"status"`
	RenewalDate       string      `json:"renewal_date"`
	TerminationReason string      `json:"termination_reason"`
	Notes             string      `json:"notes"`
}

// RentPayment is one billing event against a lease.
type RentPayment struct {
	Meta
	LeaseID       string        `json:"lease_id"`
	FlatID        string        `json:"flat_id"`
	TenantID      string        `json:"tenant_id"`
	ApartmentID   string        `json:"apartment_id"`
	Amount        float64       `json:"amount"`
	PaymentDate   string        `json:"payment_date"`
	DueDate       string        `json:"due_date"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        PaymentStatus `json:"status"`
	LateFee       float64       `json:"late_fee"`
	ReceiptNumber string        `json:"receipt_number"`
	TransactionID string        `json:"transaction_id"`
	Notes         string        `json:"notes"`
}

type Maintenance struct {
	Meta
	FlatID        string              `json:"flat_id"`
	ApartmentID   string              `json:"apartment_id"`
	TenantID      string              `json:"tenant_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      MaintenanceCategory `json:"category"`
	Priority      Priority            `json:"priority"`
	Status        MaintenanceStatus   `json:"status"`
	AssignedTo    string              `json:"assigned_to"`
	EstimatedCost float64             `json:"estimated_cost"`
	ActualCost    float64             `json:"actual_cost"`
	ScheduledDate string              `json:"scheduled_date"`
	CompletedDate string              `json:"completed_date"`
	Images        []string            `json:"images"`
	Notes         string              `json:"notes"`
}

// Snapshot is the persisted shape of the whole store.
type Snapshot struct {
	Apartments  []Apartment   `json:"apartments"`
	Flats       []Flat        `json:"flats"`
	Tenants     []Tenant      `json:"tenants"`
	Leases      []Lease       `json:"leases"`
	Payments    []RentPayment `json:"payments"`
	Maintenance []Maintenance `json:"maintenance"`
}

// Patch is a partial record keyed by JSON field name.
type Patch map[string]any

// parseDate reads a civil date. Empty or malformed values report false.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t as a civil date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
