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

import "github.com/opentrusty/rentals/internal/form"

const msgValidEmail = "Please enter a valid email address"

func enum[T ~string](values ...T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// count is an optional non-negative whole number.
func count(name, label string) form.Field {
	return form.Optional(name,
		form.Min(0, label+" cannot be negative"),
		form.Integer(label+" must be a whole number"))
}

var (
	apartmentStatuses = enum(ApartmentActive, ApartmentInactive, ApartmentMaintenance)
	flatStatuses      = enum(FlatVacant, FlatOccupied, FlatMaintenance, FlatReserved)
	tenantStatuses    = enum(TenantActive, TenantInactive, TenantEvicted, TenantPending)
	leaseStatuses     = enum(LeaseActive, LeaseExpired, LeaseTerminated, LeasePending)
	paymentStatuses   = enum(PaymentPending, PaymentPaid, PaymentOverdue, PaymentPartial, PaymentCancelled)
	paymentMethods    = enum(MethodBankTransfer, MethodCash, MethodCheck, MethodOnline, MethodCreditCard)
	categories        = enum(CategoryRepair, CategoryCleaning, CategoryInspection, CategoryEmergency, CategoryPreventive)
	priorities        = enum(PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)
	maintStatuses     = enum(MaintenancePending, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled)
)

// ApartmentForm validates apartment create and update bodies.
var ApartmentForm = form.Schema{
	form.Required("name", form.MinLen(2, "Apartment name must be at least 2 characters")),
	form.Required("address", form.MinLen(5, "Address must be at least 5 characters")),
	form.Required("city", form.MinLen(2, "City is required")),
	form.Required("state", form.MinLen(2, "State is required")),
	form.Required("zip_code", form.MinLen(5, "ZIP code must be at least 5 characters")),
	form.Required("total_flats",
		form.Min(1, "Total flats must be at least 1"),
		form.Integer("Total flats must be a whole number")),
	count("occupied_flats", "Occupied flats"),
	count("vacant_flats", "Vacant flats"),
	count("maintenance_flats", "Maintenance flats"),
	form.Optional("monthly_revenue", form.Min(0, "Monthly revenue cannot be negative")),
	form.Optional("yearly_revenue", form.Min(0, "Yearly revenue cannot be negative")),
	form.Required("property_manager", form.MinLen(2, "Property manager is required")),
	form.Required("contact_phone", form.MinLen(10, "Phone number must be at least 10 characters")),
	form.Required("contact_email", form.Email(msgValidEmail)),
	form.Required("status", form.OneOf(apartmentStatuses, "Invalid apartment status")),
	form.Optional("amenities", form.Strings("Amenities must be a list of strings")),
}

// FlatForm validates flat bodies.
var FlatForm = form.Schema{
	form.Required("apartment_id", form.MinLen(1, "Apartment is required")),
	form.Required("flat_number", form.MinLen(1, "Flat number is required")),
	form.Required("floor", form.Min(1, "Floor must be at least 1"), form.Integer("Floor must be a whole number")),
	form.Required("bedrooms", form.Min(1, "Must have at least 1 bedroom"), form.Integer("Bedrooms must be a whole number")),
	form.Required("bathrooms", form.Min(1, "Must have at least 1 bathroom"), form.Integer("Bathrooms must be a whole number")),
	form.Required("area_sqft", form.Min(100, "Area must be at least 100 sq ft")),
	form.Required("monthly_rent", form.Min(0, "Rent must be positive")),
	form.Optional("security_deposit", form.Min(0, "Security deposit cannot be negative")),
	form.Required("status", form.OneOf(flatStatuses, "Invalid flat status")),
	form.Required("description", form.MinLen(1, "Description is required")),
	form.Optional("amenities", form.Strings("Amenities must be a list of strings")),
	form.Optional("features", form.Strings("Features must be a list of strings")),
	form.Optional("images", form.Strings("Images must be a list of strings")),
	form.Optional("last_maintenance_date", form.Date("Enter a valid date")),
	form.Optional("next_maintenance_date", form.Date("Enter a valid date")),
}

// TenantForm validates tenant bodies.
var TenantForm = form.Schema{
	form.Required("full_name", form.MinLen(2, "Full name must be at least 2 characters")),
	form.Required("email", form.Email(msgValidEmail)),
	form.Required("phone", form.MinLen(10, "Phone number must be at least 10 digits")),
	form.Required("emergency_contact", form.MinLen(2, "Emergency contact name is required")),
	form.Required("emergency_phone", form.MinLen(10, "Emergency phone must be at least 10 digits")),
	form.Required("id_number", form.MinLen(1, "ID number is required")),
	form.Required("occupation", form.MinLen(1, "Occupation is required")),
	form.Optional("date_of_birth", form.Date("Enter a valid date of birth")),
	form.Optional("address", form.String()),
	form.Optional("previous_address", form.String()),
	form.Optional("employer", form.String()),
	form.Optional("monthly_income", form.Min(0, "Monthly income cannot be negative")),
	form.Optional("credit_score",
		form.Min(300, "Credit score must be between 300 and 850"),
		form.Max(850, "Credit score must be between 300 and 850"),
		form.Integer("Credit score must be a whole number")),
	form.Optional("rental_history", form.String()),
	form.Optional("references", form.Strings("References must be a list of strings")),
	form.Optional("documents", form.Strings("Documents must be a list of strings")),
	form.Optional("status", form.OneOf(tenantStatuses, "Invalid tenant status")),
}

// LeaseForm validates lease bodies.
var LeaseForm = form.Schema{
	form.Required("flat_id", form.MinLen(1, "Flat is required")),
	form.Required("tenant_id", form.MinLen(1, "Tenant is required")),
	form.Optional("apartment_id", form.String()),
	form.Optional("lease_number", form.String()),
	form.Required("start_date", form.MinLen(1, "Start date is required"), form.Date("Start date must be a valid date")),
	form.Required("end_date", form.MinLen(1, "End date is required"), form.Date("End date must be a valid date")),
	form.Required("monthly_rent", form.Min(1, "Monthly rent must be greater than 0")),
	form.Required("security_deposit", form.Min(0, "Security deposit cannot be negative")),
	form.Optional("late_fee", form.Min(0, "Late fee cannot be negative")),
	form.Optional("utilities_included", form.Bool("Utilities included must be true or false")),
	form.Optional("pet_deposit", form.Min(0, "Pet deposit cannot be negative")),
	count("parking_spaces", "Parking spaces"),
	form.Required("status", form.OneOf(leaseStatuses, "Invalid lease status")),
	form.Optional("renewal_date", form.Date("Renewal date must be a valid date")),
	form.Optional("termination_reason", form.String()),
	form.Optional("notes", form.String()),
}

// PaymentForm validates rent payment bodies.
var PaymentForm = form.Schema{
	form.Required("lease_id", form.MinLen(1, "Lease is required")),
	form.Optional("flat_id", form.String()),
	form.Optional("tenant_id", form.String()),
	form.Optional("apartment_id", form.String()),
	form.Required("amount", form.Min(1, "Amount must be greater than 0")),
	form.Required("due_date", form.MinLen(1, "Due date is required"), form.Date("Due date must be a valid date")),
	form.Optional("payment_date", form.Date("Payment date must be a valid date")),
	form.Required("payment_method", form.OneOf(paymentMethods, "Invalid payment method")),
	form.Required("status", form.OneOf(paymentStatuses, "Invalid payment status")),
	form.Optional("late_fee", form.Min(0, "Late fee cannot be negative")),
	form.Optional("receipt_number", form.String()),
	form.Optional("transaction_id", form.String()),
	form.Optional("notes", form.String()),
}

// MaintenanceForm validates maintenance request bodies.
var MaintenanceForm = form.Schema{
	form.Required("flat_id", form.MinLen(1, "Flat is required")),
	form.Optional("apartment_id", form.String()),
	form.Optional("tenant_id", form.String()),
	form.Required("title", form.MinLen(3, "Title must be at least 3 characters")),
	form.Optional("description", form.String()),
	form.Required("category", form.OneOf(categories, "Invalid category")),
	form.Required("priority", form.OneOf(priorities, "Invalid priority")),
	form.Required("status", form.OneOf(maintStatuses, "Invalid maintenance status")),
	form.Optional("assigned_to", form.String()),
	form.Optional("estimated_cost", form.Min(0, "Estimated cost cannot be negative")),
	form.Optional("actual_cost", form.Min(0, "Actual cost cannot be negative")),
	form.Optional("scheduled_date", form.Date("Scheduled date must be a valid date")),
	form.Optional("completed_date", form.Date("Completed date must be a valid date")),
	form.Optional("images", form.Strings("Images must be a list of strings")),
	form.Optional("notes", form.String()),
}

// FormFor returns the schema for kind.
func FormFor(kind Kind) (form.Schema, bool) {
	switch kind {
	case KindApartment:
		return ApartmentForm, true
	case KindFlat:
		return FlatForm, true
	case KindTenant:
		return TenantForm, true
	case KindLease:
		return LeaseForm, true
	case KindPayment:
		return PaymentForm, true
	case KindMaintenance:
		return MaintenanceForm, true
	}
	return nil, false
}
