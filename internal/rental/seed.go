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

// SeedData is the demo dataset used on first run, on reset and when the
// remote data service cannot be reached. Dates are relative to now so the
// dashboard always has a current month and an expiring lease.
//
// It has two apartments, three flats (two occupied, one vacant), three
// tenants, two active leases, four payments and two maintenance requests.
func SeedData(now time.Time) Snapshot {
	now = now.UTC()
	created := now.AddDate(0, -6, 0)
	meta := func(id string) Meta {
		return Meta{ID: id, CreatedAt: created, UpdatedAt: created}
	}
	day := func(months, days int) string {
		return FormatDate(now.AddDate(0, months, days))
	}
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthStart := func(offset int) string {
		return FormatDate(firstOfMonth.AddDate(0, offset, 0))
	}

	return Snapshot{
		Apartments: []Apartment{
			{
				Meta:            meta("apt-1"),
				Name:            "Sunset Gardens",
				Address:         "123 Sunset Boulevard",
				City:            "Los Angeles",
				State:           "CA",
				ZipCode:         "90028",
				TotalFlats:      2,
				OccupiedFlats:   1,
				VacantFlats:     1,
				MonthlyRevenue:  1500,
				YearlyRevenue:   18000,
				Amenities:       []string{"Pool", "Gym", "Parking"},
				PropertyManager: "Maria Garcia",
				ContactPhone:    "3105550100",
				ContactEmail:    "sunset@rental.com",
				Status:          ApartmentActive,
			},
			{
				Meta:            meta("apt-2"),
				Name:            "Riverside Towers",
				Address:         "45 River Road",
				City:            "Austin",
				State:           "TX",
				ZipCode:         "73301",
				TotalFlats:      1,
				OccupiedFlats:   1,
				MonthlyRevenue:  2200,
				YearlyRevenue:   26400,
				Amenities:       []string{"Concierge", "Rooftop"},
				PropertyManager: "David Chen",
				ContactPhone:    "5125550199",
				ContactEmail:    "riverside@rental.com",
				Status:          ApartmentActive,
			},
		},
		Flats: []Flat{
			{
				Meta:            meta("flat-1"),
				ApartmentID:     "apt-1",
				FlatNumber:      "101",
				Floor:           1,
				Bedrooms:        2,
				Bathrooms:       1,
				AreaSqft:        850,
				MonthlyRent:     1500,
				SecurityDeposit: 1500,
				Status:          FlatOccupied,
				Description:     "Bright two-bedroom facing the garden",
				Amenities:       []string{"Balcony"},
				Features:        []string{"Hardwood floors"},
			},
			{
				Meta:                meta("flat-2"),
				ApartmentID:         "apt-1",
				FlatNumber:          "102",
				Floor:               1,
				Bedrooms:            1,
				Bathrooms:           1,
				AreaSqft:            600,
				MonthlyRent:         1200,
				SecurityDeposit:     1200,
				Status:              FlatVacant,
				Description:         "Compact one-bedroom near the lobby",
				NextMaintenanceDate: day(0, 7),
			},
			{
				Meta:            meta("flat-3"),
				ApartmentID:     "apt-2",
				FlatNumber:      "1204",
				Floor:           12,
				Bedrooms:        3,
				Bathrooms:       2,
				AreaSqft:        1400,
				MonthlyRent:     2200,
				SecurityDeposit: 4400,
				Status:          FlatOccupied,
				Description:     "Corner unit with river views",
				Amenities:       []string{"In-unit laundry"},
			},
		},
		Tenants: []Tenant{
			{
				Meta:             meta("tenant-1"),
				FullName:         "John Smith",
				Email:            "john.smith@example.com",
				Phone:            "3105550111",
				EmergencyContact: "Jane Smith",
				EmergencyPhone:   "3105550112",
				IDNumber:         "DL-4821",
				Occupation:       "Software Engineer",
				Employer:         "Acme Corp",
				MonthlyIncome:    8500,
				CreditScore:      742,
				Status:           TenantActive,
			},
			{
				Meta:             meta("tenant-2"),
				FullName:         "Sarah Johnson",
				Email:            "sarah.johnson@example.com",
				Phone:            "5125550123",
				EmergencyContact: "Mark Johnson",
				EmergencyPhone:   "5125550124",
				IDNumber:         "DL-9930",
				Occupation:       "Architect",
				MonthlyIncome:    9800,
				CreditScore:      781,
				Status:           TenantActive,
			},
			{
				Meta:             meta("tenant-3"),
				FullName:         "Mike Brown",
				Email:            "mike.brown@example.com",
				Phone:            "3105550177",
				EmergencyContact: "Lisa Brown",
				EmergencyPhone:   "3105550178",
				IDNumber:         "PP-1204",
				Occupation:       "Teacher",
				Status:           TenantPending,
			},
		},
		Leases: []Lease{
			{
				Meta:            meta("lease-1"),
				FlatID:          "flat-1",
				TenantID:        "tenant-1",
				ApartmentID:     "apt-1",
				LeaseNumber:     "L-2026-001",
				StartDate:       day(-11, 20),
				EndDate:         day(0, 20),
				MonthlyRent:     1500,
				SecurityDeposit: 1500,
				LateFee:         50,
				ParkingSpaces:   1,
				Status:          LeaseActive,
			},
			{
				Meta:              meta("lease-2"),
				FlatID:            "flat-3",
				TenantID:          "tenant-2",
				ApartmentID:       "apt-2",
				LeaseNumber:       "L-2026-002",
				StartDate:         day(-2, 0),
				EndDate:           day(10, 0),
				MonthlyRent:       2200,
				SecurityDeposit:   4400,
				LateFee:           75,
				UtilitiesIncluded: true,
				Status:            LeaseActive,
			},
		},
		Payments: []RentPayment{
			{
				Meta:          meta("pay-1"),
				LeaseID:       "lease-1",
				FlatID:        "flat-1",
				TenantID:      "tenant-1",
				ApartmentID:   "apt-1",
				Amount:        1500,
				PaymentDate:   monthStart(0),
				DueDate:       monthStart(0),
				PaymentMethod: MethodBankTransfer,
				Status:        PaymentPaid,
				ReceiptNumber: "R-1001",
			},
			{
				Meta:          meta("pay-2"),
				LeaseID:       "lease-2",
				FlatID:        "flat-3",
				TenantID:      "tenant-2",
				ApartmentID:   "apt-2",
				Amount:        2200,
				PaymentDate:   monthStart(-1),
				DueDate:       monthStart(-1),
				PaymentMethod: MethodOnline,
				Status:        PaymentPaid,
				ReceiptNumber: "R-1002",
			},
			{
				Meta:          meta("pay-3"),
				LeaseID:       "lease-2",
				FlatID:        "flat-3",
				TenantID:      "tenant-2",
				ApartmentID:   "apt-2",
				Amount:        2200,
				DueDate:       monthStart(1),
				PaymentMethod: MethodOnline,
				Status:        PaymentPending,
			},
			{
				Meta:          meta("pay-4"),
				LeaseID:       "lease-1",
				FlatID:        "flat-1",
				TenantID:      "tenant-1",
				ApartmentID:   "apt-1",
				Amount:        1500,
				DueDate:       monthStart(-1),
				PaymentMethod: MethodCheck,
				Status:        PaymentOverdue,
				LateFee:       50,
			},
		},
		Maintenance: []Maintenance{
			{
				Meta:          meta("mnt-1"),
				FlatID:        "flat-2",
				ApartmentID:   "apt-1",
				Title:         "Leaking kitchen faucet",
				Description:   "Faucet drips constantly",
				Category:      CategoryRepair,
				Priority:      PriorityMedium,
				Status:        MaintenancePending,
				EstimatedCost: 120,
				ScheduledDate: day(0, 7),
			},
			{
				Meta:          meta("mnt-2"),
				FlatID:        "flat-1",
				ApartmentID:   "apt-1",
				TenantID:      "tenant-1",
				Title:         "Annual smoke detector inspection",
				Category:      CategoryInspection,
				Priority:      PriorityLow,
				Status:        MaintenanceCompleted,
				EstimatedCost: 40,
				ActualCost:    40,
				CompletedDate: day(-1, 0),
			},
		},
	}
}
