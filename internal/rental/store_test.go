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
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentrusty/rentals/internal/kv"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func emptySeed(time.Time) Snapshot { return Snapshot{} }

// failingKV accepts loads from an inner store but rejects every save.
type failingKV struct {
	kv.Store
}

func (failingKV) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

type brokenKV struct {
	kv.Store
}

func (brokenKV) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("permission denied")
}

type fakeRemote struct {
	snap Snapshot
	err  error
}

func (f fakeRemote) Load(context.Context) (Snapshot, error) { return f.snap, f.err }

func newTestStore(t *testing.T, adapter kv.Store, opts ...Option) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{t: testNow}
	base := []Option{WithClock(clock.Now), WithIDGenerator(sequentialIDs()), WithSeed(emptySeed)}
	s := NewStore(adapter, append(base, opts...)...)
	s.Load(context.Background(), nil)
	return s, clock
}

// TestPurpose: Validates that added records receive an id and timestamps and are persisted.
// Scope: Unit Test
// Expected: The returned flat has id-1, both timestamps equal the clock, and a new store reads it back.
// Test Case ID: STR-01
func TestStore_AddAssignsIdentityAndPersists(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s, _ := newTestStore(t, mem)

	f := s.AddFlat(ctx, Flat{ApartmentID: "apt-1", FlatNumber: "101", MonthlyRent: 1500, Status: FlatVacant})
	assert.Equal(t, "id-1", f.ID)
	assert.Equal(t, testNow, f.CreatedAt)
	assert.Equal(t, testNow, f.UpdatedAt)

	got, ok := s.GetFlat("id-1")
	require.True(t, ok)
	assert.Equal(t, f, got)

	reloaded := NewStore(mem, WithSeed(emptySeed))
	assert.Equal(t, OriginSnapshot, reloaded.Load(ctx, nil))
	again, ok := reloaded.GetFlat("id-1")
	require.True(t, ok)
	assert.Equal(t, "101", again.FlatNumber)
	assert.True(t, testNow.Equal(again.CreatedAt))
}

// TestPurpose: Validates partial update merges fields and protects identity.
// Scope: Unit Test
// Expected: Rent changes, id and created_at stay, updated_at advances.
// Test Case ID: STR-02
func TestStore_UpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestStore(t, kv.NewMemory())
	f := s.AddFlat(ctx, Flat{FlatNumber: "101", MonthlyRent: 1500, Status: FlatVacant})

	clock.Advance(time.Hour)
	err := s.UpdateFlat(ctx, f.ID, Patch{
		"monthly_rent": 1650.0,
		"status":       "occupied",
		"id":           "hijack",
		"created_at":   "2000-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	got, ok := s.GetFlat(f.ID)
	require.True(t, ok)
	assert.Equal(t, 1650.0, got.MonthlyRent)
	assert.Equal(t, FlatOccupied, got.Status)
	assert.Equal(t, "101", got.FlatNumber)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, testNow, got.CreatedAt)
	assert.Equal(t, testNow.Add(time.Hour), got.UpdatedAt)

	_, ok = s.GetFlat("hijack")
	assert.False(t, ok)
}

// TestPurpose: Validates that unknown ids are silently ignored by update and delete.
// Scope: Unit Test
// Expected: No error, no event, collections unchanged.
// Test Case ID: STR-03
func TestStore_UnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, kv.NewMemory())
	s.AddTenant(ctx, Tenant{FullName: "John Smith"})
	before := s.Snapshot()

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	assert.NoError(t, s.UpdateTenant(ctx, "missing", Patch{"full_name": "Nobody"}))
	assert.NoError(t, s.DeleteTenant(ctx, "missing"))
	assert.Empty(t, events)
	assert.Equal(t, before, s.Snapshot())
	assert.Empty(t, s.LastError())
}

// TestPurpose: Validates that a patch which cannot be merged leaves the record untouched.
// Scope: Unit Test
// Expected: ErrMerge is returned, the banner names the entity, and the record is unchanged.
// Test Case ID: STR-04
func TestStore_UpdateMergeFailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, kv.NewMemory())
	f := s.AddFlat(ctx, Flat{FlatNumber: "101", Floor: 1})

	err := s.UpdateFlat(ctx, f.ID, Patch{"floor": "high", "flat_number": "999"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMerge)
	assert.Equal(t, "Failed to update flat", s.LastError())

	got, _ := s.GetFlat(f.ID)
	assert.Equal(t, f, got)
}

// TestPurpose: Validates delete removes the record without touching dependents.
// Scope: Unit Test
// Expected: The apartment is gone and its flat still references it.
// Test Case ID: STR-05
func TestStore_DeleteDoesNotCascade(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, kv.NewMemory())
	a := s.AddApartment(ctx, Apartment{Name: "Sunset Gardens"})
	f := s.AddFlat(ctx, Flat{ApartmentID: a.ID, FlatNumber: "101"})

	require.NoError(t, s.DeleteApartment(ctx, a.ID))
	_, ok := s.GetApartment(a.ID)
	assert.False(t, ok)

	flats := s.FlatsByApartment(a.ID)
	require.Len(t, flats, 1)
	assert.Equal(t, f.ID, flats[0].ID)
}

// TestPurpose: Validates that a failed save keeps the in-memory mutation and raises the banner.
// Scope: Unit Test
// Expected: The flat exists, LastError is "Failed to persist data", and the event carries PersistErr.
// Test Case ID: STR-06
func TestStore_PersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, failingKV{Store: kv.NewMemory()})
	s.ClearError()

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	f := s.AddFlat(ctx, Flat{FlatNumber: "101"})
	_, ok := s.GetFlat(f.ID)
	assert.True(t, ok)
	assert.Equal(t, MsgPersistFailed, s.LastError())
	require.Len(t, events, 1)
	assert.Error(t, events[0].PersistErr)
}

// TestPurpose: Validates the startup load paths.
// Scope: Unit Test
// Expected: Each adapter state yields the documented origin and banner.
// Test Case ID: STR-07
func TestStore_LoadOrigins(t *testing.T) {
	ctx := context.Background()
	seeded := func() Snapshot { return SeedData(testNow) }

	t.Run("first run seeds and persists", func(t *testing.T) {
		mem := kv.NewMemory()
		s := NewStore(mem, WithClock(func() time.Time { return testNow }))
		assert.Equal(t, OriginSeed, s.Load(ctx, nil))
		assert.Len(t, s.Flats(), 3)
		assert.Empty(t, s.LastError())

		_, err := mem.Load(ctx, DataKey)
		assert.NoError(t, err)
	})

	t.Run("corrupt snapshot falls back to seed", func(t *testing.T) {
		mem := kv.NewMemory()
		require.NoError(t, mem.Save(ctx, DataKey, []byte("{not json")))
		s := NewStore(mem, WithClock(func() time.Time { return testNow }))
		assert.Equal(t, OriginSeed, s.Load(ctx, nil))
		assert.Equal(t, MsgLoadFailed, s.LastError())
		assert.Equal(t, seeded(), s.Snapshot())
	})

	t.Run("unreadable adapter falls back to seed", func(t *testing.T) {
		s := NewStore(brokenKV{Store: kv.NewMemory()}, WithClock(func() time.Time { return testNow }))
		assert.Equal(t, OriginSeed, s.Load(ctx, nil))
		assert.Equal(t, MsgLoadFailed, s.LastError())
	})

	t.Run("remote wins when reachable", func(t *testing.T) {
		remote := fakeRemote{snap: Snapshot{Apartments: []Apartment{{Meta: Meta{ID: "remote-1"}, Name: "Remote"}}}}
		s := NewStore(kv.NewMemory())
		assert.Equal(t, OriginRemote, s.Load(ctx, remote))
		require.Len(t, s.Apartments(), 1)
		assert.Equal(t, "remote-1", s.Apartments()[0].ID)
	})

	t.Run("remote failure falls back to seed", func(t *testing.T) {
		s := NewStore(kv.NewMemory(), WithClock(func() time.Time { return testNow }))
		assert.Equal(t, OriginRemoteFallback, s.Load(ctx, fakeRemote{err: errors.New("connection refused")}))
		assert.Equal(t, seeded(), s.Snapshot())
	})
}

// TestPurpose: Validates reset restores seed data and clears the banner.
// Scope: Unit Test
// Expected: Added records disappear, the banner is empty, and a reset event is published.
// Test Case ID: STR-08
func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory(), WithClock(func() time.Time { return testNow }))
	s.Load(ctx, nil)
	s.AddTenant(ctx, Tenant{FullName: "Extra"})
	s.SetError("Failed to persist data")

	var got []Event
	s.Subscribe(func(ev Event) { got = append(got, ev) })
	s.Reset(ctx)

	assert.Equal(t, SeedData(testNow), s.Snapshot())
	assert.Empty(t, s.LastError())
	require.Len(t, got, 1)
	assert.Equal(t, ActionReset, got[0].Action)
	assert.IsType(t, Snapshot{}, got[0].Record)
}

// TestPurpose: Validates subscriber notification and unsubscription.
// Scope: Unit Test
// Expected: Events arrive in mutation order and stop after unsubscribe.
// Test Case ID: STR-09
func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, kv.NewMemory())

	var got []string
	unsubscribe := s.Subscribe(func(ev Event) {
		got = append(got, fmt.Sprintf("%s:%s:%s", ev.Kind, ev.Action, ev.ID))
	})

	l := s.AddLease(ctx, Lease{FlatID: "flat-1", TenantID: "tenant-1"})
	require.NoError(t, s.UpdateLease(ctx, l.ID, Patch{"status": "terminated"}))
	require.NoError(t, s.DeleteLease(ctx, l.ID))
	unsubscribe()
	s.AddLease(ctx, Lease{})

	assert.Equal(t, []string{
		"lease:created:id-1",
		"lease:updated:id-1",
		"lease:deleted:id-1",
	}, got)
}

// TestPurpose: Validates that concurrent mutations are delivered in the order they were applied.
// Scope: Unit Test
// Expected: Subscribers see strictly increasing update times and the last event matches the stored record.
// Test Case ID: STR-16
func TestStore_SubscribersSeeCommitOrder(t *testing.T) {
	ctx := context.Background()
	var tick atomic.Int64
	s, _ := newTestStore(t, kv.NewMemory(), WithClock(func() time.Time {
		return testNow.Add(time.Duration(tick.Add(1)) * time.Second)
	}))
	l := s.AddLease(ctx, Lease{FlatID: "flat-1"})

	var seen []Lease
	s.Subscribe(func(ev Event) {
		seen = append(seen, ev.Record.(Lease))
	})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_ = s.UpdateLease(ctx, l.ID, Patch{"notes": fmt.Sprintf("w%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	require.Len(t, seen, 200)
	for i := 1; i < len(seen); i++ {
		require.True(t, seen[i].UpdatedAt.After(seen[i-1].UpdatedAt), "event %d out of order", i)
	}
	stored, ok := s.GetLease(l.ID)
	require.True(t, ok)
	assert.Equal(t, stored, seen[len(seen)-1])
}

// TestPurpose: Validates that lease references are stored as given.
// Scope: Unit Test
// Expected: A lease naming a flat and tenant that do not exist is accepted and read back unchanged.
// Test Case ID: STR-17
func TestStore_AcceptsDanglingLeaseRefs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, kv.NewMemory())

	l := s.AddLease(ctx, Lease{FlatID: "flat-ghost", TenantID: "tenant-ghost", MonthlyRent: 900, Status: LeasePending})
	got, ok := s.GetLease(l.ID)
	require.True(t, ok)
	assert.Equal(t, l, got)
	assert.Empty(t, s.Flats())
	assert.Empty(t, s.Tenants())
	assert.Empty(t, s.LastError())
}

// TestPurpose: Validates that Snapshot returns a copy.
// Scope: Unit Test
// Expected: Mutating the returned slices does not affect the store.
// Test Case ID: STR-10
func TestStore_SnapshotIsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, kv.NewMemory())
	s.AddPayment(ctx, RentPayment{Amount: 100})

	snap := s.Snapshot()
	snap.Payments[0].Amount = 999

	assert.Equal(t, 100.0, s.Payments()[0].Amount)
}

func TestStore_CopiesDoNotShareSlices(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, kv.NewMemory())

	amenities := []string{"Pool", "Gym"}
	a := s.AddApartment(ctx, Apartment{Name: "Harbor View", Amenities: amenities})
	amenities[0] = "changed by caller"

	snap := s.Snapshot()
	snap.Apartments[0].Amenities[0] = "changed via snapshot"

	got, ok := s.GetApartment(a.ID)
	require.True(t, ok)
	got.Amenities[1] = "changed via get"

	s.Apartments()[0].Amenities[0] = "changed via list"

	f := s.AddFlat(ctx, Flat{Features: []string{"Balcony"}, Images: []string{"a.jpg"}})
	flat, _ := s.GetFlat(f.ID)
	flat.Features[0] = "x"
	flat.Images[0] = "y"

	fresh, _ := s.GetApartment(a.ID)
	assert.Equal(t, []string{"Pool", "Gym"}, fresh.Amenities)
	freshFlat, _ := s.GetFlat(f.ID)
	assert.Equal(t, []string{"Balcony"}, freshFlat.Features)
	assert.Equal(t, []string{"a.jpg"}, freshFlat.Images)
}

// TestPurpose: Validates relation lookups and status filters keep insertion order.
// Scope: Unit Test
// Expected: Each lookup returns exactly the related records.
// Test Case ID: STR-11
func TestStore_RelationLookups(t *testing.T) {
	s := NewStore(kv.NewMemory(), WithClock(func() time.Time { return testNow }))
	s.Load(context.Background(), nil)

	ids := func(n int, id func(int) string) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = id(i)
		}
		return out
	}

	flats := s.FlatsByApartment("apt-1")
	assert.Equal(t, []string{"flat-1", "flat-2"}, ids(len(flats), func(i int) string { return flats[i].ID }))

	tenants := s.TenantsByFlat("flat-1")
	require.Len(t, tenants, 1)
	assert.Equal(t, "tenant-1", tenants[0].ID)

	assert.Len(t, s.LeasesByTenant("tenant-2"), 1)
	assert.Len(t, s.LeasesByFlat("flat-2"), 0)
	assert.NotNil(t, s.LeasesByFlat("flat-2"))

	pays := s.PaymentsByLease("lease-2")
	assert.Equal(t, []string{"pay-2", "pay-3"}, ids(len(pays), func(i int) string { return pays[i].ID }))
	assert.Len(t, s.PaymentsByTenant("tenant-1"), 2)
	assert.Len(t, s.PaymentsByStatus(PaymentPaid), 2)

	assert.Len(t, s.FlatsByStatus(FlatOccupied), 2)
	assert.Len(t, s.LeasesByStatus(LeaseActive), 2)
	assert.Len(t, s.MaintenanceByStatus(MaintenancePending), 1)
	assert.Len(t, s.MaintenanceByFlat("flat-1"), 1)
}

// TestPurpose: Validates reference filling from related records.
// Scope: Unit Test
// Expected: Lease inherits the flat's apartment; payment inherits lease ids; dangling ids are kept.
// Test Case ID: STR-12
func TestStore_FillRefs(t *testing.T) {
	s := NewStore(kv.NewMemory(), WithClock(func() time.Time { return testNow }))
	s.Load(context.Background(), nil)

	l := Lease{FlatID: "flat-3", TenantID: "tenant-3"}
	s.FillLeaseRefs(&l)
	assert.Equal(t, "apt-2", l.ApartmentID)

	p := RentPayment{LeaseID: "lease-1"}
	s.FillPaymentRefs(&p)
	assert.Equal(t, "flat-1", p.FlatID)
	assert.Equal(t, "tenant-1", p.TenantID)
	assert.Equal(t, "apt-1", p.ApartmentID)

	dangling := Lease{FlatID: "flat-404"}
	s.FillLeaseRefs(&dangling)
	assert.Empty(t, dangling.ApartmentID)
	assert.Equal(t, "flat-404", dangling.FlatID)
}

// TestPurpose: Validates Decode builds a record from form fields.
// Scope: Unit Test
// Expected: Known fields are set, identity fields are ignored.
// Test Case ID: STR-13
func TestDecode(t *testing.T) {
	a, err := Decode[Apartment](Patch{"name": "Sunset Gardens", "total_flats": 12.0, "id": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Sunset Gardens", a.Name)
	assert.Equal(t, 12, a.TotalFlats)
	assert.Empty(t, a.ID)

	_, err = Decode[Apartment](Patch{"total_flats": "twelve"})
	assert.ErrorIs(t, err, ErrMerge)
}
