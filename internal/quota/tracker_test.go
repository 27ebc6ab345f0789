package quota

import (
	"encoding/json"
	"testing"
	"time"
)

func fixedClock(day string) func() time.Time {
	t, err := time.ParseInLocation(dayFormat, day, time.Local)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func storeWithRecord(t *testing.T, rec Record) *MemStore {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("failed to marshal record: %v", err)
	}
	store := &MemStore{}
	if err := store.Set(data); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return store
}

func TestCheckAvailableBelowCeiling(t *testing.T) {
	for count := 0; count < MaxPerDay; count++ {
		store := storeWithRecord(t, Record{Day: "2026-08-29", Count: count})
		tracker := NewTracker(store, fixedClock("2026-08-29"))
		if !tracker.CheckAvailable() {
			t.Errorf("count %d: expected quota available", count)
		}
	}
}

func TestCheckAvailableAtCeiling(t *testing.T) {
	store := storeWithRecord(t, Record{Day: "2026-08-29", Count: MaxPerDay})
	tracker := NewTracker(store, fixedClock("2026-08-29"))
	if tracker.CheckAvailable() {
		t.Error("expected quota exhausted at ceiling")
	}
}

func TestConsumeIncrementsByOne(t *testing.T) {
	store := storeWithRecord(t, Record{Day: "2026-08-29", Count: 5})
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	tracker.Consume()

	if got := tracker.Remaining(); got != MaxPerDay-6 {
		t.Errorf("expected %d remaining, got %d", MaxPerDay-6, got)
	}
}

func TestConsumeNoOpAtCeiling(t *testing.T) {
	store := storeWithRecord(t, Record{Day: "2026-08-29", Count: MaxPerDay})
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	tracker.Consume()

	data, err := store.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("failed to parse record: %v", err)
	}
	if rec.Count != MaxPerDay {
		t.Errorf("expected count to stay %d, got %d", MaxPerDay, rec.Count)
	}
}

func TestDayRolloverResetsCount(t *testing.T) {
	store := storeWithRecord(t, Record{Day: "2026-08-28", Count: MaxPerDay})
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	if !tracker.CheckAvailable() {
		t.Error("expected quota available after day rollover")
	}
	if got := tracker.Remaining(); got != MaxPerDay {
		t.Errorf("expected %d remaining after rollover, got %d", MaxPerDay, got)
	}
}

func TestFutureDayRecordDiscarded(t *testing.T) {
	store := storeWithRecord(t, Record{Day: "2026-09-15", Count: 12})
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	if got := tracker.Remaining(); got != MaxPerDay {
		t.Errorf("expected fresh record for future-dated day, got %d remaining", got)
	}
}

func TestCorruptedRecordTreatedAsAbsent(t *testing.T) {
	store := &MemStore{}
	if err := store.Set([]byte("{not json")); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	if !tracker.CheckAvailable() {
		t.Error("expected quota available for corrupted record")
	}
	if got := tracker.Remaining(); got != MaxPerDay {
		t.Errorf("expected %d remaining, got %d", MaxPerDay, got)
	}
}

func TestNegativeCountTreatedAsFresh(t *testing.T) {
	store := storeWithRecord(t, Record{Day: "2026-08-29", Count: -3})
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	if got := tracker.Remaining(); got != MaxPerDay {
		t.Errorf("expected fresh record for negative count, got %d remaining", got)
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	store := storeWithRecord(t, Record{Day: "2026-08-29", Count: MaxPerDay + 7})
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	if got := tracker.Remaining(); got != 0 {
		t.Errorf("expected 0 remaining for over-ceiling record, got %d", got)
	}
}

func TestStorageReadFailureDegradesToUnlimited(t *testing.T) {
	store := &MemStore{FailGet: true}
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	if !tracker.CheckAvailable() {
		t.Error("expected quota available when storage read fails")
	}
}

func TestConsumeDuringReadFailureLeavesRecordIntact(t *testing.T) {
	store := storeWithRecord(t, Record{Day: "2026-08-29", Count: 12})
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	// A transient read fault must not let Consume write a fresh {today, 1}
	// record over the still-valid persisted count.
	store.FailGet = true
	tracker.Consume()
	store.FailGet = false

	if got := tracker.Remaining(); got != MaxPerDay-12 {
		t.Errorf("expected %d remaining after read fault cleared, got %d", MaxPerDay-12, got)
	}
}

func TestStorageWriteFailureDoesNotPanic(t *testing.T) {
	store := &MemStore{FailSet: true}
	tracker := NewTracker(store, fixedClock("2026-08-29"))

	tracker.Consume()

	// The failed write means the count never lands; the next read starts fresh.
	if got := tracker.Remaining(); got != MaxPerDay {
		t.Errorf("expected %d remaining after failed persist, got %d", MaxPerDay, got)
	}
}

func TestConsumePersistsAcrossTrackers(t *testing.T) {
	store := &MemStore{}
	clock := fixedClock("2026-08-29")

	NewTracker(store, clock).Consume()
	second := NewTracker(store, clock)

	if got := second.Remaining(); got != MaxPerDay-1 {
		t.Errorf("expected %d remaining in fresh tracker, got %d", MaxPerDay-1, got)
	}
}
