package prefs

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_GetBoolMissingKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	v, err := store.GetBool(ctx, KeyRewardsEnabled)
	if err != nil {
		t.Fatalf("GetBool: %v", err)
	}
	if v {
		t.Error("missing key should read as false")
	}
}

func TestSQLiteStore_SetGetBool(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.SetBool(ctx, KeyRewardsEnabled, true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	v, err := store.GetBool(ctx, KeyRewardsEnabled)
	if err != nil {
		t.Fatalf("GetBool: %v", err)
	}
	if !v {
		t.Error("expected true after SetBool(true)")
	}

	// Overwrite
	if err := store.SetBool(ctx, KeyRewardsEnabled, false); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	v, err = store.GetBool(ctx, KeyRewardsEnabled)
	if err != nil {
		t.Fatalf("GetBool: %v", err)
	}
	if v {
		t.Error("expected false after SetBool(false)")
	}
}

func TestSQLiteStore_TriggerWeeklySum(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	// Two triggers today, one three days ago, one exactly six days ago
	// (still inside the window), one seven days ago (outside).
	if err := store.AddTriggerDelta(ctx, 2, now); err != nil {
		t.Fatalf("AddTriggerDelta: %v", err)
	}
	if err := store.AddTriggerDelta(ctx, 1, now.AddDate(0, 0, -3)); err != nil {
		t.Fatalf("AddTriggerDelta: %v", err)
	}
	if err := store.AddTriggerDelta(ctx, 1, now.AddDate(0, 0, -6)); err != nil {
		t.Fatalf("AddTriggerDelta: %v", err)
	}
	if err := store.AddTriggerDelta(ctx, 5, now.AddDate(0, 0, -7)); err != nil {
		t.Fatalf("AddTriggerDelta: %v", err)
	}

	sum, err := store.TriggerWeeklySum(ctx, now)
	if err != nil {
		t.Fatalf("TriggerWeeklySum: %v", err)
	}
	if sum != 4 {
		t.Errorf("weekly sum = %d, want 4 (events older than 7 days excluded)", sum)
	}
}

func TestSQLiteStore_TriggerSumSlidesWithTime(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	day0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.AddTriggerDelta(ctx, 3, day0); err != nil {
		t.Fatalf("AddTriggerDelta: %v", err)
	}

	sum, err := store.TriggerWeeklySum(ctx, day0.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("TriggerWeeklySum: %v", err)
	}
	if sum != 3 {
		t.Errorf("sum six days later = %d, want 3", sum)
	}

	sum, err = store.TriggerWeeklySum(ctx, day0.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("TriggerWeeklySum: %v", err)
	}
	if sum != 0 {
		t.Errorf("sum seven days later = %d, want 0", sum)
	}
}

func TestSQLiteStore_AddTriggerDeltaPrunes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := old.AddDate(0, 0, 30)

	if err := store.AddTriggerDelta(ctx, 9, old); err != nil {
		t.Fatalf("AddTriggerDelta: %v", err)
	}
	// A write a month later prunes the stale bucket.
	if err := store.AddTriggerDelta(ctx, 1, now); err != nil {
		t.Fatalf("AddTriggerDelta: %v", err)
	}

	var rows int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM panel_trigger_daily`).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("stale bucket not pruned, %d rows remain", rows)
	}
}

func TestSQLiteStore_SameDayAccumulates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	morning := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)

	if err := store.AddTriggerDelta(ctx, 1, morning); err != nil {
		t.Fatalf("AddTriggerDelta: %v", err)
	}
	if err := store.AddTriggerDelta(ctx, 1, evening); err != nil {
		t.Fatalf("AddTriggerDelta: %v", err)
	}

	sum, err := store.TriggerWeeklySum(ctx, evening)
	if err != nil {
		t.Fatalf("TriggerWeeklySum: %v", err)
	}
	if sum != 2 {
		t.Errorf("same-day sum = %d, want 2", sum)
	}
}
