package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"video-enhancer/internal/domain"
)

// TestSQLiteStoreRoundTrip verifies insert, ordered load and delete.
func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "history.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	settings := domain.DefaultEnhancementSettings()
	settings.OutputFormat = domain.OutputFormatMKV

	for _, id := range []int64{10, 20} {
		err := store.Insert(ctx, domain.HistoryEntry{
			ID:           id,
			OriginalName: "clip.mp4",
			EnhancedPath: domain.DefaultLocationLabel,
			OutputFile:   "/out/enhanced_clip.mp4",
			Timestamp:    "Mar 1, 2026, 10:00:00 AM",
			CreatedAt:    created,
			Settings:     settings,
		})
		if err != nil {
			t.Fatalf("Insert(%d) error = %v", id, err)
		}
	}

	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 2 || entries[0].ID != 20 || entries[1].ID != 10 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Settings != settings {
		t.Fatalf("settings = %+v, want %+v", entries[0].Settings, settings)
	}
	if !entries[0].CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", entries[0].CreatedAt, created)
	}

	if err := store.Delete(ctx, 20); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	entries, _ = store.Load(ctx)
	if len(entries) != 1 || entries[0].ID != 10 {
		t.Fatalf("unexpected entries after delete: %+v", entries)
	}
}

// TestOpenSQLiteMigrationsIdempotent verifies reopening an existing database.
func TestOpenSQLiteMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("first OpenSQLite() error = %v", err)
	}
	first.Close()

	second, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("second OpenSQLite() error = %v", err)
	}
	defer second.Close()
}

// TestLedgerWithSQLiteSurvivesReopen verifies persisted history reloads.
func TestLedgerWithSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	l := NewLedger(store, nil)
	if err := l.Record(ctx, l.NewEntry("/v/clip.mp4", "", "/out/enhanced_clip.mp4", domain.DefaultEnhancementSettings())); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	store.Close()

	store, err = OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()
	reloaded := NewLedger(store, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	list := reloaded.List()
	if len(list) != 1 || list[0].OriginalName != "clip.mp4" {
		t.Fatalf("unexpected reloaded entries: %+v", list)
	}
}
