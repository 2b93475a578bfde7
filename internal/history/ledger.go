// Package history keeps the record of completed enhancement jobs, most recent first.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"video-enhancer/internal/domain"
	"video-enhancer/internal/logging"
)

// TimestampLayout formats entry timestamps for display.
const TimestampLayout = "Jan 2, 2006, 3:04:05 PM"

// ErrDuplicateID is returned when recording an id already in the ledger.
var ErrDuplicateID = errors.New("history entry id already recorded")

// Store persists ledger entries across restarts.
type Store interface {
	Load(ctx context.Context) ([]domain.HistoryEntry, error)
	Insert(ctx context.Context, entry domain.HistoryEntry) error
	Delete(ctx context.Context, id int64) error
}

// Ledger is the ordered list of completed jobs. A nil store keeps it in memory only.
type Ledger struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	lastID  int64
	store   Store
	now     func() time.Time
	logger  *slog.Logger
}

// NewLedger creates an empty ledger, optionally backed by store.
func NewLedger(store Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Ledger{
		store:  store,
		now:    time.Now,
		logger: logging.WithComponent(logger, "history"),
	}
}

// Load replaces in-memory entries with the store's contents.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	entries, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	for _, e := range entries {
		if e.ID > l.lastID {
			l.lastID = e.ID
		}
	}
	l.logger.Info("history loaded", "entries", len(entries))
	return nil
}

// NewEntry builds an entry with the next time-based id.
// An empty enhancedPath is recorded as the default-location sentinel.
func (l *Ledger) NewEntry(sourcePath, enhancedPath, outputFile string, settings domain.EnhancementSettings) domain.HistoryEntry {
	now := l.now()
	if enhancedPath == "" {
		enhancedPath = domain.DefaultLocationLabel
	}
	return domain.HistoryEntry{
		ID:           l.nextID(now),
		OriginalName: filepath.Base(sourcePath),
		EnhancedPath: enhancedPath,
		OutputFile:   outputFile,
		Timestamp:    now.Format(TimestampLayout),
		CreatedAt:    now,
		Settings:     settings,
	}
}

// nextID returns the current millisecond clock, bumped past the last id issued.
func (l *Ledger) nextID(now time.Time) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := now.UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

// Record inserts entry at the front of the ledger.
func (l *Ledger) Record(ctx context.Context, entry domain.HistoryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(entry.ID) >= 0 {
		return fmt.Errorf("%w: %d", ErrDuplicateID, entry.ID)
	}
	if l.store != nil {
		if err := l.store.Insert(ctx, entry); err != nil {
			return fmt.Errorf("persist history entry: %w", err)
		}
	}

	l.entries = append([]domain.HistoryEntry{entry}, l.entries...)
	if entry.ID > l.lastID {
		l.lastID = entry.ID
	}
	l.logger.Info("history entry recorded", "id", entry.ID, "original", entry.OriginalName)
	return nil
}

// RemoveByID deletes the entry with id. Absent ids are a no-op.
func (l *Ledger) RemoveByID(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return nil
	}
	if l.store != nil {
		if err := l.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete history entry: %w", err)
		}
	}

	next := make([]domain.HistoryEntry, 0, len(l.entries)-1)
	next = append(next, l.entries[:idx]...)
	l.entries = append(next, l.entries[idx+1:]...)
	return nil
}

// List returns a copy of all entries, most recent first.
func (l *Ledger) List() []domain.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Get returns the entry with id.
func (l *Ledger) Get(id int64) (domain.HistoryEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if idx := l.indexOf(id); idx >= 0 {
		return l.entries[idx], true
	}
	return domain.HistoryEntry{}, false
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// indexOf expects l.mu to be held.
func (l *Ledger) indexOf(id int64) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
