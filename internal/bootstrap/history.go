package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-enhancer/internal/domain"
	"video-enhancer/internal/history"
)

const historyExportName = "enhancement-history.xlsx"

// History returns completed jobs, most recent first.
func (a *App) History() []domain.HistoryEntry {
	return a.Ledger.List()
}

// RenderHistory returns the history list markup.
func (a *App) RenderHistory() (string, error) {
	html, err := a.Ledger.RenderHTML()
	if err != nil {
		return "", fmt.Errorf("render history: %w", err)
	}
	return string(html), nil
}

// RemoveHistoryEntry deletes one entry and returns the remaining ones.
func (a *App) RemoveHistoryEntry(id int64) ([]domain.HistoryEntry, error) {
	if err := a.Ledger.RemoveByID(context.Background(), id); err != nil {
		return a.Ledger.List(), err
	}
	return a.Ledger.List(), nil
}

// ViewHistoryEntry shows the entry's enhanced file in the result preview.
func (a *App) ViewHistoryEntry(id int64) (string, error) {
	entry, ok := a.Ledger.Get(id)
	if !ok {
		return "", fmt.Errorf("history entry not found: %d", id)
	}
	if entry.OutputFile == "" {
		return "", fmt.Errorf("history entry %d has no enhanced file", id)
	}
	return a.Preview.ShowResult(entry.OutputFile)
}

// ExportHistory writes the ledger as an XLSX workbook and returns its path.
// An empty path writes into the configured output directory.
func (a *App) ExportHistory(path string) (string, error) {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = filepath.Join(a.Config.OutputDir, historyExportName)
		a.mu.Unlock()
	}

	data, err := history.ExportXLSX(a.Ledger.List())
	if err != nil {
		return "", fmt.Errorf("export history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write history export: %w", err)
	}

	a.log().Info("history exported", "entries", a.Ledger.Len())
	return target, nil
}
