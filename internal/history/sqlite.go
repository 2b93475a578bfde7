package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"video-enhancer/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists history entries in a local SQLite database.
type SQLiteStore struct {
	conn   *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if s.logger != nil {
			s.logger.Info("applied migration", "name", name)
		}
	}
	return nil
}

func (s *SQLiteStore) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}
	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Load returns all entries, most recent first.
func (s *SQLiteStore) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, original_name, enhanced_path, output_file, timestamp, created_at,
		       upscaling_factor, sharpening, noise_reduction, frame_rate, output_format
		FROM history ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			e         domain.HistoryEntry
			createdAt string
			factor    string
			noise     string
			format    string
		)
		if err := rows.Scan(&e.ID, &e.OriginalName, &e.EnhancedPath, &e.OutputFile, &e.Timestamp, &createdAt,
			&factor, &e.Settings.Sharpening, &noise, &e.Settings.FrameRate, &format); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		e.Settings.UpscalingFactor = domain.UpscalingFactor(factor)
		e.Settings.NoiseReduction = domain.NoiseReduction(noise)
		e.Settings.OutputFormat = domain.OutputFormat(format)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Insert stores entry.
func (s *SQLiteStore) Insert(ctx context.Context, e domain.HistoryEntry) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO history (id, original_name, enhanced_path, output_file, timestamp, created_at,
		                     upscaling_factor, sharpening, noise_reduction, frame_rate, output_format)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OriginalName, e.EnhancedPath, e.OutputFile, e.Timestamp, e.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(e.Settings.UpscalingFactor), e.Settings.Sharpening, string(e.Settings.NoiseReduction),
		e.Settings.FrameRate, string(e.Settings.OutputFormat))
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// Delete removes the entry with id, if present.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return nil
}
