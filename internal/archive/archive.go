// package archive persists a record of finished downloads so repeated runs
// can skip tracks that were already fetched.
package archive

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/scx/internal/shared"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Entry is one archived download.
type Entry struct {
	TrackID      int64
	Title        string
	Artist       string
	Path         string
	Format       string
	DownloadedAt time.Time
}

// Archive wraps the sqlite database holding download records.
type Archive struct {
	db *sql.DB
}

// Open opens (or creates) the archive database at path and applies pending
// migrations.
func Open(path string) (*Archive, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{db: db}, nil
}

// Close releases the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Contains reports whether a track has already been archived.
func (a *Archive) Contains(trackID int64) (bool, error) {
	var exists bool
	err := a.db.QueryRow("SELECT EXISTS(SELECT 1 FROM downloads WHERE track_id = ?)", trackID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query archive: %w", err)
	}
	return exists, nil
}

// Record stores a finished download, replacing any previous record for the
// same track.
func (a *Archive) Record(e Entry) error {
	_, err := a.db.Exec(
		"INSERT OR REPLACE INTO downloads (track_id, title, artist, path, format) VALUES (?, ?, ?, ?, ?)",
		e.TrackID, e.Title, e.Artist, e.Path, e.Format,
	)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// List returns all archived downloads, most recent first.
func (a *Archive) List() ([]Entry, error) {
	rows, err := a.db.Query(
		"SELECT track_id, title, artist, path, format, downloaded_at FROM downloads ORDER BY downloaded_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.TrackID, &e.Title, &e.Artist, &e.Path, &e.Format, &e.DownloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Prune removes records whose files no longer exist on disk and returns the
// number of records removed.
func (a *Archive) Prune() (int, error) {
	entries, err := a.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if _, err := os.Stat(e.Path); err == nil {
			continue
		}
		if _, err := a.db.Exec("DELETE FROM downloads WHERE track_id = ?", e.TrackID); err != nil {
			return removed, fmt.Errorf("failed to prune record %d: %w", e.TrackID, err)
		}
		removed++
	}

	return removed, nil
}

// migration represents a database migration with up and down SQL.
type migration struct {
	Version int
	Up      string
	Down    string
}

// loadMigrations reads all migration files from the embedded filesystem and returns them sorted by version.
func loadMigrations() ([]migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	migrationMap := make(map[int]*migration)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		// Parse version from filename (e.g., "0000_create_downloads_up.sql" -> version 0)
		parts := strings.Split(name, "_")
		if len(parts) < 2 {
			continue
		}

		version, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}

		content, err := migrationFiles.ReadFile(filepath.Join("sql", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		if migrationMap[version] == nil {
			migrationMap[version] = &migration{Version: version}
		}

		if strings.Contains(name, "_up.sql") {
			migrationMap[version].Up = string(content)
		} else if strings.Contains(name, "_down.sql") {
			migrationMap[version].Down = string(content)
		}
	}

	var migrations []migration
	for _, m := range migrationMap {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", m.Version)
		}
		migrations = append(migrations, *m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// runMigrations executes all pending migrations on the database.
// Creates a schema_migrations table to track applied migrations.
func runMigrations(db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}

		if !exists {
			if err := applyMigration(db, m); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
			}
		}
	}

	return nil
}

// applyMigration executes a migration's up SQL and records it.
func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(m.Up, ";") {
		stmt = strings.TrimSpace(removeComments(stmt))
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
		return err
	}

	return tx.Commit()
}

// removeComments removes SQL comments from a statement.
func removeComments(sql string) string {
	lines := strings.Split(sql, "\n")
	var result []string
	for _, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
