package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultLimit bounds List when the caller passes a non-positive limit.
const DefaultLimit = 20

// Run is one recorded assembly.
type Run struct {
	ID            string    `json:"id"`
	ArchivePath   string    `json:"archive"`
	AnimationPath string    `json:"animation"`
	SpriteName    string    `json:"sprite"`
	Anchor        int       `json:"anchor"`
	Frames        int       `json:"frames"`
	AssetsWritten int       `json:"assetsWritten"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open creates or connects to the journal at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts run. Empty ID and zero CreatedAt are filled in.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (
            id, archive_path, animation_path, sprite_name, anchor,
            frames, assets_written, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ArchivePath,
		run.AnimationPath,
		run.SpriteName,
		run.Anchor,
		run.Frames,
		run.AssetsWritten,
		run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, archive_path, animation_path, sprite_name, anchor,
                frames, assets_written, created_at
         FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			createdAt int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.ArchivePath,
			&run.AnimationPath,
			&run.SpriteName,
			&run.Anchor,
			&run.Frames,
			&run.AssetsWritten,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt = time.Unix(0, createdAt).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
