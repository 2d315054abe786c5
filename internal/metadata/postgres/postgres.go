// Package postgres implements the document-store backend: a PostgreSQL
// table of path-addressed entry records mirroring the fixture tree.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/logging"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/metrics"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/vfs"
)

// Store is the PostgreSQL-backed entry store. All read operations
// classify connectivity and query errors as vfs.ErrStoreUnavailable,
// which is distinct from a legitimate empty result or a miss: only
// unavailability makes the orchestrator fall back.
type Store struct {
	db   *sql.DB
	conn *ConnManager
}

// New opens the database and wraps it in a Store with its connection
// manager. The database does not have to be reachable at open time;
// the adapter degrades to "unavailable" until the first successful
// probe.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db, conn: NewConnManager(db)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Conn returns the connection manager for health checks and watching.
func (s *Store) Conn() *ConnManager {
	return s.conn
}

// Migrate runs SQL migration files from migrationsDir.
func (s *Store) Migrate(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}

	for _, f := range files {
		logging.Info("running migration", zap.String("file", filepath.Base(f)))
		content, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
	}

	return nil
}

// unavailable wraps a database error as the fallback signal.
func (s *Store) unavailable(op string, err error) error {
	s.conn.MarkDown()
	return fmt.Errorf("%w: %s: %v", vfs.ErrStoreUnavailable, op, err)
}

const entryColumns = `name, path, parent_path, is_folder, size, mime_type, content,
	description, author, version, tags, created_at, updated_at`

// List returns the entries whose parent_path is path, folders first
// then names ascending.
func (s *Store) List(ctx context.Context, path string) ([]vfs.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list", time.Since(start)) }()

	if !s.conn.Connected() {
		return nil, fmt.Errorf("%w: list", vfs.ErrStoreUnavailable)
	}

	path = vfs.Normalize(path)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE parent_path = $1
		 ORDER BY is_folder DESC, name ASC`, path)
	if err != nil {
		return nil, s.unavailable("list", err)
	}
	defer rows.Close()

	var entries []vfs.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, s.unavailable("list scan", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, s.unavailable("list rows", err)
	}
	return entries, nil
}

// Read returns the content of the file record at path.
func (s *Store) Read(ctx context.Context, path string) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("read", time.Since(start)) }()

	if !s.conn.Connected() {
		return "", fmt.Errorf("%w: read", vfs.ErrStoreUnavailable)
	}

	path = vfs.Normalize(path)
	var content sql.NullString
	var isFolder bool
	err := s.db.QueryRowContext(ctx,
		`SELECT content, is_folder FROM entries WHERE path = $1`, path).
		Scan(&content, &isFolder)
	if errors.Is(err, sql.ErrNoRows) {
		return "", vfs.ErrNotFound
	}
	if err != nil {
		return "", s.unavailable("read", err)
	}
	if isFolder {
		return "", vfs.ErrNotAFile
	}
	return content.String, nil
}

// Info returns the entry record at path, or nil when absent.
func (s *Store) Info(ctx context.Context, path string) (*vfs.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("info", time.Since(start)) }()

	if !s.conn.Connected() {
		return nil, fmt.Errorf("%w: info", vfs.ErrStoreUnavailable)
	}

	path = vfs.Normalize(path)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE path = $1`, path)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.unavailable("info", err)
	}
	return entry, nil
}

// Search matches query against entry names and descriptions
// (case-insensitive substring) and ranks by a relevance score: name
// matches outrank description-only matches, ties break on name.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]vfs.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("search", time.Since(start)) }()

	if !s.conn.Connected() {
		return nil, fmt.Errorf("%w: search", vfs.ErrStoreUnavailable)
	}

	if limit <= 0 {
		limit = vfs.DefaultSearchLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+`,
		        (CASE WHEN name ILIKE '%' || $1 || '%' THEN 2 ELSE 0 END +
		         CASE WHEN description ILIKE '%' || $1 || '%' THEN 1 ELSE 0 END) AS score
		 FROM entries
		 WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		 ORDER BY score DESC, name ASC
		 LIMIT $2`, query, limit)
	if err != nil {
		return nil, s.unavailable("search", err)
	}
	defer rows.Close()

	var entries []vfs.Entry
	for rows.Next() {
		entry, err := scanEntryWithScore(rows)
		if err != nil {
			return nil, s.unavailable("search scan", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, s.unavailable("search rows", err)
	}
	return entries, nil
}

// Stats aggregates the immediate children of path.
func (s *Store) Stats(ctx context.Context, path string) (vfs.Stats, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("stats", time.Since(start)) }()

	var stats vfs.Stats
	if !s.conn.Connected() {
		return stats, fmt.Errorf("%w: stats", vfs.ErrStoreUnavailable)
	}

	path = vfs.Normalize(path)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE NOT is_folder),
		        COUNT(*) FILTER (WHERE is_folder),
		        COALESCE(SUM(size) FILTER (WHERE NOT is_folder), 0)
		 FROM entries WHERE parent_path = $1`, path).
		Scan(&stats.TotalFiles, &stats.TotalDirectories, &stats.TotalSize)
	if err != nil {
		return stats, s.unavailable("stats", err)
	}
	return stats, nil
}

// Upsert inserts or updates one entry record. Records are the store's
// own copies; nothing here touches the filesystem.
func (s *Store) Upsert(ctx context.Context, e *vfs.Entry) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", time.Since(start)) }()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (name, path, parent_path, is_folder, size, mime_type, content,
		                      description, author, version, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		 ON CONFLICT (path) DO UPDATE SET
			name = EXCLUDED.name,
			parent_path = EXCLUDED.parent_path,
			is_folder = EXCLUDED.is_folder,
			size = EXCLUDED.size,
			mime_type = EXCLUDED.mime_type,
			content = EXCLUDED.content,
			description = EXCLUDED.description,
			author = EXCLUDED.author,
			version = EXCLUDED.version,
			tags = EXCLUDED.tags,
			updated_at = NOW()`,
		e.Name, vfs.Normalize(e.Path), e.ParentPath, e.IsFolder, e.Size, e.MimeType,
		e.Content, e.Metadata.Description, e.Metadata.Author, e.Metadata.Version,
		pq.Array(e.Metadata.Tags))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", e.Path, err)
	}
	return nil
}

// Delete removes one entry record.
func (s *Store) Delete(ctx context.Context, path string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", time.Since(start)) }()

	path = vfs.Normalize(path)
	result, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE path = $1`, path)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	rows, _ := result.RowsAffected()
	logging.Debug("deleted entry", zap.String("path", path), zap.Int64("rows", rows))
	return nil
}

// DeleteTree removes an entry and all of its descendants.
func (s *Store) DeleteTree(ctx context.Context, path string) (int64, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete_tree", time.Since(start)) }()

	path = vfs.Normalize(path)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE path = $1 OR path LIKE $2`,
		path, path+"/%")
	if err != nil {
		return 0, fmt.Errorf("delete tree %s: %w", path, err)
	}
	rows, _ := result.RowsAffected()
	logging.Debug("deleted tree", zap.String("path", path), zap.Int64("rows", rows))
	return rows, nil
}

// EntryCount returns the total number of mirrored records.
func (s *Store) EntryCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	return count, err
}

// Mirror copies the tree served by src into the store, walking from
// the root. Existing records are overwritten; records for paths that
// no longer exist on disk are left behind, which is tolerable because
// the filesystem remains ground truth. Returns the number of entries
// written.
func (s *Store) Mirror(ctx context.Context, src vfs.Adapter) (int, error) {
	count, err := s.mirrorDir(ctx, src, "/")
	if err != nil {
		return count, err
	}
	metrics.SetMirroredEntries(count)
	logging.Info("mirrored fixture tree into store", zap.Int("entries", count))
	return count, nil
}

func (s *Store) mirrorDir(ctx context.Context, src vfs.Adapter, path string) (int, error) {
	entries, err := src.List(ctx, path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for i := range entries {
		e := entries[i]
		e.Metadata.Description = describeEntry(&e)
		if err := s.Upsert(ctx, &e); err != nil {
			return count, err
		}
		count++
		if e.IsFolder {
			n, err := s.mirrorDir(ctx, src, e.Path)
			count += n
			if err != nil {
				return count, err
			}
		}
	}
	return count, nil
}

// describeEntry synthesizes a searchable description for a mirrored
// record from its name and location.
func describeEntry(e *vfs.Entry) string {
	kind := "file"
	if e.IsFolder {
		kind = "folder"
	}
	if e.ParentPath == "" || e.ParentPath == "/" {
		return fmt.Sprintf("Top-level %s %s", kind, e.Name)
	}
	return fmt.Sprintf("Test report %s %s under %s", kind, e.Name, e.ParentPath)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*vfs.Entry, error) {
	var e vfs.Entry
	var content, description, author, version sql.NullString
	var tags pq.StringArray
	err := row.Scan(&e.Name, &e.Path, &e.ParentPath, &e.IsFolder, &e.Size,
		&e.MimeType, &content, &description, &author, &version, &tags,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Content = content.String
	e.Metadata = vfs.Metadata{
		Description: description.String,
		Author:      author.String,
		Version:     version.String,
		Tags:        tags,
	}
	return &e, nil
}

func scanEntryWithScore(row rowScanner) (*vfs.Entry, error) {
	var e vfs.Entry
	var content, description, author, version sql.NullString
	var tags pq.StringArray
	var score int
	err := row.Scan(&e.Name, &e.Path, &e.ParentPath, &e.IsFolder, &e.Size,
		&e.MimeType, &content, &description, &author, &version, &tags,
		&e.CreatedAt, &e.UpdatedAt, &score)
	if err != nil {
		return nil, err
	}
	e.Content = content.String
	e.Metadata = vfs.Metadata{
		Description: description.String,
		Author:      author.String,
		Version:     version.String,
		Tags:        tags,
	}
	return &e, nil
}
