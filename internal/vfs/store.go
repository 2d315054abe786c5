package vfs

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/logging"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/metrics"
)

// Archiver streams a compressed archive of every file transitively
// under root, reading the tree through src.
type Archiver interface {
	Build(ctx context.Context, root string, src TreeSource) io.ReadCloser
}

// TreeSource is the subset of the Store contract the archive builder
// walks with. The Store implements it itself, so archive traversal
// goes through the same per-directory fallback as every other read.
type TreeSource interface {
	GetDirectoryContents(ctx context.Context, path string) ([]Entry, error)
	GetFileContent(ctx context.Context, path string) (string, error)
}

// Store is the virtual file store orchestrator: it tries the document
// store first and falls back to the filesystem mirror when the store is
// unavailable or has nothing mirrored for the path. The fallback
// decision is evaluated independently per call; there is no sticky
// "store is down" state and every request re-attempts the store.
type Store struct {
	primary  Adapter // document store; nil when running filesystem-only
	fallback Adapter // on-disk fixture tree, ground truth
	archiver Archiver
}

// New creates an orchestrator. primary may be nil, in which case every
// operation goes straight to the filesystem adapter.
func New(primary, fallback Adapter, archiver Archiver) *Store {
	return &Store{primary: primary, fallback: fallback, archiver: archiver}
}

// fallbackTo reports whether the primary outcome warrants retrying the
// operation against the filesystem. Empty successful results count:
// the filesystem is ground truth and a store with no mirrored data is
// indistinguishable from a genuinely empty directory.
func fallbackTo(op string, err error, empty bool) bool {
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			logging.Warn("store unavailable, falling back to filesystem",
				zap.String("operation", op), zap.Error(err))
			metrics.RecordStoreFallback(op)
			return true
		}
		return false
	}
	if empty {
		metrics.RecordStoreFallback(op)
	}
	return empty
}

// resolve runs op against the primary adapter and retries against the
// filesystem when the primary is unavailable or came back empty. Every
// per-capability method below is a thin parameterization of this.
func resolve[T any](ctx context.Context, s *Store, op string, empty func(T) bool, call func(Adapter) (T, error)) (T, error) {
	if s.primary == nil {
		return call(s.fallback)
	}
	v, err := call(s.primary)
	if !fallbackTo(op, err, err == nil && empty(v)) {
		return v, err
	}
	return call(s.fallback)
}

// GetDirectoryContents lists the immediate children of path, folders
// first then names ascending. A nonexistent directory yields an empty
// listing rather than an error: the root always exists conceptually
// and the dashboard treats unknown paths as empty folders.
func (s *Store) GetDirectoryContents(ctx context.Context, path string) ([]Entry, error) {
	path = Normalize(path)
	entries, err := resolve(ctx, s, "list",
		func(v []Entry) bool { return len(v) == 0 },
		func(a Adapter) ([]Entry, error) { return a.List(ctx, path) })
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Entry{}, nil
		}
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

// GetFileContent returns the content of the file at path. It fails
// with ErrNotFound when neither backend has the path and ErrNotAFile
// when the resolved path is a folder.
func (s *Store) GetFileContent(ctx context.Context, path string) (string, error) {
	path = Normalize(path)
	if s.primary != nil {
		info, err := s.primary.Info(ctx, path)
		switch {
		case err == nil && info != nil:
			if info.IsFolder {
				return "", ErrNotAFile
			}
			content, err := s.primary.Read(ctx, path)
			if !fallbackTo("read", err, false) {
				return content, err
			}
		case fallbackTo("read", err, err == nil && info == nil):
			// store unavailable or nothing mirrored for the path
		default:
			return "", err
		}
	}
	return s.fallback.Read(ctx, path)
}

// GetFileInfo returns the entry at path, or nil (not an error) when it
// is absent from both backends.
func (s *Store) GetFileInfo(ctx context.Context, path string) (*Entry, error) {
	path = Normalize(path)
	return resolve(ctx, s, "info",
		func(v *Entry) bool { return v == nil },
		func(a Adapter) (*Entry, error) { return a.Info(ctx, path) })
}

// SearchFiles returns at most limit entries matching query. Non-empty
// store results win outright so the store's relevance ranking is
// preserved; otherwise the recursive filesystem search runs.
func (s *Store) SearchFiles(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return resolve(ctx, s, "search",
		func(v []Entry) bool { return len(v) == 0 },
		func(a Adapter) ([]Entry, error) { return a.Search(ctx, query, limit) })
}

// DefaultSearchLimit caps search results when the caller does not ask
// for a specific limit.
const DefaultSearchLimit = 50

// GetFileStats aggregates the immediate children of path. All-zero
// store stats fall back for the same reason empty listings do.
func (s *Store) GetFileStats(ctx context.Context, path string) (Stats, error) {
	path = Normalize(path)
	return resolve(ctx, s, "stats",
		func(v Stats) bool { return v.TotalFiles == 0 && v.TotalDirectories == 0 },
		func(a Adapter) (Stats, error) { return a.Stats(ctx, path) })
}

// GetDownloadStream resolves path and returns the entry plus a byte
// stream: the file's content for files, a zip archive of the subtree
// for folders. It fails with ErrNotFound when the path is absent from
// both backends.
func (s *Store) GetDownloadStream(ctx context.Context, path string) (*Entry, io.ReadCloser, error) {
	path = Normalize(path)
	info, err := s.GetFileInfo(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if info == nil {
		return nil, nil, ErrNotFound
	}
	if info.IsFolder {
		return info, s.archiver.Build(ctx, path, s), nil
	}
	content, err := s.GetFileContent(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return info, io.NopCloser(strings.NewReader(content)), nil
}

// sortEntries orders a listing folders-first, then by name ascending.
// The store query already orders this way; the filesystem listing and
// mixed fallback results are normalized here so the UI contract holds
// regardless of which backend answered.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsFolder != entries[j].IsFolder {
			return entries[i].IsFolder
		}
		return entries[i].Name < entries[j].Name
	})
}
