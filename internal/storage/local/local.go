// Package local serves the virtual tree directly from the on-disk
// fixture directory. It is the fallback backend and the ground truth:
// entries are recomputed from the filesystem on every call and nothing
// here mutates the disk.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/vfs"
)

// Adapter reads the fixture tree rooted at a base directory.
type Adapter struct {
	baseDir string
}

// New creates a filesystem adapter rooted at baseDir. The directory is
// created if missing so an empty tree is servable before the fixture
// generator has run.
func New(baseDir string) (*Adapter, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat base dir %s: %w", baseDir, err)
		}
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("create base dir %s: %w", baseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base dir %s is not a directory", baseDir)
	}
	return &Adapter{baseDir: baseDir}, nil
}

// BaseDir returns the configured fixture root.
func (a *Adapter) BaseDir() string { return a.baseDir }

func (a *Adapter) fullPath(virtualPath string) string {
	return filepath.Join(a.baseDir, filepath.FromSlash(strings.TrimPrefix(vfs.Normalize(virtualPath), "/")))
}

// List returns one entry per direct child of path. Content is eagerly
// read into memory for every file in the listing; the file-info
// endpoints rely on it, so a listing is O(total bytes), not O(entries).
func (a *Adapter) List(_ context.Context, path string) ([]vfs.Entry, error) {
	path = vfs.Normalize(path)
	dir := a.fullPath(path)

	children, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vfs.ErrNotFound
		}
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	entries := make([]vfs.Entry, 0, len(children))
	for _, child := range children {
		entry, err := a.buildEntry(path, child.Name())
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Read returns the content of the file at path. It fails with
// vfs.ErrNotFound when the path does not exist and vfs.ErrNotAFile
// when it resolves to a directory.
func (a *Adapter) Read(_ context.Context, path string) (string, error) {
	full := a.fullPath(path)
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", vfs.ErrNotFound
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", vfs.ErrNotAFile
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// Info returns the entry at path, or nil (not an error) when the path
// does not exist, so callers can distinguish 404 from 500.
func (a *Adapter) Info(_ context.Context, path string) (*vfs.Entry, error) {
	path = vfs.Normalize(path)
	if _, err := os.Stat(a.fullPath(path)); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	parent := vfs.Parent(path)
	name := vfs.BaseName(path)
	if path == "/" {
		parent, name = "", "/"
	}
	return a.buildEntry(parent, name)
}

// Search walks the tree depth-first from the base directory in readdir
// order, collecting children whose name contains query
// (case-insensitive). Directories are always recursed into regardless
// of their own match status, and both collection and recursion stop
// once limit results have been accumulated, so results are biased
// toward earlier-visited subtrees. There is no ranking.
func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]vfs.Entry, error) {
	if limit <= 0 {
		limit = vfs.DefaultSearchLimit
	}
	results := make([]vfs.Entry, 0, limit)
	err := a.searchDir(ctx, "/", strings.ToLower(query), limit, &results)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Adapter) searchDir(ctx context.Context, path, query string, limit int, results *[]vfs.Entry) error {
	if len(*results) >= limit {
		return nil
	}
	children, err := os.ReadDir(a.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read dir %s: %w", path, err)
	}
	for _, child := range children {
		if len(*results) >= limit {
			return nil
		}
		if strings.Contains(strings.ToLower(child.Name()), query) {
			entry, err := a.buildEntry(path, child.Name())
			if err != nil {
				return err
			}
			*results = append(*results, *entry)
		}
		if child.IsDir() {
			childPath := path + "/" + child.Name()
			if path == "/" {
				childPath = "/" + child.Name()
			}
			if err := a.searchDir(ctx, childPath, query, limit, results); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats totals the immediate children of path. Directories do not
// contribute to TotalSize.
func (a *Adapter) Stats(ctx context.Context, path string) (vfs.Stats, error) {
	var stats vfs.Stats
	children, err := os.ReadDir(a.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return stats, vfs.ErrNotFound
		}
		return stats, fmt.Errorf("read dir %s: %w", path, err)
	}
	for _, child := range children {
		if child.IsDir() {
			stats.TotalDirectories++
			continue
		}
		stats.TotalFiles++
		if info, err := child.Info(); err == nil {
			stats.TotalSize += info.Size()
		}
	}
	return stats, nil
}

// buildEntry stats one child of parentPath and assembles its entry,
// loading file content inline.
func (a *Adapter) buildEntry(parentPath, name string) (*vfs.Entry, error) {
	virtualPath := vfs.Normalize(parentPath + "/" + name)
	if name == "/" {
		virtualPath = "/"
	}
	full := a.fullPath(virtualPath)

	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", virtualPath, err)
	}

	entry := &vfs.Entry{
		Name:       name,
		Path:       virtualPath,
		IsFolder:   info.IsDir(),
		Size:       info.Size(),
		ParentPath: parentPath,
		CreatedAt:  info.ModTime(),
		UpdatedAt:  info.ModTime(),
	}
	if info.IsDir() {
		entry.MimeType = vfs.DirectoryMimeType
		return entry, nil
	}

	entry.MimeType = vfs.MimeTypeFor(name)
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", virtualPath, err)
	}
	entry.Content = string(data)
	return entry, nil
}
