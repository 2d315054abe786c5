// Package vfs defines the path-addressed virtual file model and the
// orchestrator that serves it from a primary document store with a
// filesystem fallback.
package vfs

import (
	"context"
	"time"
)

// DirectoryMimeType is the sentinel mime type carried by folder entries.
const DirectoryMimeType = "directory"

// Metadata is a free-form descriptive bag attached to an entry. It is
// advisory only and never used for identity or traversal.
type Metadata struct {
	Description string   `json:"description,omitempty"`
	Author      string   `json:"author,omitempty"`
	Version     string   `json:"version,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Entry is one node in the virtual tree. Path uniquely identifies an
// entry across the whole tree; root is "/". Content is present only for
// files and may be empty.
type Entry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	IsFolder   bool      `json:"isFolder"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType,omitempty"`
	Content    string    `json:"content,omitempty"`
	ParentPath string    `json:"parentPath,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Metadata   Metadata  `json:"metadata,omitempty"`
}

// Trimmed returns a copy of the entry without inline content, for
// listing and search responses.
func (e Entry) Trimmed() Entry {
	e.Content = ""
	return e
}

// Stats aggregates the immediate children of a folder (one level, not
// recursive). Folders do not contribute to TotalSize.
type Stats struct {
	TotalFiles       int   `json:"totalFiles"`
	TotalDirectories int   `json:"totalDirectories"`
	TotalSize        int64 `json:"totalSize"`
}

// Adapter is the backend contract shared by the document store and the
// filesystem mirror. Implementations receive canonical paths.
//
// List returns the entries whose parent is path. Read returns file
// content, failing with ErrNotFound or ErrNotAFile. Info returns nil
// (not an error) when the path does not exist. Search matches query
// case-insensitively and returns at most limit entries. Stats
// aggregates immediate children.
//
// The store-backed implementation signals any connectivity or query
// failure as ErrStoreUnavailable, which is the only condition the
// orchestrator treats as "try the fallback".
type Adapter interface {
	List(ctx context.Context, path string) ([]Entry, error)
	Read(ctx context.Context, path string) (string, error)
	Info(ctx context.Context, path string) (*Entry, error)
	Search(ctx context.Context, query string, limit int) ([]Entry, error)
	Stats(ctx context.Context, path string) (Stats, error)
}
