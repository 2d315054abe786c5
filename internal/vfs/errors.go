package vfs

import "errors"

var (
	// ErrNotFound means the path is absent from the queried backend.
	// The HTTP layer surfaces it as 404.
	ErrNotFound = errors.New("file not found")

	// ErrNotAFile means a file operation was requested on a folder.
	// The HTTP layer surfaces it as 400.
	ErrNotAFile = errors.New("path is not a file")

	// ErrStoreUnavailable is an internal signal, never surfaced to
	// clients: the document store could not be reached or queried,
	// and the orchestrator should fall back to the filesystem.
	ErrStoreUnavailable = errors.New("store unavailable")
)
