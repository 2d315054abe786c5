// Package archive builds streaming zip downloads of virtual subtrees.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/logging"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/metrics"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/vfs"
)

// Builder produces compressed archives of every file transitively
// under a root path. Entry names inside the archive are relative to
// the root (the root segment itself is stripped) and folders are not
// stored as explicit entries; only file payloads are emitted.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build walks the subtree under root through src and streams a zip
// archive. The caller can begin consuming bytes before the walk has
// finished. Any error retrieving a single file aborts the whole
// stream with that error rather than producing a partial-but-valid
// archive.
func (b *Builder) Build(ctx context.Context, root string, src vfs.TreeSource) io.ReadCloser {
	root = vfs.Normalize(root)
	pr, pw := io.Pipe()

	go func() {
		zw := zip.NewWriter(pw)
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, flate.BestCompression)
		})

		err := b.addDir(ctx, zw, src, root, root)
		if err == nil {
			err = zw.Close()
		} else {
			zw.Close()
		}

		metrics.RecordArchiveBuild(err == nil)
		if err != nil {
			logging.Error("archive build failed",
				zap.String("root", root), zap.Error(err))
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()

	return pr
}

func (b *Builder) addDir(ctx context.Context, zw *zip.Writer, src vfs.TreeSource, root, dir string) error {
	entries, err := src.GetDirectoryContents(ctx, dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsFolder {
			if err := b.addDir(ctx, zw, src, root, entry.Path); err != nil {
				return err
			}
			continue
		}
		if err := b.addFile(ctx, zw, src, root, entry.Path); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) addFile(ctx context.Context, zw *zip.Writer, src vfs.TreeSource, root, path string) error {
	content, err := src.GetFileContent(ctx, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	w, err := zw.Create(relativeName(root, path))
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", path, err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("write archive entry %s: %w", path, err)
	}
	return nil
}

// relativeName strips the root segment from a descendant path to form
// the archive-internal entry name.
func relativeName(root, path string) string {
	if root == "/" {
		return strings.TrimPrefix(path, "/")
	}
	return strings.TrimPrefix(strings.TrimPrefix(path, root), "/")
}
