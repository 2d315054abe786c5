package vfs

import (
	"mime"
	"path"
	"strings"
)

// Normalize converts an arbitrary path string into a canonical absolute
// virtual path. Empty input and "/" both normalize to "/". Consecutive
// separators are collapsed and trailing separators stripped. No ".."
// resolution happens here; callers reject traversal attempts before a
// path reaches either backend.
func Normalize(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}

	var b strings.Builder
	b.Grow(len(raw) + 1)
	b.WriteByte('/')
	prevSlash := true
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '/' {
			if !prevSlash {
				b.WriteByte('/')
			}
			prevSlash = true
			continue
		}
		b.WriteByte(c)
		prevSlash = false
	}

	out := b.String()
	if out != "/" {
		out = strings.TrimSuffix(out, "/")
	}
	return out
}

// Parent returns the canonical path of the immediate containing folder.
// The root has no parent, signalled by an empty string.
func Parent(canonical string) string {
	p := Normalize(canonical)
	if p == "/" {
		return ""
	}
	idx := strings.LastIndexByte(p, '/')
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

// BaseName returns the leaf segment of a canonical path. The root's
// base name is "/".
func BaseName(canonical string) string {
	p := Normalize(canonical)
	if p == "/" {
		return "/"
	}
	return p[strings.LastIndexByte(p, '/')+1:]
}

// HasTraversal reports whether any segment of the path is "..".
// Normalize deliberately performs no ".." resolution, so callers that
// accept untrusted paths must reject traversal before dispatching to a
// backend; the filesystem adapter would otherwise resolve the segments
// against the real disk and escape its base directory.
func HasTraversal(raw string) bool {
	p := Normalize(raw)
	if p == "/" {
		return false
	}
	for _, seg := range strings.Split(p[1:], "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// Extensions the fixture generator emits that the platform mime table
// may not know about.
var extraMimeTypes = map[string]string{
	".log": "text/plain; charset=utf-8",
	".txt": "text/plain; charset=utf-8",
}

// MimeTypeFor guesses a content type from a file name. Folders use the
// "directory" sentinel instead, see Entry.
func MimeTypeFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if mt, ok := extraMimeTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
