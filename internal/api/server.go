// Package api provides the HTTP server and handlers. Handlers are
// thin: they parse the request, call the virtual file store and shape
// the response envelope; all resolution and fallback logic lives
// below them.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/logging"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/metrics"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/vfs"
	"go.uber.org/zap"
)

// ConnState exposes the document store's reachability to the health
// endpoint. It is nil when the server runs filesystem-only.
type ConnState interface {
	Connected() bool
}

// Server is the HTTP server.
type Server struct {
	store        *vfs.Store
	conn         ConnState
	dataDir      string
	corsOrigin   string
	defaultLimit int
	startedAt    time.Time
}

// NewServer creates a server around the virtual file store.
func NewServer(store *vfs.Store, conn ConnState, dataDir, corsOrigin string, defaultLimit int) *Server {
	if defaultLimit <= 0 {
		defaultLimit = vfs.DefaultSearchLimit
	}
	return &Server{
		store:        store,
		conn:         conn,
		dataDir:      dataDir,
		corsOrigin:   corsOrigin,
		defaultLimit: defaultLimit,
		startedAt:    time.Now(),
	}
}

// Handler returns the HTTP handler with CORS, logging and metrics
// middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/files", s.handleList)
	mux.HandleFunc("GET /api/files/content", s.handleContent)
	mux.HandleFunc("GET /api/files/download", s.handleDownload)
	mux.HandleFunc("GET /api/files/info", s.handleInfo)
	mux.HandleFunc("GET /api/files/search", s.handleSearch)
	mux.HandleFunc("GET /api/files/stats", s.handleStats)

	return metrics.Middleware(logging.Middleware(s.corsMiddleware(mux)))
}

// envelope is the shared JSON response shape.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) sendData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}

// sendResolveError maps the error taxonomy onto HTTP statuses. Only
// NotFound and NotAFile reach clients with their own codes; everything
// else is an internal failure whose message is included for
// diagnostics without stack details.
func (s *Server) sendResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vfs.ErrNotFound):
		s.sendError(w, http.StatusNotFound, "File not found")
	case errors.Is(err, vfs.ErrNotAFile):
		s.sendError(w, http.StatusBadRequest, "Path is not a file")
	default:
		logging.Error("request failed", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, err.Error())
	}
}

// ─── Health ─────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeConnected := false
	if s.conn != nil {
		storeConnected = s.conn.Connected()
	}
	dataDirExists := false
	if info, err := os.Stat(s.dataDir); err == nil && info.IsDir() {
		dataDirExists = true
	}
	s.sendData(w, map[string]any{
		"status":         "ok",
		"uptimeSeconds":  int64(time.Since(s.startedAt).Seconds()),
		"storeConnected": storeConnected,
		"dataDirExists":  dataDirExists,
	})
}

// pathParam extracts and normalizes the path query parameter,
// rejecting ".." traversal before it can reach a backend. The second
// return is false when the request has already been answered.
func (s *Server) pathParam(w http.ResponseWriter, r *http.Request, required bool) (string, bool) {
	raw := r.URL.Query().Get("path")
	if raw == "" && required {
		s.sendError(w, http.StatusBadRequest, "path is required")
		return "", false
	}
	if vfs.HasTraversal(raw) {
		s.sendError(w, http.StatusBadRequest, "Invalid path")
		return "", false
	}
	return vfs.Normalize(raw), true
}

// ─── Listing ────────────────────────────────────────────────────────

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	path, ok := s.pathParam(w, r, false)
	if !ok {
		return
	}

	entries, err := s.store.GetDirectoryContents(r.Context(), path)
	if err != nil {
		s.sendResolveError(w, err)
		return
	}

	items := make([]vfs.Entry, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.Trimmed())
	}

	s.sendData(w, map[string]any{
		"items":       items,
		"currentPath": path,
		"parentPath":  vfs.Parent(path),
	})
}

// ─── Content ────────────────────────────────────────────────────────

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	path, ok := s.pathParam(w, r, true)
	if !ok {
		return
	}

	content, err := s.store.GetFileContent(r.Context(), path)
	if err != nil {
		s.sendResolveError(w, err)
		return
	}

	w.Header().Set("Content-Type", vfs.MimeTypeFor(vfs.BaseName(path)))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	io.WriteString(w, content)
	metrics.RecordContentDownloaded(int64(len(content)))
}

// ─── Download ───────────────────────────────────────────────────────

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, ok := s.pathParam(w, r, true)
	if !ok {
		return
	}

	entry, stream, err := s.store.GetDownloadStream(r.Context(), path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotFound) {
			s.sendError(w, http.StatusNotFound, "Item not found")
			return
		}
		s.sendResolveError(w, err)
		return
	}
	defer stream.Close()

	if entry.IsFolder {
		name := entry.Name
		if entry.Path == "/" {
			name = "reports"
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".zip"))
	} else {
		w.Header().Set("Content-Type", entry.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Name))
	}

	n, err := io.Copy(w, stream)
	metrics.RecordContentDownloaded(n)
	if err != nil {
		// Headers are already on the wire; all we can do is drop the
		// connection so the client sees a truncated transfer.
		logging.Error("download stream aborted",
			zap.String("path", entry.Path), zap.Error(err))
	}
}

// ─── Info ───────────────────────────────────────────────────────────

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	path, ok := s.pathParam(w, r, true)
	if !ok {
		return
	}

	entry, err := s.store.GetFileInfo(r.Context(), path)
	if err != nil {
		s.sendResolveError(w, err)
		return
	}
	if entry == nil {
		s.sendError(w, http.StatusNotFound, "Item not found")
		return
	}

	s.sendData(w, map[string]any{
		"name":        entry.Name,
		"path":        entry.Path,
		"isFile":      !entry.IsFolder,
		"isDirectory": entry.IsFolder,
		"size":        entry.Size,
		"mimeType":    entry.MimeType,
		"parentPath":  entry.ParentPath,
		"createdAt":   entry.CreatedAt,
		"updatedAt":   entry.UpdatedAt,
		"description": entry.Metadata.Description,
		"author":      entry.Metadata.Author,
		"version":     entry.Metadata.Version,
		"tags":        entry.Metadata.Tags,
	})
}

// ─── Search ─────────────────────────────────────────────────────────

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.sendError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit := s.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.sendError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	results, err := s.store.SearchFiles(r.Context(), query, limit)
	if err != nil {
		s.sendResolveError(w, err)
		return
	}
	metrics.RecordSearchResults(len(results))

	trimmed := make([]vfs.Entry, 0, len(results))
	for _, e := range results {
		trimmed = append(trimmed, e.Trimmed())
	}

	s.sendData(w, map[string]any{
		"results": trimmed,
		"query":   query,
		"total":   len(trimmed),
	})
}

// ─── Stats ──────────────────────────────────────────────────────────

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	path, ok := s.pathParam(w, r, false)
	if !ok {
		return
	}

	stats, err := s.store.GetFileStats(r.Context(), path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotFound) {
			// A path with nothing under it reports zeros, mirroring
			// the empty-listing behavior.
			stats = vfs.Stats{}
		} else {
			s.sendResolveError(w, err)
			return
		}
	}

	s.sendData(w, map[string]any{
		"path":             path,
		"totalFiles":       stats.TotalFiles,
		"totalDirectories": stats.TotalDirectories,
		"totalSize":        stats.TotalSize,
	})
}

// ─── Middleware ─────────────────────────────────────────────────────

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
