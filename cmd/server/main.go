// Test report dashboard backend.
//
// Serves a virtual filesystem of generated test-pipeline artifacts to
// the dashboard front end. Entries resolve against a PostgreSQL
// document store when one is configured and reachable, with the
// on-disk fixture tree as the always-available fallback.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/api"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/archive"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/config"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/fixtures"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/logging"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/metadata/postgres"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/metrics"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/storage/local"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/vfs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("test report server starting",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("data_dir", cfg.DataDir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Filesystem adapter: always present, ground truth.
	fsAdapter, err := local.New(cfg.DataDir)
	if err != nil {
		logging.Fatal("filesystem adapter init failed", zap.Error(err))
	}

	// Fixture tree. Requests arriving before generation finishes may
	// see a partially populated tree; tolerated as startup degradation.
	if !cfg.SkipFixtures {
		if err := fixtures.Generate(cfg.DataDir); err != nil {
			logging.Fatal("fixture generation failed", zap.Error(err))
		}
	}

	// Document store: optional. The server runs filesystem-only when
	// no DATABASE_URL is configured or the store never comes up.
	var metaStore *postgres.Store
	var primary vfs.Adapter
	var connState api.ConnState
	if cfg.DatabaseURL != "" {
		metaStore, err = postgres.New(cfg.DatabaseURL)
		if err != nil {
			logging.Fatal("database open failed", zap.Error(err))
		}
		defer metaStore.Close()
		primary = metaStore
		connState = metaStore.Conn()

		if metaStore.Conn().Check(ctx) {
			if dir := findMigrationsDir(); dir != "" {
				logging.Info("running migrations", zap.String("dir", dir))
				if err := metaStore.Migrate(dir); err != nil {
					logging.Fatal("migration failed", zap.Error(err))
				}
			}
			if cfg.MirrorOnStart {
				if n, err := metaStore.Mirror(ctx, fsAdapter); err != nil {
					logging.Warn("store mirror incomplete, filesystem remains ground truth",
						zap.Int("mirrored", n), zap.Error(err))
				}
			}
		} else {
			logging.Warn("document store unreachable at startup, serving from filesystem")
		}

		go metaStore.Conn().Watch(ctx, 15*time.Second)
	} else {
		logging.Info("no DATABASE_URL configured, running filesystem-only")
	}

	store := vfs.New(primary, fsAdapter, archive.NewBuilder())
	srv := api.NewServer(store, connState, cfg.DataDir, cfg.CORSAllowedOrigin, cfg.SearchDefaultLimit)

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		metricsServer.Close()
	}()

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}
}

func findMigrationsDir() string {
	candidates := []string{
		"migrations",
		"../migrations",
	}

	exe, _ := os.Executable()
	if exe != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "migrations"))
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}
