package postgres

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/logging"
	"github.com/Nnagarjuna55/Test-report-dashboard-backend/internal/metrics"
)

// ConnManager tracks document store reachability as an explicit object
// injected into the store adapter, rather than a module-level flag.
// Adapters consult Connected before issuing queries and report query
// failures back through MarkDown; a background Watch loop re-probes on
// a ticker so the flag recovers after an outage.
type ConnManager struct {
	db *sql.DB

	mu        sync.RWMutex
	connected bool
}

// NewConnManager creates a manager around db. The initial state is
// whatever the first Check finds; callers usually Check once at boot.
func NewConnManager(db *sql.DB) *ConnManager {
	return &ConnManager{db: db}
}

// Connected reports the last observed reachability of the store.
func (m *ConnManager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Check probes the database and updates the flag.
func (m *ConnManager) Check(ctx context.Context) bool {
	err := m.db.PingContext(ctx)
	m.set(err == nil)
	if err != nil {
		logging.Debug("store ping failed", zap.Error(err))
	}
	return err == nil
}

// MarkDown records a failed query so the flag does not stay stale
// between probe ticks.
func (m *ConnManager) MarkDown() {
	m.set(false)
}

func (m *ConnManager) set(connected bool) {
	m.mu.Lock()
	changed := m.connected != connected
	m.connected = connected
	m.mu.Unlock()

	metrics.SetStoreConnected(connected)
	if changed {
		if connected {
			logging.Info("document store reachable")
		} else {
			logging.Warn("document store unreachable, serving from filesystem")
		}
	}
}

// Watch re-probes the store and refreshes connection metrics until ctx
// is cancelled.
func (m *ConnManager) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
			metrics.SetDBConnectionsOpen(m.db.Stats().OpenConnections)
		}
	}
}
