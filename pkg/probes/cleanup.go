package probes

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// probeTTL is the maximum age of a probe directory before it's considered orphaned.
	probeTTL = 5 * time.Minute
	// cleanupInterval is how often the cleanup loop runs.
	cleanupInterval = 60 * time.Second
)

// Start removes orphans left over from a previous process and runs the
// periodic cleanup loop until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.cleanupOrphans()
	go m.cleanupLoop(ctx)
}

// cleanupLoop periodically removes orphaned probe directories.
func (m *Manager) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.cleanupOrphans()
		}
	}
}

// cleanupOrphans deletes probe directories that match our prefix, are
// older than the TTL, and are not tracked as live by this process.
func (m *Manager) cleanupOrphans() {
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		slog.Warn("probe: cannot list temp dir", "error", err)
		return
	}

	cutoff := time.Now().Add(-probeTTL)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), m.prefix) {
			continue
		}
		dir := filepath.Join(os.TempDir(), e.Name())

		m.mu.Lock()
		_, inUse := m.live[dir]
		m.mu.Unlock()
		if inUse {
			continue
		}

		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("probe: failed to remove orphaned dir", "dir", dir, "error", err)
			continue
		}
		slog.Info("probe: removed orphaned dir", "dir", dir)
	}
}
