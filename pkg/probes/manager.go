// Package probes manages the temporary directories used for clone
// probes and filesystem permission checks, including TTL-based cleanup
// of directories orphaned by a crashed or killed process.
package probes

import (
	"fmt"
	"os"
	"sync"

	"github.com/isitobservable/git-doctor-mcp/pkg/types"
)

// Manager handles the lifecycle of ephemeral probe directories under
// the system temp dir.
type Manager struct {
	prefix string

	mu       sync.Mutex
	live     map[string]struct{}
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewManager creates a probe directory manager. Call Start to run the
// orphan cleanup loop.
func NewManager(prefix string) *Manager {
	return &Manager{
		prefix: prefix,
		live:   make(map[string]struct{}),
		stopCh: make(chan struct{}),
	}
}

// Acquire creates a fresh probe directory and tracks it until Release.
// Failure to create one is the filesystem-permission fault the
// diagnostic also checks for.
func (m *Manager) Acquire() (string, error) {
	dir, err := os.MkdirTemp("", m.prefix)
	if err != nil {
		return "", &types.MCPError{
			Code:    types.ErrCodeFSPermission,
			Message: fmt.Sprintf("cannot create temporary directory: %v", err),
		}
	}
	m.mu.Lock()
	m.live[dir] = struct{}{}
	m.mu.Unlock()
	return dir, nil
}

// Release removes a probe directory, best effort. The returned error
// lets callers record a cleanup warning without changing their result.
func (m *Manager) Release(dir string) error {
	m.mu.Lock()
	delete(m.live, dir)
	m.mu.Unlock()
	return os.RemoveAll(dir)
}

// Stop signals the cleanup goroutine to exit.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}
