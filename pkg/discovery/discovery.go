// Package discovery polls the local environment for capabilities the
// git-dependent tools need, so tool registration can follow the host:
// a git binary installed mid-session (after following a diagnostic
// recommendation) makes the clone and fix tools appear without a
// restart.
package discovery

import (
	"context"
	"sync"
	"time"
)

// Features describes what the local environment currently provides.
type Features struct {
	HasGit           bool
	CredentialHelper string
}

// Prober abstracts the PATH lookups so tests can fake an environment.
type Prober interface {
	Installed() (string, bool)
	CredentialHelper() (string, bool)
}

type OnChangeFunc func(Features)

type Discovery struct {
	prober   Prober
	onChange OnChangeFunc

	mu       sync.RWMutex
	features Features
	ready    bool
	stopCh   chan struct{}
}

func New(prober Prober, onChange OnChangeFunc) *Discovery {
	return &Discovery{
		prober:   prober,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}
}

func (d *Discovery) GetFeatures() Features {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.features
}

// IsReady reports whether the initial poll has completed.
func (d *Discovery) IsReady() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

// Start performs an initial poll synchronously (the onChange callback
// fires before Start returns when features are present), then polls
// every 60 seconds until ctx is done or Stop is called.
func (d *Discovery) Start(ctx context.Context) {
	d.poll()
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.poll()
			case <-ctx.Done():
				return
			case <-d.stopCh:
				return
			}
		}
	}()
}

func (d *Discovery) Stop() {
	close(d.stopCh)
}

func (d *Discovery) poll() {
	newFeatures := Features{}
	if _, ok := d.prober.Installed(); ok {
		newFeatures.HasGit = true
	}
	if helper, ok := d.prober.CredentialHelper(); ok {
		newFeatures.CredentialHelper = helper
	}

	d.mu.Lock()
	changed := newFeatures != d.features || !d.ready
	d.features = newFeatures
	d.ready = true
	d.mu.Unlock()

	if changed && d.onChange != nil {
		d.onChange(newFeatures)
	}
}
