package controller

import (
	"sync"
	"time"
)

type registryEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry keeps one controller per view session and evicts the ones that
// have been idle longer than the TTL.
type Registry struct {
	mu    sync.Mutex
	items map[string]*registryEntry
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewRegistry creates a registry and starts its cleanup loop. Call Stop to
// end the loop.
func NewRegistry(ttl time.Duration) *Registry {
	r := &Registry{
		items: make(map[string]*registryEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	interval := ttl / 2
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	go r.cleanupLoop(interval)

	return r
}

// GetOrCreate returns the controller for id, building it with create when
// missing. create runs under the registry lock and must not call back into
// the registry.
func (r *Registry) GetOrCreate(id string, create func() (*Controller, error)) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.items[id]; ok && !r.expired(e) {
		e.lastSeen = r.now()
		return e.ctrl, nil
	}

	ctrl, err := create()
	if err != nil {
		return nil, err
	}
	r.items[id] = &registryEntry{ctrl: ctrl, lastSeen: r.now()}
	return ctrl, nil
}

// Len returns the number of controllers held, including expired ones not
// yet swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Stop ends the cleanup loop
func (r *Registry) Stop() {
	r.once.Do(func() { close(r.stop) })
}

func (r *Registry) expired(e *registryEntry) bool {
	return r.ttl > 0 && r.now().Sub(e.lastSeen) > r.ttl
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup()
		case <-r.stop:
			return
		}
	}
}

// cleanup removes expired controllers
func (r *Registry) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.items {
		if r.expired(e) {
			delete(r.items, id)
		}
	}
}
