package manager

import (
	"fmt"
	"sync"

	"modelmgrd/internal/bridge"
	"modelmgrd/internal/catalog"
	"modelmgrd/internal/store"
	"modelmgrd/pkg/types"
)

// Manager coordinates per-model download state machines, the global
// load/generate slot, persistence, and the native event stream.
type Manager struct {
	mu sync.RWMutex

	catalog   *catalog.Catalog
	bridge    bridge.Bridge
	store     store.StateStore
	modelsDir string

	states map[string]types.ModelDownloadState
	slot   loadSlot

	maxTokens int
	freeBytes func(path string) (uint64, error)
	publisher EventPublisher

	stateSubs map[string]chan map[string]types.ModelDownloadState
	loadSubs  map[string]chan types.LoadSnapshot

	routerDone chan struct{}
	quit       chan struct{}
	closeOnce  sync.Once
}

// NewWithConfig constructs a Manager, reconciles persisted state against
// disk, and starts the event-stream router. The router subscription is owned
// by the manager from construction until Close.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("manager: catalog is required")
	}
	if cfg.Bridge == nil {
		return nil, fmt.Errorf("manager: bridge is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("manager: store is required")
	}
	if cfg.ModelsDir == "" {
		return nil, fmt.Errorf("manager: models dir is required")
	}
	m := &Manager{
		catalog:    cfg.Catalog,
		bridge:     cfg.Bridge,
		store:      cfg.Store,
		modelsDir:  cfg.ModelsDir,
		states:     make(map[string]types.ModelDownloadState),
		slot:       loadSlot{status: types.LoadUnloaded},
		maxTokens:  cfg.DefaultMaxTokens,
		freeBytes:  cfg.FreeSpace,
		publisher:  cfg.Publisher,
		stateSubs:  make(map[string]chan map[string]types.ModelDownloadState),
		loadSubs:   make(map[string]chan types.LoadSnapshot),
		routerDone: make(chan struct{}),
		quit:       make(chan struct{}),
	}
	if m.maxTokens <= 0 {
		m.maxTokens = defaultMaxTokens
	}
	if m.freeBytes == nil {
		m.freeBytes = freeDiskBytes
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}

	m.reconcile()

	go m.routeEvents()
	return m, nil
}

// ModelStates returns a copy of the per-model download states.
func (m *Manager) ModelStates() map[string]types.ModelDownloadState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotStatesLocked()
}

// LoadState returns the current slot status.
func (m *Manager) LoadState() types.LoadStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot.status
}

// LoadedModelID returns the id occupying the slot, if any.
func (m *Manager) LoadedModelID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot.modelID, m.slot.modelID != ""
}

// LoadError returns the last load failure message. It is cleared only by
// the next successful LoadModel.
func (m *Manager) LoadError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot.lastErr
}

// LoadSnapshot returns the full slot snapshot.
func (m *Manager) LoadSnapshot() types.LoadSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slot.snapshot()
}

// Close tears down the event-stream subscription and all subscriber
// channels. It is idempotent and never panics, even when the manager is
// closed twice.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.closeOnce.Do(func() {
		close(m.quit)
		<-m.routerDone

		m.mu.Lock()
		for id, ch := range m.stateSubs {
			close(ch)
			delete(m.stateSubs, id)
		}
		for id, ch := range m.loadSubs {
			close(ch)
			delete(m.loadSubs, id)
		}
		m.mu.Unlock()
	})
}

// snapshotStatesLocked copies the state map. Caller holds m.mu.
func (m *Manager) snapshotStatesLocked() map[string]types.ModelDownloadState {
	out := make(map[string]types.ModelDownloadState, len(m.states))
	for id, st := range m.states {
		out[id] = st
	}
	return out
}
