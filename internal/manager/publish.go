package manager

import (
	"github.com/google/uuid"

	"modelmgrd/pkg/types"
)

const subBuffer = 8

// SubscribeStates registers a channel that receives a full download-state
// snapshot after every state change. Slow consumers miss snapshots rather
// than blocking the manager.
func (m *Manager) SubscribeStates() (string, <-chan map[string]types.ModelDownloadState) {
	id := uuid.NewString()
	ch := make(chan map[string]types.ModelDownloadState, subBuffer)
	m.mu.Lock()
	m.stateSubs[id] = ch
	m.mu.Unlock()
	return id, ch
}

// UnsubscribeStates removes a subscription created by SubscribeStates.
func (m *Manager) UnsubscribeStates(id string) {
	m.mu.Lock()
	if ch, ok := m.stateSubs[id]; ok {
		delete(m.stateSubs, id)
		close(ch)
	}
	m.mu.Unlock()
}

// SubscribeLoad registers a channel that receives a slot snapshot after
// every load-state change.
func (m *Manager) SubscribeLoad() (string, <-chan types.LoadSnapshot) {
	id := uuid.NewString()
	ch := make(chan types.LoadSnapshot, subBuffer)
	m.mu.Lock()
	m.loadSubs[id] = ch
	m.mu.Unlock()
	return id, ch
}

// UnsubscribeLoad removes a subscription created by SubscribeLoad.
func (m *Manager) UnsubscribeLoad(id string) {
	m.mu.Lock()
	if ch, ok := m.loadSubs[id]; ok {
		delete(m.loadSubs, id)
		close(ch)
	}
	m.mu.Unlock()
}

// publishStates fans a snapshot out to state subscribers. Sends are
// non-blocking; the read lock excludes Close, which closes channels under
// the write lock.
func (m *Manager) publishStates(states map[string]types.ModelDownloadState) {
	m.mu.RLock()
	for _, ch := range m.stateSubs {
		select {
		case ch <- states:
		default:
		}
	}
	m.mu.RUnlock()
}

// publishLoad fans a slot snapshot out to load subscribers.
func (m *Manager) publishLoad(snap types.LoadSnapshot) {
	m.mu.RLock()
	for _, ch := range m.loadSubs {
		select {
		case ch <- snap:
		default:
		}
	}
	m.mu.RUnlock()
}
