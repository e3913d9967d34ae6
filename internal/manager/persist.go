package manager

import (
	"encoding/json"

	"modelmgrd/pkg/types"
)

// persistStates writes the given state snapshot through the store. Callers
// must not hold m.mu; the snapshot was taken under the lock and the store
// serializes writers itself.
func (m *Manager) persistStates(states map[string]types.ModelDownloadState) {
	blob, err := json.Marshal(states)
	if err != nil {
		logger().Error().Err(err).Msg("marshal model states")
		return
	}
	if err := m.store.SetPersistedStates(string(blob)); err != nil {
		logger().Error().Err(err).Msg("persist model states")
	}
}

// loadPersisted reads the stored snapshot, if any. A missing or corrupt blob
// yields an empty map; startup proceeds from disk contents alone.
func (m *Manager) loadPersisted() map[string]types.ModelDownloadState {
	blob, err := m.store.GetPersistedStates()
	if err != nil {
		logger().Warn().Err(err).Msg("read persisted model states")
		return map[string]types.ModelDownloadState{}
	}
	if blob == "" {
		return map[string]types.ModelDownloadState{}
	}
	out := map[string]types.ModelDownloadState{}
	if err := json.Unmarshal([]byte(blob), &out); err != nil {
		logger().Warn().Err(err).Msg("decode persisted model states")
		return map[string]types.ModelDownloadState{}
	}
	return out
}
