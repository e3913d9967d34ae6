package manager

import (
	"context"
	"encoding/json"
	"time"

	"modelmgrd/internal/bridge"
	"modelmgrd/pkg/types"
)

// Every slot mutation goes through one of the helpers below so the invariant
// "modelID non-empty exactly when loaded or generating" cannot drift.

func (m *Manager) transitionSlot(mutate func(s *loadSlot)) {
	m.mu.Lock()
	mutate(&m.slot)
	snap := m.slot.snapshot()
	m.mu.Unlock()
	m.publishLoad(snap)
}

// setSlotLoading empties the slot for an in-flight load. The previous load
// error is kept until a load succeeds.
func (m *Manager) setSlotLoading() {
	m.transitionSlot(func(s *loadSlot) {
		s.status = types.LoadLoading
		s.modelID = ""
	})
}

// setSlotLoaded records a successful load; this is the only transition that
// clears the load error.
func (m *Manager) setSlotLoaded(id string) {
	m.transitionSlot(func(s *loadSlot) {
		s.status = types.LoadLoaded
		s.modelID = id
		s.lastErr = ""
	})
}

func (m *Manager) setSlotGenerating() {
	m.transitionSlot(func(s *loadSlot) {
		s.status = types.LoadGenerating
	})
}

// restoreSlotLoaded returns a generating slot to loaded without touching the
// occupant or the load error.
func (m *Manager) restoreSlotLoaded() {
	m.transitionSlot(func(s *loadSlot) {
		s.status = types.LoadLoaded
	})
}

// setSlotUnloaded vacates the slot. The load error survives; it is cleared
// only by the next successful load.
func (m *Manager) setSlotUnloaded() {
	m.transitionSlot(func(s *loadSlot) {
		s.status = types.LoadUnloaded
		s.modelID = ""
	})
}

func (m *Manager) setSlotError(msg string) {
	m.transitionSlot(func(s *loadSlot) {
		s.status = types.LoadFailed
		s.modelID = ""
		s.lastErr = msg
	})
}

// LoadModel makes id the resident model. Loading over a different occupant
// first vacates the slot with a best-effort native unload. A native load
// failure moves the slot to the error state and is returned to the caller.
func (m *Manager) LoadModel(ctx context.Context, id string) error {
	ent, err := m.localEntry(id)
	if err != nil {
		return err
	}

	m.mu.RLock()
	occupant := m.slot.modelID
	m.mu.RUnlock()
	if occupant == id {
		return nil
	}
	if occupant != "" {
		if err := m.bridge.UnloadModel(ctx); err != nil {
			logger().Warn().Err(err).Str("model", occupant).Msg("unload before load failed")
		}
	}

	m.setSlotLoading()
	if err := m.bridge.LoadModel(ctx, id, m.artifactPath(id), ent.RuntimeLibID); err != nil {
		m.setSlotError(err.Error())
		loadFailuresTotal.Inc()
		modelLoadedGauge.Set(0)
		m.publisher.Publish(Event{Name: EventLoadError, ModelID: id, Fields: map[string]any{"error": err.Error()}})
		return err
	}

	m.setSlotLoaded(id)
	loadsTotal.Inc()
	modelLoadedGauge.Set(1)
	m.publisher.Publish(Event{Name: EventModelLoaded, ModelID: id})
	return nil
}

// UnloadModel vacates the slot. Native unload errors are swallowed; the
// in-memory slot is emptied regardless.
func (m *Manager) UnloadModel(ctx context.Context) error {
	m.mu.RLock()
	occupant := m.slot.modelID
	m.mu.RUnlock()
	if occupant == "" {
		return nil
	}

	if err := m.bridge.UnloadModel(ctx); err != nil {
		logger().Warn().Err(err).Str("model", occupant).Msg("native unload failed")
	}

	m.setSlotUnloaded()
	unloadsTotal.Inc()
	modelLoadedGauge.Set(0)
	m.publisher.Publish(Event{Name: EventModelUnloaded, ModelID: occupant})
	return nil
}

// Generate runs one completion against the resident model and returns the
// raw runtime response. A failure carrying the eviction code vacates the
// slot so the caller can reload and retry; any other failure leaves the
// model loaded. The original error is returned either way.
func (m *Manager) Generate(ctx context.Context, messages []types.ChatMessage, tools []types.ToolSpec, maxTokens int) (string, error) {
	m.mu.RLock()
	occupant := m.slot.modelID
	m.mu.RUnlock()
	if occupant == "" {
		return "", ErrNoModelLoaded()
	}

	if maxTokens <= 0 {
		maxTokens = m.maxTokens
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return "", err
	}
	toolsJSON := ""
	if len(tools) > 0 {
		b, err := json.Marshal(tools)
		if err != nil {
			return "", err
		}
		toolsJSON = string(b)
	}

	m.setSlotGenerating()
	start := time.Now()
	out, err := m.bridge.Generate(ctx, string(messagesJSON), toolsJSON, maxTokens)
	generateDuration.Observe(time.Since(start).Seconds())
	generatesTotal.Inc()

	if err != nil {
		generateFailuresTotal.Inc()
		if bridge.IsEvicted(err) {
			m.setSlotUnloaded()
			evictionsRecoveredTotal.Inc()
			modelLoadedGauge.Set(0)
			m.publisher.Publish(Event{Name: EventModelEvicted, ModelID: occupant, Fields: map[string]any{"error": err.Error()}})
		} else {
			// Model presumed still resident.
			m.restoreSlotLoaded()
		}
		return "", err
	}

	m.restoreSlotLoaded()
	return out, nil
}
