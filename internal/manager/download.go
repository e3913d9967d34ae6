package manager

import (
	"context"
	"fmt"
	"os"

	"modelmgrd/pkg/types"
)

// DownloadModel starts a download for a local catalog model. It no-ops while
// the model is already downloading or downloaded, and it refuses (by entering
// the error state, not by returning an error) when free disk space is below
// the admission threshold. A native start failure is likewise captured into
// the error state rather than returned.
func (m *Manager) DownloadModel(ctx context.Context, id string) error {
	ent, err := m.localEntry(id)
	if err != nil {
		return err
	}

	m.mu.RLock()
	cur := m.states[id]
	m.mu.RUnlock()
	if cur.Status == types.DownloadInProgress || cur.Status == types.DownloadDone {
		return nil
	}

	if ent.EstimatedSizeBytes > 0 {
		required := requiredBytes(ent.EstimatedSizeBytes)
		free, probeErr := m.freeBytes(m.modelsDir)
		// A failing probe never blocks the user; only a confirmed shortfall does.
		if probeErr == nil && free < uint64(required) {
			msg := fmt.Sprintf("Not enough disk space: need %d bytes, %d available", required, free)
			m.mu.Lock()
			m.states[id] = types.ModelDownloadState{Status: types.DownloadError, ErrorMessage: msg}
			snap := m.snapshotStatesLocked()
			m.mu.Unlock()

			admissionRejectedTotal.Inc()
			m.persistStates(snap)
			m.publishStates(snap)
			m.publisher.Publish(Event{Name: EventDownloadError, ModelID: id, Fields: map[string]any{"error": msg}})
			return nil
		}
		if probeErr != nil {
			logger().Warn().Err(probeErr).Str("model", id).Msg("free-space probe failed, admitting download")
		}
	}

	m.mu.Lock()
	// Re-check under the write lock so two racing callers start one download.
	cur = m.states[id]
	if cur.Status == types.DownloadInProgress || cur.Status == types.DownloadDone {
		m.mu.Unlock()
		return nil
	}
	m.states[id] = types.ModelDownloadState{Status: types.DownloadInProgress, Progress: 0.0}
	snap := m.snapshotStatesLocked()
	m.mu.Unlock()

	downloadsStartedTotal.Inc()
	m.persistStates(snap)
	m.publishStates(snap)
	m.publisher.Publish(Event{Name: EventDownloadStarted, ModelID: id})

	if err := m.bridge.StartDownload(ctx, id, ent.RepoID, m.installDir(id)); err != nil {
		m.mu.Lock()
		m.states[id] = types.ModelDownloadState{Status: types.DownloadError, ErrorMessage: err.Error()}
		snap = m.snapshotStatesLocked()
		m.mu.Unlock()

		downloadErrorsTotal.Inc()
		m.persistStates(snap)
		m.publishStates(snap)
		m.publisher.Publish(Event{Name: EventDownloadError, ModelID: id, Fields: map[string]any{"error": err.Error()}})
	}
	return nil
}

// CancelDownload asks the bridge to abort an in-flight download and resets
// the state immediately without waiting for the cancellation event.
func (m *Manager) CancelDownload(ctx context.Context, id string) error {
	if _, err := m.localEntry(id); err != nil {
		return err
	}

	m.mu.RLock()
	inFlight := m.states[id].Status == types.DownloadInProgress
	m.mu.RUnlock()
	if !inFlight {
		return nil
	}

	if err := m.bridge.CancelDownload(ctx, id); err != nil {
		logger().Warn().Err(err).Str("model", id).Msg("native cancel failed")
	}

	m.mu.Lock()
	m.states[id] = types.ModelDownloadState{Status: types.DownloadNotDownloaded}
	snap := m.snapshotStatesLocked()
	m.mu.Unlock()

	m.persistStates(snap)
	m.publishStates(snap)
	m.publisher.Publish(Event{Name: EventDownloadCancelled, ModelID: id})
	return nil
}

// DeleteModel removes the model's artifact directory and resets its state.
func (m *Manager) DeleteModel(ctx context.Context, id string) error {
	if _, err := m.localEntry(id); err != nil {
		return err
	}

	if err := os.RemoveAll(m.installDir(id)); err != nil {
		return fmt.Errorf("remove artifacts for %s: %w", id, err)
	}

	m.mu.Lock()
	m.states[id] = types.ModelDownloadState{Status: types.DownloadNotDownloaded}
	snap := m.snapshotStatesLocked()
	m.mu.Unlock()

	m.persistStates(snap)
	m.publishStates(snap)
	m.publisher.Publish(Event{Name: EventModelDeleted, ModelID: id})
	return nil
}
