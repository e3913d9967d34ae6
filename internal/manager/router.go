package manager

import (
	"encoding/json"

	"modelmgrd/internal/bridge"
	"modelmgrd/pkg/types"
)

// routeEvents drains the bridge event stream until Close or until the bridge
// closes the channel. Runs on its own goroutine for the manager's lifetime.
func (m *Manager) routeEvents() {
	defer close(m.routerDone)
	events := m.bridge.Events()
	for {
		select {
		case <-m.quit:
			return
		case line, ok := <-events:
			if !ok {
				return
			}
			m.handleEventLine(line)
		}
	}
}

// handleEventLine applies one JSON event to the named model's entry.
// Malformed payloads and unknown ids are dropped without logging noise;
// one bad event must never stall the stream.
func (m *Manager) handleEventLine(line string) {
	var ev nativeEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return
	}
	if ev.ModelID == "" {
		return
	}

	m.mu.Lock()
	st, tracked := m.states[ev.ModelID]
	if !tracked {
		m.mu.Unlock()
		return
	}

	var name string
	fields := map[string]any{}
	switch ev.Event {
	case bridge.EventProgress:
		// Applied unconditionally: a stray progress event after completion
		// drags the entry back to downloading. Kept for parity with the
		// event producer's contract.
		p := 0.0
		if ev.Progress != nil {
			p = clamp01(*ev.Progress)
		}
		st.Status = types.DownloadInProgress
		st.Progress = p
		name = EventDownloadProgress
		fields["progress"] = p

	case bridge.EventComplete:
		_, bytes := artifactScan(m.installDir(ev.ModelID))
		st = types.ModelDownloadState{
			Status:         types.DownloadDone,
			Progress:       1.0,
			DiskUsageBytes: bytes,
		}
		name = EventDownloadComplete
		fields["diskUsageBytes"] = bytes
		downloadsCompletedTotal.Inc()

	case bridge.EventError:
		msg := ev.ErrorMessage
		if msg == "" {
			msg = "Download failed"
		}
		st.Status = types.DownloadError
		st.ErrorMessage = msg
		name = EventDownloadError
		fields["error"] = msg
		downloadErrorsTotal.Inc()

	case bridge.EventCancelled:
		st = types.ModelDownloadState{Status: types.DownloadNotDownloaded}
		name = EventDownloadCancelled

	default:
		m.mu.Unlock()
		return
	}

	m.states[ev.ModelID] = st
	snap := m.snapshotStatesLocked()
	m.mu.Unlock()

	m.persistStates(snap)
	m.publishStates(snap)
	m.publisher.Publish(Event{Name: name, ModelID: ev.ModelID, Fields: fields})
}
