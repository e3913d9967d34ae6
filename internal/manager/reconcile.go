package manager

import "modelmgrd/pkg/types"

// reconcile rebuilds the download-state map from disk and the persisted
// snapshot. Disk truth wins: present artifacts mean downloaded regardless of
// what was recorded. Transient in-flight records never survive a restart.
func (m *Manager) reconcile() {
	persisted := m.loadPersisted()

	m.mu.Lock()
	for _, ent := range m.catalog.Entries() {
		if ent.Cloud {
			continue
		}
		st := types.ModelDownloadState{Status: types.DownloadNotDownloaded}
		present, bytes := artifactScan(m.installDir(ent.ID))
		switch {
		case present:
			st = types.ModelDownloadState{
				Status:         types.DownloadDone,
				Progress:       1.0,
				DiskUsageBytes: bytes,
			}
		default:
			prev, ok := persisted[ent.ID]
			if ok && prev.Status == types.DownloadError {
				st = types.ModelDownloadState{
					Status:       types.DownloadError,
					ErrorMessage: prev.ErrorMessage,
				}
			}
			// downloading and unbacked downloaded demote to not_downloaded
		}
		m.states[ent.ID] = st
	}
	snap := m.snapshotStatesLocked()
	m.mu.Unlock()

	m.persistStates(snap)
	m.publishStates(snap)
}
