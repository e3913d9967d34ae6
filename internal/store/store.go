// Package store persists the manager's per-model states as one opaque JSON
// blob. The manager owns the blob's shape; stores only round-trip it.
package store

// StateStore is the persistence contract consumed by the manager.
// GetPersistedStates returns "" when nothing has been persisted yet.
type StateStore interface {
	GetPersistedStates() (string, error)
	SetPersistedStates(blob string) error
}
