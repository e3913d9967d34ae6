package manager

import (
	"modelmgrd/internal/bridge"
	"modelmgrd/internal/catalog"
	"modelmgrd/internal/store"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxTokens = 2048

	// Downloads must fit the estimate plus 10% headroom.
	spaceHeadroomNum = 11
	spaceHeadroomDen = 10
)

// ManagerConfig encapsulates all collaborators and tunables for Manager
// construction.
type ManagerConfig struct {
	Catalog   *catalog.Catalog
	Bridge    bridge.Bridge
	Store     store.StateStore
	ModelsDir string

	// DefaultMaxTokens bounds generation when the caller passes 0.
	DefaultMaxTokens int

	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher

	// FreeSpace overrides the platform free-bytes probe (used by tests).
	FreeSpace func(path string) (uint64, error)
}

// requiredBytes returns the admission threshold for an estimated artifact
// size: ceil(estimate * 1.1), computed in integers.
func requiredBytes(estimate int64) int64 {
	return (estimate*spaceHeadroomNum + spaceHeadroomDen - 1) / spaceHeadroomDen
}
