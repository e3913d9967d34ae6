package manager

import "modelmgrd/pkg/types"

// loadSlot is the single global load/generate resource. modelID is non-empty
// exactly when status is loaded or generating; every mutation goes through
// the setSlot* helpers in load.go so the invariant cannot drift.
type loadSlot struct {
	status  types.LoadStatus
	modelID string
	lastErr string
}

func (s loadSlot) snapshot() types.LoadSnapshot {
	return types.LoadSnapshot{Status: s.status, ModelID: s.modelID, Error: s.lastErr}
}

// occupied reports whether a model currently holds the slot.
func (s loadSlot) occupied() bool { return s.modelID != "" }

// nativeEvent is the wire shape of one entry on the bridge event stream.
// Progress is a pointer so an absent field is distinguishable from 0.
type nativeEvent struct {
	ModelID      string   `json:"modelId"`
	Event        string   `json:"event"`
	Progress     *float64 `json:"progress"`
	ErrorMessage string   `json:"errorMessage"`
}
