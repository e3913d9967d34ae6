// Package bridge is the native side of the model lifecycle manager: it
// downloads artifacts, hosts the inference runtime, and publishes download
// lifecycle events as a single multiplexed stream of JSON text lines.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
)

// Bridge exposes the imperative native operations plus the shared event
// stream. All methods may be called concurrently.
type Bridge interface {
	// StartDownload begins fetching the artifact for modelID from repoID
	// into destDir. Progress is reported on Events, not via the return.
	StartDownload(ctx context.Context, modelID, repoID, destDir string) error
	// CancelDownload requests cancellation; acknowledgment arrives (if at
	// all) as a cancelled event on the stream.
	CancelDownload(ctx context.Context, modelID string) error
	// LoadModel loads the artifact at path into the runtime identified by
	// runtimeLibID.
	LoadModel(ctx context.Context, modelID, path, runtimeLibID string) error
	// UnloadModel frees the currently loaded model, if any.
	UnloadModel(ctx context.Context) error
	// Generate runs a completion over the loaded model and returns the raw
	// response text. messagesJSON and toolsJSON are passed through opaque.
	Generate(ctx context.Context, messagesJSON, toolsJSON string, maxTokens int) (string, error)
	// Events is the shared stream of JSON-encoded download events.
	Events() <-chan string
	// Close stops background work and closes the event stream.
	Close() error
}

// Well-known event names carried on the stream.
const (
	EventProgress  = "progress"
	EventComplete  = "complete"
	EventError     = "error"
	EventCancelled = "cancelled"
)

// Event is the wire shape of one entry on the event stream.
type Event struct {
	ModelID      string  `json:"modelId"`
	Event        string  `json:"event"`
	Progress     float64 `json:"progress,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// Encode marshals the event to its JSON text form. Marshal of this shape
// cannot fail; the error return is kept for symmetry with json.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	return string(b), err
}

// CodeModelEvicted signals the runtime unilaterally freed the loaded model,
// typically under OS memory pressure. Callers should reload and retry.
const CodeModelEvicted = "MODEL_EVICTED"

// Error is a native failure carrying a machine-readable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Evicted constructs the eviction error.
func Evicted(msg string) error { return &Error{Code: CodeModelEvicted, Message: msg} }

// IsEvicted reports whether err carries the eviction code.
func IsEvicted(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Code == CodeModelEvicted
}
