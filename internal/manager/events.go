package manager

// Event represents a manager lifecycle event.
// Minimal and stable: name + model ID and optional fields via key/values.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// Event names emitted by the manager.
const (
	EventDownloadStarted   = "download_started"
	EventDownloadProgress  = "download_progress"
	EventDownloadComplete  = "download_complete"
	EventDownloadCancelled = "download_cancelled"
	EventDownloadError     = "download_error"
	EventModelDeleted      = "model_deleted"
	EventModelLoaded       = "model_loaded"
	EventModelUnloaded     = "model_unloaded"
	EventLoadError         = "load_error"
	EventModelEvicted      = "model_evicted"
)

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
