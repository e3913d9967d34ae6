package manager

// modelNotFoundError signals a model id absent from the catalog.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error for a model id the catalog does not know.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// cloudOnlyError signals an operation on a model that is served remotely
// and never managed on device.
type cloudOnlyError struct{ id string }

func (e cloudOnlyError) Error() string { return "model is cloud-only: " + e.id }

// ErrCloudOnly constructs a cloudOnlyError.
func ErrCloudOnly(id string) error { return cloudOnlyError{id: id} }

// IsCloudOnly reports whether the error indicates a cloud-only model id.
func IsCloudOnly(err error) bool {
	_, ok := err.(cloudOnlyError)
	return ok
}

// noModelLoadedError signals Generate was called with an empty slot.
type noModelLoadedError struct{}

func (noModelLoadedError) Error() string { return "no model loaded" }

// ErrNoModelLoaded constructs a noModelLoadedError.
func ErrNoModelLoaded() error { return noModelLoadedError{} }

// IsNoModelLoaded reports whether the error indicates an empty load slot.
func IsNoModelLoaded(err error) bool {
	_, ok := err.(noModelLoadedError)
	return ok
}
