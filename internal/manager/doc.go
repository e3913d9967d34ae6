// Package manager owns the lifecycle of on-device models: download,
// install, load into the inference runtime, generate, unload, and recovery
// from runtime eviction. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, getters, Close.
//   - config.go: ManagerConfig and package defaults.
//   - types.go: internal state types (load slot, native event shape).
//   - errors.go: error types and helpers (IsModelNotFound, IsCloudOnly,
//     IsNoModelLoaded).
//   - helpers.go: catalog lookup, install paths, artifact scanning.
//   - reconcile.go: startup reconciliation of persisted state vs disk.
//   - download.go: DownloadModel/CancelDownload/DeleteModel and the
//     disk-space admission check.
//   - diskspace_*.go: platform free-space probes.
//   - router.go: demultiplexing of the native download event stream.
//   - load.go: the global load/generate slot.
//   - publish.go: broadcast snapshot streams for subscribers.
//   - events.go: lifecycle EventPublisher hook.
//   - metrics.go: prometheus instrumentation.
//
// The manager keeps two decoupled state domains: one independent download
// state machine per catalog model, and a single global load/generate slot
// shared by all models. A sync.RWMutex guards both; the lock is never held
// across bridge calls or persistence writes, so readers always observe the
// committed in-progress transition.
//
// External packages should treat this package as the orchestration layer and
// use public methods only. Internal types are subject to change.
package manager
