package types

// CatalogEntry describes one model known to the catalog. The catalog is
// static for the lifetime of the process; entries are read-only to the
// manager.
type CatalogEntry struct {
	// Stable identifier for the model.
	// example: qwen2.5-0.5b-instruct
	ID string `json:"id" toml:"id" yaml:"id" example:"qwen2.5-0.5b-instruct"`
	// Remote source id the artifact is downloaded from.
	// example: Qwen/Qwen2.5-0.5B-Instruct-GGUF
	RepoID string `json:"repo_id" toml:"repo_id" yaml:"repo_id" example:"Qwen/Qwen2.5-0.5B-Instruct-GGUF"`
	// Estimated on-disk footprint in bytes; 0 means unknown.
	// example: 420000000
	EstimatedSizeBytes int64 `json:"estimated_size_bytes" toml:"estimated_size_bytes" yaml:"estimated_size_bytes" example:"420000000"`
	// Runtime library the model must be loaded with.
	// example: llama_cpp
	RuntimeLibID string `json:"runtime_lib_id" toml:"runtime_lib_id" yaml:"runtime_lib_id" example:"llama_cpp"`
	// Cloud marks models served remotely; they are never downloaded,
	// loaded, or otherwise managed by this daemon.
	Cloud bool `json:"cloud,omitempty" toml:"cloud" yaml:"cloud"`
}

// DownloadStatus enumerates the per-model download state machine.
type DownloadStatus string

const (
	DownloadNotDownloaded DownloadStatus = "not_downloaded"
	DownloadInProgress    DownloadStatus = "downloading"
	DownloadDone          DownloadStatus = "downloaded"
	DownloadError         DownloadStatus = "error"
)

// ModelDownloadState is the observable download state of one model.
// Progress is always within [0,1]. DiskUsageBytes is meaningful once the
// model is downloaded; ErrorMessage once the state is error.
type ModelDownloadState struct {
	Status         DownloadStatus `json:"status"`
	Progress       float64        `json:"progress"`
	DiskUsageBytes int64          `json:"disk_usage_bytes,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
}

// LoadStatus enumerates the global load/generate slot state machine.
type LoadStatus string

const (
	LoadUnloaded   LoadStatus = "unloaded"
	LoadLoading    LoadStatus = "loading"
	LoadLoaded     LoadStatus = "loaded"
	LoadGenerating LoadStatus = "generating"
	LoadFailed     LoadStatus = "error"
)

// LoadSnapshot is one observable transition of the load slot.
// ModelID is non-empty exactly when Status is loaded or generating.
type LoadSnapshot struct {
	Status  LoadStatus `json:"status"`
	ModelID string     `json:"model_id,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// ChatMessage is one turn of a conversation passed verbatim to the runtime.
type ChatMessage struct {
	// Role of the author (system, user, assistant, tool).
	// example: user
	Role string `json:"role" example:"user"`
	// Message content.
	// example: Summarize this page.
	Content string `json:"content" example:"Summarize this page."`
}

// ToolSpec describes a tool offered to the runtime during generation.
// Parameters is an opaque JSON schema; this daemon never interprets it.
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}
