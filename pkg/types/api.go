package types

// ModelStatus pairs a catalog entry with its current download state for
// GET /models.
type ModelStatus struct {
	CatalogEntry
	State ModelDownloadState `json:"state"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// Catalog entries with their live download states.
	Models []ModelStatus `json:"models"`
}

// LoadRequest selects the model to occupy the load slot.
type LoadRequest struct {
	// Model identifier to load.
	// example: qwen2.5-0.5b-instruct
	Model string `json:"model" example:"qwen2.5-0.5b-instruct"`
}

// GenerateRequest is the payload for POST /generate.
type GenerateRequest struct {
	// Conversation history, oldest first.
	Messages []ChatMessage `json:"messages"`
	// Optional tools offered to the runtime.
	Tools []ToolSpec `json:"tools,omitempty"`
	// Maximum number of new tokens; defaults to 2048 when omitted.
	// example: 512
	MaxTokens int `json:"max_tokens,omitempty" example:"512"`
}

// GenerateResponse carries the raw runtime output. The daemon performs no
// interpretation of the response text.
type GenerateResponse struct {
	Response string `json:"response"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Per-model download states keyed by model id.
	Models map[string]ModelDownloadState `json:"models"`
	// Current load slot snapshot.
	Load LoadSnapshot `json:"load"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
