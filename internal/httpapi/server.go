package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelmgrd/internal/catalog"
	"modelmgrd/pkg/types"
)

// Service defines the manager methods required by the HTTP API layer.
type Service interface {
	ModelStates() map[string]types.ModelDownloadState
	LoadSnapshot() types.LoadSnapshot
	SubscribeStates() (string, <-chan map[string]types.ModelDownloadState)
	UnsubscribeStates(id string)
	SubscribeLoad() (string, <-chan types.LoadSnapshot)
	UnsubscribeLoad(id string)
	DownloadModel(ctx context.Context, id string) error
	CancelDownload(ctx context.Context, id string) error
	DeleteModel(ctx context.Context, id string) error
	LoadModel(ctx context.Context, id string) error
	UnloadModel(ctx context.Context) error
	Generate(ctx context.Context, messages []types.ChatMessage, tools []types.ToolSpec, maxTokens int) (string, error)
}

var startTime = time.Now()

// NewMux builds the HTTP handler tree. The catalog supplies entry metadata
// for listing endpoints; all state comes from the service.
func NewMux(svc Service, cat *catalog.Catalog) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/models", handleListModels(svc, cat))
	r.Get("/status", handleStatus(svc))
	r.Post("/models/{id}/download", handleModelOp(svc.DownloadModel))
	r.Post("/models/{id}/cancel", handleModelOp(svc.CancelDownload))
	r.Delete("/models/{id}", handleModelOp(svc.DeleteModel))
	r.Post("/load", handleLoad(svc))
	r.Post("/unload", handleUnload(svc))
	r.Post("/generate", handleGenerate(svc))
	r.Get("/events", handleEvents(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handleListModels godoc
// @Summary List catalog models with their download states
// @Produce json
// @Success 200 {object} types.ModelsResponse
// @Router /models [get]
func handleListModels(svc Service, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := svc.ModelStates()
		entries := cat.Entries()
		out := types.ModelsResponse{Models: make([]types.ModelStatus, 0, len(entries))}
		for _, e := range entries {
			out.Models = append(out.Models, types.ModelStatus{CatalogEntry: e, State: states[e.ID]})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleStatus godoc
// @Summary Full daemon status: download states plus the load slot
// @Produce json
// @Success 200 {object} types.StatusResponse
// @Router /status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.StatusResponse{
			Models:         svc.ModelStates(),
			Load:           svc.LoadSnapshot(),
			UptimeSeconds:  int64(time.Since(startTime).Seconds()),
			ServerTimeUnix: time.Now().Unix(),
		})
	}
}

// modelIDParam extracts and unescapes the {id} route parameter, so ids with
// slashes arrive URL-encoded (org%2Fname).
func modelIDParam(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return "", false
	}
	id, err := url.PathUnescape(raw)
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// handleModelOp wraps the download/cancel/delete operations, which share the
// same shape: a model id in, state change out.
func handleModelOp(op func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := modelIDParam(r)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "model id is required")
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := op(ctx, id); err != nil {
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// handleLoad godoc
// @Summary Load a model into the inference slot
// @Accept json
// @Param request body types.LoadRequest true "model to load"
// @Success 200
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /load [post]
func handleLoad(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoadRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Model) == "" {
			writeJSONError(w, http.StatusBadRequest, "model is required")
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.LoadModel(ctx, req.Model); err != nil {
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func handleUnload(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.UnloadModel(ctx); err != nil {
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// handleGenerate godoc
// @Summary Run one completion against the loaded model
// @Accept json
// @Produce json
// @Param request body types.GenerateRequest true "messages and options"
// @Success 200 {object} types.GenerateResponse
// @Failure 409 {object} types.ErrorResponse
// @Router /generate [post]
func handleGenerate(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GenerateRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if len(req.Messages) == 0 {
			writeJSONError(w, http.StatusBadRequest, "messages are required")
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		start := time.Now()
		out, err := svc.Generate(ctx, req.Messages, req.Tools, req.MaxTokens)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
		if zlog != nil {
			z := zlog.Info().Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("generate end")
		}
		writeJSON(w, http.StatusOK, types.GenerateResponse{Response: out})
	}
}

// decodeJSONBody enforces the JSON content type and body size limit, then
// decodes into dst. It writes the error response itself on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
