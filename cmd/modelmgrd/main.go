package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelmgrd/internal/bridge"
	"modelmgrd/internal/catalog"
	"modelmgrd/internal/common/fsutil"
	"modelmgrd/internal/config"
	"modelmgrd/internal/httpapi"
	"modelmgrd/internal/manager"
	"modelmgrd/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// envOr returns the environment value for key, or def when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modelmgrd",
		Short:         "On-device model lifecycle daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		cfgPath   string
		addr      string
		modelsDir string
		catPath   string
		backend   string
		statePath string
		logLevel  string
		baseURL   string
		corsAllow string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Config{}
			if cfgPath != "" {
				var err error
				cfg, err = config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
			}
			// Flags (and their env defaults) override file values when set.
			override := func(flag string, dst *string, v string) {
				if cmd.Flags().Changed(flag) || *dst == "" {
					*dst = v
				}
			}
			override("addr", &cfg.Addr, addr)
			override("models-dir", &cfg.ModelsDir, modelsDir)
			override("catalog", &cfg.CatalogPath, catPath)
			override("state-backend", &cfg.StateBackend, backend)
			override("state-path", &cfg.StatePath, statePath)
			override("log-level", &cfg.LogLevel, logLevel)
			override("download-base-url", &cfg.DownloadBaseURL, baseURL)
			return serve(cfg, corsAllow)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", envOr("MODELMGRD_CONFIG", ""), "Path to config file (.yaml/.json/.toml)")
	cmd.Flags().StringVar(&addr, "addr", envOr("MODELMGRD_ADDR", ":8080"), "HTTP listen address")
	cmd.Flags().StringVar(&modelsDir, "models-dir", envOr("MODELMGRD_MODELS_DIR", "~/models"), "Directory holding model install dirs")
	cmd.Flags().StringVar(&catPath, "catalog", envOr("MODELMGRD_CATALOG", "catalog.toml"), "Path to the model catalog file")
	cmd.Flags().StringVar(&backend, "state-backend", envOr("MODELMGRD_STATE_BACKEND", "file"), "State store backend: file|sqlite")
	cmd.Flags().StringVar(&statePath, "state-path", envOr("MODELMGRD_STATE_PATH", ""), "State store location (file path or sqlite dir)")
	cmd.Flags().StringVar(&logLevel, "log-level", envOr("MODELMGRD_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	cmd.Flags().StringVar(&baseURL, "download-base-url", envOr("MODELMGRD_DOWNLOAD_BASE_URL", "https://huggingface.co"), "Base URL for artifact downloads")
	cmd.Flags().StringVar(&corsAllow, "cors-origins", envOr("MODELMGRD_CORS_ORIGINS", ""), "Comma-separated allowed CORS origins (empty disables CORS)")
	return cmd
}

func serve(cfg config.Config, corsAllow string) error {
	logger := newLogger(cfg.LogLevel)
	manager.SetLogger(logger)
	httpapi.SetLogger(logger)

	modelsDir, err := fsutil.ExpandHome(cfg.ModelsDir)
	if err != nil {
		return fmt.Errorf("resolve models dir: %w", err)
	}
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	st, closeStore, err := openStore(cfg, modelsDir)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer closeStore()

	dl := bridge.NewDownloader(cfg.DownloadBaseURL, nil)
	native := bridge.NewNative(dl, bridge.NewLlamaRuntime(), cfg.LlamaContextSize, cfg.LlamaThreads)

	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Catalog:          cat,
		Bridge:           native,
		Store:            st,
		ModelsDir:        modelsDir,
		DefaultMaxTokens: cfg.DefaultMaxTokens,
		Publisher:        logPublisher{l: logger},
	})
	if err != nil {
		return fmt.Errorf("start manager: %w", err)
	}

	if corsAllow != "" {
		httpapi.SetCORSOptions(true,
			strings.Split(corsAllow, ","),
			[]string{"GET", "POST", "DELETE", "OPTIONS"},
			[]string{"Content-Type"},
		)
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(mgr, cat)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("models_dir", modelsDir).Msg("modelmgrd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown")
	}
	mgr.Close()
	if err := native.Close(); err != nil {
		logger.Warn().Err(err).Msg("close bridge")
	}
	return nil
}

func openStore(cfg config.Config, modelsDir string) (store.StateStore, func(), error) {
	switch cfg.StateBackend {
	case "sqlite":
		dir := cfg.StatePath
		if dir == "" {
			dir = modelsDir
		}
		s, err := store.OpenSQLite(dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "", "file":
		path := cfg.StatePath
		if path == "" {
			path = modelsDir + "/state.json"
		}
		s, err := store.NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend: %s", cfg.StateBackend)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

// logPublisher forwards manager lifecycle events to the structured log.
type logPublisher struct {
	l zerolog.Logger
}

func (p logPublisher) Publish(e manager.Event) {
	ev := p.l.Info().Str("event", e.Name).Str("model", e.ModelID)
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("lifecycle")
}
