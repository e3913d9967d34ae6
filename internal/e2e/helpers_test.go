package e2e

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"modelmgrd/internal/bridge"
	"modelmgrd/internal/catalog"
	"modelmgrd/internal/httpapi"
	"modelmgrd/internal/manager"
	"modelmgrd/internal/store"
	"modelmgrd/pkg/types"
)

// fakeRuntime is an in-memory bridge.Runtime so the full stack runs without
// the llama build tag.
type fakeRuntime struct {
	mu     sync.Mutex
	loaded string
	genErr error
}

func (r *fakeRuntime) Load(modelPath string, _ bridge.RuntimeOptions) error {
	r.mu.Lock()
	r.loaded = modelPath
	r.mu.Unlock()
	return nil
}

func (r *fakeRuntime) Unload() error {
	r.mu.Lock()
	r.loaded = ""
	r.mu.Unlock()
	return nil
}

func (r *fakeRuntime) Generate(context.Context, string, string, int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.genErr != nil {
		return "", r.genErr
	}
	if r.loaded == "" {
		return "", bridge.Evicted("no model resident in runtime")
	}
	return "generated text", nil
}

type stack struct {
	srv     *httptest.Server
	mgr     *manager.Manager
	rt      *fakeRuntime
	native  *bridge.Native
	modelsD string
}

// newStack wires downloader + runtime + manager + HTTP API against a test
// artifact server, mirroring the production assembly in cmd/modelmgrd.
func newStack(t *testing.T, artifactBaseURL string) *stack {
	t.Helper()

	cat := catalog.New([]types.CatalogEntry{
		{ID: "org/tiny", RepoID: "org/tiny", EstimatedSizeBytes: 1024, RuntimeLibID: "llama"},
		{ID: "org/other", RepoID: "org/other", EstimatedSizeBytes: 1024, RuntimeLibID: "llama"},
	})

	modelsDir := t.TempDir()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	rt := &fakeRuntime{}
	dl := bridge.NewDownloader(artifactBaseURL, nil)
	native := bridge.NewNative(dl, rt, 2048, 4)

	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Catalog:   cat,
		Bridge:    native,
		Store:     st,
		ModelsDir: modelsDir,
		FreeSpace: func(string) (uint64, error) { return 1 << 40, nil },
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	srv := httptest.NewServer(httpapi.NewMux(mgr, cat))
	t.Cleanup(func() {
		srv.Close()
		mgr.Close()
		_ = native.Close()
	})
	return &stack{srv: srv, mgr: mgr, rt: rt, native: native, modelsD: modelsDir}
}
