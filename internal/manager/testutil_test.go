package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"modelmgrd/internal/bridge"
	"modelmgrd/internal/catalog"
	"modelmgrd/pkg/types"
)

// fakeBridge is a scriptable bridge.Bridge. Tests drive the event stream by
// hand via emit.
type fakeBridge struct {
	mu     sync.Mutex
	events chan string

	startCalls  []string
	cancelCalls []string
	loadCalls   []string
	unloadCalls int
	genCalls    int

	startErr  error
	loadErr   error
	unloadErr error
	genErr    error
	genOut    string
}

var _ bridge.Bridge = (*fakeBridge)(nil)

func newFakeBridge() *fakeBridge {
	return &fakeBridge{events: make(chan string, 64), genOut: "ok"}
}

func (f *fakeBridge) StartDownload(_ context.Context, modelID, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls = append(f.startCalls, modelID)
	return f.startErr
}

func (f *fakeBridge) CancelDownload(_ context.Context, modelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls = append(f.cancelCalls, modelID)
	return nil
}

func (f *fakeBridge) LoadModel(_ context.Context, modelID, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls = append(f.loadCalls, modelID)
	return f.loadErr
}

func (f *fakeBridge) UnloadModel(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unloadCalls++
	return f.unloadErr
}

func (f *fakeBridge) Generate(context.Context, string, string, int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.genOut, nil
}

func (f *fakeBridge) Events() <-chan string { return f.events }

func (f *fakeBridge) Close() error { return nil }

func (f *fakeBridge) emit(t *testing.T, ev bridge.Event) {
	t.Helper()
	line, err := ev.Encode()
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	f.events <- line
}

func (f *fakeBridge) starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.startCalls)
}

func (f *fakeBridge) unloads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unloadCalls
}

func (f *fakeBridge) setGenErr(err error) {
	f.mu.Lock()
	f.genErr = err
	f.mu.Unlock()
}

// memStore is an in-memory StateStore.
type memStore struct {
	mu   sync.Mutex
	blob string
}

func (s *memStore) GetPersistedStates() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blob, nil
}

func (s *memStore) SetPersistedStates(blob string) error {
	s.mu.Lock()
	s.blob = blob
	s.mu.Unlock()
	return nil
}

type testEnv struct {
	m         *Manager
	bridge    *fakeBridge
	store     *memStore
	cat       *catalog.Catalog
	modelsDir string
}

func testEntries() []types.CatalogEntry {
	return []types.CatalogEntry{
		{ID: "org/alpha", RepoID: "org/alpha", EstimatedSizeBytes: 1 << 20, RuntimeLibID: "llama"},
		{ID: "org/beta", RepoID: "org/beta", EstimatedSizeBytes: 1 << 20, RuntimeLibID: "llama"},
		{ID: "org/cloud", RepoID: "org/cloud", Cloud: true},
	}
}

// newTestEnv builds a manager over fakes. Free space defaults to plenty.
func newTestEnv(t *testing.T, opts ...func(*ManagerConfig)) *testEnv {
	t.Helper()
	return newTestEnvEntries(t, testEntries(), opts...)
}

func newTestEnvEntries(t *testing.T, entries []types.CatalogEntry, opts ...func(*ManagerConfig)) *testEnv {
	t.Helper()
	env := &testEnv{
		bridge:    newFakeBridge(),
		store:     &memStore{},
		cat:       catalog.New(entries),
		modelsDir: t.TempDir(),
	}
	cfg := ManagerConfig{
		Catalog:   env.cat,
		Bridge:    env.bridge,
		Store:     env.store,
		ModelsDir: env.modelsDir,
		FreeSpace: func(string) (uint64, error) { return 1 << 40, nil },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	m, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(m.Close)
	env.m = m
	return env
}

// writeArtifact drops a file of the given size into a model's install dir.
func (env *testEnv) writeArtifact(t *testing.T, id, name string, size int) {
	t.Helper()
	dir := filepath.Join(env.modelsDir, env.cat.InstallDirName(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func (env *testEnv) state(id string) types.ModelDownloadState {
	return env.m.ModelStates()[id]
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
