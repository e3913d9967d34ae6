package manager

import (
	"context"
	"testing"

	"modelmgrd/internal/catalog"
	"modelmgrd/pkg/types"
)

func TestCloseIsIdempotent(t *testing.T) {
	env := &testEnv{
		bridge:    newFakeBridge(),
		store:     &memStore{},
		cat:       catalog.New(testEntries()),
		modelsDir: t.TempDir(),
	}
	m, err := NewWithConfig(ManagerConfig{
		Catalog:   env.cat,
		Bridge:    env.bridge,
		Store:     env.store,
		ModelsDir: env.modelsDir,
		FreeSpace: func(string) (uint64, error) { return 1 << 40, nil },
	})
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}

	m.Close()
	m.Close()

	var nilMgr *Manager
	nilMgr.Close()
}

func TestCloseWithActiveSubscriptions(t *testing.T) {
	env := &testEnv{
		bridge:    newFakeBridge(),
		store:     &memStore{},
		cat:       catalog.New(testEntries()),
		modelsDir: t.TempDir(),
	}
	m, err := NewWithConfig(ManagerConfig{
		Catalog:   env.cat,
		Bridge:    env.bridge,
		Store:     env.store,
		ModelsDir: env.modelsDir,
		FreeSpace: func(string) (uint64, error) { return 1 << 40, nil },
	})
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}

	_, states := m.SubscribeStates()
	_, loads := m.SubscribeLoad()
	m.Close()

	// Channels are closed so range loops in consumers terminate.
	for range states {
	}
	for range loads {
	}
}

func TestSubscribeStatesReceivesSnapshots(t *testing.T) {
	env := newTestEnv(t)
	id, ch := env.m.SubscribeStates()
	defer env.m.UnsubscribeStates(id)

	if err := env.m.DownloadModel(context.Background(), "org/alpha"); err != nil {
		t.Fatalf("DownloadModel: %v", err)
	}

	snap := <-ch
	if snap["org/alpha"].Status != types.DownloadInProgress {
		t.Fatalf("snapshot status = %q, want downloading", snap["org/alpha"].Status)
	}
	// The snapshot is a copy; mutating it must not reach the manager.
	snap["org/alpha"] = types.ModelDownloadState{Status: types.DownloadError}
	if env.state("org/alpha").Status != types.DownloadInProgress {
		t.Fatalf("subscriber mutated manager state")
	}
}

func TestSubscribeLoadReceivesTransitions(t *testing.T) {
	env := newTestEnv(t)
	id, ch := env.m.SubscribeLoad()
	defer env.m.UnsubscribeLoad(id)

	if err := env.m.LoadModel(context.Background(), "org/alpha"); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	sawLoading, sawLoaded := false, false
	for i := 0; i < 2; i++ {
		snap := <-ch
		switch snap.Status {
		case types.LoadLoading:
			sawLoading = true
		case types.LoadLoaded:
			sawLoaded = true
			if snap.ModelID != "org/alpha" {
				t.Fatalf("loaded snapshot id = %q", snap.ModelID)
			}
		}
	}
	if !sawLoading || !sawLoaded {
		t.Fatalf("missing transitions: loading=%v loaded=%v", sawLoading, sawLoaded)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	env := newTestEnv(t)
	id, ch := env.m.SubscribeStates()
	env.m.UnsubscribeStates(id)

	if _, open := <-ch; open {
		t.Fatalf("channel still open after unsubscribe")
	}
	// Unsubscribing twice is harmless.
	env.m.UnsubscribeStates(id)
}

func TestPublisherReceivesLifecycleEvents(t *testing.T) {
	pub := NewMemoryPublisher()
	env := newTestEnv(t, func(cfg *ManagerConfig) {
		cfg.Publisher = pub
	})
	ctx := context.Background()

	if err := env.m.DownloadModel(ctx, "org/alpha"); err != nil {
		t.Fatalf("DownloadModel: %v", err)
	}
	if err := env.m.LoadModel(ctx, "org/alpha"); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if err := env.m.UnloadModel(ctx); err != nil {
		t.Fatalf("UnloadModel: %v", err)
	}

	want := map[string]bool{
		EventDownloadStarted: false,
		EventModelLoaded:     false,
		EventModelUnloaded:   false,
	}
	for _, ev := range pub.Events() {
		if _, ok := want[ev.Name]; ok {
			want[ev.Name] = true
			if ev.ModelID != "org/alpha" {
				t.Fatalf("event %s carries id %q", ev.Name, ev.ModelID)
			}
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("event %s never published", name)
		}
	}
}

func TestNewWithConfigValidatesCollaborators(t *testing.T) {
	cat := catalog.New(testEntries())
	fb := newFakeBridge()
	st := &memStore{}
	dir := t.TempDir()

	cases := []struct {
		name string
		cfg  ManagerConfig
	}{
		{"no catalog", ManagerConfig{Bridge: fb, Store: st, ModelsDir: dir}},
		{"no bridge", ManagerConfig{Catalog: cat, Store: st, ModelsDir: dir}},
		{"no store", ManagerConfig{Catalog: cat, Bridge: fb, ModelsDir: dir}},
		{"no models dir", ManagerConfig{Catalog: cat, Bridge: fb, Store: st}},
	}
	for _, tc := range cases {
		if _, err := NewWithConfig(tc.cfg); err == nil {
			t.Fatalf("%s: expected construction error", tc.name)
		}
	}
}
