package bridge

import (
	"context"
	"sync"
)

// Runtime abstracts the in-process inference engine. The llama.cpp
// implementation is compiled in with the 'llama' build tag; default builds
// get a stub that fails fast (no mocked inference in production binaries).
type Runtime interface {
	Load(modelPath string, opts RuntimeOptions) error
	Unload() error
	Generate(ctx context.Context, messagesJSON, toolsJSON string, maxTokens int) (string, error)
}

// RuntimeOptions carries per-load tuning for the runtime.
type RuntimeOptions struct {
	RuntimeLibID string
	ContextSize  int
	Threads      int
}

// Native combines the HTTP artifact downloader with an inference runtime
// behind the Bridge interface.
type Native struct {
	dl *Downloader
	rt Runtime

	mu      sync.Mutex
	ctxSize int
	threads int
}

// NewNative wires a downloader and a runtime into a Bridge.
func NewNative(dl *Downloader, rt Runtime, ctxSize, threads int) *Native {
	return &Native{dl: dl, rt: rt, ctxSize: ctxSize, threads: threads}
}

func (n *Native) StartDownload(ctx context.Context, modelID, repoID, destDir string) error {
	return n.dl.Start(ctx, modelID, repoID, destDir)
}

func (n *Native) CancelDownload(ctx context.Context, modelID string) error {
	return n.dl.Cancel(modelID)
}

func (n *Native) LoadModel(ctx context.Context, modelID, path, runtimeLibID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rt.Load(path, RuntimeOptions{
		RuntimeLibID: runtimeLibID,
		ContextSize:  n.ctxSize,
		Threads:      n.threads,
	})
}

func (n *Native) UnloadModel(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rt.Unload()
}

func (n *Native) Generate(ctx context.Context, messagesJSON, toolsJSON string, maxTokens int) (string, error) {
	return n.rt.Generate(ctx, messagesJSON, toolsJSON, maxTokens)
}

func (n *Native) Events() <-chan string { return n.dl.Events() }

func (n *Native) Close() error {
	n.dl.Close()
	return n.rt.Unload()
}
