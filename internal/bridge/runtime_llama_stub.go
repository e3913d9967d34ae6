//go:build !llama

package bridge

// This file provides a no-CGO stub for the llama runtime. It is compiled
// when the 'llama' build tag is NOT set, keeping default builds and CI
// CGO-free. The real runtime lives in runtime_llama.go (tagged 'llama').

import (
	"context"
	"errors"
)

var llamaBuilt = false

var errLlamaNotBuilt = errors.New("llama support not built (missing 'llama' build tag)")

type llamaRuntime struct{}

// NewLlamaRuntime returns a stub that satisfies Runtime but refuses to run
// inference without the 'llama' build tag. This avoids any mocked behavior
// in production binaries built without CGO support.
func NewLlamaRuntime() Runtime { return &llamaRuntime{} }

func (r *llamaRuntime) Load(modelPath string, opts RuntimeOptions) error {
	return errLlamaNotBuilt
}

func (r *llamaRuntime) Unload() error { return nil }

func (r *llamaRuntime) Generate(ctx context.Context, messagesJSON, toolsJSON string, maxTokens int) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return "", errLlamaNotBuilt
}
