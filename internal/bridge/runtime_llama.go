//go:build llama

package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// llamaRuntime hosts a single in-process llama.cpp model.
type llamaRuntime struct {
	mu    sync.Mutex
	model *llama.LLama
}

// NewLlamaRuntime returns the in-process llama.cpp runtime.
func NewLlamaRuntime() Runtime { return &llamaRuntime{} }

func (r *llamaRuntime) Load(modelPath string, opts RuntimeOptions) error {
	if strings.TrimSpace(modelPath) == "" {
		return errors.New("model path is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.model != nil {
		r.model.Free()
		r.model = nil
	}
	mo := []llama.ModelOption{}
	if opts.ContextSize > 0 {
		mo = append(mo, llama.SetContext(opts.ContextSize))
	}
	m, err := llama.New(modelPath, mo...)
	if err != nil {
		return err
	}
	r.model = m
	return nil
}

func (r *llamaRuntime) Unload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.model != nil {
		r.model.Free()
		r.model = nil
	}
	return nil
}

func (r *llamaRuntime) Generate(ctx context.Context, messagesJSON, toolsJSON string, maxTokens int) (string, error) {
	r.mu.Lock()
	m := r.model
	r.mu.Unlock()
	if m == nil {
		// The model slot is empty at the native level: the manager believed
		// a model was resident but it is gone. Surface the eviction code.
		return "", Evicted("no model resident in runtime")
	}

	prompt, err := flattenMessages(messagesJSON)
	if err != nil {
		return "", err
	}

	m.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	po := []llama.PredictOption{
		llama.SetTokens(maxi(1, maxTokens)),
	}
	text, err := m.Predict(prompt, po...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

// flattenMessages renders the chat transcript into a plain prompt. Tool
// payloads are ignored here; the raw llama runtime has no tool protocol.
func flattenMessages(messagesJSON string) (string, error) {
	var msgs []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(messagesJSON), &msgs); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("assistant: ")
	return b.String(), nil
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
