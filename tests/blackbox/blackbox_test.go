package blackbox

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) (int, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	cleanup := func() { _ = ln.Close() }
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port, cleanup
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	return filepath.Dir(filepath.Dir(bbDir))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	outDir := t.TempDir()
	binPath := filepath.Join(outDir, "modelmgrd")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/modelmgrd")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	content := `[[models]]
id = "org/tiny"
repo_id = "org/tiny"
estimated_size_bytes = 1024
runtime_lib_id = "llama"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func waitForHealthy(t *testing.T, baseURL string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("daemon never became healthy at %s", baseURL)
}

// TestDaemonServesModelsAndStatus boots the real binary and exercises the
// read-only surface end to end.
func TestDaemonServesModelsAndStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping blackbox test in -short mode")
	}
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()

	catalogPath := writeCatalog(t)
	modelsDir := t.TempDir()
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	baseURL := "http://" + addr

	cmd := exec.Command(bin, "serve",
		"--addr", addr,
		"--catalog", catalogPath,
		"--models-dir", modelsDir,
		"--state-backend", "file",
		"--log-level", "error",
	)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	defer func() {
		_ = cmd.Process.Signal(syscall.SIGTERM)
		done := make(chan struct{})
		go func() { _ = cmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			_ = cmd.Process.Kill()
		}
	}()

	waitForHealthy(t, baseURL)

	resp, err := http.Get(baseURL + "/models")
	if err != nil {
		t.Fatalf("GET /models: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/models status = %d", resp.StatusCode)
	}
	var models struct {
		Models []struct {
			ID    string `json:"id"`
			State struct {
				Status string `json:"status"`
			} `json:"state"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		t.Fatalf("decode /models: %v", err)
	}
	if len(models.Models) != 1 || models.Models[0].ID != "org/tiny" {
		t.Fatalf("unexpected models: %+v", models.Models)
	}
	if models.Models[0].State.Status != "not_downloaded" {
		t.Fatalf("fresh model state = %q", models.Models[0].State.Status)
	}

	resp2, err := http.Get(baseURL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("/status status = %d", resp2.StatusCode)
	}
	var status struct {
		Load struct {
			Status string `json:"status"`
		} `json:"load"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&status); err != nil {
		t.Fatalf("decode /status: %v", err)
	}
	if status.Load.Status != "unloaded" {
		t.Fatalf("fresh load state = %q", status.Load.Status)
	}
}
