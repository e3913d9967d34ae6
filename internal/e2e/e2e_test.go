package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"modelmgrd/pkg/types"
)

func getStatus(t *testing.T, baseURL string) types.StatusResponse {
	t.Helper()
	resp, err := http.Get(baseURL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()
	var out types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return out
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func waitForStatus(t *testing.T, baseURL, modelID string, want types.DownloadStatus) types.ModelDownloadState {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var last types.ModelDownloadState
	for time.Now().Before(deadline) {
		last = getStatus(t, baseURL).Models[modelID]
		if last.Status == want {
			return last
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("model %s never reached %q, last state %+v", modelID, want, last)
	return last
}

func TestE2EDownloadLoadGenerate(t *testing.T) {
	payload := make([]byte, 4096)
	artifacts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/org/tiny/model.bin" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	defer artifacts.Close()

	s := newStack(t, artifacts.URL)

	resp := postJSON(t, s.srv.URL+"/models/org%2Ftiny/download", "")
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("download: status %d", resp.StatusCode)
	}

	st := waitForStatus(t, s.srv.URL, "org/tiny", types.DownloadDone)
	if st.DiskUsageBytes != int64(len(payload)) {
		t.Fatalf("disk usage = %d, want %d", st.DiskUsageBytes, len(payload))
	}
	if st.Progress != 1.0 {
		t.Fatalf("progress = %v, want 1.0", st.Progress)
	}

	resp = postJSON(t, s.srv.URL+"/load", `{"model":"org/tiny"}`)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load: status %d", resp.StatusCode)
	}
	if load := getStatus(t, s.srv.URL).Load; load.Status != types.LoadLoaded || load.ModelID != "org/tiny" {
		t.Fatalf("load snapshot = %+v", load)
	}

	resp = postJSON(t, s.srv.URL+"/generate", `{"messages":[{"role":"user","content":"hi"}]}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("generate: status %d body %s", resp.StatusCode, body)
	}
	var gen types.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		t.Fatalf("decode generate: %v", err)
	}
	if gen.Response != "generated text" {
		t.Fatalf("response = %q", gen.Response)
	}

	resp = postJSON(t, s.srv.URL+"/unload", "")
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unload: status %d", resp.StatusCode)
	}
	if load := getStatus(t, s.srv.URL).Load; load.Status != types.LoadUnloaded {
		t.Fatalf("slot not vacated: %+v", load)
	}
}

func TestE2EDownloadFailureReachesStatus(t *testing.T) {
	artifacts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such artifact", http.StatusInternalServerError)
	}))
	defer artifacts.Close()

	s := newStack(t, artifacts.URL)

	resp := postJSON(t, s.srv.URL+"/models/org%2Ftiny/download", "")
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("download: status %d", resp.StatusCode)
	}

	st := waitForStatus(t, s.srv.URL, "org/tiny", types.DownloadError)
	if st.ErrorMessage == "" {
		t.Fatalf("error state without message")
	}
}

func TestE2EGenerateWithoutModelConflicts(t *testing.T) {
	artifacts := httptest.NewServer(http.NotFoundHandler())
	defer artifacts.Close()

	s := newStack(t, artifacts.URL)

	resp := postJSON(t, s.srv.URL+"/generate", `{"messages":[{"role":"user","content":"hi"}]}`)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("generate on empty slot: status %d, want 409", resp.StatusCode)
	}
}
