package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ArtifactFileName is the file the downloader writes inside a model's
// install directory.
const ArtifactFileName = "model.bin"

const downloadBufSize = 128 * 1024

// Downloader fetches model artifacts over HTTP and reports lifecycle events
// on a single shared channel. Downloads for distinct models run
// independently; a second Start for the same model is rejected while the
// first is in flight.
type Downloader struct {
	baseURL string
	client  *http.Client
	events  chan string

	mu     sync.Mutex
	active map[string]context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewDownloader returns a Downloader rooted at baseURL. A nil client uses a
// default with no overall timeout (model artifacts are large).
func NewDownloader(baseURL string, client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 0}
	}
	return &Downloader{
		baseURL: baseURL,
		client:  client,
		events:  make(chan string, 256),
		active:  make(map[string]context.CancelFunc),
	}
}

// Events returns the shared event stream. The channel is closed by Close.
func (d *Downloader) Events() <-chan string { return d.events }

// Start launches an asynchronous download of modelID's artifact into
// destDir. The passed context only covers the synchronous setup; the
// transfer itself is detached and controlled via Cancel/Close.
func (d *Downloader) Start(ctx context.Context, modelID, repoID, destDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create install dir: %w", err)
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("downloader closed")
	}
	if _, busy := d.active[modelID]; busy {
		d.mu.Unlock()
		return fmt.Errorf("download already in progress for %s", modelID)
	}
	dlCtx, cancel := context.WithCancel(context.Background())
	d.active[modelID] = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			delete(d.active, modelID)
			d.mu.Unlock()
			cancel()
		}()
		d.run(dlCtx, modelID, repoID, destDir)
	}()
	return nil
}

// Cancel aborts the in-flight download for modelID, if any. The cancelled
// event is emitted by the transfer goroutine once it observes the abort.
func (d *Downloader) Cancel(modelID string) error {
	d.mu.Lock()
	cancel, ok := d.active[modelID]
	d.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

// Close cancels all transfers, waits for them to wind down, and closes the
// event stream. Safe to call once.
func (d *Downloader) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, cancel := range d.active {
		cancel()
	}
	d.mu.Unlock()
	d.wg.Wait()
	close(d.events)
}

func (d *Downloader) emit(e Event) {
	line, err := e.Encode()
	if err != nil {
		return
	}
	select {
	case d.events <- line:
	case <-time.After(5 * time.Second):
		// Subscriber wedged; dropping beats blocking every transfer.
	}
}

// artifactURL builds the remote location of a model artifact.
func (d *Downloader) artifactURL(repoID string) string {
	return d.baseURL + "/" + repoID + "/" + ArtifactFileName
}

// run performs the transfer and emits progress/complete/error/cancelled.
func (d *Downloader) run(ctx context.Context, modelID, repoID, destDir string) {
	d.emit(Event{ModelID: modelID, Event: EventProgress, Progress: 0})

	err := d.fetch(ctx, modelID, repoID, destDir)
	switch {
	case err == nil:
		d.emit(Event{ModelID: modelID, Event: EventComplete, Progress: 1})
	case ctx.Err() != nil:
		d.emit(Event{ModelID: modelID, Event: EventCancelled})
	default:
		d.emit(Event{ModelID: modelID, Event: EventError, ErrorMessage: err.Error()})
	}
}

func (d *Downloader) fetch(ctx context.Context, modelID, repoID, destDir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.artifactURL(repoID), nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", repoID, resp.Status)
	}

	partial := filepath.Join(destDir, ArtifactFileName+".partial")
	f, err := os.Create(partial)
	if err != nil {
		return err
	}

	total := resp.ContentLength
	var written int64
	lastPct := -1
	buf := make([]byte, downloadBufSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				os.Remove(partial)
				return werr
			}
			written += int64(n)
			if total > 0 {
				pct := int(float64(written) / float64(total) * 100)
				if pct > lastPct {
					lastPct = pct
					d.emit(Event{ModelID: modelID, Event: EventProgress, Progress: float64(written) / float64(total)})
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			os.Remove(partial)
			return rerr
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(partial)
		return err
	}
	return os.Rename(partial, filepath.Join(destDir, ArtifactFileName))
}
