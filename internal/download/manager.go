// Package download handles concurrent, checksum-verified file downloads.
package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/glauncher/glauncher/internal/glerr"
)

// Item represents a single download item.
type Item struct {
	URL  string
	Path string // Local destination path
	SHA1 string // Expected SHA1 hash (optional)
	Size int64  // Expected size in bytes
}

// Progress reports aggregate progress across a batch fetch.
type Progress struct {
	TotalBytes      int64
	DownloadedBytes int64
	TotalItems      int
	CompletedItems  int
	CurrentItem     string
	Speed           float64 // bytes per second
}

// Manager fetches items over HTTP with automatic retry and hash verification.
// Concurrency is chosen by the caller per batch (the Library Resolver and
// Asset Resolver use different fan-out widths), not fixed at construction.
type Manager struct {
	httpClient *http.Client

	mu              sync.RWMutex
	progress        Progress
	downloadedBytes int64
}

// NewManager builds a Manager with a retrying HTTP client.
func NewManager() *Manager {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	retryClient.HTTPClient.Transport = &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
	retryClient.HTTPClient.Timeout = 5 * time.Minute

	return &Manager{httpClient: retryClient.StandardClient()}
}

// Result summarizes the outcome of a batch fetch.
type Result struct {
	Completed int
	Failed    int
	Errors    []error
}

// FetchAll downloads items bounded by concurrency, reporting progress on the
// optional channel. An item already present with a matching SHA1 is skipped.
func (m *Manager) FetchAll(ctx context.Context, items []Item, concurrency int, progressChan chan<- Progress) (*Result, error) {
	if len(items) == 0 {
		return &Result{}, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	var totalSize int64
	for _, item := range items {
		totalSize += item.Size
	}

	m.mu.Lock()
	m.progress = Progress{TotalBytes: totalSize, TotalItems: len(items)}
	m.downloadedBytes = 0
	m.mu.Unlock()

	var completed, failed int64
	var errMu sync.Mutex
	var errs []error

	stopProgress := make(chan struct{})
	progressDone := make(chan struct{})
	if progressChan != nil {
		go m.reportProgress(ctx, stopProgress, progressDone, progressChan, &completed)
	} else {
		close(progressDone)
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)

	for _, item := range items {
		item := item
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			m.mu.Lock()
			m.progress.CurrentItem = filepath.Base(item.Path)
			m.mu.Unlock()

			if err := m.Fetch(gctx, item); err != nil {
				atomic.AddInt64(&failed, 1)
				errMu.Lock()
				errs = append(errs, &glerr.NetworkError{Op: item.URL, Err: err})
				errMu.Unlock()
				return nil // one failed item does not abort the batch
			}
			atomic.AddInt64(&completed, 1)
			return nil
		})
	}

	_ = g.Wait()
	close(stopProgress)
	<-progressDone

	return &Result{Completed: int(completed), Failed: int(failed), Errors: errs}, nil
}

func (m *Manager) reportProgress(ctx context.Context, stop <-chan struct{}, done chan<- struct{}, out chan<- Progress, completed *int64) {
	defer close(done)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var lastBytes int64
	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			m.mu.RLock()
			p := m.progress
			m.mu.RUnlock()
			currentBytes := atomic.LoadInt64(&m.downloadedBytes)

			now := time.Now()
			if elapsed := now.Sub(lastTime).Seconds(); elapsed > 0 {
				p.Speed = float64(currentBytes-lastBytes) / elapsed
				lastBytes = currentBytes
				lastTime = now
			}
			p.DownloadedBytes = currentBytes
			p.CompletedItems = int(atomic.LoadInt64(completed))

			select {
			case out <- p:
			default:
			}
		}
	}
}

// Fetch downloads a single item, skipping the network round-trip if a file
// already on disk matches the expected SHA1.
func (m *Manager) Fetch(ctx context.Context, item Item) error {
	if item.SHA1 != "" {
		if hash, err := hashFile(item.Path); err == nil && hash == item.SHA1 {
			atomic.AddInt64(&m.downloadedBytes, item.Size)
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(item.Path), 0o755); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &glerr.HTTPStatusError{URL: item.URL, Code: resp.StatusCode}
	}

	tmpPath := item.Path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	hasher := sha1.New()
	writer := io.MultiWriter(f, hasher)

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := writer.Write(buf[:n]); writeErr != nil {
				f.Close()
				os.Remove(tmpPath)
				return writeErr
			}
			atomic.AddInt64(&m.downloadedBytes, int64(n))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			os.Remove(tmpPath)
			return readErr
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if item.SHA1 != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if actual != item.SHA1 {
			os.Remove(tmpPath)
			return &glerr.ChecksumMismatchError{Path: item.Path, Expected: item.SHA1, Actual: actual}
		}
	}

	if err := os.Rename(tmpPath, item.Path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// FormatSpeed formats a download rate for display.
func FormatSpeed(bytesPerSec float64) string {
	return humanize.Bytes(uint64(bytesPerSec)) + "/s"
}

// ObjectPath builds a content-addressed object store path from a SHA1 hash:
// objects/<first-2-hex>/<full-hash>.
func ObjectPath(root, sha1Hash string) string {
	if len(sha1Hash) < 2 {
		return filepath.Join(root, "objects", sha1Hash)
	}
	return filepath.Join(root, "objects", sha1Hash[:2], sha1Hash)
}
