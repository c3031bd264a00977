// Package engine drives a single download end to end: probing the remote
// resource, planning chunks, supervising the per-chunk workers, merging
// their temp files, and reporting progress.
package engine

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/deivid22srk/Orion-Downloader/internal/chunk"
	"github.com/deivid22srk/Orion-Downloader/internal/common"
	"github.com/deivid22srk/Orion-Downloader/internal/httpcodec"
	"github.com/deivid22srk/Orion-Downloader/internal/logger"
	"github.com/deivid22srk/Orion-Downloader/internal/probe"
)

const mergeBufferSize = 64 * 1024

// Engine runs exactly one download at a time. Calling Start while a
// download is already in flight fails immediately rather than queuing —
// there is no multi-download scheduling in this engine.
type Engine struct {
	mu sync.RWMutex

	id         uuid.UUID
	url        string
	outputPath string
	chunks     []*chunk.Chunk
	totalSize  int64
	done       chan struct{}

	downloading  int32 // atomic bool
	paused       int32 // atomic bool
	cancelled    int32 // atomic bool
	status       int32 // atomic common.Status
	currentSpeed int64 // atomic, bytes/sec, last value written by any worker

	wg       sync.WaitGroup
	callback common.Callback
}

// New creates an idle Engine. It does nothing network-visible until Start
// is called.
func New() *Engine {
	return &Engine{}
}

// IsDownloading reports whether a download is currently in flight,
// including while paused.
func (e *Engine) IsDownloading() bool {
	return atomic.LoadInt32(&e.downloading) == 1
}

// IsPaused reports whether the in-flight download is currently paused.
func (e *Engine) IsPaused() bool {
	return atomic.LoadInt32(&e.paused) == 1
}

// Start probes rawURL, plans chunks across connections workers, and spawns
// them. It returns false synchronously if the URL is invalid, the probe
// fails, or a download is already running — per the contract, Start is the
// only operation whose failure is observable without watching progress.
func (e *Engine) Start(rawURL, outputPath string, connections int, callback common.Callback) bool {
	if !atomic.CompareAndSwapInt32(&e.downloading, 0, 1) {
		logger.Warnf("start rejected: download already in progress")
		return false
	}

	meta, err := probe.Fetch(rawURL)
	if err != nil {
		logger.Errorf("probe failed for %s: %v", rawURL, err)
		atomic.StoreInt32(&e.downloading, 0)
		atomic.StoreInt32(&e.status, int32(common.StatusFailed))

		return false
	}

	if meta.ContentLength <= 0 {
		logger.Errorf("probe returned non-positive content length for %s", rawURL)
		atomic.StoreInt32(&e.downloading, 0)
		atomic.StoreInt32(&e.status, int32(common.StatusFailed))

		return false
	}

	u, err := httpcodec.ParseURL(rawURL)
	if err != nil {
		logger.Errorf("unexpected parse failure after successful probe: %v", err)
		atomic.StoreInt32(&e.downloading, 0)
		atomic.StoreInt32(&e.status, int32(common.StatusFailed))

		return false
	}

	done := make(chan struct{})

	e.mu.Lock()
	e.id = uuid.New()
	e.url = rawURL
	e.outputPath = outputPath
	e.totalSize = meta.ContentLength
	e.chunks = chunk.Plan(meta.ContentLength, connections, meta.SupportsRange, outputPath)
	e.callback = callback
	e.done = done
	e.mu.Unlock()

	atomic.StoreInt32(&e.paused, 0)
	atomic.StoreInt32(&e.cancelled, 0)
	atomic.StoreInt64(&e.currentSpeed, 0)
	atomic.StoreInt32(&e.status, int32(common.StatusActive))

	logger.Infof("starting download %s: %d bytes across %d chunk(s)", e.id, meta.ContentLength, len(e.chunks))

	for _, c := range e.chunks {
		c := c

		e.wg.Add(1)

		go func() {
			defer e.wg.Done()
			e.runChunk(u, c)
		}()
	}

	go e.supervise(done)

	return true
}

func (e *Engine) runChunk(u *httpcodec.URL, c *chunk.Chunk) {
	lastReport := time.Time{}
	lastBytes := int64(0)

	onProgress := func(downloaded int64) {
		now := time.Now()
		if now.Sub(lastReport) < 100*time.Millisecond {
			return
		}

		elapsed := now.Sub(lastReport).Seconds()
		speed := int64(0)

		if elapsed > 0 {
			speed = int64(float64(downloaded-lastBytes) / elapsed)
		}

		lastReport = now
		lastBytes = downloaded

		e.reportProgress(speed)
	}

	if err := c.Run(u, e.IsPaused, e.isCancelled, onProgress); err != nil {
		logger.Errorf("chunk %d failed: %v", c.Index, err)
	}
}

func (e *Engine) isCancelled() bool {
	return atomic.LoadInt32(&e.cancelled) == 1
}

func (e *Engine) reportProgress(speed int64) {
	atomic.StoreInt64(&e.currentSpeed, speed)

	e.mu.RLock()
	cb := e.callback
	id := e.id
	total := e.totalSize
	chunks := e.chunks
	e.mu.RUnlock()

	if cb == nil {
		return
	}

	var downloaded int64

	active := 0

	for _, c := range chunks {
		downloaded += c.Downloaded()

		if !c.Completed() {
			active++
		}
	}

	cb(common.Progress{
		DownloadID:        id,
		Status:            common.Status(atomic.LoadInt32(&e.status)),
		DownloadedBytes:   downloaded,
		TotalBytes:        total,
		SpeedBps:          speed,
		ActiveConnections: active,
	})
}

// supervise waits for every chunk worker to finish, then merges their temp
// files unless the download was cancelled. It always clears the
// downloading flag on exit, so a failed or cancelled download leaves the
// engine ready for another Start.
func (e *Engine) supervise(done chan struct{}) {
	e.wg.Wait()

	defer close(done)
	defer atomic.StoreInt32(&e.downloading, 0)

	if e.isCancelled() {
		logger.Infof("download %s cancelled, leaving temp files on disk", e.id)
		atomic.StoreInt32(&e.status, int32(common.StatusCancelled))

		return
	}

	e.mu.RLock()
	chunks := e.chunks
	out := e.outputPath
	id := e.id
	e.mu.RUnlock()

	if err := mergeChunks(chunks, out); err != nil {
		logger.Errorf("download %s: merge failed: %v", id, err)
		atomic.StoreInt32(&e.status, int32(common.StatusFailed))

		return
	}

	atomic.StoreInt32(&e.status, int32(common.StatusCompleted))
	logger.Infof("download %s completed: %s", id, out)
}

func mergeChunks(chunks []*chunk.Chunk, outputPath string) error {
	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	buf := make([]byte, mergeBufferSize)

	for _, c := range chunks {
		if err := appendChunkFile(out, c.TempFilePath, buf); err != nil {
			return err
		}
	}

	return nil
}

func appendChunkFile(out *os.File, path string, buf []byte) error {
	in, err := os.Open(path)
	if err != nil {
		logger.Warnf("temp file %s missing during merge, skipping: %v", path, err)
		return nil
	}
	defer in.Close()

	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		return fmt.Errorf("copy %s into output: %w", path, err)
	}

	in.Close()

	return os.Remove(path)
}

// Pause is idempotent: pausing an already-paused or non-running download is
// a no-op.
func (e *Engine) Pause() {
	atomic.StoreInt32(&e.paused, 1)

	if e.IsDownloading() {
		atomic.StoreInt32(&e.status, int32(common.StatusPaused))
	}
}

// Resume is idempotent.
func (e *Engine) Resume() {
	atomic.StoreInt32(&e.paused, 0)

	if e.IsDownloading() {
		atomic.StoreInt32(&e.status, int32(common.StatusActive))
	}
}

// Cancel is idempotent. It signals every chunk worker to stop on its next
// read or pause-poll, then blocks until the supervisor has joined every
// worker — by the time Cancel returns, IsDownloading is false and no
// worker is alive. The merge step is skipped, and each chunk's .partN temp
// file is left on disk rather than removed.
func (e *Engine) Cancel() {
	atomic.StoreInt32(&e.cancelled, 1)
	atomic.StoreInt32(&e.paused, 0)

	e.mu.RLock()
	done := e.done
	e.mu.RUnlock()

	if done != nil {
		<-done
	}
}

// GetProgress returns the current cumulative progress without waiting for
// the next worker-driven callback.
func (e *Engine) GetProgress() common.Progress {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var downloaded int64

	active := 0

	for _, c := range e.chunks {
		downloaded += c.Downloaded()

		if !c.Completed() {
			active++
		}
	}

	return common.Progress{
		DownloadID:        e.id,
		Status:            common.Status(atomic.LoadInt32(&e.status)),
		DownloadedBytes:   downloaded,
		TotalBytes:        e.totalSize,
		SpeedBps:          atomic.LoadInt64(&e.currentSpeed),
		ActiveConnections: active,
	}
}
