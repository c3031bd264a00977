// Package chunk plans how a download is split across connections and runs
// the per-connection worker that pulls one byte range into its own temp
// file.
package chunk

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/deivid22srk/Orion-Downloader/internal/httpcodec"
	"github.com/deivid22srk/Orion-Downloader/internal/netconn"
	"github.com/deivid22srk/Orion-Downloader/internal/orerrors"
)

// MaxConnections is the upper bound on chunk count, matching the original
// engine's clamp.
const MaxConnections = 16

const readBufferSize = 64 * 1024

// Chunk is one contiguous byte range of the target file, downloaded by a
// single worker into its own temp file.
type Chunk struct {
	Index        int
	StartByte    int64
	EndByte      int64
	TempFilePath string

	downloaded int64 // atomic
	completed  int32 // atomic bool
}

// Size returns the number of bytes this chunk covers.
func (c *Chunk) Size() int64 {
	return c.EndByte - c.StartByte + 1
}

// Downloaded returns the number of bytes written so far.
func (c *Chunk) Downloaded() int64 {
	return atomic.LoadInt64(&c.downloaded)
}

// Completed reports whether the worker's receive loop exited normally
// (server closed the body or the chunk's range was fully read), as opposed
// to being cut short by cancellation or an error.
func (c *Chunk) Completed() bool {
	return atomic.LoadInt32(&c.completed) == 1
}

// Plan partitions a resource of the given total size into at most
// connections chunks. If the server doesn't support ranges, or totalSize is
// at most 1, it returns a single chunk covering the whole file. connections is clamped to [1, MaxConnections] and then to
// [1, totalSize] so no chunk is ever empty.
func Plan(totalSize int64, connections int, supportsRange bool, outputPath string) []*Chunk {
	if connections < 1 {
		connections = 1
	}

	if connections > MaxConnections {
		connections = MaxConnections
	}

	if !supportsRange || totalSize <= 0 {
		connections = 1
	}

	if int64(connections) > totalSize {
		connections = int(totalSize)
		if connections < 1 {
			connections = 1
		}
	}

	chunkSize := totalSize / int64(connections)
	chunks := make([]*Chunk, connections)

	var start int64

	for i := 0; i < connections; i++ {
		end := start + chunkSize - 1
		if i == connections-1 {
			end = totalSize - 1
		}

		chunks[i] = &Chunk{
			Index:        i,
			StartByte:    start,
			EndByte:      end,
			TempFilePath: fmt.Sprintf("%s.part%d", outputPath, i),
		}

		start = end + 1
	}

	return chunks
}

// Run downloads c's byte range over a single connection into its temp
// file. It checks isCancelled before every read and, when isPaused is set,
// sleeps in 100ms increments rather than reading. onProgress is called
// after every read with the cumulative bytes downloaded for this chunk; the
// caller is responsible for throttling how often it acts on that.
//
// Run never retries — a failed read or write returns immediately, leaving
// the chunk short of EndByte and not Completed.
func (c *Chunk) Run(u *httpcodec.URL, isPaused, isCancelled func() bool, onProgress func(int64)) error {
	conn, err := netconn.Dial(u)
	if err != nil {
		return err
	}
	defer conn.Close()

	rng := &httpcodec.RangeSpec{Start: c.StartByte + c.Downloaded(), End: c.EndByte}

	req := httpcodec.FormatRequest("GET", u, rng)
	if err := conn.Send(req); err != nil {
		return err
	}

	if err := conn.SetReadDeadline(); err != nil {
		return orerrors.New(orerrors.ConnectFailed, "set-read-deadline", "", err)
	}

	if _, err := httpcodec.ReadHeaderBlock(conn.Reader); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE
	if c.Downloaded() > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.TempFilePath, flags, 0o644)
	if err != nil {
		return orerrors.New(orerrors.OpenFileFailed, "open-temp", c.TempFilePath, err)
	}
	defer file.Close()

	buf := make([]byte, readBufferSize)

	for {
		if isCancelled() {
			return nil
		}

		if isPaused() {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return orerrors.New(orerrors.OpenFileFailed, "write-temp", c.TempFilePath, werr)
			}

			atomic.AddInt64(&c.downloaded, int64(n))
			onProgress(c.Downloaded())
		}

		if err != nil {
			if err == io.EOF {
				break
			}

			return orerrors.New(orerrors.BadResponse, "read-body", "", err)
		}

		if c.Downloaded() >= c.Size() {
			break
		}
	}

	atomic.StoreInt32(&c.completed, 1)

	return nil
}
