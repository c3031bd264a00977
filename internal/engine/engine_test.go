package engine

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/deivid22srk/Orion-Downloader/internal/common"
	"github.com/stretchr/testify/require"
)

// serveFile starts a tiny raw-socket HTTP/1.1 server that understands HEAD
// and ranged GET against a single in-memory body, closing the connection
// after each response (no keep-alive), matching how the engine's own
// transport behaves.
func serveFile(t *testing.T, body []byte) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go handleOne(conn, body)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)

	return fmt.Sprintf("http://127.0.0.1:%d/file.bin", addr.Port)
}

func handleOne(conn net.Conn, body []byte) {
	defer conn.Close()

	r := bufio.NewReader(conn)

	requestLine, err := r.ReadString('\n')
	if err != nil {
		return
	}

	method := strings.Fields(requestLine)[0]

	var rangeHeader string

	for {
		line, err := r.ReadString('\n')
		if err != nil || line == "\r\n" {
			break
		}

		if strings.HasPrefix(strings.ToLower(line), "range:") {
			rangeHeader = strings.TrimSpace(line[len("range:"):])
		}
	}

	if method == "HEAD" {
		fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nAccept-Ranges: bytes\r\nContent-Length: %d\r\n\r\n", len(body))
		return
	}

	start, end := int64(0), int64(len(body)-1)

	if rangeHeader != "" {
		spec := strings.TrimPrefix(rangeHeader, "bytes=")

		parts := strings.SplitN(spec, "-", 2)
		start, _ = strconv.ParseInt(parts[0], 10, 64)
		end, _ = strconv.ParseInt(parts[1], 10, 64)
	}

	payload := body[start : end+1]
	fmt.Fprintf(conn, "HTTP/1.1 206 Partial Content\r\nContent-Length: %d\r\n\r\n", len(payload))
	conn.Write(payload)
}

func waitForCompletion(t *testing.T, e *Engine) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for e.IsDownloading() {
		if time.Now().After(deadline) {
			t.Fatalf("download did not complete in time")
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func TestEngine_StartDownloadsAndMerges(t *testing.T) {
	body := make([]byte, 10000)
	for i := range body {
		body[i] = byte(i % 251)
	}

	url := serveFile(t, body)
	outPath := t.TempDir() + "/out.bin"

	e := New()

	ok := e.Start(url, outPath, 4, func(common.Progress) {})
	require.True(t, ok)

	waitForCompletion(t, e)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, body, data)
	require.Equal(t, common.StatusCompleted, e.GetProgress().Status)
}

func TestEngine_StartRejectsHTTPS(t *testing.T) {
	e := New()

	ok := e.Start("https://example.com/file.bin", t.TempDir()+"/out.bin", 4, nil)
	require.False(t, ok)
	require.False(t, e.IsDownloading())
	require.Equal(t, common.StatusFailed, e.GetProgress().Status)
}

func TestEngine_StartRejectsWhileRunning(t *testing.T) {
	body := make([]byte, 50000)
	url := serveFile(t, body)

	e := New()

	ok := e.Start(url, t.TempDir()+"/out.bin", 2, nil)
	require.True(t, ok)

	second := e.Start(url, t.TempDir()+"/out2.bin", 2, nil)
	require.False(t, second)

	waitForCompletion(t, e)
}

func TestEngine_PauseResumeCancelAreIdempotent(t *testing.T) {
	e := New()

	e.Pause()
	e.Pause()
	require.True(t, e.IsPaused())

	e.Resume()
	e.Resume()
	require.False(t, e.IsPaused())

	e.Cancel()
	e.Cancel()
}

func TestEngine_StatusTracksPauseAndCancel(t *testing.T) {
	body := make([]byte, 200000)
	url := serveFile(t, body)

	e := New()

	ok := e.Start(url, t.TempDir()+"/out.bin", 4, nil)
	require.True(t, ok)
	require.Equal(t, common.StatusActive, e.GetProgress().Status)

	e.Pause()
	require.Equal(t, common.StatusPaused, e.GetProgress().Status)

	e.Resume()
	require.Equal(t, common.StatusActive, e.GetProgress().Status)

	e.Cancel()
	require.Equal(t, common.StatusCancelled, e.GetProgress().Status)

	waitForCompletion(t, e)
}

// serveFileDroppingRange behaves like serveFile except that any GET whose
// Range header starts with deadRangePrefix gets its connection closed
// without a response, simulating a worker whose server vanished mid-chunk.
func serveFileDroppingRange(t *testing.T, body []byte, deadRangePrefix string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go func(conn net.Conn) {
				defer conn.Close()

				r := bufio.NewReader(conn)

				requestLine, err := r.ReadString('\n')
				if err != nil {
					return
				}

				method := strings.Fields(requestLine)[0]

				var rangeHeader string

				for {
					line, err := r.ReadString('\n')
					if err != nil || line == "\r\n" {
						break
					}

					if strings.HasPrefix(strings.ToLower(line), "range:") {
						rangeHeader = strings.TrimSpace(line[len("range:"):])
					}
				}

				if method == "HEAD" {
					fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nAccept-Ranges: bytes\r\nContent-Length: %d\r\n\r\n", len(body))
					return
				}

				if strings.HasPrefix(rangeHeader, deadRangePrefix) {
					return
				}

				start, end := int64(0), int64(len(body)-1)

				if rangeHeader != "" {
					spec := strings.TrimPrefix(rangeHeader, "bytes=")

					parts := strings.SplitN(spec, "-", 2)
					start, _ = strconv.ParseInt(parts[0], 10, 64)
					end, _ = strconv.ParseInt(parts[1], 10, 64)
				}

				payload := body[start : end+1]
				fmt.Fprintf(conn, "HTTP/1.1 206 Partial Content\r\nContent-Length: %d\r\n\r\n", len(payload))
				conn.Write(payload)
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)

	return fmt.Sprintf("http://127.0.0.1:%d/file.bin", addr.Port)
}

// TestEngine_PartialChunkFailureStillMerges covers the supervisor's
// unconditional-merge contract: a chunk whose server vanishes mid-request
// must not stop the others from being merged into a truncated output file.
func TestEngine_PartialChunkFailureStillMerges(t *testing.T) {
	body := make([]byte, 4000)
	for i := range body {
		body[i] = byte(i % 251)
	}

	url := serveFileDroppingRange(t, body, "bytes=1000-")
	outPath := t.TempDir() + "/out.bin"

	e := New()

	ok := e.Start(url, outPath, 4, nil)
	require.True(t, ok)

	waitForCompletion(t, e)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Less(t, len(data), len(body))
	require.Equal(t, body[:1000], data[:1000])
}

func TestEngine_CancelStopsWorkersWithoutMerge(t *testing.T) {
	body := make([]byte, 200000)
	url := serveFile(t, body)

	outPath := t.TempDir() + "/out.bin"

	e := New()

	ok := e.Start(url, outPath, 4, nil)
	require.True(t, ok)

	e.Cancel()

	waitForCompletion(t, e)

	_, err := os.Stat(outPath)
	require.True(t, os.IsNotExist(err))

	for i := 0; i < 4; i++ {
		partPath := fmt.Sprintf("%s.part%d", outPath, i)
		_, err := os.Stat(partPath)
		require.NoError(t, err, "temp file %s must survive a cancel", partPath)
	}
}
