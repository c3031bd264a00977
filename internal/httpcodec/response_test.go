package httpcodec

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/deivid22srk/Orion-Downloader/internal/orerrors"
	"github.com/stretchr/testify/require"
)

func TestReadHeaderBlock_StopsAtDelimiter(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nBODYBODYBO"
	r := bufio.NewReader(strings.NewReader(raw))

	block, err := ReadHeaderBlock(r)
	require.NoError(t, err)
	require.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\n", string(block))

	rest, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('B'), rest)
}

func TestReadHeaderBlock_CapExceeded(t *testing.T) {
	raw := strings.Repeat("x", MaxHeaderBlock+1)
	r := bufio.NewReader(strings.NewReader(raw))

	_, err := ReadHeaderBlock(r)
	require.Error(t, err)
	require.True(t, errors.Is(err, orerrors.BadResponse))
}

func TestContentLength_ParsesCaseInsensitively(t *testing.T) {
	block := []byte("HTTP/1.1 200 OK\r\nCONTENT-LENGTH:   12345\r\n\r\n")

	v, ok := ContentLength(block)
	require.True(t, ok)
	require.Equal(t, int64(12345), v)
}

func TestContentLength_Absent(t *testing.T) {
	block := []byte("HTTP/1.1 200 OK\r\n\r\n")

	_, ok := ContentLength(block)
	require.False(t, ok)
}

func TestSupportsRanges(t *testing.T) {
	require.True(t, SupportsRanges([]byte("HTTP/1.1 200 OK\r\nAccept-Ranges: bytes\r\n\r\n")))
	require.False(t, SupportsRanges([]byte("HTTP/1.1 200 OK\r\nAccept-Ranges: none\r\n\r\n")))
	require.False(t, SupportsRanges([]byte("HTTP/1.1 200 OK\r\n\r\n")))
}
