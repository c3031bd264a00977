package httpcodec

import (
	"io"
	"strconv"
	"strings"

	"github.com/deivid22srk/Orion-Downloader/internal/orerrors"
)

// MaxHeaderBlock caps the header block at 16KiB; a response whose header
// block exceeds this without ever producing the \r\n\r\n terminator is a
// BadResponse.
const MaxHeaderBlock = 16384

const headerDelimiter = "\r\n\r\n"

// ReadHeaderBlock reads from r one byte at a time until it has seen the
// four-byte \r\n\r\n delimiter, returning everything read including the
// delimiter itself. Body reads begin immediately after this call returns —
// no byte past the delimiter is consumed. Status-line content is not
// validated; the core only needs to find where the headers end.
func ReadHeaderBlock(r io.ByteReader) ([]byte, error) {
	buf := make([]byte, 0, 512)

	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, orerrors.New(orerrors.BadResponse, "read-headers", "", err)
		}

		buf = append(buf, b)

		if len(buf) >= len(headerDelimiter) && strings.HasSuffix(string(buf), headerDelimiter) {
			return buf, nil
		}

		if len(buf) > MaxHeaderBlock {
			return nil, orerrors.New(orerrors.BadResponse, "read-headers", "", nil)
		}
	}
}

// ContentLength extracts the decimal value of the Content-Length header
// from a raw header block. ok is false if the header is absent or
// unparseable.
func ContentLength(headerBlock []byte) (length int64, ok bool) {
	lower := strings.ToLower(string(headerBlock))

	idx := strings.Index(lower, "content-length:")
	if idx == -1 {
		return 0, false
	}

	rest := lower[idx+len("content-length:"):]
	rest = strings.TrimLeft(rest, " \t")

	end := strings.Index(rest, "\r\n")
	if end == -1 {
		end = len(rest)
	}

	v, err := strconv.ParseInt(strings.TrimSpace(rest[:end]), 10, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// SupportsRanges reports whether the header block advertises
// "Accept-Ranges: bytes" (case-insensitive substring test, per spec).
func SupportsRanges(headerBlock []byte) bool {
	lower := strings.ToLower(string(headerBlock))
	return strings.Contains(lower, "accept-ranges: bytes")
}
