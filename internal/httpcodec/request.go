package httpcodec

import (
	"fmt"
	"strings"
)

// UserAgent is sent on every request. It matches the original engine's
// identifier byte-for-byte, since interoperating test servers may assert on
// it.
const UserAgent = "Orion-Downloader/1.0"

// RangeSpec describes an inclusive byte range for a ranged GET.
type RangeSpec struct {
	Start int64
	End   int64
}

// FormatRequest renders a full HTTP/1.1 request line + headers for method
// against the given URL. rng is only honored for GET; it is ignored for
// HEAD. Connection: close is always sent — the transport never reuses a
// socket across requests.
func FormatRequest(method string, u *URL, rng *RangeSpec) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, u.Path)
	fmt.Fprintf(&b, "Host: %s\r\n", u.Host)
	fmt.Fprintf(&b, "User-Agent: %s\r\n", UserAgent)

	if method == "GET" && rng != nil {
		fmt.Fprintf(&b, "Range: bytes=%d-%d\r\n", rng.Start, rng.End)
	}

	b.WriteString("Connection: close\r\n")
	b.WriteString("\r\n")

	return []byte(b.String())
}
