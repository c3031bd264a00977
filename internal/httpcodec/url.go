// Package httpcodec is the wire-level HTTP/1.1 codec: URL decomposition,
// request-line/header formatting, and header-block parsing. It never opens
// a socket — see internal/netconn for that — and it never touches the
// net/http package, since the engine speaks raw HTTP/1.1 over a socket it
// owns rather than through a general-purpose client (spec Non-goal: "serving
// as a general HTTP client").
package httpcodec

import (
	"strconv"
	"strings"

	"github.com/deivid22srk/Orion-Downloader/internal/orerrors"
)

const schemePrefix = "http://"

// URL is a decomposed http:// URL: host, port (defaulting to 80), and path
// (defaulting to "/"). HTTPS and anything else is rejected outright.
type URL struct {
	Host string
	Port int
	Path string
}

// ParseURL decomposes raw into its host/port/path parts. It fails with
// orerrors.UnsupportedScheme for "https://" and orerrors.MalformedURL for
// anything that isn't "http://" or that carries an unparseable port.
func ParseURL(raw string) (*URL, error) {
	if strings.HasPrefix(raw, "https://") {
		return nil, orerrors.New(orerrors.UnsupportedScheme, "parse", raw, nil)
	}

	if !strings.HasPrefix(raw, schemePrefix) {
		return nil, orerrors.New(orerrors.MalformedURL, "parse", raw, nil)
	}

	rest := raw[len(schemePrefix):]
	if rest == "" {
		return nil, orerrors.New(orerrors.MalformedURL, "parse", raw, nil)
	}

	authority := rest
	path := "/"

	if idx := strings.IndexByte(rest, '/'); idx != -1 {
		authority = rest[:idx]
		path = rest[idx:]
	}

	if authority == "" {
		return nil, orerrors.New(orerrors.MalformedURL, "parse", raw, nil)
	}

	host := authority
	port := 80

	if idx := strings.LastIndexByte(authority, ':'); idx != -1 {
		host = authority[:idx]
		portStr := authority[idx+1:]

		p, err := strconv.Atoi(portStr)
		if err != nil || p <= 0 || p > 65535 || host == "" {
			return nil, orerrors.New(orerrors.MalformedURL, "parse", raw, err)
		}

		port = p
	}

	return &URL{Host: host, Port: port, Path: path}, nil
}
