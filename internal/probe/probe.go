// Package probe issues the single HEAD exchange the engine uses to learn a
// download's size and range support before any chunk plan is built.
package probe

import (
	"github.com/deivid22srk/Orion-Downloader/internal/httpcodec"
	"github.com/deivid22srk/Orion-Downloader/internal/netconn"
	"github.com/deivid22srk/Orion-Downloader/internal/orerrors"
)

// Metadata is everything the planner needs to know about a remote resource
// before it can split it into chunks.
type Metadata struct {
	ContentLength int64
	SupportsRange bool
}

// Fetch dials the resource, sends a single HEAD request, and parses the
// response headers. It never reads a body — HEAD responses have none — and
// it always closes its connection before returning, ranged or not.
func Fetch(rawURL string) (*Metadata, error) {
	u, err := httpcodec.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, err := netconn.Dial(u)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := httpcodec.FormatRequest("HEAD", u, nil)
	if err := conn.Send(req); err != nil {
		return nil, err
	}

	if err := conn.SetReadDeadline(); err != nil {
		return nil, orerrors.New(orerrors.ConnectFailed, "set-read-deadline", rawURL, err)
	}

	block, err := httpcodec.ReadHeaderBlock(conn.Reader)
	if err != nil {
		return nil, err
	}

	length, ok := httpcodec.ContentLength(block)
	if !ok {
		return nil, orerrors.New(orerrors.NoContentLength, "probe", rawURL, nil)
	}

	return &Metadata{
		ContentLength: length,
		SupportsRange: httpcodec.SupportsRanges(block),
	}, nil
}
