// Package netconn owns the raw TCP socket the engine speaks HTTP/1.1 over.
// Every Conn is used for exactly one request/response exchange and then
// closed — there is no pooling or keep-alive, mirroring the Connection:
// close header httpcodec always sends.
package netconn

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/deivid22srk/Orion-Downloader/internal/httpcodec"
	"github.com/deivid22srk/Orion-Downloader/internal/orerrors"
)

// Timeout bounds the dial, each Send call, and every individual Read on the
// socket, matching the 10 second send/receive timeout of the original
// engine.
const Timeout = 10 * time.Second

// Conn wraps a dialed TCP socket with a buffered reader, so callers can hand
// it directly to httpcodec.ReadHeaderBlock.
type Conn struct {
	raw    net.Conn
	Reader *bufio.Reader
}

// Dial resolves and connects to u.Host:u.Port. TCP_NODELAY is enabled so
// small request writes aren't held back by the Nagle timer.
func Dial(u *httpcodec.URL) (*Conn, error) {
	addr := fmt.Sprintf("%s:%d", u.Host, u.Port)

	raw, err := net.DialTimeout("tcp", addr, Timeout)
	if err != nil {
		return nil, orerrors.New(orerrors.ConnectFailed, "dial", addr, err)
	}

	if tcp, ok := raw.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	return &Conn{
		raw:    raw,
		Reader: bufio.NewReader(raw),
	}, nil
}

// Send writes req in full, retrying partial writes until everything has
// gone out or the deadline trips.
func (c *Conn) Send(req []byte) error {
	if err := c.raw.SetWriteDeadline(time.Now().Add(Timeout)); err != nil {
		return orerrors.New(orerrors.SendFailed, "set-deadline", "", err)
	}

	total := 0
	for total < len(req) {
		n, err := c.raw.Write(req[total:])
		if err != nil {
			return orerrors.New(orerrors.SendFailed, "write", "", err)
		}

		total += n
	}

	return nil
}

// SetReadDeadline extends the read deadline by Timeout from now. Read calls
// it before every read; callers that read the header block through Reader
// directly call it once beforehand.
func (c *Conn) SetReadDeadline() error {
	return c.raw.SetReadDeadline(time.Now().Add(Timeout))
}

// Read satisfies io.Reader by delegating to the buffered reader, so a Conn
// can be passed anywhere body bytes are consumed.
func (c *Conn) Read(p []byte) (int, error) {
	if err := c.SetReadDeadline(); err != nil {
		return 0, err
	}

	return c.Reader.Read(p)
}

// Close releases the underlying socket. Safe to call once per Conn.
func (c *Conn) Close() error {
	return c.raw.Close()
}
