package netconn

import (
	"bufio"
	"net"
	"testing"

	"github.com/deivid22srk/Orion-Downloader/internal/httpcodec"
	"github.com/stretchr/testify/require"
)

func TestDialAndSend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 1)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		line, _ := bufio.NewReader(conn).ReadString('\n')
		received <- line
		_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	u := &httpcodec.URL{Host: "127.0.0.1", Port: addr.Port, Path: "/"}

	c, err := Dial(u)
	require.NoError(t, err)
	defer c.Close()

	req := httpcodec.FormatRequest("HEAD", u, nil)
	require.NoError(t, c.Send(req))

	line := <-received
	require.Equal(t, "HEAD / HTTP/1.1\r\n", line)

	block, err := httpcodec.ReadHeaderBlock(c.Reader)
	require.NoError(t, err)
	require.Contains(t, string(block), "200 OK")
}

func TestDial_ConnectFailure(t *testing.T) {
	u := &httpcodec.URL{Host: "127.0.0.1", Port: 1, Path: "/"}

	_, err := Dial(u)
	require.Error(t, err)
}
