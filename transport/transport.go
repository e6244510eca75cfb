// Package transport abstracts the byte stream the protocol layer reads from and
// writes to. The socket itself, TLS, timeouts and cancellation all live behind
// the Client interface: the codec only ever sees "here are some bytes" and
// "no more bytes, treat as close".
package transport

import (
	"net"
	"time"

	"github.com/indigo-web/utils/unreader"
)

type Client interface {
	// Read returns the next chunk of the stream, of arbitrary size.
	Read() ([]byte, error)
	// Unread pushes bytes back, so the next Read returns them verbatim.
	Unread([]byte)
	Write([]byte) error
	// Writev writes the vectors in one syscall where the platform allows it.
	// Framing-wise it is identical to sequential Write calls.
	Writev(net.Buffers) error
	Remote() net.Addr
	Close() error
}

type client struct {
	unreader *unreader.Unreader
	buff     []byte
	conn     net.Conn
	timeout  time.Duration
}

func NewClient(conn net.Conn, timeout time.Duration, buff []byte) Client {
	return &client{
		unreader: new(unreader.Unreader),
		buff:     buff,
		conn:     conn,
		timeout:  timeout,
	}
}

func (c *client) Read() ([]byte, error) {
	return c.unreader.PendingOr(func() ([]byte, error) {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}

		n, err := c.conn.Read(c.buff)

		return c.buff[:n], err
	})
}

func (c *client) Unread(b []byte) {
	c.unreader.Unread(b)
}

func (c *client) Write(b []byte) error {
	_, err := c.conn.Write(b)

	return err
}

func (c *client) Writev(vectors net.Buffers) error {
	_, err := vectors.WriteTo(c.conn)

	return err
}

func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *client) Close() error {
	return c.conn.Close()
}
