package dummy

import (
	"io"
	"net"

	"github.com/indigo-web/utils/unreader"
)

// Client replays the chunks it was initialised with, one chunk per Read, and
// records everything written into it. Once the chunks run out, Read reports
// io.EOF, which to the protocol layer looks exactly like a closed peer.
type Client struct {
	unreader *unreader.Unreader
	data     [][]byte
	pointer  int
	written  []byte
	closed   bool
}

func NewClient(data ...[]byte) *Client {
	return &Client{
		unreader: new(unreader.Unreader),
		data:     data,
	}
}

func (c *Client) Read() ([]byte, error) {
	if c.closed {
		return nil, io.EOF
	}

	return c.unreader.PendingOr(func() ([]byte, error) {
		if c.pointer == len(c.data) {
			return nil, io.EOF
		}

		chunk := c.data[c.pointer]
		c.pointer++

		return chunk, nil
	})
}

func (c *Client) Unread(takeback []byte) {
	if len(takeback) > 0 {
		c.unreader.Unread(takeback)
	}
}

func (c *Client) Write(b []byte) error {
	c.written = append(c.written, b...)
	return nil
}

func (c *Client) Writev(vectors net.Buffers) error {
	for _, vector := range vectors {
		c.written = append(c.written, vector...)
	}

	return nil
}

// Written returns everything the protocol layer has sent so far.
func (c *Client) Written() []byte {
	return c.written
}

func (c *Client) Remote() net.Addr {
	return nil
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}
