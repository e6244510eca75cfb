package server

import (
	"fmt"

	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/header"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/http1"
	"github.com/zgjsxx/st-http-proxy/kv"
	"github.com/zgjsxx/st-http-proxy/settings"
	"github.com/zgjsxx/st-http-proxy/transport"
)

// Conn serves HTTP/1.x messages off a single connection, strictly one at a
// time. Pipelined requests are handled in arrival order: the bytes past the
// current message boundary are pushed back into the transport and picked up
// by the next iteration.
type Conn struct {
	client  transport.Client
	request *http.Request
	parser  *http1.Parser
	body    *http1.Body
	writer  *http1.Writer
	handler http.Handler
}

func NewConn(client transport.Client, handler http.Handler, s settings.Settings) *Conn {
	request := http.NewRequest(
		header.NewPrealloc(int(s.Headers.Number.Default)),
		kv.New(),
		nil,
	)
	parser, body := http1.New(request, client, s)
	request.Body = body

	return &Conn{
		client:  client,
		request: request,
		parser:  parser,
		body:    body,
		writer:  http1.NewWriter(client, request, s.HTTP),
		handler: handler,
	}
}

// Serve runs the request loop until the peer disconnects, a framing error
// desynchronizes the stream, or the connection is upgraded away from HTTP.
func (c *Conn) Serve() {
	for c.serveMessage() {
	}

	_ = c.client.Close()
}

func (c *Conn) serveMessage() bool {
	data, err := c.client.Read()
	if err != nil {
		return false
	}

	state, extra, err := c.parser.Parse(data)
	switch state {
	case http.StateStartLine, http.StateHeadersInProgress:
		return true
	case http.StateHeadersComplete, http.StateMessageComplete:
		c.client.Unread(extra)
		c.body.InitRequest(c.request)

		return c.respond()
	case http.StateError:
		c.respondError(err)

		return false
	case http.StatePaused:
		// the parser was paused by a hijacking handler, the connection no
		// longer belongs to this loop
		return false
	default:
		panic(fmt.Sprintf("BUG: got unexpected parser state: %v", state))
	}
}

func (c *Conn) respond() bool {
	if err := c.handler.ServeHTTP(c.writer, c.request); err != nil {
		c.respondError(err)

		return false
	}

	if err := c.writer.FinalRequest(); err != nil {
		return false
	}

	// the rest of the body, if the handler didn't care, is thrown away to
	// reach the next message boundary
	if err := c.request.Discard(); err != nil {
		return false
	}

	keepAlive := c.request.KeepAlive && !c.request.Upgrade
	c.request.Reset()
	// the cycle is over, the buffers behind the request strings may be reused
	c.parser.Release()
	c.writer.Reset()

	return keepAlive
}

// respondError renders a best-effort error response. Nothing is rendered when
// the status line already went out or the error asks for a bare disconnect.
func (c *Conn) respondError(err error) {
	if c.writer.HeaderSent() {
		return
	}

	code := status.InternalServerError
	if httpErr, ok := err.(status.HTTPError); ok {
		if httpErr.Code == status.CloseConnection {
			return
		}

		code = httpErr.Code
	}

	_ = http.ErrorMessage(c.writer, code, err.Error())
	_ = c.writer.FinalRequest()
}
