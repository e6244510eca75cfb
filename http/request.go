package http

import (
	"io"

	"github.com/indigo-web/utils/uf"
	"github.com/zgjsxx/st-http-proxy/http/header"
	"github.com/zgjsxx/st-http-proxy/http/method"
	"github.com/zgjsxx/st-http-proxy/http/proto"
	"github.com/zgjsxx/st-http-proxy/kv"
)

// Request is a single parsed request message. It is produced once per
// request/response cycle and is exclusively owned by the connection handling
// loop which created it; no per-request object is ever shared across
// connections.
type Request struct {
	// Method is an enum representing the request method.
	Method method.Method
	// Path is the decoded request path, query excluded.
	Path string
	// Query is the decoded query map. On duplicate keys the last one wins.
	Query *kv.Storage
	// RawQuery is the query string exactly as it appeared on the wire.
	RawQuery string
	// Proto is the protocol version from the request line.
	Proto proto.Proto
	// Headers holds the parsed header section. Lookup is case-insensitive.
	Headers *header.Header

	// Framing is the body delimiting rule chosen at headers-complete.
	Framing Framing
	// ContentLength is the declared body length; meaningful only when Framing
	// is FramingContentLength.
	ContentLength int64
	// KeepAlive derives from the protocol version and the Connection header.
	KeepAlive bool
	// Upgrade is set when an Upgrade header was seen or the method is CONNECT.
	// A successful upgrade is terminal for HTTP framing on this connection.
	Upgrade bool
	// HasTrailer is set when the message announced trailer fields after a
	// chunked body.
	HasTrailer bool

	// Body streams the message payload according to Framing.
	Body Body
}

func NewRequest(headers *header.Header, query *kv.Storage, body Body) *Request {
	return &Request{
		Method:  method.Unknown,
		Proto:   proto.HTTP11,
		Query:   query,
		Headers: headers,
		Body:    body,
	}
}

// Host returns the Host header value, empty string when absent.
func (r *Request) Host() string {
	return r.Headers.Get("Host")
}

// QueryGet returns the decoded value of a query key, e.g. for "start=1&end=2"
// QueryGet("start") is "1".
func (r *Request) QueryGet(key string) string {
	return r.Query.Value(key)
}

// IsJSONP tells whether the request carries a "callback" query key.
func (r *Request) IsJSONP() bool {
	return r.Query.Has("callback")
}

// BodyString reads the whole body to a string. Meant for small bodies.
func (r *Request) BodyString() (string, error) {
	b, err := r.Body.Bytes()

	return uf.B2S(b), err
}

// Reset prepares the object for the next message on the same connection.
func (r *Request) Reset() {
	r.Method = method.Unknown
	r.Path = ""
	r.RawQuery = ""
	r.Proto = proto.HTTP11
	r.Query.Clear()
	r.Headers.Clear()
	r.Framing = FramingNoBody
	r.ContentLength = 0
	r.KeepAlive = false
	r.Upgrade = false
	r.HasTrailer = false
}

// Discard drains the remaining body bytes, so the connection is positioned at
// the next message boundary.
func (r *Request) Discard() error {
	err := r.Body.Discard()
	if err == io.EOF {
		err = nil
	}

	return err
}
