// Package http holds the message model of the protocol layer: the read-side
// request and response objects, the handler capability interface and the
// write-side response writer contract. The wire codec itself lives in http1.
package http

import (
	"net"

	"github.com/zgjsxx/st-http-proxy/http/header"
	"github.com/zgjsxx/st-http-proxy/http/status"
)

// ParseState is the coarse, externally visible state of a message parser. It is
// owned by exactly one parser instance, mutated only by the byte-consuming entry
// point and read by the caller to decide whether more bytes are needed.
type ParseState uint8

const (
	StateInit ParseState = iota
	StateStartLine
	StateHeadersInProgress
	StateHeadersComplete
	StateBody
	StateMessageComplete
	StateError
	StatePaused
)

func (s ParseState) String() string {
	lut := [...]string{
		StateInit:              "init",
		StateStartLine:         "start-line",
		StateHeadersInProgress: "headers-in-progress",
		StateHeadersComplete:   "headers-complete",
		StateBody:              "body",
		StateMessageComplete:   "message-complete",
		StateError:             "error",
		StatePaused:            "paused",
	}
	if int(s) >= len(lut) {
		return "unknown"
	}

	return lut[s]
}

// Framing is the rule by which the end of a message body is determined.
type Framing uint8

const (
	// FramingNoBody is used when the method or status code forbids a body.
	FramingNoBody Framing = iota
	// FramingContentLength delimits the body by the declared byte count.
	FramingContentLength
	// FramingChunked delimits the body by chunked transfer encoding.
	FramingChunked
	// FramingUntilClose treats all remaining bytes until transport close as
	// body. Responses only.
	FramingUntilClose
)

// Body provides streaming access to a message body. A body may be consumed at
// most once: once io.EOF was returned, every subsequent read yields io.EOF
// again, never re-delivery.
type Body interface {
	// Retrieve returns the next available piece of the body. The returned slice
	// is valid only until the next call. io.EOF signals the body end and may
	// accompany the last piece.
	Retrieve() ([]byte, error)
	// Bytes reads the whole remaining body into memory.
	Bytes() ([]byte, error)
	// Discard reads the body to the end, throwing the contents away.
	Discard() error
}

// ResponseWriter assembles and sends a response. The header block is held back
// until the first body write or finalization, leaving room for late framing
// decisions such as content type sniffing.
type ResponseWriter interface {
	// Header returns the header container that will be rendered into the header
	// block. Mutating it after the block went to the wire has no effect.
	Header() *header.Header
	// WriteHeader records the status code of the response. Only the first call
	// is honored, later ones are no-ops.
	WriteHeader(code status.Code)
	// Write sends body bytes, implicitly assuming status.OK when no code was
	// recorded yet.
	Write(p []byte) error
	// Writev is the vectorized Write: same framing, fewer copies.
	Writev(vectors net.Buffers) error
	// FinalRequest completes the response: under chunked framing it emits the
	// terminating zero-length chunk, under fixed-length framing with no body
	// written it makes sure a Content-Length: 0 went out. Mandatory.
	FinalRequest() error
}

// Handler is the single capability every request consumer exposes. The router,
// the CORS filter, redirect and not-found handlers and the application handlers
// all implement it; nothing upstream knows the concrete variant.
type Handler interface {
	ServeHTTP(w ResponseWriter, r *Request) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(w ResponseWriter, r *Request) error

func (f HandlerFunc) ServeHTTP(w ResponseWriter, r *Request) error {
	return f(w, r)
}

// Remote is a narrow view of the transport used by messages.
type Remote interface {
	Remote() net.Addr
}
