package http

import (
	"github.com/zgjsxx/st-http-proxy/http/header"
	"github.com/zgjsxx/st-http-proxy/http/proto"
	"github.com/zgjsxx/st-http-proxy/http/status"
)

// Response is a single parsed response message, the client-side counterpart of
// Request. The zero Code value means the status line wasn't parsed yet.
type Response struct {
	Proto  proto.Proto
	Code   status.Code
	Status status.Status
	// Headers holds the parsed header section.
	Headers *header.Header

	Framing       Framing
	ContentLength int64
	KeepAlive     bool
	Upgrade       bool
	HasTrailer    bool

	Body Body
}

func NewResponse(headers *header.Header, body Body) *Response {
	return &Response{
		Proto:   proto.HTTP11,
		Headers: headers,
		Body:    body,
	}
}

func (r *Response) Reset() {
	r.Proto = proto.HTTP11
	r.Code = 0
	r.Status = ""
	r.Headers.Clear()
	r.Framing = FramingNoBody
	r.ContentLength = 0
	r.KeepAlive = false
	r.Upgrade = false
	r.HasTrailer = false
}
