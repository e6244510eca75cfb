package http1

import (
	"io"
	"math"

	"github.com/indigo-web/chunkedbody"
	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/settings"
	"github.com/zgjsxx/st-http-proxy/transport"
)

var _ http.Body = &Body{}

// Body streams a message payload off the transport according to the framing
// settled at headers-complete. A body is consumed at most once: as soon as
// io.EOF is seen, all the following reads yield io.EOF again.
type Body struct {
	plain        plainBodyReader
	chunked      chunkedBodyReader
	untilClose   untilCloseReader
	parser       *Parser
	framing      http.Framing
	fullBodyBuff []byte
	eof          bool
}

// NewBody binds the body to the connection. The parser may be nil; when it
// isn't, draining the body advances the parser to the message-complete state.
func NewBody(
	client transport.Client, parser *Parser, chunkedParser *chunkedbody.Parser, s settings.Body,
) *Body {
	return &Body{
		parser:     parser,
		plain:      newPlainBodyReader(client, uint(s.Length.Maximal)),
		chunked:    newChunkedBodyReader(client, uint(s.Length.Maximal), chunkedParser),
		untilClose: newUntilCloseReader(client, uint(s.Length.Maximal)),
	}
}

// Init prepares the body for the message which has just passed headers-complete.
// The previous message's collected payload, if any, is dropped here.
func (b *Body) Init(framing http.Framing, contentLength int64, hasTrailer bool) {
	b.framing = framing
	b.eof = false
	b.fullBodyBuff = b.fullBodyBuff[:0]

	switch framing {
	case http.FramingNoBody:
		b.eof = true
	case http.FramingContentLength:
		b.plain.init(contentLength)
		b.eof = contentLength == 0
	case http.FramingChunked:
		b.chunked.init(hasTrailer)
	case http.FramingUntilClose:
		b.untilClose.init()
	}
}

// InitRequest is the request-side shorthand for Init.
func (b *Body) InitRequest(request *http.Request) {
	b.Init(request.Framing, request.ContentLength, request.HasTrailer)
}

// InitResponse is the response-side shorthand for Init.
func (b *Body) InitResponse(response *http.Response) {
	b.Init(response.Framing, response.ContentLength, response.HasTrailer)
}

func (b *Body) Retrieve() ([]byte, error) {
	if b.eof {
		return nil, io.EOF
	}

	if b.parser != nil {
		b.parser.bodyInProgress()
	}

	var (
		piece []byte
		err   error
	)

	switch b.framing {
	case http.FramingChunked:
		piece, err = b.chunked.read()
	case http.FramingUntilClose:
		piece, err = b.untilClose.read()
	default:
		piece, err = b.plain.read()
	}

	b.checkEOF(err)

	return piece, err
}

func (b *Body) Bytes() ([]byte, error) {
	if b.eof {
		return b.fullBodyBuff, nil
	}

	if b.framing == http.FramingContentLength && cap(b.fullBodyBuff) < int(b.plain.bytesLeft) {
		b.fullBodyBuff = make([]byte, 0, b.plain.bytesLeft)
	}

	b.fullBodyBuff = b.fullBodyBuff[:0]

	for {
		data, err := b.Retrieve()
		b.fullBodyBuff = append(b.fullBodyBuff, data...)
		switch err {
		case nil:
		case io.EOF:
			return b.fullBodyBuff, nil
		default:
			return nil, err
		}
	}
}

func (b *Body) Discard() (err error) {
	for !b.eof {
		_, err = b.Retrieve()
		if err != nil {
			break
		}
	}

	if err == io.EOF {
		err = nil
	}

	return err
}

func (b *Body) checkEOF(err error) {
	if err == io.EOF {
		b.eof = true
		if b.parser != nil {
			b.parser.bodyDone()
		}
	}
}

type plainBodyReader struct {
	client     transport.Client
	maxBodyLen uint
	bytesLeft  int64
}

func newPlainBodyReader(client transport.Client, maxBodyLen uint) plainBodyReader {
	return plainBodyReader{
		client:     client,
		maxBodyLen: maxBodyLen,
	}
}

func (p *plainBodyReader) init(contentLength int64) {
	p.bytesLeft = contentLength
}

func (p *plainBodyReader) read() (body []byte, err error) {
	if p.bytesLeft == 0 {
		return nil, io.EOF
	}

	data, err := p.client.Read()
	if err != nil {
		// a disconnect before the declared length is delivered must never
		// look like a completed body
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return nil, err
	}

	if uint64(p.bytesLeft) > uint64(p.maxBodyLen) {
		return nil, status.ErrBodyTooLarge
	}

	if dataLen := int64(len(data)); dataLen >= p.bytesLeft {
		body, data = data[:p.bytesLeft], data[p.bytesLeft:]
		p.client.Unread(data)
		p.bytesLeft = 0
		err = io.EOF
	} else {
		p.bytesLeft -= dataLen
		body = data
	}

	return body, err
}

type chunkedBodyReader struct {
	client     transport.Client
	maxBodyLen uint
	received   uint
	hasTrailer bool
	parser     *chunkedbody.Parser
}

func newChunkedBodyReader(client transport.Client, maxBodyLen uint, parser *chunkedbody.Parser) chunkedBodyReader {
	return chunkedBodyReader{
		client:     client,
		maxBodyLen: maxBodyLen,
		parser:     parser,
	}
}

func (c *chunkedBodyReader) init(hasTrailer bool) {
	c.hasTrailer = hasTrailer
	c.received = 0
}

func (c *chunkedBodyReader) read() (body []byte, err error) {
	data, err := c.client.Read()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return nil, err
	}

	chunk, extra, err := c.parser.Parse(data, c.hasTrailer)
	switch err {
	case nil, io.EOF:
	default:
		return nil, status.ErrInvalidChunkSize
	}

	received, overflows := adduint(c.received, uint(len(chunk)))
	if overflows || received > c.maxBodyLen {
		return nil, status.ErrBodyTooLarge
	}

	c.received = received
	c.client.Unread(extra)

	return chunk, err
}

// untilCloseReader treats everything until the transport closes as the body.
// Responses without explicit framing only.
type untilCloseReader struct {
	client     transport.Client
	maxBodyLen uint
	received   uint
}

func newUntilCloseReader(client transport.Client, maxBodyLen uint) untilCloseReader {
	return untilCloseReader{
		client:     client,
		maxBodyLen: maxBodyLen,
	}
}

func (u *untilCloseReader) init() {
	u.received = 0
}

func (u *untilCloseReader) read() (body []byte, err error) {
	data, err := u.client.Read()
	if err != nil {
		return nil, err
	}

	received, overflows := adduint(u.received, uint(len(data)))
	if overflows || received > u.maxBodyLen {
		return nil, status.ErrBodyTooLarge
	}

	u.received = received

	return data, nil
}

func adduint(x, y uint) (uint, bool) {
	return x + y, math.MaxUint-x < y
}
