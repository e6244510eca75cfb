package http1

import (
	"bytes"
	"fmt"

	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/proto"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/settings"
)

type respState uint8

const (
	rProto respState = iota + 1
	rCode
	rStatus
	rHeaderKey
	rHeaderValue
	rHeaderValueFold
	rHeaderValueCRLFCR
)

// ResponseParser is the client-side counterpart of Parser. Header values are
// committed to the header map as-is, the framing fields are derived from the
// map once the section completes.
type ResponseParser struct {
	response        *http.Response
	respLineBuff    *buffer.Buffer
	headerKeyBuff   *buffer.Buffer
	headerValueBuff *buffer.Buffer
	headerKey       string
	settings        settings.Settings
	headersNumber   int
	sectionSize     int
	head            bool
	state           respState
	external        http.ParseState
	err             error
	paused          bool
}

func NewResponseParser(
	response *http.Response, keyBuff, valBuff, respLineBuff *buffer.Buffer, s settings.Settings,
) *ResponseParser {
	return &ResponseParser{
		state:           rProto,
		external:        http.StateInit,
		response:        response,
		settings:        s,
		respLineBuff:    respLineBuff,
		headerKeyBuff:   keyBuff,
		headerValueBuff: valBuff,
	}
}

// ExpectHead tells the parser that the response answers a HEAD request, so a
// Content-Length promises no actual payload.
func (p *ResponseParser) ExpectHead(head bool) {
	p.head = head
}

func (p *ResponseParser) State() http.ParseState {
	return p.external
}

// Pause makes every following Parse call fail with status.ErrPaused without
// consuming a byte, until Resume is called.
func (p *ResponseParser) Pause() {
	p.paused = true
}

func (p *ResponseParser) Resume() {
	p.paused = false
}

func (p *ResponseParser) Reset() {
	p.reset()
	p.Release()
	p.external = http.StateInit
	p.err = nil
	p.paused = false
}

// Release returns the buffer memory backing the parsed strings. Call it only
// once the response cycle fully ended: the status text and every header string
// become invalid afterwards.
func (p *ResponseParser) Release() {
	p.respLineBuff.Clear()
	p.headerKeyBuff.Clear()
	p.headerValueBuff.Clear()
}

func (p *ResponseParser) Parse(data []byte) (state http.ParseState, extra []byte, err error) {
	if p.err != nil {
		return http.StateError, nil, p.err
	}

	if p.paused {
		return http.StatePaused, data, status.ErrPaused
	}

	total := len(data)
	response := p.response

	switch p.state {
	case rProto:
		goto protocol
	case rCode:
		goto code
	case rStatus:
		goto statusText
	case rHeaderKey:
		goto headerKey
	case rHeaderValue:
		goto headerValue
	case rHeaderValueFold:
		goto headerValueFold
	case rHeaderValueCRLFCR:
		goto headerValueCRLFCR
	default:
		panic(fmt.Sprintf("BUG: unexpected response parser state: %v", p.state))
	}

protocol:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if !p.respLineBuff.Append(data) {
				return p.abort(status.ErrTooLongResponseLine)
			}

			return p.pending(total)
		}

		if !p.respLineBuff.Append(data[:sp]) {
			return p.abort(status.ErrTooLongResponseLine)
		}

		response.Proto = proto.FromBytes(p.respLineBuff.Finish())
		if response.Proto == proto.Unknown {
			return p.abort(status.ErrUnsupportedProtocol)
		}

		data = data[sp+1:]
		p.state = rCode
		goto code
	}

code:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; {
		case char == ' ':
			data = data[i+1:]
			p.state = rStatus
			goto statusText
		case char == '\r' || char == '\n':
			// status text is optional
			data = data[i:]
			p.state = rStatus
			goto statusText
		case char < '0' || char > '9':
			return p.abort(status.ErrInvalidStatusCode)
		}

		response.Code = status.Code(int(response.Code)*10 + int(data[i]-'0'))
		if response.Code > 999 {
			return p.abort(status.ErrInvalidStatusCode)
		}
	}

	return p.pending(total)

statusText:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.respLineBuff.Append(data) {
				return p.abort(status.ErrTooLongResponseLine)
			}

			return p.pending(total)
		}

		if !p.respLineBuff.Append(data[:lf]) {
			return p.abort(status.ErrTooLongResponseLine)
		}

		text := p.respLineBuff.Finish()
		if len(text) > 0 && text[len(text)-1] == '\r' {
			text = text[:len(text)-1]
		}

		response.Status = status.Status(uf.B2S(text))
		data = data[lf+1:]
		p.state = rHeaderKey
		goto headerKey
	}

headerKey:
	{
		if len(data) == 0 {
			return p.pending(total)
		}

		switch data[0] {
		case '\n':
			return p.completeHeaders(data[1:], total)
		case '\r':
			data = data[1:]
			p.state = rHeaderValueCRLFCR
			goto headerValueCRLFCR
		case ' ', '\t':
			// obs-fold, a header value continued on the next line
			if !p.settings.HTTP.Lenient || p.headersNumber == 0 {
				return p.abort(status.ErrBadRequest)
			}

			p.state = rHeaderValueFold
			goto headerValueFold
		}

		colon := bytes.IndexByte(data, ':')
		if colon == -1 {
			if !p.headerKeyBuff.Append(data) {
				return p.abort(status.ErrHeaderOverflow)
			}

			return p.pending(total)
		}

		if !p.headerKeyBuff.Append(data[:colon]) {
			return p.abort(status.ErrHeaderOverflow)
		}

		p.headerKey = uf.B2S(p.headerKeyBuff.Finish())
		if len(p.headerKey) == 0 {
			return p.abort(status.ErrInvalidHeaderToken)
		}

		data = data[colon+1:]

		if p.headersNumber++; p.headersNumber > int(p.settings.Headers.Number.Maximal) {
			return p.abort(status.ErrTooManyHeaders)
		}

		p.state = rHeaderValue
		goto headerValue
	}

headerValue:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.headerValueBuff.Append(data) {
				return p.abort(status.ErrHeaderOverflow)
			}

			return p.pending(total)
		}

		if !p.headerValueBuff.Append(data[:lf]) {
			return p.abort(status.ErrHeaderOverflow)
		}

		data = data[lf+1:]
		value := uf.B2S(trimPrefixSpaces(p.headerValueBuff.Finish()))
		if len(value) > 0 && value[len(value)-1] == '\r' {
			value = value[:len(value)-1]
		}

		if strcomp.EqualFold(p.headerKey, "set-cookie") {
			response.Headers.AddCookie(value)
		} else {
			response.Headers.Set(p.headerKey, value)
		}

		p.state = rHeaderKey
		goto headerKey
	}

headerValueFold:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.headerValueBuff.Append(data) {
				return p.abort(status.ErrHeaderOverflow)
			}

			return p.pending(total)
		}

		if !p.headerValueBuff.Append(data[:lf]) {
			return p.abort(status.ErrHeaderOverflow)
		}

		data = data[lf+1:]
		cont := uf.B2S(trimPrefixSpaces(p.headerValueBuff.Finish()))
		if len(cont) > 0 && cont[len(cont)-1] == '\r' {
			cont = cont[:len(cont)-1]
		}

		response.Headers.Set(p.headerKey, response.Headers.Get(p.headerKey)+" "+cont)

		p.state = rHeaderKey
		goto headerKey
	}

headerValueCRLFCR:
	if len(data) == 0 {
		return p.pending(total)
	}

	if data[0] == '\n' {
		return p.completeHeaders(data[1:], total)
	}

	return p.abort(status.ErrBadRequest)
}

func (p *ResponseParser) completeHeaders(extra []byte, total int) (http.ParseState, []byte, error) {
	if !p.account(total - len(extra)) {
		return p.abort(status.ErrHeaderOverflow)
	}

	response := p.response
	headers := response.Headers
	contentLength := headers.ContentLength()

	switch {
	case !status.BodyAllowed(response.Code) || p.head:
		response.Framing = http.FramingNoBody
	case encodingHasChunked(headers.Get("Transfer-Encoding")):
		response.Framing = http.FramingChunked
		_, response.HasTrailer = headers.Lookup("Trailer")
	case contentLength >= 0:
		response.Framing = http.FramingContentLength
		response.ContentLength = contentLength
	default:
		// no framing at all: the body lasts until the peer closes
		response.Framing = http.FramingUntilClose
	}

	connection := headers.Get("Connection")
	if response.Proto == proto.HTTP10 {
		response.KeepAlive = strcomp.EqualFold(connection, "keep-alive")
	} else {
		response.KeepAlive = !strcomp.EqualFold(connection, "close")
	}

	if response.Framing == http.FramingUntilClose {
		response.KeepAlive = false
	}

	response.Upgrade = response.Code == status.SwitchingProtocols

	p.reset()

	if response.Framing == http.FramingNoBody ||
		(response.Framing == http.FramingContentLength && response.ContentLength == 0) {
		p.external = http.StateMessageComplete
	} else {
		p.external = http.StateHeadersComplete
	}

	return p.external, extra, nil
}

func (p *ResponseParser) pending(consumed int) (http.ParseState, []byte, error) {
	if !p.account(consumed) {
		return p.abort(status.ErrHeaderOverflow)
	}

	if p.state <= rStatus {
		p.external = http.StateStartLine
	} else {
		p.external = http.StateHeadersInProgress
	}

	return p.external, nil, nil
}

func (p *ResponseParser) abort(err error) (http.ParseState, []byte, error) {
	p.err = err
	p.external = http.StateError

	return http.StateError, nil, err
}

func (p *ResponseParser) account(n int) bool {
	p.sectionSize += n

	return p.sectionSize <= int(p.settings.Headers.SectionSize.Maximal)
}

// reset prepares for the next message without releasing the buffers: the
// strings of the just-parsed message stay valid until Release.
func (p *ResponseParser) reset() {
	p.headersNumber = 0
	p.sectionSize = 0
	p.state = rProto
}
