package http1

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/method"
	"github.com/zgjsxx/st-http-proxy/http/proto"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/http/uri"
	"github.com/zgjsxx/st-http-proxy/settings"
)

type parserState uint8

const (
	eMethod parserState = iota + 1
	ePath
	eHeaderKey
	eContentLength
	eContentLengthCR
	eHeaderValue
	eHeaderValueFold
	eHeaderValueCRLFCR
)

// Parser is a stream-based request parser. It fills the request object by
// pointer and never looks at the body: when the header section ends, Parse
// hands all the pending bytes back as an extra, and the body is consumed
// separately. The parser owns its coarse state, which stays observable
// through State even between Parse calls.
type Parser struct {
	request         *http.Request
	startLineBuff   *buffer.Buffer
	headerKeyBuff   *buffer.Buffer
	headerValueBuff *buffer.Buffer
	headerKey       string
	settings        settings.Settings
	headersNumber   int
	sectionSize     int
	contentLength   int64
	prevCLength     int64
	seenCLength     bool
	dupCLength      bool
	seenCLDigit     bool
	chunked         bool
	state           parserState
	external        http.ParseState
	err             error
	paused          bool
}

func NewParser(
	request *http.Request, keyBuff, valBuff, startLineBuff *buffer.Buffer, s settings.Settings,
) *Parser {
	return &Parser{
		state:           eMethod,
		external:        http.StateInit,
		request:         request,
		settings:        s,
		startLineBuff:   startLineBuff,
		headerKeyBuff:   keyBuff,
		headerValueBuff: valBuff,
	}
}

// State reports the coarse parsing state as of the last Parse call. Once the
// body reader drains the payload, the state advances to StateMessageComplete
// without any further Parse call.
func (p *Parser) State() http.ParseState {
	return p.external
}

// Pause makes every following Parse call fail with status.ErrPaused without
// consuming a byte, until Resume is called. Used to hold pipelined requests
// back while a connection is being taken over.
func (p *Parser) Pause() {
	p.paused = true
}

func (p *Parser) Resume() {
	p.paused = false
}

// Reset prepares the parser for a new connection. The error state is sticky
// otherwise: after a failed Parse all the following calls report the same
// error again.
func (p *Parser) Reset() {
	p.reset()
	p.Release()
	p.external = http.StateInit
	p.err = nil
	p.paused = false
}

// Release returns the buffer memory backing the parsed strings. It must be
// called only once the request cycle fully ended: afterwards the path, the
// query and every header string of the request are invalid.
func (p *Parser) Release() {
	p.startLineBuff.Clear()
	p.headerKeyBuff.Clear()
	p.headerValueBuff.Clear()
}

func (p *Parser) Parse(data []byte) (state http.ParseState, extra []byte, err error) {
	if p.err != nil {
		return http.StateError, nil, p.err
	}

	if p.paused {
		return http.StatePaused, data, status.ErrPaused
	}

	total := len(data)
	request := p.request
	headerKeyBuff := p.headerKeyBuff
	headerValueBuff := p.headerValueBuff

	switch p.state {
	case eMethod:
		goto method
	case ePath:
		goto path
	case eHeaderKey:
		goto headerKey
	case eContentLength:
		goto contentLength
	case eContentLengthCR:
		goto contentLengthCR
	case eHeaderValue:
		goto headerValue
	case eHeaderValueFold:
		goto headerValueFold
	case eHeaderValueCRLFCR:
		goto headerValueCRLFCR
	default:
		panic(fmt.Sprintf("BUG: unexpected state: %v", p.state))
	}

method:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if !p.startLineBuff.Append(data) {
				return p.abort(status.ErrTooLongRequestLine)
			}

			return p.pending(total)
		}

		var methodValue []byte
		if p.startLineBuff.SegmentLength() == 0 {
			methodValue = data[:sp]
		} else {
			if !p.startLineBuff.Append(data[:sp]) {
				return p.abort(status.ErrTooLongRequestLine)
			}

			methodValue = p.startLineBuff.Finish()
		}

		if len(methodValue) == 0 {
			return p.abort(status.ErrBadRequest)
		}

		request.Method = method.Parse(uf.B2S(methodValue))
		if request.Method == method.Unknown {
			return p.abort(status.ErrInvalidMethod)
		}

		data = data[sp+1:]
		p.state = ePath
		goto path
	}

path:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.startLineBuff.Append(data) {
				return p.abort(status.ErrURITooLong)
			}

			return p.pending(total)
		}

		if !p.startLineBuff.Append(data[:lf]) {
			return p.abort(status.ErrURITooLong)
		}

		pathAndProto := p.startLineBuff.Finish()
		sp := bytes.LastIndexByte(pathAndProto, ' ')
		if sp == -1 {
			return p.abort(status.ErrBadRequest)
		}

		reqPath, reqProto := pathAndProto[:sp], pathAndProto[sp+1:]
		if len(reqProto) > 0 && reqProto[len(reqProto)-1] == '\r' {
			reqProto = reqProto[:len(reqProto)-1]
		}

		if query := bytes.IndexByte(reqPath, '?'); query != -1 {
			request.RawQuery = uf.B2S(reqPath[query+1:])
			reqPath = reqPath[:query]

			if err = uri.ParseQuery(request.RawQuery, request.Query); err != nil {
				return p.abort(err)
			}
		}

		if len(reqPath) == 0 {
			return p.abort(status.ErrBadRequest)
		}

		request.Path, err = uri.PathUnescape(uf.B2S(reqPath))
		if err != nil {
			return p.abort(err)
		}

		request.Proto = proto.FromBytes(reqProto)
		if request.Proto == proto.Unknown {
			return p.abort(status.ErrUnsupportedProtocol)
		}

		data = data[lf+1:]
		p.state = eHeaderKey
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
			p.state = eHeaderValueCRLFCR
			goto headerValueCRLFCR
		case ' ', '\t':
			// obs-fold, a header value continued on the next line
			if !p.settings.HTTP.Lenient || p.headersNumber == 0 {
				return p.abort(status.ErrBadRequest)
			}

			p.state = eHeaderValueFold
			goto headerValueFold
		}

		colon := bytes.IndexByte(data, ':')
		if colon == -1 {
			if !isToken(data) && !p.settings.HTTP.Lenient {
				return p.abort(status.ErrInvalidHeaderToken)
			}

			if !headerKeyBuff.Append(data) {
				return p.abort(status.ErrHeaderOverflow)
			}

			return p.pending(total)
		}

		if !isToken(data[:colon]) && !p.settings.HTTP.Lenient {
			return p.abort(status.ErrInvalidHeaderToken)
		}

		if !headerKeyBuff.Append(data[:colon]) {
			return p.abort(status.ErrHeaderOverflow)
		}

		p.headerKey = uf.B2S(headerKeyBuff.Finish())
		if len(p.headerKey) == 0 {
			return p.abort(status.ErrInvalidHeaderToken)
		}

		data = data[colon+1:]

		if p.headersNumber++; p.headersNumber > int(p.settings.Headers.Number.Maximal) {
			return p.abort(status.ErrTooManyHeaders)
		}

		if strcomp.EqualFold(p.headerKey, "content-length") {
			if p.seenCLength {
				p.prevCLength = p.contentLength
				p.contentLength = 0
				p.dupCLength = true
			}

			p.seenCLength = true
			p.seenCLDigit = false
			p.state = eContentLength
			goto contentLength
		}

		p.state = eHeaderValue
		goto headerValue
	}

contentLength:
	for i, char := range data {
		if char == ' ' && !p.seenCLDigit {
			continue
		}

		if char < '0' || char > '9' {
			data = data[i:]
			goto contentLengthEnd
		}

		p.seenCLDigit = true
		// a wrapped-around length would desynchronize the stream and let the
		// real body be parsed as the next pipelined request
		if p.contentLength > (math.MaxInt64-9)/10 {
			return p.abort(status.ErrInvalidContentLength)
		}

		p.contentLength = p.contentLength*10 + int64(char-'0')
	}

	return p.pending(total)

contentLengthEnd:
	// data here contains at least one byte: the loop exits to this label only
	// upon a non-digit character
	if !p.seenCLDigit {
		return p.abort(status.ErrInvalidContentLength)
	}

	if p.dupCLength && p.prevCLength != p.contentLength {
		return p.abort(status.ErrInvalidContentLength)
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		p.state = eContentLengthCR
		goto contentLengthCR
	case '\n':
		data = data[1:]
		p.state = eHeaderKey
		goto headerKey
	default:
		return p.abort(status.ErrInvalidContentLength)
	}

contentLengthCR:
	if len(data) == 0 {
		return p.pending(total)
	}

	if data[0] != '\n' {
		return p.abort(status.ErrBadRequest)
	}

	data = data[1:]
	p.state = eHeaderKey
	goto headerKey

headerValue:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !headerValueBuff.Append(data) {
				return p.abort(status.ErrHeaderOverflow)
			}

			if headerValueBuff.SegmentLength() > int(p.settings.Headers.ValueLength.Maximal) {
				return p.abort(status.ErrHeaderOverflow)
			}

			return p.pending(total)
		}

		if !headerValueBuff.Append(data[:lf]) {
			return p.abort(status.ErrHeaderOverflow)
		}

		if headerValueBuff.SegmentLength() > int(p.settings.Headers.ValueLength.Maximal) {
			return p.abort(status.ErrHeaderOverflow)
		}

		data = data[lf+1:]
		value := uf.B2S(trimPrefixSpaces(headerValueBuff.Finish()))
		if len(value) > 0 && value[len(value)-1] == '\r' {
			value = value[:len(value)-1]
		}

		// cookie occurrences are never collapsed, they land in the cookie
		// list in arrival order
		if strcomp.EqualFold(p.headerKey, "cookie") {
			request.Headers.AddCookie(value)
		} else {
			request.Headers.Set(p.headerKey, value)
		}

		switch len(p.headerKey) {
		case 7:
			if strcomp.EqualFold(p.headerKey, "upgrade") {
				request.Upgrade = len(value) > 0
			} else if strcomp.EqualFold(p.headerKey, "trailer") {
				request.HasTrailer = true
			}
		case 17:
			if strcomp.EqualFold(p.headerKey, "transfer-encoding") {
				p.chunked = encodingHasChunked(value)
			}
		}

		p.state = eHeaderKey
		goto headerKey
	}

headerValueFold:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !headerValueBuff.Append(data) {
				return p.abort(status.ErrHeaderOverflow)
			}

			return p.pending(total)
		}

		if !headerValueBuff.Append(data[:lf]) {
			return p.abort(status.ErrHeaderOverflow)
		}

		data = data[lf+1:]
		cont := uf.B2S(trimPrefixSpaces(headerValueBuff.Finish()))
		if len(cont) > 0 && cont[len(cont)-1] == '\r' {
			cont = cont[:len(cont)-1]
		}

		request.Headers.Set(p.headerKey, request.Headers.Get(p.headerKey)+" "+cont)

		p.state = eHeaderKey
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

// completeHeaders settles the message framing, so by the time the caller sees
// StateHeadersComplete the request object is fully usable.
func (p *Parser) completeHeaders(extra []byte, total int) (http.ParseState, []byte, error) {
	if !p.account(total - len(extra)) {
		return p.abort(status.ErrHeaderOverflow)
	}

	request := p.request

	switch {
	case p.chunked:
		// chunked framing wins over a Content-Length, yet sending both is
		// a smuggling vector, so the strict mode rejects the combination
		if p.seenCLength && !p.settings.HTTP.Lenient {
			return p.abort(status.ErrUnexpectedContentLength)
		}

		request.Framing = http.FramingChunked
	case p.seenCLength:
		request.Framing = http.FramingContentLength
		request.ContentLength = p.contentLength
		request.Headers.SetContentLength(p.contentLength)
	default:
		// a request with no length headers carries a zero-length body
		request.Framing = http.FramingContentLength
	}

	connection := request.Headers.Get("Connection")
	if request.Proto == proto.HTTP10 {
		request.KeepAlive = strcomp.EqualFold(connection, "keep-alive")
	} else {
		request.KeepAlive = !strcomp.EqualFold(connection, "close")
	}

	if request.Method == method.CONNECT {
		request.Upgrade = true
	}

	p.reset()

	if request.Framing == http.FramingNoBody ||
		(request.Framing == http.FramingContentLength && request.ContentLength == 0) {
		p.external = http.StateMessageComplete
	} else {
		p.external = http.StateHeadersComplete
	}

	return p.external, extra, nil
}

func (p *Parser) pending(consumed int) (http.ParseState, []byte, error) {
	if !p.account(consumed) {
		return p.abort(status.ErrHeaderOverflow)
	}

	if p.state <= ePath {
		p.external = http.StateStartLine
	} else {
		p.external = http.StateHeadersInProgress
	}

	return p.external, nil, nil
}

func (p *Parser) abort(err error) (http.ParseState, []byte, error) {
	p.err = err
	p.external = http.StateError

	return http.StateError, nil, err
}

// account counts the consumed bytes against the header section limit, the
// request line included.
func (p *Parser) account(n int) bool {
	p.sectionSize += n

	return p.sectionSize <= int(p.settings.Headers.SectionSize.Maximal)
}

// bodyDone is flipped by the body reader once the payload is fully consumed.
func (p *Parser) bodyDone() {
	p.external = http.StateMessageComplete
}

func (p *Parser) bodyInProgress() {
	if p.external == http.StateHeadersComplete {
		p.external = http.StateBody
	}
}

// reset prepares for the next message without releasing the buffers: the
// strings of the just-parsed message stay valid until Release.
func (p *Parser) reset() {
	p.headersNumber = 0
	p.sectionSize = 0
	p.contentLength = 0
	p.prevCLength = 0
	p.seenCLength = false
	p.dupCLength = false
	p.seenCLDigit = false
	p.chunked = false
	p.state = eMethod
}

func encodingHasChunked(value string) (chunked bool) {
	for len(value) > 0 {
		var token string
		comma := strings.IndexByte(value, ',')
		if comma == -1 {
			token, value = value, ""
		} else {
			token, value = value[:comma], value[comma+1:]
		}

		if strcomp.EqualFold(strings.TrimSpace(token), "chunked") {
			chunked = true
		}
	}

	return chunked
}

func trimPrefixSpaces(b []byte) []byte {
	for i, char := range b {
		if char != ' ' && char != '\t' {
			return b[i:]
		}
	}

	return b[:0]
}

func isToken(b []byte) bool {
	for _, char := range b {
		if !tokenChars[char] {
			return false
		}
	}

	return true
}

var tokenChars = func() (lut [256]bool) {
	for _, char := range []byte("!#$%&'*+-.^_`|~0123456789") {
		lut[char] = true
	}

	for char := byte('a'); char <= 'z'; char++ {
		lut[char] = true
		lut[char&^0x20] = true
	}

	return lut
}()
