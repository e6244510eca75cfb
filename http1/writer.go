package http1

import (
	"net"
	"strconv"

	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/header"
	"github.com/zgjsxx/st-http-proxy/http/method"
	"github.com/zgjsxx/st-http-proxy/http/mime"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/settings"
	"github.com/zgjsxx/st-http-proxy/transport"
)

const unknownStatusText = "Unknown Status Code"

var (
	crlf             = []byte("\r\n")
	chunkedFinalizer = []byte("0\r\n\r\n")
)

var _ http.ResponseWriter = &Writer{}

// Writer renders a single response onto the transport. The status code and the
// header block stay buffered until the first body write, so the content type
// may still be sniffed from the leading payload bytes. When the handler never
// declares a Content-Length, the body goes out chunked.
type Writer struct {
	client        transport.Client
	request       *http.Request
	headers       *header.Header
	buff          []byte
	code          status.Code
	contentLength int64
	written       int64
	wroteHeader   bool
	headerSent    bool
	chunked       bool
	noBody        bool
	finalized     bool
}

func NewWriter(client transport.Client, request *http.Request, s settings.HTTP) *Writer {
	return &Writer{
		client:  client,
		request: request,
		headers: header.New(),
		buff:    make([]byte, 0, s.ResponseBuffSize.Default),
	}
}

func (w *Writer) Header() *header.Header {
	return w.headers
}

// WriteHeader commits the status code. Only the first call is honored, all the
// following ones are no-ops. The header block itself is flushed together with
// the first body write or at finalization.
func (w *Writer) WriteHeader(code status.Code) {
	if w.wroteHeader {
		return
	}

	w.wroteHeader = true
	w.code = code
}

func (w *Writer) Write(p []byte) error {
	if w.finalized {
		return status.ErrInternalServerError
	}

	if !w.headerSent {
		if err := w.sendHeader(p); err != nil {
			return err
		}
	}

	if w.noBody || len(p) == 0 {
		return nil
	}

	if w.chunked {
		return w.writeChunk(p)
	}

	if w.written += int64(len(p)); w.written > w.contentLength {
		return status.ErrInternalServerError
	}

	return w.client.Write(p)
}

// Writev writes several body pieces in a single transport call. Under chunked
// framing all the pieces form one chunk.
func (w *Writer) Writev(vectors net.Buffers) error {
	if w.finalized {
		return status.ErrInternalServerError
	}

	var total int64
	var first []byte
	for _, vector := range vectors {
		total += int64(len(vector))
		if first == nil && len(vector) > 0 {
			first = vector
		}
	}

	if !w.headerSent {
		if err := w.sendHeader(first); err != nil {
			return err
		}
	}

	if w.noBody || total == 0 {
		return nil
	}

	if w.chunked {
		w.buff = w.buff[:0]
		w.buff = strconv.AppendUint(w.buff, uint64(total), 16)
		w.buff = append(w.buff, crlf...)

		framed := make(net.Buffers, 0, len(vectors)+2)
		framed = append(framed, w.buff)
		framed = append(framed, vectors...)
		framed = append(framed, crlf)

		return w.client.Writev(framed)
	}

	if w.written += total; w.written > w.contentLength {
		return status.ErrInternalServerError
	}

	return w.client.Writev(vectors)
}

// FinalRequest completes the response. Under chunked framing the terminating
// zero-length chunk goes out; a response with no body written at all is sent
// with Content-Length: 0. Repeated calls are no-ops.
func (w *Writer) FinalRequest() error {
	if w.finalized {
		return nil
	}

	w.finalized = true

	if !w.headerSent {
		if !w.wroteHeader {
			w.WriteHeader(status.OK)
		}

		if w.headers.ContentLength() < 0 && status.BodyAllowed(w.code) {
			w.headers.SetContentLength(0)
		}

		if err := w.sendHeader(nil); err != nil {
			return err
		}
	}

	if w.chunked && !w.noBody {
		return w.client.Write(chunkedFinalizer)
	}

	// an underwritten fixed-length body leaves the peer waiting, the only
	// recovery is dropping the connection
	if !w.chunked && !w.noBody && w.written < w.contentLength {
		return status.ErrCloseConnection
	}

	return nil
}

// HeaderSent reports whether the status line already went out. Once it did,
// no error response can be rendered anymore.
func (w *Writer) HeaderSent() bool {
	return w.headerSent
}

// Reset prepares the writer for the next response on the same connection.
func (w *Writer) Reset() {
	w.headers.Clear()
	w.buff = w.buff[:0]
	w.code = 0
	w.contentLength = 0
	w.written = 0
	w.wroteHeader = false
	w.headerSent = false
	w.chunked = false
	w.noBody = false
	w.finalized = false
}

// sendHeader settles the response framing and flushes the status line along
// with the header block. firstChunk, when any, is only inspected for the
// content type sniffing.
func (w *Writer) sendHeader(firstChunk []byte) error {
	if !w.wroteHeader {
		w.WriteHeader(status.OK)
	}

	w.noBody = !status.BodyAllowed(w.code)
	if w.request != nil && w.request.Method == method.HEAD {
		w.noBody = true
	}

	if !w.noBody {
		if len(w.headers.ContentType()) == 0 && len(firstChunk) > 0 {
			w.headers.SetContentType(string(mime.Detect(firstChunk)))
		}

		w.contentLength = w.headers.ContentLength()
		if w.contentLength < 0 {
			w.chunked = true
			w.headers.Set("Transfer-Encoding", "chunked")
		}
	}

	w.buff = w.buff[:0]
	w.buff = append(w.buff, "HTTP/1.1 "...)
	w.buff = strconv.AppendInt(w.buff, int64(w.code), 10)
	w.buff = append(w.buff, ' ')

	text := status.Text(w.code)
	if len(text) == 0 {
		text = unknownStatusText
	}

	w.buff = append(w.buff, text...)
	w.buff = append(w.buff, crlf...)
	w.buff = w.headers.AppendTo(w.buff)
	w.buff = append(w.buff, crlf...)

	w.headerSent = true

	return w.client.Write(w.buff)
}

func (w *Writer) writeChunk(p []byte) error {
	w.buff = w.buff[:0]
	w.buff = strconv.AppendUint(w.buff, uint64(len(p)), 16)
	w.buff = append(w.buff, crlf...)
	w.buff = append(w.buff, p...)
	w.buff = append(w.buff, crlf...)

	return w.client.Write(w.buff)
}
