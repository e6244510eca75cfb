// Package header implements the ordered, case-insensitive header container shared
// by parsed messages and rendered responses.
package header

import (
	"io"
	"strconv"
	"strings"

	"github.com/indigo-web/iter"
	"github.com/zgjsxx/st-http-proxy/kv"
)

const (
	contentLengthKey = "Content-Length"
	contentTypeKey   = "Content-Type"
	setCookieKey     = "Set-Cookie"

	colonSP = ": "
	crlf    = "\r\n"
)

// Header holds at most one value per canonical header name, preserving both the
// spelling and the order of first insertion. Cookies are kept aside in their own
// ordered list and are never collapsed.
type Header struct {
	pairs   *kv.Storage
	cookies []string
}

func New() *Header {
	return &Header{pairs: kv.New()}
}

func NewPrealloc(n int) *Header {
	return &Header{pairs: kv.NewPrealloc(n)}
}

// Set binds the value to the canonical name, overwriting any previous one.
func (h *Header) Set(key, value string) *Header {
	h.pairs.Set(key, value)
	return h
}

// Get returns the value bound to the name, or an empty string when there's none.
// Absent header and empty-valued header are deliberately indistinguishable.
func (h *Header) Get(key string) string {
	return h.pairs.Value(key)
}

// Lookup additionally reports whether the header was present at all.
func (h *Header) Lookup(key string) (value string, found bool) {
	return h.pairs.Get(key)
}

// Del removes the header and reports whether anything was removed.
func (h *Header) Del(key string) bool {
	return h.pairs.Delete(key)
}

// AddCookie appends a raw cookie string to the cookie list.
func (h *Header) AddCookie(value string) *Header {
	h.cookies = append(h.cookies, value)
	return h
}

// Cookies returns the stored raw cookie strings in their arrival order.
func (h *Header) Cookies() []string {
	return h.cookies
}

// Len returns the number of stored headers, cookies excluded.
func (h *Header) Len() int {
	return h.pairs.Len()
}

// ContentLength parses the Content-Length header. Absent or unparseable values
// yield -1.
func (h *Header) ContentLength() int64 {
	value, found := h.pairs.Get(contentLengthKey)
	if !found {
		return -1
	}

	length, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || length < 0 {
		return -1
	}

	return length
}

func (h *Header) SetContentLength(length int64) {
	h.pairs.Set(contentLengthKey, strconv.FormatInt(length, 10))
}

// ContentType returns the Content-Type header value, empty string when unset.
func (h *Header) ContentType() string {
	return h.pairs.Value(contentTypeKey)
}

func (h *Header) SetContentType(contentType string) {
	h.pairs.Set(contentTypeKey, contentType)
}

// Iter returns an iterator over the header pairs in insertion order. Cookies are
// not included.
func (h *Header) Iter() iter.Iterator[kv.Pair] {
	return h.pairs.Iter()
}

// Expose exposes the underlying pairs slice.
func (h *Header) Expose() []kv.Pair {
	return h.pairs.Expose()
}

// WriteTo serializes the headers in insertion order, each as "Name: value\r\n",
// cookies following as repeated Set-Cookie lines. The terminating blank line is
// the writer's duty, not the container's.
func (h *Header) WriteTo(w io.Writer) (n int64, err error) {
	var b []byte
	b = h.AppendTo(b)
	written, err := w.Write(b)

	return int64(written), err
}

// AppendTo renders the serialized headers into buff, avoiding intermediate copies.
func (h *Header) AppendTo(buff []byte) []byte {
	for _, pair := range h.pairs.Expose() {
		buff = append(buff, pair.Key...)
		buff = append(buff, colonSP...)
		buff = append(buff, pair.Value...)
		buff = append(buff, crlf...)
	}

	for _, cookie := range h.cookies {
		buff = append(buff, setCookieKey...)
		buff = append(buff, colonSP...)
		buff = append(buff, cookie...)
		buff = append(buff, crlf...)
	}

	return buff
}

// Clone creates a deep copy which may be stored somewhere safely.
func (h *Header) Clone() *Header {
	clone := NewPrealloc(h.pairs.Len())

	for _, pair := range h.pairs.Expose() {
		clone.pairs.Add(pair.Key, pair.Value)
	}

	clone.cookies = append(clone.cookies, h.cookies...)

	return clone
}

// Clear all the entries. The allocated space is kept for reuse.
func (h *Header) Clear() *Header {
	h.pairs.Clear()
	h.cookies = h.cookies[:0]
	return h
}
