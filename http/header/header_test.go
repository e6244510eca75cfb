package header

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeader_SetGet(t *testing.T) {
	h := New()

	h.Set("Content-Type", "text/html")
	require.Equal(t, "text/html", h.Get("Content-Type"))
	// lookup is case-insensitive
	require.Equal(t, "text/html", h.Get("content-type"))
	require.Equal(t, "text/html", h.Get("CONTENT-TYPE"))

	// the later Set wins, yet the first spelling stays
	h.Set("content-type", "application/json")
	require.Equal(t, "application/json", h.Get("Content-Type"))
	require.Equal(t, 1, h.Len())
	require.Equal(t, "Content-Type", h.Expose()[0].Key)
}

func TestHeader_Lookup(t *testing.T) {
	h := New()
	h.Set("Server", "")

	value, found := h.Lookup("Server")
	require.True(t, found)
	require.Empty(t, value)

	_, found = h.Lookup("Date")
	require.False(t, found)
}

func TestHeader_Del(t *testing.T) {
	h := New()
	h.Set("Connection", "close")

	require.True(t, h.Del("connection"))
	require.False(t, h.Del("connection"))
	require.Empty(t, h.Get("Connection"))
}

func TestHeader_ContentLength(t *testing.T) {
	h := New()
	require.Equal(t, int64(-1), h.ContentLength())

	h.SetContentLength(1337)
	require.Equal(t, int64(1337), h.ContentLength())
	require.Equal(t, "1337", h.Get("Content-Length"))

	h.Set("Content-Length", "garbage")
	require.Equal(t, int64(-1), h.ContentLength())
}

func TestHeader_Cookies(t *testing.T) {
	h := New()
	h.AddCookie("a=1")
	h.AddCookie("b=2")

	require.Equal(t, []string{"a=1", "b=2"}, h.Cookies())
	// cookies live aside from the ordinary pairs
	require.Zero(t, h.Len())
}

func TestHeader_AppendTo(t *testing.T) {
	h := New()
	h.Set("Server", "unit")
	h.Set("Connection", "keep-alive")
	h.AddCookie("session=xyz")

	want := "Server: unit\r\nConnection: keep-alive\r\nSet-Cookie: session=xyz\r\n"
	require.Equal(t, want, string(h.AppendTo(nil)))
}

func TestHeader_Clone(t *testing.T) {
	h := New()
	h.Set("Server", "unit")
	h.AddCookie("a=1")

	clone := h.Clone()
	h.Set("Server", "changed")
	h.AddCookie("b=2")

	require.Equal(t, "unit", clone.Get("Server"))
	require.Equal(t, []string{"a=1"}, clone.Cookies())
}

func TestHeader_Clear(t *testing.T) {
	h := New()
	h.Set("Server", "unit")
	h.AddCookie("a=1")

	h.Clear()
	require.Zero(t, h.Len())
	require.Empty(t, h.Cookies())
	require.Empty(t, h.Get("Server"))
}
