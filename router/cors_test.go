package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/method"
)

func TestCorsFilter_Preflight(t *testing.T) {
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		reached = true

		return nil
	})

	filter := NewCorsFilter(next, true)

	request := newRequest("/api/v1/streams")
	request.Method = method.OPTIONS
	request.Headers.Set("Origin", "http://example.com")

	w, client := newWriter()
	require.NoError(t, filter.ServeHTTP(w, request))
	require.NoError(t, w.FinalRequest())

	written := string(client.Written())
	require.True(t, strings.HasPrefix(written, "HTTP/1.1 200 OK\r\n"))
	require.Contains(t, written, "Access-Control-Allow-Origin: *\r\n")
	require.Contains(t, written, "Access-Control-Allow-Methods: ")
	require.Contains(t, written, "Access-Control-Allow-Headers: ")
	require.Contains(t, written, "Access-Control-Expose-Headers: ")
	require.False(t, reached, "preflight must be answered by the filter itself")
}

func TestCorsFilter_Injection(t *testing.T) {
	var hit string
	filter := NewCorsFilter(tag("next", &hit), true)

	w, client := newWriter()
	require.NoError(t, filter.ServeHTTP(w, newRequest("/live/a.flv")))
	require.NoError(t, w.FinalRequest())

	require.Equal(t, "next", hit)
	require.Contains(t, string(client.Written()), "Access-Control-Allow-Origin: *\r\n")
}

func TestCorsFilter_Disabled(t *testing.T) {
	var hit string
	filter := NewCorsFilter(tag("next", &hit), false)

	request := newRequest("/api")
	request.Method = method.OPTIONS
	request.Headers.Set("Origin", "http://example.com")

	w, client := newWriter()
	require.NoError(t, filter.ServeHTTP(w, request))
	require.NoError(t, w.FinalRequest())

	// a disabled filter is fully transparent, even for preflights
	require.Equal(t, "next", hit)
	require.NotContains(t, string(client.Written()), "Access-Control-Allow-Origin")
}

func TestCorsFilter_OptionsWithoutOrigin(t *testing.T) {
	var hit string
	filter := NewCorsFilter(tag("next", &hit), true)

	request := newRequest("/api")
	request.Method = method.OPTIONS

	w, _ := newWriter()
	require.NoError(t, filter.ServeHTTP(w, request))

	// no Origin header means no preflight, the wrapped handler serves
	require.Equal(t, "next", hit)
}
