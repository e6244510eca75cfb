package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/header"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/http1"
	"github.com/zgjsxx/st-http-proxy/kv"
	"github.com/zgjsxx/st-http-proxy/settings"
	"github.com/zgjsxx/st-http-proxy/transport/dummy"
)

func newRequest(path string) *http.Request {
	request := http.NewRequest(header.New(), kv.New(), nil)
	request.Path = path

	return request
}

func newWriter() (*http1.Writer, *dummy.Client) {
	client := dummy.NewClient()

	return http1.NewWriter(client, nil, settings.Default().HTTP), client
}

// tag returns a handler which records its name, so tests can tell which
// pattern won the match.
func tag(name string, hit *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		*hit = name

		return nil
	})
}

func TestServeMux_Registration(t *testing.T) {
	m := NewServeMux()
	var hit string

	require.NoError(t, m.Handle("/api", tag("api", &hit)))
	require.Error(t, m.Handle("/api", tag("again", &hit)))
	require.Error(t, m.Handle("", tag("empty", &hit)))
	require.Error(t, m.Handle("/nil", nil))
}

func TestServeMux_Match(t *testing.T) {
	m := NewServeMux()
	var hit string

	require.NoError(t, m.Handle("/api/", tag("subtree", &hit)))
	require.NoError(t, m.Handle("/api/v1", tag("explicit", &hit)))
	require.NoError(t, m.Handle("/", tag("root", &hit)))
	require.NoError(t, m.Handle("/live/", tag("live", &hit)))

	w, _ := newWriter()
	serve := func(path string) string {
		hit = ""
		require.NoError(t, m.ServeHTTP(w, newRequest(path)))

		return hit
	}

	// a deeper path inside the subtree is served by the subtree pattern
	require.Equal(t, "subtree", serve("/api/v1/x"))
	// yet the exact pattern wins for its own path
	require.Equal(t, "explicit", serve("/api/v1"))
	require.Equal(t, "subtree", serve("/api/"))
	require.Equal(t, "live", serve("/live/a.flv"))
	require.Equal(t, "root", serve("/anything/else"))
}

func TestServeMux_ImplicitRedirect(t *testing.T) {
	m := NewServeMux()
	var hit string

	require.NoError(t, m.Handle("/live/", tag("live", &hit)))

	w, client := newWriter()
	require.NoError(t, m.ServeHTTP(w, newRequest("/live")))
	require.NoError(t, w.FinalRequest())

	written := string(client.Written())
	require.True(t, strings.HasPrefix(written, "HTTP/1.1 301 Moved Permanently\r\n"))
	require.Contains(t, written, "Location: /live/\r\n")
}

func TestServeMux_Vhost(t *testing.T) {
	m := NewServeMux()
	var hit string

	require.NoError(t, m.Handle("/static/", tag("static", &hit)))
	require.NoError(t, m.Handle("stream.example.com/live/", tag("vhost", &hit)))

	request := newRequest("/live/a.flv")
	request.Headers.Set("Host", "stream.example.com:8080")

	w, _ := newWriter()
	require.NoError(t, m.ServeHTTP(w, request))
	require.Equal(t, "vhost", hit)

	// the plain tables are unaffected by the overlay
	hit = ""
	require.NoError(t, m.ServeHTTP(w, newRequest("/static/app.js")))
	require.Equal(t, "static", hit)

	// a foreign host does not see the overlay entry
	hit = ""
	foreign := newRequest("/live/a.flv")
	foreign.Headers.Set("Host", "other.example.com")
	w2, client := newWriter()
	require.NoError(t, m.ServeHTTP(w2, foreign))
	require.NoError(t, w2.FinalRequest())
	require.Empty(t, hit)
	require.True(t, strings.HasPrefix(string(client.Written()), "HTTP/1.1 404 Not Found\r\n"))
}

type hijackerFunc func(r *http.Request, chosen http.Handler) http.Handler

func (f hijackerFunc) Hijack(r *http.Request, chosen http.Handler) http.Handler {
	return f(r, chosen)
}

func TestServeMux_Hijacker(t *testing.T) {
	m := NewServeMux()
	var hit string

	require.NoError(t, m.Handle("/known", tag("known", &hit)))
	m.SetHijacker(hijackerFunc(func(r *http.Request, chosen http.Handler) http.Handler {
		if chosen == nil && strings.HasPrefix(r.Path, "/hooked/") {
			return tag("hijacked", &hit)
		}

		return nil
	}))

	w, _ := newWriter()

	require.NoError(t, m.ServeHTTP(w, newRequest("/hooked/stream")))
	require.Equal(t, "hijacked", hit)

	hit = ""
	require.NoError(t, m.ServeHTTP(w, newRequest("/known")))
	require.Equal(t, "known", hit)
}

func TestServeMux_EnableDisable(t *testing.T) {
	m := NewServeMux()
	var hit string

	require.NoError(t, m.Handle("/api", tag("api", &hit)))
	require.True(t, m.Disable("/api"))
	require.False(t, m.Disable("/unknown"))

	w, client := newWriter()
	require.NoError(t, m.ServeHTTP(w, newRequest("/api")))
	require.NoError(t, w.FinalRequest())
	require.True(t, strings.HasPrefix(string(client.Written()), "HTTP/1.1 404 Not Found\r\n"))

	require.True(t, m.Enable("/api"))
	hit = ""
	w2, _ := newWriter()
	require.NoError(t, m.ServeHTTP(w2, newRequest("/api")))
	require.Equal(t, "api", hit)
}

func TestServeMux_NotFound(t *testing.T) {
	m := NewServeMux()

	w, client := newWriter()
	require.NoError(t, m.ServeHTTP(w, newRequest("/nowhere")))
	require.NoError(t, w.FinalRequest())

	written := string(client.Written())
	require.True(t, strings.HasPrefix(written, "HTTP/1.1 404 Not Found\r\n"))
}

func TestRedirectHandler(t *testing.T) {
	h := RedirectHandler("https://example.com/", status.Found)

	w, client := newWriter()
	require.NoError(t, h.ServeHTTP(w, newRequest("/old")))
	require.NoError(t, w.FinalRequest())

	written := string(client.Written())
	require.True(t, strings.HasPrefix(written, "HTTP/1.1 302 Found\r\n"))
	require.Contains(t, written, "Location: https://example.com/\r\n")
}
