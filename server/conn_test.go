package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/method"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/settings"
	"github.com/zgjsxx/st-http-proxy/transport/dummy"
)

func serveOn(handler http.Handler, chunks ...[]byte) *dummy.Client {
	client := dummy.NewClient(chunks...)
	NewConn(client, handler, settings.Default()).Serve()

	return client
}

func TestConn_SingleRequest(t *testing.T) {
	var served int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		served++
		require.Equal(t, method.GET, r.Method)
		require.Equal(t, "/live/a.flv", r.Path)
		require.Equal(t, "1", r.QueryGet("token"))
		require.Equal(t, "example.com", r.Host())

		w.Header().SetContentType("text/plain")

		return w.Write([]byte("hello"))
	})

	raw := "GET /live/a.flv?token=1 HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n"
	client := serveOn(handler, []byte(raw))

	require.Equal(t, 1, served)
	written := string(client.Written())
	require.True(t, strings.HasPrefix(written, "HTTP/1.1 200 OK\r\n"))
	require.Contains(t, written, "hello")
}

func TestConn_Pipelined(t *testing.T) {
	var paths []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		// request strings are only valid within the cycle
		paths = append(paths, strings.Clone(r.Path))
		w.Header().SetContentLength(2)

		return w.Write([]byte("ok"))
	})

	// both requests arrive in a single read
	raw := "GET /first HTTP/1.1\r\nHost: x\r\n\r\n" +
		"GET /second HTTP/1.1\r\nHost: x\r\n\r\n"
	client := serveOn(handler, []byte(raw))

	require.Equal(t, []string{"/first", "/second"}, paths)
	require.Equal(t, 2, strings.Count(string(client.Written()), "HTTP/1.1 200 OK\r\n"))
}

func TestConn_SegmentedRequest(t *testing.T) {
	var served int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		served++

		return w.Write([]byte("done"))
	})

	client := serveOn(handler,
		[]byte("GET /api"),
		[]byte("/v1/versions HTT"),
		[]byte("P/1.1\r\nHost: x\r"),
		[]byte("\n\r\n"),
	)

	require.Equal(t, 1, served)
	require.True(t, strings.HasPrefix(string(client.Written()), "HTTP/1.1 200 OK\r\n"))
}

func TestConn_RequestBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		body, err := r.Body.Bytes()
		require.NoError(t, err)
		require.Equal(t, "Hello, world!", string(body))

		return w.Write(body)
	})

	raw := "POST /echo HTTP/1.1\r\nHost: x\r\nContent-Length: 13\r\n\r\nHello, world!"
	client := serveOn(handler, []byte(raw))

	require.Contains(t, string(client.Written()), "Hello, world!")
}

func TestConn_UnconsumedBodyIsDiscarded(t *testing.T) {
	var paths []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		paths = append(paths, strings.Clone(r.Path))

		return w.Write([]byte("ok"))
	})

	// the handler never touches the first request's body, yet the second
	// pipelined request must still be framed correctly
	raw := "POST /upload HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nxxxxx" +
		"GET /after HTTP/1.1\r\nHost: x\r\n\r\n"
	serveOn(handler, []byte(raw))

	require.Equal(t, []string{"/upload", "/after"}, paths)
}

func TestConn_ParseError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		t.Fatal("the handler must not see a malformed request")

		return nil
	})

	client := serveOn(handler, []byte("GET / HTTP/1.1\r\nHe@der: value\r\n\r\n"))

	require.True(t, strings.HasPrefix(string(client.Written()), "HTTP/1.1 400 Bad Request\r\n"))
}

func TestConn_HandlerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return status.ErrNotFound
	})

	client := serveOn(handler, []byte("GET /missing HTTP/1.1\r\nHost: x\r\n\r\n"))

	require.True(t, strings.HasPrefix(string(client.Written()), "HTTP/1.1 404 Not Found\r\n"))
}
