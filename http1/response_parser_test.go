package http1

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/header"
	"github.com/zgjsxx/st-http-proxy/http/proto"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/settings"
	"github.com/zgjsxx/st-http-proxy/transport/dummy"
)

func getResponseParser() (*ResponseParser, *http.Response) {
	response := http.NewResponse(header.New(), nil)
	parser, body := NewResponseSuit(response, dummy.NewClient(), settings.Default())
	response.Body = body

	return parser, response
}

func TestResponseParser_Parse(t *testing.T) {
	t.Run("fixed length", func(t *testing.T) {
		parser, response := getResponseParser()

		raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
		state, extra, err := parser.Parse([]byte(raw))
		require.NoError(t, err)
		require.Equal(t, http.StateHeadersComplete, state)
		require.Equal(t, "hello", string(extra))
		require.Equal(t, proto.HTTP11, response.Proto)
		require.Equal(t, status.OK, response.Code)
		require.Equal(t, status.Status("OK"), response.Status)
		require.Equal(t, http.FramingContentLength, response.Framing)
		require.Equal(t, int64(5), response.ContentLength)
		require.True(t, response.KeepAlive)
	})

	t.Run("no content", func(t *testing.T) {
		parser, response := getResponseParser()

		raw := "HTTP/1.1 204 No Content\r\n\r\n"
		state, extra, err := parser.Parse([]byte(raw))
		require.NoError(t, err)
		require.Equal(t, http.StateMessageComplete, state)
		require.Empty(t, extra)
		require.Equal(t, http.FramingNoBody, response.Framing)
	})

	t.Run("chunked", func(t *testing.T) {
		parser, response := getResponseParser()

		raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"
		state, _, err := parser.Parse([]byte(raw))
		require.NoError(t, err)
		require.Equal(t, http.StateHeadersComplete, state)
		require.Equal(t, http.FramingChunked, response.Framing)
	})

	t.Run("until close", func(t *testing.T) {
		parser, response := getResponseParser()

		raw := "HTTP/1.0 200 OK\r\nContent-Type: video/x-flv\r\n\r\n"
		state, _, err := parser.Parse([]byte(raw))
		require.NoError(t, err)
		require.Equal(t, http.StateHeadersComplete, state)
		require.Equal(t, http.FramingUntilClose, response.Framing)
		require.False(t, response.KeepAlive)
	})

	t.Run("status text is optional", func(t *testing.T) {
		parser, response := getResponseParser()

		state, _, err := parser.Parse([]byte("HTTP/1.1 200\r\nContent-Length: 0\r\n\r\n"))
		require.NoError(t, err)
		require.Equal(t, http.StateMessageComplete, state)
		require.Equal(t, status.OK, response.Code)
		require.Empty(t, response.Status)
	})

	t.Run("head response has no body", func(t *testing.T) {
		parser, response := getResponseParser()
		parser.ExpectHead(true)

		state, _, err := parser.Parse([]byte("HTTP/1.1 200 OK\r\nContent-Length: 500\r\n\r\n"))
		require.NoError(t, err)
		require.Equal(t, http.StateMessageComplete, state)
		require.Equal(t, http.FramingNoBody, response.Framing)
	})

	t.Run("set-cookie goes to the cookie list", func(t *testing.T) {
		parser, response := getResponseParser()

		raw := "HTTP/1.1 200 OK\r\nSet-Cookie: a=1\r\nSet-Cookie: b=2\r\nContent-Length: 0\r\n\r\n"
		state, _, err := parser.Parse([]byte(raw))
		require.NoError(t, err)
		require.Equal(t, http.StateMessageComplete, state)
		require.Equal(t, []string{"a=1", "b=2"}, response.Headers.Cookies())
	})

	t.Run("switching protocols is an upgrade", func(t *testing.T) {
		parser, response := getResponseParser()

		raw := "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\n\r\n"
		state, _, err := parser.Parse([]byte(raw))
		require.NoError(t, err)
		require.Equal(t, http.StateMessageComplete, state)
		require.True(t, response.Upgrade)
	})

	t.Run("folded header in strict mode", func(t *testing.T) {
		parser, _ := getResponseParser()

		raw := "HTTP/1.1 200 OK\r\nA: b\r\n c\r\n\r\n"
		_, _, err := parser.Parse([]byte(raw))
		require.ErrorIs(t, err, status.ErrBadRequest)
	})

	t.Run("folded header merges in lenient mode", func(t *testing.T) {
		lenient := settings.Default()
		lenient.HTTP.Lenient = true

		response := http.NewResponse(header.New(), nil)
		parser, _ := NewResponseSuit(response, dummy.NewClient(), lenient)

		raw := "HTTP/1.1 200 OK\r\nA: b\r\n   c\r\nContent-Length: 0\r\n\r\n"
		state, _, err := parser.Parse([]byte(raw))
		require.NoError(t, err)
		require.Equal(t, http.StateMessageComplete, state)
		require.Equal(t, "b c", response.Headers.Get("A"))
	})

	t.Run("pause and resume", func(t *testing.T) {
		parser, _ := getResponseParser()
		data := []byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")

		parser.Pause()
		state, extra, err := parser.Parse(data)
		require.ErrorIs(t, err, status.ErrPaused)
		require.Equal(t, http.StatePaused, state)
		require.Equal(t, data, extra)

		parser.Resume()
		state, _, err = parser.Parse(data)
		require.NoError(t, err)
		require.Equal(t, http.StateMessageComplete, state)
	})

	t.Run("non-digit code", func(t *testing.T) {
		parser, _ := getResponseParser()

		_, _, err := parser.Parse([]byte("HTTP/1.1 2xx OK\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrInvalidStatusCode)
	})

	t.Run("fuzz by chunk size", func(t *testing.T) {
		raw := []byte("HTTP/1.1 404 Not Found\r\nContent-Length: 9\r\nServer: unit\r\n\r\n")

		for n := 1; n < len(raw); n++ {
			parser, response := getResponseParser()

			var (
				state http.ParseState
				err   error
			)
			for _, chunk := range splitIntoParts(raw, n) {
				state, _, err = parser.Parse(chunk)
				require.NoError(t, err, n)

				if state == http.StateHeadersComplete {
					break
				}
			}

			require.Equal(t, http.StateHeadersComplete, state, n)
			require.Equal(t, status.NotFound, response.Code)
			require.Equal(t, int64(9), response.ContentLength)
			require.Equal(t, "unit", response.Headers.Get("Server"))
		}
	})
}
