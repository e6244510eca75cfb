package router

import (
	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/method"
	"github.com/zgjsxx/st-http-proxy/http/status"
)

// CorsFilter wraps a handler with wildcard cross-origin headers. An enabled
// filter answers preflight requests by itself, the wrapped handler is never
// consulted for them.
type CorsFilter struct {
	next    http.Handler
	enabled bool
}

func NewCorsFilter(next http.Handler, enabled bool) *CorsFilter {
	return &CorsFilter{
		next:    next,
		enabled: enabled,
	}
}

func (c *CorsFilter) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if !c.enabled {
		return c.next.ServeHTTP(w, r)
	}

	headers := w.Header()
	headers.Set("Access-Control-Allow-Origin", "*")

	if r.Method == method.OPTIONS && len(r.Headers.Get("Origin")) > 0 {
		headers.SetContentLength(0)
		headers.Set("Access-Control-Allow-Methods", "GET, POST, HEAD, PUT, DELETE, OPTIONS")
		headers.Set("Access-Control-Expose-Headers", "Server,range,Content-Length,Content-Range")
		headers.Set("Access-Control-Allow-Headers",
			"origin,range,accept-encoding,referer,Cache-Control,X-Proxy-Authorization,X-Requested-With,Content-Type")
		w.WriteHeader(status.OK)

		return nil
	}

	return c.next.ServeHTTP(w, r)
}
