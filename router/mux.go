// Package router dispatches parsed requests to registered handlers. Patterns
// follow the classic serve-mux convention: a trailing slash registers a whole
// subtree, no trailing slash matches the exact path only. A pattern may be
// prefixed with a hostname, forming a virtual-host overlay consulted when the
// plain path tables miss.
package router

import (
	"fmt"
	"strings"

	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/status"
)

// Hijacker is consulted after pattern matching with the chosen handler, nil
// when nothing matched. Returning a non-nil handler substitutes the choice.
type Hijacker interface {
	Hijack(r *http.Request, chosen http.Handler) http.Handler
}

type muxEntry struct {
	pattern  string
	handler  http.Handler
	explicit bool
	enabled  bool
}

// ServeMux routes a request to the most specific registered pattern. It is
// safe for concurrent request serving as long as all the registrations are
// done beforehand.
type ServeMux struct {
	entries  map[string]*muxEntry
	hijacker Hijacker
	// vhost is set once any pattern carries a hostname prefix
	vhost bool
}

func NewServeMux() *ServeMux {
	return &ServeMux{entries: make(map[string]*muxEntry)}
}

// Handle registers the handler under the pattern. Registering an already
// explicitly taken pattern, an empty pattern or a nil handler is an error.
func (m *ServeMux) Handle(pattern string, handler http.Handler) error {
	if len(pattern) == 0 {
		return fmt.Errorf("router: empty pattern")
	}

	if handler == nil {
		return fmt.Errorf("router: nil handler for pattern %s", pattern)
	}

	if entry, ok := m.entries[pattern]; ok && entry.explicit {
		return fmt.Errorf("router: pattern %s is already registered", pattern)
	}

	m.entries[pattern] = &muxEntry{
		pattern:  pattern,
		handler:  handler,
		explicit: true,
		enabled:  true,
	}

	if pattern[0] != '/' {
		m.vhost = true
	}

	// a subtree pattern implicitly redirects the bare path to the subtree
	// root, unless the bare path is taken explicitly
	if n := len(pattern); n > 1 && pattern[n-1] == '/' {
		bare := pattern[:n-1]
		if entry, ok := m.entries[bare]; !ok || !entry.explicit {
			m.entries[bare] = &muxEntry{
				pattern: bare,
				handler: RedirectHandler(pattern, status.MovedPermanently),
				enabled: true,
			}
		}
	}

	return nil
}

func (m *ServeMux) HandleFunc(pattern string, handler http.HandlerFunc) error {
	return m.Handle(pattern, handler)
}

// SetHijacker installs the match hijacker. Passing nil removes it.
func (m *ServeMux) SetHijacker(h Hijacker) {
	m.hijacker = h
}

// Enable turns a previously disabled pattern back on. Reports whether the
// pattern is known at all.
func (m *ServeMux) Enable(pattern string) bool {
	return m.setEnabled(pattern, true)
}

// Disable makes the pattern invisible to matching without unregistering it.
func (m *ServeMux) Disable(pattern string) bool {
	return m.setEnabled(pattern, false)
}

func (m *ServeMux) setEnabled(pattern string, enabled bool) bool {
	entry, ok := m.entries[pattern]
	if ok {
		entry.enabled = enabled
	}

	return ok
}

// FindHandler resolves the handler for the request. The result is never nil:
// an unmatched request resolves to the not-found handler.
func (m *ServeMux) FindHandler(r *http.Request) http.Handler {
	handler := m.match(r.Path)

	// the virtual-host overlay: rewrite the path to host+path and retry once
	if handler == nil && m.vhost {
		if host := r.Host(); len(host) > 0 {
			handler = m.match(stripPort(host) + r.Path)
		}
	}

	if m.hijacker != nil {
		if substituted := m.hijacker.Hijack(r, handler); substituted != nil {
			handler = substituted
		}
	}

	if handler == nil {
		handler = NotFoundHandler()
	}

	return handler
}

func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	return m.FindHandler(r).ServeHTTP(w, r)
}

// match implements the two-step lookup: the exact entry wins uncondition-
// ally, otherwise the longest matching subtree is taken.
func (m *ServeMux) match(path string) http.Handler {
	if entry, ok := m.entries[path]; ok && entry.enabled {
		return entry.handler
	}

	var (
		best    http.Handler
		bestLen int
	)

	for pattern, entry := range m.entries {
		if !entry.enabled || pattern[len(pattern)-1] != '/' {
			continue
		}

		if strings.HasPrefix(path, pattern) && len(pattern) > bestLen {
			best, bestLen = entry.handler, len(pattern)
		}
	}

	return best
}

func stripPort(host string) string {
	if colon := strings.LastIndexByte(host, ':'); colon != -1 {
		return host[:colon]
	}

	return host
}

// NotFoundHandler replies with a plain 404 to everything.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		return http.Error(w, status.NotFound)
	})
}

// RedirectHandler replies with a Location redirect to url using the given
// status code.
func RedirectHandler(url string, code status.Code) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Location", url)
		w.Header().SetContentLength(0)
		w.WriteHeader(code)

		return nil
	})
}
