// Package server glues the wire codec and the router together: it accepts
// connections, runs one serving loop per connection and keeps the per-request
// objects connection-local.
package server

import (
	"net"
	"sync"
	"time"

	"github.com/zgjsxx/st-http-proxy/http"
	"github.com/zgjsxx/st-http-proxy/http/status"
	"github.com/zgjsxx/st-http-proxy/settings"
	"github.com/zgjsxx/st-http-proxy/transport"
)

// DefaultReadTimeout is applied to every socket read unless overridden.
const DefaultReadTimeout = 90 * time.Second

type Server struct {
	handler     http.Handler
	settings    settings.Settings
	readTimeout time.Duration
	sock        net.Listener
	conns       map[net.Conn]struct{}
	mu          sync.Mutex
	shutdown    bool
}

// New builds a server around the handler. Zero-valued settings fields fall
// back to the defaults.
func New(handler http.Handler, s settings.Settings) *Server {
	return &Server{
		handler:     handler,
		settings:    settings.Fill(s),
		readTimeout: DefaultReadTimeout,
		conns:       map[net.Conn]struct{}{},
	}
}

func (s *Server) SetReadTimeout(timeout time.Duration) {
	s.readTimeout = timeout
}

// ListenAndServe binds the address and serves until Stop or a listener error.
func (s *Server) ListenAndServe(addr string) error {
	sock, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(sock)
}

func (s *Server) Serve(sock net.Listener) error {
	s.sock = sock
	wg := new(sync.WaitGroup)

	for {
		conn, err := sock.Accept()
		if err != nil {
			wg.Wait()

			if s.shutdown {
				return status.ErrShutdown
			}

			return err
		}

		s.track(conn, true)
		wg.Add(1)
		go s.serveConn(wg, conn)
	}
}

// Stop closes the listener along with all the accepted connections.
func (s *Server) Stop() error {
	s.shutdown = true
	err := s.sock.Close()

	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	return err
}

// GracefulShutdown stops accepting, leaving the accepted connections free to
// end their lives peacefully.
func (s *Server) GracefulShutdown() error {
	s.shutdown = true

	return s.sock.Close()
}

func (s *Server) serveConn(wg *sync.WaitGroup, conn net.Conn) {
	readBuff := make([]byte, s.settings.TCP.Read.Default)
	client := transport.NewClient(conn, s.readTimeout, readBuff)

	NewConn(client, s.handler, s.settings).Serve()

	s.track(conn, false)
	wg.Done()
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
	s.mu.Unlock()
}
