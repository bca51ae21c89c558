package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const readHeaderTimeout = 10 * time.Second

// Server is the single listener of the relay: UI page, status and sockets.
type Server struct {
	HTTP *http.Server
	ws   *WebSocketHandler
}

func NewServer(handler http.Handler, ws *WebSocketHandler) *Server {
	return &Server{
		HTTP: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		ws: ws,
	}
}

// Serve blocks until the server is shut down. A shutdown is not an error.
func (s *Server) Serve(listener net.Listener) error {
	if err := s.HTTP.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes the sockets first, then the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ws.CloseAll()
	return s.HTTP.Shutdown(ctx)
}
