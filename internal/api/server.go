package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/willie68/go_tilerip/internal/logging"
)

// Server the http server of the serve mode
type Server struct {
	log *logging.Logger
	srv *http.Server
}

// NewServer creates the server for the port
func NewServer(port int, handler http.Handler) *Server {
	return &Server{
		log: logging.New().WithName("server"),
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start serves in the background, errors is closed after the server stopped
func (s *Server) Start() <-chan error {
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		s.log.Infof("http server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("http server error: %v", err)
			errs <- err
		}
	}()
	return errs
}

// Shutdown stops the server, running rips get the timeout to complete
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
