package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server owns the API listener. WriteTimeout is left unset: a crisis
// submission answers only after its notifications settle.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks until the listener fails or Stop is called; the latter returns nil.
func (s *Server) Start() error {
	s.logger.Info("mindtrack-api listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests, alert fan-outs included, until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("mindtrack-api shutting down")
	return s.httpServer.Shutdown(ctx)
}
