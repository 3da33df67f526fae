package server

import (
	"context"
	"net"
	"net/http"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/config"
	"github.com/labstack/echo/v4"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg config.HTTPServer, h *echo.Echo) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:           net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:        h,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
	}
}

// Run blocks until the server stops; a graceful Stop is not an error.
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
