package httpcontroller

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apimiddleware "github.com/suspsaude/susp-backend/internal/api/middleware"
)

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	securityConfig := apimiddleware.DefaultSecurityConfig()

	s.Echo.Use(middleware.Recover())
	s.Echo.Use(apimiddleware.NewCORS(securityConfig))
	s.Echo.Use(s.GzipMiddleware())

	if s.Settings.WebServer.AutoTLS {
		s.Echo.Use(apimiddleware.NewSecureHeaders(securityConfig))
	}
}

// GzipMiddleware configures Gzip compression for the server
func (s *Server) GzipMiddleware() echo.MiddlewareFunc {
	return middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     6,
		MinLength: 2048,
	})
}
