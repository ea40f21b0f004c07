// internal/api/v1/api.go
package api

import (
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apimiddleware "github.com/suspsaude/susp-backend/internal/api/middleware"
	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/geocoder"
	"github.com/suspsaude/susp-backend/internal/locator"
	"github.com/suspsaude/susp-backend/internal/logging"
	"github.com/suspsaude/susp-backend/internal/observability"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings
	Locator  *locator.Service
	Geocoder *geocoder.Service

	logger         *log.Logger
	apiLogger      *slog.Logger           // Structured logger for API operations
	apiLevelVar    *slog.LevelVar         // Dynamic level control
	apiLoggerClose func() error           // Function to close the log file
	metrics        *observability.Metrics // Shared metrics instance
	startTime      *time.Time
}

// New creates a new API controller, returning an error if initialization fails.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	locatorSvc *locator.Service, geocoderSvc *geocoder.Service,
	logger *log.Logger, metrics *observability.Metrics) (*Controller, error) {
	return NewWithOptions(e, ds, settings, locatorSvc, geocoderSvc, logger, metrics, true)
}

// NewWithOptions creates a new API controller with optional route registration.
// Set initializeRoutes to false in tests that call handlers directly.
func NewWithOptions(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	locatorSvc *locator.Service, geocoderSvc *geocoder.Service,
	logger *log.Logger, metrics *observability.Metrics, initializeRoutes bool) (*Controller, error) {

	if logger == nil {
		logger = log.Default()
	}

	c := &Controller{
		Echo:     e,
		DS:       ds,
		Settings: settings,
		Locator:  locatorSvc,
		Geocoder: geocoderSvc,
		logger:   logger,
		metrics:  metrics,
	}

	// Initialize structured logger for API requests
	apiLogPath := "logs/web.log"
	c.apiLevelVar = new(slog.LevelVar)
	c.apiLevelVar.Set(slog.LevelInfo)

	apiLogger, closeFunc, err := logging.NewFileLogger(apiLogPath, "api", c.apiLevelVar)
	if err != nil {
		logger.Printf("Warning: Failed to initialize API structured logger: %v", err)
		// Fallback to a disabled logger (writes to io.Discard) but respects the level var
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: c.apiLevelVar})
		c.apiLogger = slog.New(fbHandler).With("service", "api")
		c.apiLoggerClose = func() error { return nil }
	} else {
		c.apiLogger = apiLogger
		c.apiLoggerClose = closeFunc
		logger.Printf("API structured logging initialized to %s", apiLogPath)
	}

	// Create v1 API group
	c.Group = e.Group("/api/v1")

	// Configure middlewares
	c.Group.Use(middleware.Recover()) // Recover should be early
	c.Group.Use(apimiddleware.NewBodyLimit("1M"))
	c.Group.Use(c.LoggingMiddleware())
	c.Group.Use(c.MetricsMiddleware())

	// Initialize start time for uptime tracking
	now := time.Now()
	c.startTime = &now

	if initializeRoutes {
		c.initRoutes()
	}

	return c, nil
}

// LoggingMiddleware creates a middleware function that logs API requests
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()

			// Process the request
			err := next(ctx)

			// Skip logging if apiLogger is not initialized
			if c.apiLogger == nil {
				return err
			}

			req := ctx.Request()
			res := ctx.Response()

			// Log with LogAttrs to avoid allocations when the level is disabled.
			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("query", req.URL.RawQuery),
				slog.Int("status", res.Status),
				slog.String("ip", ctx.RealIP()),
				slog.String("user_agent", req.UserAgent()),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}

			c.apiLogger.LogAttrs(ctx.Request().Context(), slog.LevelInfo, "API Request", attrs...)

			return err
		}
	}
}

// MetricsMiddleware records request counters, latency and response size. The
// route path keeps label cardinality bounded where a raw URL would not.
func (c *Controller) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if c.metrics == nil || c.metrics.HTTP == nil {
				return next(ctx)
			}

			start := time.Now()
			err := next(ctx)

			req := ctx.Request()
			res := ctx.Response()
			path := ctx.Path()
			if path == "" {
				path = req.URL.Path
			}
			status := strconv.Itoa(res.Status)

			c.metrics.HTTP.RecordRequest(req.Method, path, status)
			c.metrics.HTTP.RecordRequestDuration(req.Method, path, time.Since(start).Seconds())
			c.metrics.HTTP.RecordResponseSize(req.Method, path, float64(res.Size))
			if err != nil || res.Status >= http.StatusInternalServerError {
				c.metrics.HTTP.RecordRequestError(req.Method, path, status)
			}

			return err
		}
	}
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	// Health check endpoint - publicly accessible
	c.Group.GET("/health", c.HealthCheck)

	// Initialize route groups with proper error handling and logging
	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"expertise routes", c.initExpertiseRoutes},
		{"unit routes", c.initUnitRoutes},
		{"legacy routes", c.initLegacyRoutes},
	}

	for _, initializer := range routeInitializers {
		c.Debug("Initializing %s...", initializer.name)

		// Use a deferred function to recover from panics during route initialization
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Printf("PANIC during %s initialization: %v", initializer.name, r)
				}
			}()

			initializer.fn()

			c.Debug("Successfully initialized %s", initializer.name)
		}()
	}
}

// Shutdown performs cleanup of all resources used by the API controller.
// This should be called when the application is shutting down.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			c.logger.Printf("Error closing API log file: %v", err)
		}
	}

	c.Debug("API Controller shutting down")
}

// ErrorResponse is the envelope returned for every failed request
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	correlationID := generateCorrelationID()

	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message // Use message as error if no error object is provided
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// generateCorrelationID creates a unique identifier for error tracking using
// cryptographic randomness
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a default ID if crypto/rand fails
		return "ERR-RAND"
	}

	// Map the random bytes to charset characters
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an appropriate error response
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	ip := ctx.RealIP()

	c.logger.Printf("API Error [%s] from %s: %s: %v",
		errorResp.CorrelationID, ip, message, err)

	if c.apiLogger != nil {
		var errorStr string
		if err != nil {
			errorStr = err.Error()
		} else {
			errorStr = message
		}

		c.apiLogger.Error("API Error",
			"correlation_id", errorResp.CorrelationID,
			"message", message,
			"error", errorStr,
			"code", code,
			"path", ctx.Request().URL.Path,
			"method", ctx.Request().Method,
			"ip", ip,
		)
	}

	return ctx.JSON(code, errorResp)
}

// Debug logs debug messages when debug mode is enabled
func (c *Controller) Debug(format string, v ...any) {
	if c.Settings.WebServer.Debug {
		msg := fmt.Sprintf(format, v...)
		c.logger.Printf("[DEBUG] %s", msg)

		if c.apiLogger != nil {
			c.apiLogger.Debug(msg)
		}
	}
}

// logAPIRequest is a helper to log API requests with common context fields.
func (c *Controller) logAPIRequest(ctx echo.Context, level slog.Level, msg string, args ...any) {
	if c.apiLogger == nil {
		return
	}

	baseAttrs := []any{
		"path", ctx.Request().URL.Path,
		"ip", ctx.RealIP(),
	}
	baseAttrs = append(baseAttrs, args...)

	switch level {
	case slog.LevelDebug:
		c.apiLogger.Debug(msg, baseAttrs...)
	case slog.LevelInfo:
		c.apiLogger.Info(msg, baseAttrs...)
	case slog.LevelWarn:
		c.apiLogger.Warn(msg, baseAttrs...)
	case slog.LevelError:
		c.apiLogger.Error(msg, baseAttrs...)
	default:
		c.apiLogger.Log(ctx.Request().Context(), level, msg, baseAttrs...)
	}
}

// InitializeAPI creates a new API controller and registers all routes.
func InitializeAPI(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	locatorSvc *locator.Service, geocoderSvc *geocoder.Service,
	logger *log.Logger, metrics *observability.Metrics) *Controller {

	apiController, err := New(e, ds, settings, locatorSvc, geocoderSvc, logger, metrics)
	if err != nil {
		logger.Fatalf("Failed to initialize API: %v", err)
	}

	if apiController.apiLogger != nil {
		apiController.apiLogger.Info("API v1 initialized",
			"version", settings.Version,
			"build_date", settings.BuildDate,
		)
	}

	return apiController
}
