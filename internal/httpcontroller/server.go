// internal/httpcontroller/server.go
package httpcontroller

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/suspsaude/susp-backend/internal/api/v1"
	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/geocoder"
	"github.com/suspsaude/susp-backend/internal/locator"
	"github.com/suspsaude/susp-backend/internal/logging"
	"github.com/suspsaude/susp-backend/internal/observability"
	"github.com/suspsaude/susp-backend/internal/observability/metrics"
	"golang.org/x/crypto/acme/autocert"
)

// Server encapsulates the Echo server and related configurations.
type Server struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings
	Metrics  *observability.Metrics
	APIV1    *api.Controller

	// Structured logger for web operations
	webLogger      *slog.Logger
	webLoggerClose func() error
}

// New initializes a new HTTP server with the given datastore and metrics.
func New(settings *conf.Settings, dataStore datastore.Interface, obs *observability.Metrics) *Server {
	configureDefaultSettings(settings)

	s := &Server{
		Echo:     echo.New(),
		DS:       dataStore,
		Settings: settings,
		Metrics:  obs,
	}

	// Container deployments sit behind a reverse proxy, so the client
	// address arrives in X-Forwarded-For. A bare deployment must not
	// trust that header.
	if conf.RunningInContainer() {
		s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		s.Echo.IPExtractor = echo.ExtractIPDirect()
	}

	s.initializeServer()
	return s
}

// Start begins listening and serving HTTP requests.
func (s *Server) Start() {
	errChan := make(chan error)

	go func() {
		var err error

		if s.Settings.WebServer.AutoTLS {
			configPaths, configErr := conf.GetDefaultConfigPaths()
			if configErr != nil {
				errChan <- fmt.Errorf("failed to get config paths: %w", configErr)
				return
			}

			s.Echo.AutoTLSManager.Prompt = autocert.AcceptTOS
			s.Echo.AutoTLSManager.Cache = autocert.DirCache(configPaths[0])
			s.Echo.AutoTLSManager.HostPolicy = autocert.HostWhitelist(s.Settings.WebServer.Host)

			err = s.Echo.StartAutoTLS(":" + s.Settings.WebServer.Port)
		} else {
			err = s.Echo.Start(":" + s.Settings.WebServer.Port)
		}

		if err != nil {
			errChan <- err
		}
	}()

	go handleServerError(errChan)

	fmt.Printf("HTTP server started on port %s (AutoTLS: %v)\n", s.Settings.WebServer.Port, s.Settings.WebServer.AutoTLS)
}

// initializeServer configures and initializes the server.
func (s *Server) initializeServer() {
	s.Echo.HideBanner = true
	s.initLogger()
	s.configureMiddleware()
	s.initRoutes()

	geocoderSvc, err := geocoder.NewService(s.Settings)
	if err != nil {
		log.Fatalf("Failed to initialize geocoder service: %v", err)
	}

	var locatorMetrics *metrics.LocatorMetrics
	if s.Metrics != nil {
		geocoderSvc.SetMetrics(s.Metrics.Geocoder)
		locatorMetrics = s.Metrics.Locator
	}
	locatorSvc := locator.NewService(s.DS, locatorMetrics)

	// Initialize the JSON API v1
	s.Debug("Initializing JSON API v1")
	s.APIV1 = api.InitializeAPI(
		s.Echo,
		s.DS,
		s.Settings,
		locatorSvc,
		geocoderSvc,
		log.Default(),
		s.Metrics,
	)
}

// initRoutes registers the routes served by the server itself rather than
// the versioned API.
func (s *Server) initRoutes() {
	if s.Settings.Metrics.Enabled && s.Metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}

// configureDefaultSettings sets default values for server settings.
func configureDefaultSettings(settings *conf.Settings) {
	if settings.WebServer.Port == "" {
		settings.WebServer.Port = "8080"
	}
}

// handleServerError listens for server errors and handles them.
func handleServerError(errChan chan error) {
	for err := range errChan {
		log.Printf("Server error: %v", err)
	}
}

// initLogger initializes the structured web logger.
func (s *Server) initLogger() {
	if !s.Settings.WebServer.Log.Enabled {
		fmt.Println("Logging disabled")
		return
	}

	webLogPath := "logs/web.log"
	webLogger, closeFunc, err := logging.NewFileLogger(webLogPath, "web", slog.LevelInfo)
	if err != nil {
		log.Printf("Warning: Failed to initialize web structured logger: %v", err)
		// Continue without structured logging rather than failing completely
	} else {
		s.webLogger = webLogger
		s.webLoggerClose = closeFunc
		log.Printf("Web structured logging initialized to %s", webLogPath)
	}

	// Replace Echo's default logger output ONLY if our structured logger is available
	if s.webLogger != nil {
		s.Echo.Logger.SetOutput(io.Discard) // Discard Echo's default log output, rely on middleware
		s.Echo.Logger.SetLevel(99)          // Effectively disable Echo's logger level checks
	}
}

// Debug logs debug messages if debug mode is enabled
func (s *Server) Debug(format string, v ...interface{}) {
	if s.Settings.WebServer.Debug {
		switch len(v) {
		case 0:
			log.Print(format)
		default:
			log.Printf(format, v...)
		}

		if s.webLogger != nil {
			var msg string
			switch len(v) {
			case 0:
				msg = format
			default:
				msg = fmt.Sprintf(format, v...)
			}
			s.webLogger.Debug(msg)
		}
	}
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.APIV1 != nil {
		s.APIV1.Shutdown()
	}

	// Close the web logger if it was initialized
	if s.webLoggerClose != nil {
		if err := s.webLoggerClose(); err != nil {
			log.Printf("Error closing web log file: %v", err)
		}
	}

	return s.Echo.Shutdown(ctx)
}
