package cnes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/errors"
	"github.com/suspsaude/susp-backend/internal/logging"
	"github.com/suspsaude/susp-backend/internal/observability/metrics"
	"golang.org/x/time/rate"
)

// Package-level logger specific to the open-data service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "cnes.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "cnes", serviceLevelVar)
	if err != nil {
		log.Printf("FATAL: Failed to initialize cnes file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "cnes")
		closeLogger = func() error { return nil }
	}
}

// Client provides methods for interacting with the open-data establishments API
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	limiter    *rate.Limiter
	debug      bool
	metrics    *metrics.OpenDataMetrics

	counters struct {
		apiCalls    int64
		cacheHits   int64
		cacheMisses int64
		apiErrors   int64
		mu          sync.RWMutex
	}
}

// NewClient creates a new open-data API client
func NewClient(config Config) (*Client, error) {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.RateLimit <= 0 {
		config.RateLimit = defaults.RateLimit
	}

	settings := conf.GetSettings()
	debug := settings != nil && settings.Debug

	burst := int(config.RateLimit)
	if burst < 1 {
		burst = 1
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:   cache.New(config.CacheTTL, config.CacheTTL*2),
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), burst),
		debug:   debug,
	}

	logger.Info("Open-data client initialized",
		"base_url", config.BaseURL,
		"cache_ttl", config.CacheTTL,
		"rate_limit_rps", config.RateLimit,
		"debug", debug)

	return client, nil
}

// SetMetrics attaches Prometheus metrics to the client.
func (c *Client) SetMetrics(m *metrics.OpenDataMetrics) {
	c.metrics = m
}

// ConfigFromSettings builds a client Config from application settings.
func ConfigFromSettings(settings *conf.Settings) Config {
	return Config{
		BaseURL:   settings.CNES.BaseURL,
		Timeout:   settings.CNES.Timeout,
		CacheTTL:  settings.CNES.CacheTTL,
		RateLimit: settings.CNES.RateLimit,
	}
}

// Close cleans up client resources
func (c *Client) Close() {
	logger.Info("Closing open-data client")
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing cnes logger: %v", err)
		}
	}
}

// GetEstablishment retrieves the open-data document for one establishment.
// Responses are cached for the configured TTL so repeated lookups during one
// ingestion run cost a single request.
func (c *Client) GetEstablishment(ctx context.Context, cnesCode int) (*EstablishmentData, error) {
	cacheKey := fmt.Sprintf("establishment:%d", cnesCode)

	if cached, found := c.cache.Get(cacheKey); found {
		if data, ok := cached.(*EstablishmentData); ok {
			c.counters.mu.Lock()
			c.counters.cacheHits++
			c.counters.mu.Unlock()
			if c.metrics != nil {
				c.metrics.RecordCacheHit()
			}

			logger.Debug("Establishment cache hit", "cnes", cnesCode)
			return data, nil
		}
	}

	c.counters.mu.Lock()
	c.counters.cacheMisses++
	c.counters.mu.Unlock()
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%d", c.config.BaseURL, cnesCode)

	var data EstablishmentData
	if err := c.doRequestWithRetry(reqCtx, url, &data); err != nil {
		return nil, err
	}

	if data.CNES == 0 {
		data.CNES = cnesCode
	}

	c.cache.Set(cacheKey, &data, cache.DefaultExpiration)

	return &data, nil
}

// Stats returns a snapshot of the client counters.
func (c *Client) Stats() Stats {
	c.counters.mu.RLock()
	defer c.counters.mu.RUnlock()
	return Stats{
		APICalls:    c.counters.apiCalls,
		APIErrors:   c.counters.apiErrors,
		CacheHits:   c.counters.cacheHits,
		CacheMisses: c.counters.cacheMisses,
	}
}

// doRequest performs an HTTP request with rate limiting
func (c *Client) doRequest(ctx context.Context, url string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.New(err).
			Component("cnes").
			Category(errors.CategoryCancellation).
			Context("url", url).
			Build()
	}

	c.counters.mu.Lock()
	c.counters.apiCalls++
	c.counters.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		c.countError()
		return errors.Newf("failed to create HTTP request: %v", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("cnes").
			Build()
	}
	req.Header.Set("Accept", "application/json")

	if c.debug {
		logger.Debug("Open-data API request", "url", url)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.countError()
		if c.metrics != nil {
			c.metrics.RecordRequestError("network")
		}
		logger.Error("Open-data API request failed",
			"error", err,
			"url", url)
		return errors.Newf("HTTP request failed: %v", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("cnes").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if c.metrics != nil {
		c.metrics.RecordRequest(strconv.Itoa(resp.StatusCode))
		c.metrics.RecordRequestDuration(time.Since(start).Seconds())
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.countError()
		if c.metrics != nil {
			c.metrics.RecordRequestError("read_body")
		}
		return errors.Newf("failed to read response body: %v", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Context("status_code", resp.StatusCode).
			Component("cnes").
			Build()
	}

	if resp.StatusCode >= 400 {
		c.countError()
		if c.metrics != nil {
			c.metrics.RecordRequestError("bad_status")
		}

		preview := string(bodyBytes)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		logger.Warn("Open-data API error response",
			"status_code", resp.StatusCode,
			"url", url,
			"response_body", preview)

		return errors.Newf("open-data API error (status %d)", resp.StatusCode).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", url).
			Component("cnes").
			Build()
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			c.countError()
			if c.metrics != nil {
				c.metrics.RecordRequestError("parse")
			}
			preview := string(bodyBytes)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			logger.Error("Failed to parse open-data API response",
				"error", err,
				"url", url,
				"response_preview", preview)
			return errors.Newf("failed to parse response: %v", err).
				Category(errors.CategoryFileParsing).
				Context("url", url).
				Context("response_size", len(bodyBytes)).
				Component("cnes").
				Build()
		}
	}

	return nil
}

// doRequestWithRetry wraps doRequest with retry for transient failures.
// Missing establishments and malformed responses are returned immediately.
func (c *Client) doRequestWithRetry(ctx context.Context, url string, result any) error {
	const maxRetries = 3
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := c.doRequest(ctx, url, result)
		if err == nil {
			return nil
		}

		var enhancedErr *errors.EnhancedError
		if errors.As(err, &enhancedErr) {
			switch enhancedErr.Category {
			case errors.CategoryNotFound,
				errors.CategoryValidation,
				errors.CategoryFileParsing,
				errors.CategoryCancellation:
				return err
			}

			if statusCode, ok := enhancedErr.Context["status_code"].(int); ok {
				// Client errors other than 429 will not get better on retry.
				if statusCode >= 400 && statusCode < 500 && statusCode != 429 {
					return err
				}
			}
		}

		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < maxRetries-1 {
			delay := time.Duration(attempt+1) * 500 * time.Millisecond
			logger.Warn("Open-data API request failed, retrying",
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"delay_ms", delay.Milliseconds(),
				"url", url,
				"error", err.Error())

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

// ClearCache clears all cached establishment documents, forcing the next
// lookup of each CNES to hit the API again.
func (c *Client) ClearCache() {
	c.cache.Flush()
	logger.Info("Open-data cache cleared")
}

func (c *Client) countError() {
	c.counters.mu.Lock()
	c.counters.apiErrors++
	c.counters.mu.Unlock()
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case 401, 403:
		return errors.CategoryConfiguration
	case 429:
		return errors.CategoryLimit
	case 404:
		return errors.CategoryNotFound
	case 500, 502, 503, 504:
		return errors.CategoryNetwork
	default:
		return errors.CategoryNetwork
	}
}
