// internal/api/v1/system.go
package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthCheck handles GET /api/v1/health
// Reports service status, build identity and database connectivity.
// ?verbose=true adds host, memory and disk information.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":     "healthy",
		"version":    c.Settings.Version,
		"build_date": c.Settings.BuildDate,
		"timestamp":  time.Now().Format(time.RFC3339),
	}

	if c.Settings.WebServer.Debug {
		response["environment"] = "development"
	} else {
		response["environment"] = "production"
	}

	// Cheap indexed query as a connectivity probe. An empty result is fine,
	// only a transport or schema failure marks the database disconnected.
	dbStatus := "connected"
	var dbError string
	if _, err := c.DS.SearchServiceRecords(0, 0); err != nil {
		dbStatus = "disconnected"
		dbError = err.Error()
	}
	response["database_status"] = dbStatus
	if dbError != "" {
		response["database_error"] = dbError
	}

	if c.startTime != nil {
		uptime := time.Since(*c.startTime)
		response["uptime"] = uptime.String()
		response["uptime_seconds"] = uptime.Seconds()
	}

	if verbose := ctx.QueryParam("verbose"); verbose == "true" || verbose == "1" {
		response["system"] = c.collectSystemInfo()
	}

	return ctx.JSON(http.StatusOK, response)
}

// collectSystemInfo gathers host, memory and disk figures for the verbose
// health payload. Collection failures drop the section instead of failing
// the health check.
func (c *Controller) collectSystemInfo() map[string]any {
	info := map[string]any{
		"os":           runtime.GOOS,
		"architecture": runtime.GOARCH,
		"go_version":   runtime.Version(),
		"num_cpu":      runtime.NumCPU(),
	}

	if hostInfo, err := host.Info(); err == nil {
		info["hostname"] = hostInfo.Hostname
		info["platform"] = hostInfo.Platform
		info["platform_version"] = hostInfo.PlatformVersion
		info["kernel_version"] = hostInfo.KernelVersion
		info["host_uptime_seconds"] = hostInfo.Uptime
	} else {
		c.logger.Printf("Failed to collect host info: %v", err)
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		info["memory"] = map[string]any{
			"total_mb":     float64(memInfo.Total) / 1024 / 1024,
			"used_mb":      float64(memInfo.Used) / 1024 / 1024,
			"used_percent": memInfo.UsedPercent,
		}
	} else {
		c.logger.Printf("Failed to collect memory info: %v", err)
	}

	// Disk usage of the ingest working directory, where dataset downloads
	// land and can fill the volume.
	dataDir := c.Settings.Ingest.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if usage, err := disk.Usage(dataDir); err == nil {
		info["disk"] = map[string]any{
			"path":         usage.Path,
			"total_gb":     float64(usage.Total) / 1024 / 1024 / 1024,
			"free_gb":      float64(usage.Free) / 1024 / 1024 / 1024,
			"used_percent": usage.UsedPercent,
		}
	} else {
		c.logger.Printf("Failed to collect disk usage for %s: %v", dataDir, err)
	}

	return info
}
