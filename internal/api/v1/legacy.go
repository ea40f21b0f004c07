// internal/api/v1/legacy.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// initLegacyRoutes keeps the original unversioned surface alive for clients
// that predate the /api/v1 prefix. The handlers are shared, only the paths
// differ.
func (c *Controller) initLegacyRoutes() {
	legacy := c.Echo.Group("")
	legacy.Use(c.LoggingMiddleware())
	legacy.Use(c.MetricsMiddleware())

	legacy.GET("/", c.SanityCheck)
	legacy.GET("/especialidades", c.GetExpertise)
	legacy.GET("/unidades", c.GetNearestUnits)
	legacy.GET("/unidades/detalhes", c.GetUnitDetails)
}

// SanityCheck handles GET /
func (c *Controller) SanityCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"detail": "Não há nada aqui, apenas um sanity check!",
	})
}
