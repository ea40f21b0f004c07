// internal/api/v1/expertise.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// initExpertiseRoutes registers the expertise catalog endpoint
func (c *Controller) initExpertiseRoutes() {
	c.Group.GET("/especialidades", c.GetExpertise)
}

// GetExpertise handles GET /api/v1/especialidades
// Returns every service/classification pair units can be searched by. The
// two-element id carries the srv and clf query values for /unidades.
func (c *Controller) GetExpertise(ctx echo.Context) error {
	items, err := c.Locator.ListExpertise(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Erro ao listar especialidades", http.StatusInternalServerError)
	}

	c.logAPIRequest(ctx, slog.LevelDebug, "Listed expertises", "count", len(items))

	return ctx.JSON(http.StatusOK, items)
}
