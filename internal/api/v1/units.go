// internal/api/v1/units.go
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/errors"
)

// DetailsResponse is the payload of /unidades/detalhes: the full registry
// entry plus the services the unit offers. Nullable registry fields stay
// null in the JSON rather than collapsing to zero values.
type DetailsResponse struct {
	CNES      int                 `json:"cnes"`
	Name      *string             `json:"name"`
	City      *string             `json:"city"`
	State     *string             `json:"state"`
	Kind      *string             `json:"kind"`
	CEP       *string             `json:"cep"`
	CNPJ      *string             `json:"cnpj"`
	Address   *string             `json:"address"`
	Number    *string             `json:"number"`
	District  *string             `json:"district"`
	Telephone *string             `json:"telephone"`
	Latitude  *float64            `json:"latitude"`
	Longitude *float64            `json:"longitude"`
	Email     *string             `json:"email"`
	Shift     *string             `json:"shift"`
	Services  map[string][]string `json:"services"`
}

// initUnitRoutes registers the unit search and detail endpoints
func (c *Controller) initUnitRoutes() {
	c.Group.GET("/unidades", c.GetNearestUnits)
	c.Group.GET("/unidades/detalhes", c.GetUnitDetails)
}

// GetNearestUnits handles GET /api/v1/unidades
// Resolves the caller's CEP to coordinates and returns the nearest units
// offering the requested service (srv) and classification (clf).
func (c *Controller) GetNearestUnits(ctx echo.Context) error {
	cep := ctx.QueryParam("cep")

	service, err := strconv.Atoi(ctx.QueryParam("srv"))
	if err != nil {
		return c.HandleError(ctx, err, "Parâmetro srv inválido", http.StatusBadRequest)
	}
	classification, err := strconv.Atoi(ctx.QueryParam("clf"))
	if err != nil {
		return c.HandleError(ctx, err, "Parâmetro clf inválido", http.StatusBadRequest)
	}

	reqCtx := ctx.Request().Context()

	// Resolve validates the CEP format before any lookup, so a malformed CEP
	// never reaches the provider.
	origin, err := c.Geocoder.Resolve(reqCtx, cep)
	if err != nil {
		switch {
		case errors.IsCategory(err, errors.CategoryValidation):
			return c.HandleError(ctx, err, "CEP inválido", http.StatusBadRequest)
		case errors.IsNotFound(err):
			return c.HandleError(ctx, err, "CEP não encontrado ou inválido", http.StatusNotFound)
		default:
			return c.HandleError(ctx, err, "Erro ao buscar a localização do CEP", http.StatusBadGateway)
		}
	}

	units, err := c.Locator.ResolveNearestUnits(reqCtx, service, classification, origin)
	if err != nil {
		return c.HandleError(ctx, err, "Erro ao buscar unidades próximas", http.StatusInternalServerError)
	}

	c.logAPIRequest(ctx, slog.LevelDebug, "Resolved nearest units",
		"cep", cep,
		"service", service,
		"classification", classification,
		"count", len(units))

	return ctx.JSON(http.StatusOK, units)
}

// GetUnitDetails handles GET /api/v1/unidades/detalhes
// Returns the registry entry for one establishment together with every
// service it offers, grouped by service name.
func (c *Controller) GetUnitDetails(ctx echo.Context) error {
	cnes, err := strconv.Atoi(ctx.QueryParam("cnes"))
	if err != nil {
		return c.HandleError(ctx, err, "Parâmetro cnes inválido", http.StatusBadRequest)
	}

	reqCtx := ctx.Request().Context()

	unit, err := c.Locator.GetEstablishmentDetails(reqCtx, cnes)
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Unidade não encontrada", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Erro ao buscar detalhes da unidade", http.StatusInternalServerError)
	}

	services, err := c.Locator.AggregateServices(reqCtx, cnes)
	if err != nil {
		return c.HandleError(ctx, err, "Erro ao buscar serviços da unidade", http.StatusInternalServerError)
	}

	c.logAPIRequest(ctx, slog.LevelDebug, "Retrieved unit details",
		"cnes", cnes,
		"service_count", len(services))

	return ctx.JSON(http.StatusOK, buildDetailsResponse(unit, services))
}

// buildDetailsResponse merges a registry entry and its aggregated services
// into the response payload
func buildDetailsResponse(unit *datastore.GeneralInfo, services map[string][]string) *DetailsResponse {
	return &DetailsResponse{
		CNES:      unit.CNES,
		Name:      unit.Name,
		City:      unit.City,
		State:     unit.State,
		Kind:      unit.Kind,
		CEP:       unit.CEP,
		CNPJ:      unit.CNPJ,
		Address:   unit.Address,
		Number:    unit.Number,
		District:  unit.District,
		Telephone: unit.Telephone,
		Latitude:  unit.Latitude,
		Longitude: unit.Longitude,
		Email:     unit.Email,
		Shift:     unit.Shift,
		Services:  services,
	}
}
