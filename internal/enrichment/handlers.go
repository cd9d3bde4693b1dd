package enrichment

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/baing/baing/internal/api/envelope"
	"github.com/baing/baing/internal/auth"
	"github.com/baing/baing/internal/media"
)

// Batch is the request and response body of the enrichment endpoint.
type Batch struct {
	Items []media.Item `json:"items"`
}

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers enrichment routes on an authenticated group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.POST("/enrichment", h.Enrich)
}

// Enrich fills item details from the catalog and page lookups.
// POST /api/enrichment
func (h *Handlers) Enrich(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req Batch
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid items").SetInternal(err)
	}

	items, err := h.service.Coalesce(c.Request().Context(), userID, req.Items)
	if err != nil {
		if errors.Is(err, ErrTooManyItems) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "enrichment failed").SetInternal(err)
	}
	if items == nil {
		items = []media.Item{}
	}
	return envelope.Success(c, http.StatusOK, Batch{Items: items})
}
