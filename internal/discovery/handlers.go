package discovery

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/baing/baing/internal/api/envelope"
	"github.com/baing/baing/internal/auth"
	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/media"
)

// AllKinds is the route slug that mixes several kinds in one request.
const AllKinds = "all"

// BatchResponse is the data of a multi-kind discovery response.
type BatchResponse struct {
	Items    []media.Item          `json:"items"`
	Warnings []PartialBatchWarning `json:"warnings"`
	Version  int                   `json:"version"`
}

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers discovery routes on an authenticated group.
func (h *Handlers) RegisterRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.GET("/discovery/:kind/rand/:count", h.Random, mw...)
}

// Random returns fresh recommendations of one kind, or of several for "all".
// GET /api/discovery/:kind/rand/:count?query=&kinds=
func (h *Handlers) Random(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	count, err := strconv.Atoi(c.Param("count"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "count must be an integer")
	}
	guidance := c.QueryParam("query")
	ctx := c.Request().Context()

	slug := c.Param("kind")
	if slug == AllKinds {
		kinds, err := parseKinds(c.QueryParam("kinds"))
		if err != nil {
			return mapError(err)
		}
		result, err := h.service.DiscoverAll(ctx, userID, kinds, count, guidance)
		if err != nil {
			return mapError(err)
		}
		warnings := result.Warnings
		if warnings == nil {
			warnings = []PartialBatchWarning{}
		}
		items := result.Items
		if items == nil {
			items = []media.Item{}
		}
		return envelope.Success(c, http.StatusOK, BatchResponse{Items: items, Warnings: warnings, Version: ContractVersion})
	}

	kind, err := media.KindFromSlug(slug)
	if err != nil {
		return mapError(err)
	}
	result, err := h.service.Discover(ctx, userID, Request{Kind: kind, Count: count, Guidance: guidance})
	if err != nil {
		return mapError(err)
	}
	return envelope.Success(c, http.StatusOK, kindPayload(kind, result.Items))
}

// kindPayload renders items untagged under the kind's contract field.
func kindPayload(kind media.Kind, items []media.Item) map[string]any {
	variants := make([]media.Media, len(items))
	for i, it := range items {
		variants[i] = it.Media
	}
	return map[string]any{
		PayloadField(kind): variants,
		"version":          ContractVersion,
	}
}

func parseKinds(raw string) ([]media.Kind, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var kinds []media.Kind
	for _, slug := range strings.Split(raw, ",") {
		k, err := media.KindFromSlug(strings.TrimSpace(slug))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func mapError(err error) error {
	var formatErr *ResponseFormatError
	switch {
	case errors.Is(err, media.ErrUnknownKind), errors.Is(err, ErrInvalidCount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(499, "request canceled").SetInternal(err)
	case llm.IsProviderError(err):
		return echo.NewHTTPError(http.StatusBadGateway, "recommendation provider failed").SetInternal(err)
	case errors.As(err, &formatErr):
		return echo.NewHTTPError(http.StatusBadGateway, "recommendation provider returned an unusable response").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "discovery failed").SetInternal(err)
	}
}
