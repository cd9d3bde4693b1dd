package collections

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/baing/baing/internal/api/envelope"
	"github.com/baing/baing/internal/auth"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers collection routes on an authenticated group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/collections", h.List)
	g.POST("/collections", h.Create)
	g.GET("/collections/special/:label", h.Special)
	g.GET("/collection/:id", h.Get)
	g.PATCH("/collection/:id", h.Replace)
}

// List returns all collections of the current user.
// GET /api/collections
func (h *Handlers) List(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	cols, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load collections").SetInternal(err)
	}
	return envelope.Success(c, http.StatusOK, ListResponse{Collections: cols})
}

// Create adds an ordinary collection.
// POST /api/collections
func (h *Handlers) Create(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var input CreateInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	col, err := h.service.Create(c.Request().Context(), userID, input)
	if err != nil {
		return mapError(err)
	}
	return envelope.Success(c, http.StatusCreated, col)
}

// Special returns the reserved collection for a label.
// GET /api/collections/special/:label
func (h *Handlers) Special(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	col, err := h.service.Special(c.Request().Context(), userID, c.Param("label"))
	if err != nil {
		return mapError(err)
	}
	return envelope.Success(c, http.StatusOK, col)
}

// Get returns one collection.
// GET /api/collection/:id
func (h *Handlers) Get(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid collection id")
	}

	col, err := h.service.Get(c.Request().Context(), userID, id)
	if err != nil {
		return mapError(err)
	}
	return envelope.Success(c, http.StatusOK, col)
}

// Replace overwrites a collection with the request body.
// PATCH /api/collection/:id
func (h *Handlers) Replace(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid collection id")
	}

	var doc UserCollection
	if err := c.Bind(&doc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid collection document").SetInternal(err)
	}

	col, err := h.service.Replace(c.Request().Context(), userID, id, doc)
	if err != nil {
		return mapError(err)
	}
	return envelope.Success(c, http.StatusOK, col)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrCollectionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrIDMismatch), errors.Is(err, ErrUnknownSpecial):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrLockedRename), errors.Is(err, ErrSpecialChange), errors.Is(err, ErrSpecialMissing):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "collection operation failed").SetInternal(err)
	}
}
