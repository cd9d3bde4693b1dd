package users

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/baing/baing/internal/api/envelope"
	"github.com/baing/baing/internal/auth"
)

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	GenerateToken(userID int64, email, name string) (string, error)
	TTL() time.Duration
}

// LoginLimiter tracks failed logins per account.
type LoginLimiter interface {
	LockoutRemaining(email string) time.Duration
	RecordFailedAttempt(email string)
	RecordSuccessfulLogin(email string)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type Handlers struct {
	service      *Service
	tokens       TokenIssuer
	limiter      LoginLimiter
	secureCookie bool
}

func NewHandlers(service *Service, tokens TokenIssuer, limiter LoginLimiter, secureCookie bool) *Handlers {
	return &Handlers{service: service, tokens: tokens, limiter: limiter, secureCookie: secureCookie}
}

// RegisterPublicRoutes registers the unauthenticated account routes.
func (h *Handlers) RegisterPublicRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/auth/register", h.Register, mw...)
	g.POST("/auth/login", h.Login, mw...)
	g.GET("/auth/logout", h.Logout)
}

// RegisterRoutes registers the account routes on an authenticated group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/user/me", h.Me)
	g.PATCH("/user/me", h.UpdateMe)
}

// POST /api/auth/register
func (h *Handlers) Register(c echo.Context) error {
	var input RegisterInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.Register(c.Request().Context(), input)
	if err != nil {
		return mapError(err)
	}
	return h.startSession(c, http.StatusCreated, user)
}

// POST /api/auth/login
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if remaining := h.limiter.LockoutRemaining(req.Email); remaining > 0 {
		return echo.NewHTTPError(http.StatusTooManyRequests,
			fmt.Sprintf("too many failed attempts, try again in %d minutes", int(remaining.Minutes())+1))
	}

	user, err := h.service.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.limiter.RecordFailedAttempt(req.Email)
		}
		return mapError(err)
	}

	h.limiter.RecordSuccessfulLogin(req.Email)
	return h.startSession(c, http.StatusOK, user)
}

// GET /api/auth/logout
func (h *Handlers) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return envelope.Success(c, http.StatusOK, nil)
}

// GET /api/user/me
func (h *Handlers) Me(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}
	return envelope.Success(c, http.StatusOK, user)
}

// PATCH /api/user/me
func (h *Handlers) UpdateMe(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var input UpdateInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.Update(c.Request().Context(), userID, input)
	if err != nil {
		return mapError(err)
	}
	return envelope.Success(c, http.StatusOK, user)
}

func (h *Handlers) startSession(c echo.Context, code int, user *User) error {
	token, err := h.tokens.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate token").SetInternal(err)
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return envelope.Success(c, code, SessionResponse{Token: token, User: user})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "account operation failed").SetInternal(err)
	}
}
