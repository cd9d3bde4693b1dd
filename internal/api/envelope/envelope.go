// Package envelope renders every API response as {status, data} or
// {status, message}.
package envelope

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the uniform response body.
type Response struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Success writes a success envelope.
func Success(c echo.Context, code int, data any) error {
	return c.JSON(code, Response{Status: StatusSuccess, Data: data})
}

// Error writes an error envelope.
func Error(c echo.Context, code int, message string) error {
	return c.JSON(code, Response{Status: StatusError, Message: message})
}

// ErrorHandler renders handler errors as error envelopes. Non-HTTP errors
// become 500s and are logged.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = fmt.Sprint(he.Message)
			if he.Internal != nil {
				logger.Debug().Err(he.Internal).Int("status", code).Msg("Request failed")
			}
		} else {
			logger.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = Error(c, code, message)
		}
		if err != nil {
			logger.Error().Err(err).Msg("Failed to write error response")
		}
	}
}
