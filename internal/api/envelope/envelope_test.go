package envelope

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())

	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"http error", echo.NewHTTPError(http.StatusBadGateway, "provider down"), 502, `{"status":"error","message":"provider down"}`},
		{"plain error", errors.New("boom"), 500, `{"status":"error","message":"Internal Server Error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			e.HTTPErrorHandler(tt.err, e.NewContext(req, rec))

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestSuccess(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	assert.NoError(t, Success(c, http.StatusOK, map[string]int{"n": 1}))
	assert.JSONEq(t, `{"status":"success","data":{"n":1}}`, rec.Body.String())
}
