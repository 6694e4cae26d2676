package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serve(mw echo.MiddlewareFunc, method, origin string) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(mw)
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.OPTIONS("/x", func(c echo.Context) error { return c.NoContent(http.StatusMethodNotAllowed) })

	req := httptest.NewRequest(method, "/x", nil)
	if origin != "" {
		req.Header.Set(echo.HeaderOrigin, origin)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCORSAnyOrigin(t *testing.T) {
	mw := CORS(CORSConfig{AllowMethods: []string{http.MethodGet}, MaxAge: 600})

	rec := serve(mw, http.MethodGet, "https://panel.local")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = serve(mw, http.MethodOptions, "https://panel.local")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	assert.Equal(t, "600", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}

func TestCORSRestrictedOrigins(t *testing.T) {
	mw := CORS(CORSConfig{AllowOrigins: []string{"https://panel.local"}})

	rec := serve(mw, http.MethodGet, "https://panel.local")
	assert.Equal(t, "https://panel.local", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = serve(mw, http.MethodGet, "https://evil.example")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = serve(mw, http.MethodGet, "")
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
