package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	xhttp "QuantPanel/pkg/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness. Readiness runs every
// registered check with a shared timeout.
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthHandler(timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{checks: make(map[string]HealthCheck), timeout: timeout}
}

// Add registers a named check. Not safe after routes are served.
func (h *HealthHandler) Add(name string, check HealthCheck) {
	if check != nil {
		h.checks[name] = check
	}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Live)
	e.GET("/readyz", h.Ready)
}

func (h *HealthHandler) Live(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make([]checkResult, 0, len(names))
	for _, name := range names {
		r := checkResult{Name: name, Status: "ok"}
		if err := h.checks[name](ctx); err != nil {
			r.Status, r.Error = "down", err.Error()
			status = http.StatusServiceUnavailable
		}
		results = append(results, r)
	}
	return xhttp.DataResponse(c, status, results)
}
