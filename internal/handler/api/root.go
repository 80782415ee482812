package api

import (
	xhttp "github.com/ElectricHyena/stock-predictor-sub001/pkg/http"

	"github.com/labstack/echo/v4"
)

// RootHandler registers every API handler on one Echo instance.
type RootHandler struct {
	handlers []xhttp.Handler
}

func NewRootHandler(handlers ...xhttp.Handler) *RootHandler {
	return &RootHandler{handlers: handlers}
}

func (h *RootHandler) RegisterRoutes(e *echo.Echo) {
	for _, sub := range h.handlers {
		sub.RegisterRoutes(e)
	}
}
