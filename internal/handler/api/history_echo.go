package api

import (
	"errors"
	"strings"
	"time"

	drepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	xhttp "github.com/ElectricHyena/stock-predictor-sub001/pkg/http"
	xlogger "github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	historyDefaultLimit = 500
	historyMaxLimit     = 5000
)

// HistoryEchoHandler serves the persisted bar and event history.
type HistoryEchoHandler struct {
	logger *xlogger.Logger
	store  drepo.MarketStore
}

func NewHistoryEchoHandler(logger *xlogger.Logger, store drepo.MarketStore) *HistoryEchoHandler {
	return &HistoryEchoHandler{logger: logger, store: store}
}

func (h *HistoryEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/history")
	g.GET("/bars/:symbol", h.Bars)
	g.GET("/events/:symbol", h.Events)
	e.GET("/healthz", h.Healthz)
}

func (h *HistoryEchoHandler) Bars(c echo.Context) error {
	symbol, from, to, limit, err := h.rangeParams(c)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	bars, err := h.store.QueryBars(c.Request().Context(), symbol, from, to, limit)
	if err != nil {
		h.logger.Error("history bars query", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, bars, int64(len(bars)))
}

func (h *HistoryEchoHandler) Events(c echo.Context) error {
	symbol, from, to, limit, err := h.rangeParams(c)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	events, err := h.store.QueryEvents(c.Request().Context(), symbol, from, to, limit)
	if err != nil {
		h.logger.Error("history events query", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, events, int64(len(events)))
}

// Healthz reports storage reachability.
func (h *HistoryEchoHandler) Healthz(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *HistoryEchoHandler) rangeParams(c echo.Context) (symbol string, from, to time.Time, limit int, err error) {
	symbol = strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return "", time.Time{}, time.Time{}, 0, errors.New("symbol required")
	}

	to = time.Now().UTC()
	from = time.Unix(0, 0).UTC()
	if raw := c.QueryParam("from"); raw != "" {
		if from, err = parseHistoryTime(raw); err != nil {
			return "", time.Time{}, time.Time{}, 0, err
		}
	}
	if raw := c.QueryParam("to"); raw != "" {
		if to, err = parseHistoryTime(raw); err != nil {
			return "", time.Time{}, time.Time{}, 0, err
		}
	}

	limit = xhttp.ParseIntDefault(c.QueryParam("limit"), historyDefaultLimit)
	if limit < 1 || limit > historyMaxLimit {
		limit = historyDefaultLimit
	}
	return symbol, from, to, limit, nil
}

// parseHistoryTime accepts RFC 3339 timestamps or plain UTC dates.
func parseHistoryTime(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}
