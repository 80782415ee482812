package api

import (
	"errors"
	"net/http"
	"strings"

	models "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/service/ratelimit"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/usecase"
	xhttp "github.com/ElectricHyena/stock-predictor-sub001/pkg/http"
	xlogger "github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScoresEchoHandler serves predictability scores and predictions.
type ScoresEchoHandler struct {
	logger *xlogger.Logger
	engine *usecase.Engine
	rl     *ratelimit.Limiter
}

func NewScoresEchoHandler(logger *xlogger.Logger, engine *usecase.Engine) *ScoresEchoHandler {
	return &ScoresEchoHandler{logger: logger, engine: engine, rl: ratelimit.New()}
}

func (h *ScoresEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/scores/:symbol", h.Score)
	g.GET("/predictions/:symbol", h.Prediction)
}

func (h *ScoresEchoHandler) Score(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}
	if !h.rl.Allow(c.RealIP()+":score", 5, 2) {
		h.logger.Warn("scores rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", http.StatusTooManyRequests))
	}

	score, err := h.engine.GetScore(c.Request().Context(), symbol)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "no data for symbol "+symbol)
		}
		h.logger.Error("scores usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, score)
}

func (h *ScoresEchoHandler) Prediction(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}
	if !h.rl.Allow(c.RealIP()+":prediction", 5, 2) {
		h.logger.Warn("predictions rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", http.StatusTooManyRequests))
	}

	pred, err := h.engine.GetPrediction(c.Request().Context(), symbol)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "no data for symbol "+symbol)
		}
		if errors.Is(err, models.ErrInsufficientSamples) {
			return xhttp.NotFoundResponse(c, "not enough history for symbol "+symbol)
		}
		h.logger.Error("predictions usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, pred)
}
