package api

import (
	"errors"

	models "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/usecase"
	xhttp "github.com/ElectricHyena/stock-predictor-sub001/pkg/http"
	xlogger "github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertsEchoHandler implements alert and trigger management endpoints.
type AlertsEchoHandler struct {
	logger  *xlogger.Logger
	manager *usecase.AlertManager
}

func NewAlertsEchoHandler(logger *xlogger.Logger, manager *usecase.AlertManager) *AlertsEchoHandler {
	return &AlertsEchoHandler{logger: logger, manager: manager}
}

func (h *AlertsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/alerts", h.Create)
	g.POST("/alerts/bulk", h.CreateBulk)
	g.GET("/alerts", h.List)
	g.GET("/alerts/:id", h.Get)
	g.PUT("/alerts/:id", h.Update)
	g.POST("/alerts/:id/toggle", h.Toggle)
	g.DELETE("/alerts/:id", h.Delete)
	g.GET("/triggers", h.ListTriggers)
	g.GET("/triggers/unread", h.ListUnreadTriggers)
	g.POST("/triggers/:id/read", h.MarkTriggerRead)
	g.POST("/triggers/:id/dismiss", h.DismissTrigger)
}

func (h *AlertsEchoHandler) Create(c echo.Context) error {
	req := &models.CreateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alert, err := h.manager.Create(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidAlertRule) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.logger.Error("alerts create error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, alert)
}

func (h *AlertsEchoHandler) CreateBulk(c echo.Context) error {
	req := &models.BulkCreateAlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alerts, err := h.manager.CreateBulk(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidAlertRule) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.logger.Error("alerts bulk create error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, alerts)
}

func (h *AlertsEchoHandler) List(c echo.Context) error {
	alerts, err := h.manager.List(c.Request().Context())
	if err != nil {
		h.logger.Error("alerts list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}

func (h *AlertsEchoHandler) Get(c echo.Context) error {
	alert, err := h.manager.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "alert not found")
		}
		h.logger.Error("alerts get error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, alert)
}

func (h *AlertsEchoHandler) Update(c echo.Context) error {
	req := &models.UpdateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alert, err := h.manager.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "alert not found")
		}
		if errors.Is(err, models.ErrInvalidAlertRule) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.logger.Error("alerts update error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, alert)
}

func (h *AlertsEchoHandler) Toggle(c echo.Context) error {
	alert, err := h.manager.Toggle(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "alert not found")
		}
		h.logger.Error("alerts toggle error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, alert)
}

func (h *AlertsEchoHandler) Delete(c echo.Context) error {
	if err := h.manager.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "alert not found")
		}
		h.logger.Error("alerts delete error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *AlertsEchoHandler) ListTriggers(c echo.Context) error {
	alertID := c.QueryParam("alert_id")
	if alertID == "" {
		return xhttp.BadRequestResponse(c, "alert_id required")
	}
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 50)

	triggers, err := h.manager.ListTriggers(c.Request().Context(), alertID, limit)
	if err != nil {
		h.logger.Error("triggers list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, triggers, int64(len(triggers)))
}

func (h *AlertsEchoHandler) ListUnreadTriggers(c echo.Context) error {
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 50)

	triggers, err := h.manager.ListUnreadTriggers(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("triggers unread error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, triggers, int64(len(triggers)))
}

func (h *AlertsEchoHandler) MarkTriggerRead(c echo.Context) error {
	if err := h.manager.MarkTriggerRead(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "trigger not found")
		}
		h.logger.Error("triggers read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *AlertsEchoHandler) DismissTrigger(c echo.Context) error {
	if err := h.manager.DismissTrigger(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "trigger not found")
		}
		h.logger.Error("triggers dismiss error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
