package controller

import (
	"net/http"

	"go-booking-agent/core/controller"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	"go-booking-agent/core/validator"
	"go-booking-agent/modules/booking/dto"
	"go-booking-agent/modules/booking/service"

	"github.com/labstack/echo/v4"
)

type BookingController struct {
	controller.BaseController
	service *service.Orchestrator
}

func NewBookingController(svc *service.Orchestrator) *BookingController {
	return &BookingController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

// Health
// GET /health
func (b *BookingController) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Propose plans and checks a meeting request. A free slot comes back with a
// confirmation token.
// POST /a2a/plan
func (b *BookingController) Propose(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProposeRequest
	if err := c.Bind(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if result := validator.Struct(req); result.HasError() {
		return b.BadRequest(errors.ErrInvalidInput, "Invalid request data", result)
	}

	resp, err := b.service.Propose(ctx, &req)
	if err != nil {
		return b.ErrorResponse(c, err)
	}

	logger.Info("BookingController:Propose:Done", "status", resp.Status)
	return c.JSON(http.StatusOK, resp)
}

// Confirm creates the event carried by a confirmation token.
// POST /a2a/confirm
func (b *BookingController) Confirm(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if result := validator.Struct(req); result.HasError() {
		return b.BadRequest(errors.ErrInvalidInput, "Invalid request data", result)
	}

	resp, err := b.service.Confirm(ctx, &req)
	if err != nil {
		return b.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// DryRun
// POST /a2a/dry-run
func (b *BookingController) DryRun(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProposeRequest
	if err := c.Bind(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if result := validator.Struct(req); result.HasError() {
		return b.BadRequest(errors.ErrInvalidInput, "Invalid request data", result)
	}

	resp, err := b.service.DryRun(ctx, &req)
	if err != nil {
		return b.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Chat
// POST /chat
func (b *BookingController) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ChatRequest
	if err := c.Bind(&req); err != nil {
		return b.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if result := validator.Struct(req); result.HasError() {
		return b.BadRequest(errors.ErrInvalidInput, "Invalid request data", result)
	}

	resp, err := b.service.Chat(ctx, &req)
	if err != nil {
		return b.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
