package controller

import (
	"net/http"

	"go-booking-agent/core/controller"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/validator"
	"go-booking-agent/modules/calendar/dto"
	"go-booking-agent/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	controller.BaseController
	tools *service.ToolRegistry
	oauth *service.OAuthService
}

func NewCalendarController(tools *service.ToolRegistry, oauth *service.OAuthService) *CalendarController {
	return &CalendarController{
		BaseController: controller.NewBaseController(),
		tools:          tools,
		oauth:          oauth,
	}
}

// Health
// GET /health
func (c *CalendarController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// ListTools returns every tool with its input schema
// GET /tools/list
func (c *CalendarController) ListTools(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, dto.ToolListResponse{Tools: c.tools.List()})
}

// CallTool runs one tool
// POST /tools/call
func (c *CalendarController) CallTool(ctx echo.Context) error {
	var req dto.ToolCallRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if result := validator.Struct(req); result.HasError() {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request data", result)
	}

	content, err := c.tools.Call(ctx.Request().Context(), req.Name, req.Arguments)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, dto.ToolCallResponse{Content: content})
}

// OAuthStart redirects to Google's consent screen
// GET /oauth/start
func (c *CalendarController) OAuthStart(ctx echo.Context) error {
	url, err := c.oauth.AuthURL()
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.Redirect(http.StatusTemporaryRedirect, url)
}

// OAuthCallback exchanges the authorization code for a refresh token
// GET /oauth/callback?code=...&state=...
func (c *CalendarController) OAuthCallback(ctx echo.Context) error {
	resp, err := c.oauth.Callback(ctx.Request().Context(), ctx.QueryParam("code"), ctx.QueryParam("state"))
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, resp)
}
