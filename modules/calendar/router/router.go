package router

import (
	"go-booking-agent/core/middleware"
	"go-booking-agent/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	e.GET("/health", r.controller.Health)

	tools := e.Group("/tools")
	tools.GET("/list", r.controller.ListTools)
	tools.POST("/call", r.controller.CallTool, mw.ToolKeyMiddleware())

	oauth := e.Group("/oauth", mw.RateLimitMiddleware())
	oauth.GET("/start", r.controller.OAuthStart)
	oauth.GET("/callback", r.controller.OAuthCallback)
}
