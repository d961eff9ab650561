package router

import (
	"go-booking-agent/modules/booking/controller"

	"github.com/labstack/echo/v4"
)

type BookingRouter struct {
	Controller *controller.BookingController
}

func NewBookingRouter(ctrl *controller.BookingController) *BookingRouter {
	return &BookingRouter{Controller: ctrl}
}

func (r *BookingRouter) Setup(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.GET("/health", r.Controller.Health)

	a2a := e.Group("/a2a", mw...)
	a2a.POST("/plan", r.Controller.Propose)
	a2a.POST("/confirm", r.Controller.Confirm)
	a2a.POST("/dry-run", r.Controller.DryRun)

	e.POST("/chat", r.Controller.Chat, mw...)
}
