package calendar

import (
	"go-booking-agent/core/cache"
	"go-booking-agent/core/config"
	"go-booking-agent/core/middleware"
	"go-booking-agent/modules/calendar/controller"
	"go-booking-agent/modules/calendar/router"
	"go-booking-agent/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

// NewTools builds the calendar tool registry shared by the HTTP and MCP
// transports. store may be nil.
func NewTools(cfg *config.Config, store cache.Cache, opts ...service.OAuthOption) (*service.ToolRegistry, *service.OAuthService, error) {
	oauthSvc := service.NewOAuthService(cfg.GoogleAPI, store, opts...)
	calendarSvc := service.NewCalendarService(cfg.GoogleAPI, oauthSvc)
	registry, err := service.NewToolRegistry(calendarSvc)
	if err != nil {
		return nil, nil, err
	}
	return registry, oauthSvc, nil
}

func Init(e *echo.Echo, cfg *config.Config, store cache.Cache, opts ...service.OAuthOption) error {
	registry, oauthSvc, err := NewTools(cfg, store, opts...)
	if err != nil {
		return err
	}

	mw := middleware.NewMiddleware(
		middleware.WithToolKey(cfg.Tools.Key),
		middleware.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	)
	e.Use(mw.RequestIDMiddleware())

	calendarController := controller.NewCalendarController(registry, oauthSvc)
	router.NewCalendarRouter(calendarController).Setup(e, mw)
	return nil
}
