package booking

import (
	"go-booking-agent/core/cache"
	"go-booking-agent/core/completion"
	"go-booking-agent/core/config"
	"go-booking-agent/core/logger"
	"go-booking-agent/core/middleware"
	"go-booking-agent/core/token"
	"go-booking-agent/core/toolcall"
	agentService "go-booking-agent/modules/agent/service"
	"go-booking-agent/modules/booking/controller"
	"go-booking-agent/modules/booking/router"
	"go-booking-agent/modules/booking/service"

	"github.com/labstack/echo/v4"
)

// Init wires the host API. store may be nil; single-use tokens then stay off.
func Init(e *echo.Echo, cfg *config.Config, llm completion.Provider, store cache.Cache) *service.Orchestrator {
	deps := service.Deps{
		Planner:         agentService.NewPlanner(llm),
		Scheduler:       agentService.NewScheduler(llm),
		Calendar:        service.NewToolCalendar(toolcall.NewClient(cfg.Tools)),
		Codec:           token.NewCodec(cfg.Security.SigningKey),
		Assistant:       agentService.NewAssistant(llm),
		TokenTTL:        cfg.Security.ConfirmTokenTTL,
		DefaultTimeZone: cfg.App.DefaultTimeZone,
	}
	if cfg.Security.TokenSingleUse {
		if store == nil {
			logger.Warn("Booking:Init:SingleUseWithoutCache", "hint", "set REDIS_ENABLED=true")
		} else {
			deps.Guard = token.NewRedemptionGuard(store)
		}
	}

	orchestrator := service.NewOrchestrator(deps)
	mw := middleware.NewMiddleware(middleware.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	e.Use(mw.RequestIDMiddleware())

	ctrl := controller.NewBookingController(orchestrator)
	router.NewBookingRouter(ctrl).Setup(e, mw.RateLimitMiddleware())
	return orchestrator
}
