package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"go-booking-agent/core/constants"
	"go-booking-agent/core/controller"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Middleware struct {
	toolKey  string
	rps      rate.Limit
	burst    int
	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Option func(*Middleware)

// WithToolKey sets the shared secret checked by ToolKeyMiddleware. Empty
// disables the check.
func WithToolKey(key string) Option {
	return func(m *Middleware) { m.toolKey = key }
}

// WithRateLimit sets the per-client budget. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(m *Middleware) {
		m.rps = rate.Limit(rps)
		m.burst = burst
	}
}

func NewMiddleware(opts ...Option) *Middleware {
	m := &Middleware{visitors: make(map[string]*visitor)}
	for _, opt := range opts {
		opt(m)
	}
	if m.burst <= 0 {
		m.burst = 1
	}
	return m
}

// RequestIDMiddleware reuses the caller's X-Request-ID or assigns a new one.
func (m *Middleware) RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(constants.HeaderRequestID))
			if id == "" {
				id = uuid.NewString()
			}
			c.Set("request_id", id)
			c.Response().Header().Set(constants.HeaderRequestID, id)
			return next(c)
		}
	}
}

func (m *Middleware) ToolKeyMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.toolKey == "" {
				return next(c)
			}
			got := c.Request().Header.Get(constants.HeaderToolKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(m.toolKey)) != 1 {
				logger.Warn("Middleware:ToolKey:Rejected", "ip", c.RealIP(), "path", c.Path())
				return controller.NewBaseController().Unauthorized(errors.ErrUnauthorized, "Bad tool key")
			}
			return next(c)
		}
	}
}

func (m *Middleware) RateLimitMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.rps <= 0 {
				return next(c)
			}
			ip := c.RealIP()
			if !m.limiter(ip).Allow() {
				logger.Warn("Middleware:RateLimit:Exceeded", "ip", ip)
				return controller.NewErrorResponse(http.StatusTooManyRequests, errors.ErrRateLimited, "Rate limit exceeded. Try again later.")
			}
			return next(c)
		}
	}
}

func (m *Middleware) limiter(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	v, ok := m.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.rps, m.burst)}
		m.visitors[ip] = v
	}
	v.lastSeen = now

	// Sweep stale visitors once the map grows.
	if len(m.visitors) > 1024 {
		for k, old := range m.visitors {
			if now.Sub(old.lastSeen) > 3*time.Minute {
				delete(m.visitors, k)
			}
		}
	}
	return v.limiter
}
