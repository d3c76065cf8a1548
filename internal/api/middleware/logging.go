package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// slowRequestThreshold marks requests logged at WARN
const slowRequestThreshold = time.Second

// redactedQueryParams never reach the access log
var redactedQueryParams = []string{"access_token"}

// LoggingConfig configures the access log middleware
type LoggingConfig struct {
	AccessLogger *zerolog.Logger // defaults to the global logger
	SkipRoutes   []string        // route templates not logged, e.g. /health
}

// Logging writes one access log line per request. Lines carry the route
// template and the stock code so they can be grouped per endpoint.
func Logging(cfg LoggingConfig) gin.HandlerFunc {
	logger := log.Logger
	if cfg.AccessLogger != nil {
		logger = *cfg.AccessLogger
	}

	skip := make(map[string]struct{}, len(cfg.SkipRoutes))
	for _, route := range cfg.SkipRoutes {
		skip[route] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.FullPath()]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		event := accessEvent(logger, status).
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("route", routeOf(c)).
			Str("path", loggedPath(c.Request.URL)).
			Int("status", status).
			Int64("duration_ms", duration.Milliseconds()).
			Int("response_size", c.Writer.Size()).
			Str("ip", c.ClientIP())

		if code := c.Param("code"); code != "" {
			event = event.Str("stock_code", code)
		}
		if subject := GetSubject(c); subject != "" {
			event = event.Str("subject", subject)
		}
		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("← Request completed")

		if duration > slowRequestThreshold && status != http.StatusSwitchingProtocols {
			log.Warn().
				Str("request_id", GetRequestID(c)).
				Str("route", routeOf(c)).
				Int64("duration_ms", duration.Milliseconds()).
				Msg("⚠️  Slow request detected")
		}
	}
}

func accessEvent(logger zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return logger.Error()
	case status >= http.StatusBadRequest:
		return logger.Warn()
	default:
		return logger.Info()
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func loggedPath(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}

	query := u.Query()
	for _, key := range redactedQueryParams {
		if query.Has(key) {
			query.Set(key, "REDACTED")
		}
	}
	return u.Path + "?" + query.Encode()
}

// Recovery turns a handler panic into a 500 error envelope
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(c)

				log.Error().
					Str("request_id", requestID).
					Str("method", c.Request.Method).
					Str("route", routeOf(c)).
					Interface("panic", err).
					Msg("🚨 Panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"code":       "INTERNAL_SERVER_ERROR",
						"message":    "Internal server error",
						"request_id": requestID,
						"timestamp":  time.Now(),
					},
				})
			}
		}()

		c.Next()
	}
}
