package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FromContext returns the request-scoped logger set by Middleware.
// When the middleware did not run it falls back to the global logger
// tagged with whatever request id the context or headers carry.
func FromContext(c echo.Context) *zap.Logger {
	if reqLog, ok := c.Get(contextLoggerKey).(*zap.Logger); ok {
		return reqLog
	}

	requestID, ok := c.Get(RequestIDHeader).(string)
	if !ok {
		requestID = c.Request().Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = "unknown"
		}
	}
	return GetLogger().With(zap.String("request_id", requestID))
}
