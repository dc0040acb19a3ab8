// Package logger owns the process-wide zap logger and the HTTP access
// log middleware. Handlers pull a request-scoped logger out of the
// echo context via FromContext.
package logger

import (
	"time"

	"tenant-service/pkg/config"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader carries the request correlation id on requests,
// responses and the echo context. The request-id middleware populates
// it; this package reads it when tagging log entries.
const RequestIDHeader = "X-Request-ID"

// contextLoggerKey is where Middleware stashes the request-scoped logger.
const contextLoggerKey = "logger"

var log *zap.Logger

// InitLogger builds the global logger: structured JSON in production,
// colored console output everywhere else. The level comes from config
// and falls back to info when unparseable.
func InitLogger(cfg *config.Config) {
	var zc zap.Config
	if cfg.Server.Env == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level.SetLevel(level)

	var err error
	log, err = zc.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	log.Info("Logger initialized", zap.String("level", level.String()))
}

// GetLogger returns the global logger, building a production logger on
// the fly when InitLogger was never called (tests, early startup).
func GetLogger() *zap.Logger {
	if log == nil {
		var err error
		log, err = zap.NewProduction()
		if err != nil {
			panic("Failed to create fallback logger: " + err.Error())
		}
	}
	return log
}

// Middleware attaches a request-scoped logger tagged with the request
// id to the echo context and writes one access-log line per request.
func Middleware(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = c.Response().Header().Get(RequestIDHeader)
			}

			reqLog := logger.With(zap.String("request_id", requestID))
			c.Set(contextLoggerKey, reqLog)

			err := next(c)

			fields := []zapcore.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
				zap.String("user_agent", c.Request().UserAgent()),
			}
			if err != nil {
				reqLog.Error("HTTP request failed", append(fields, zap.Error(err))...)
			} else {
				reqLog.Info("HTTP request completed", fields...)
			}

			return err
		}
	}
}
