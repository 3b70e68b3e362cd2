package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys read by the access logger. requestIDGinKey is populated by
// the request id middleware and userIDGinKey by the JWT middleware, so every
// access line can be tied back to a request and the account that made it.
const (
	requestIDGinKey = "request_id"
	userIDGinKey    = "jwt_user_id"
	loggerGinKey    = "logger"
)

// GinMiddleware emits one access log line per HTTP request and seeds a
// request-scoped logger into the gin context for handlers to pick up via
// GetGinLogger. 4xx responses log at warn, 5xx at error.
func GinMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		reqLogger := logger.With(
			zap.String("request_id", c.GetString(requestIDGinKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		)
		c.Set(loggerGinKey, reqLogger)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if userID := c.GetString(userIDGinKey); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		msg := "HTTP Request"
		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error(msg, fields...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn(msg, fields...)
		default:
			reqLogger.Info(msg, fields...)
		}
	}
}

// Recovery converts a handler panic into a logged 500 response. The request
// keeps its correlation id in the panic log so the failing call can be found
// in the access log.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.String("request_id", c.GetString(requestIDGinKey)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// GetGinLogger returns the request-scoped logger seeded by GinMiddleware,
// or a no-op logger when the middleware did not run.
func GetGinLogger(c *gin.Context) *zap.Logger {
	if logger, exists := c.Get(loggerGinKey); exists {
		if l, ok := logger.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
