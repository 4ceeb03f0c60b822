package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/pkg/contextkeys"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger присваивает запросу id (или берет присланный) и пишет строку access-лога.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(requestIDHeader, reqID)
			c.SetRequest(c.Request().WithContext(context.WithValue(c.Request().Context(), contextkeys.RequestIDKey, reqID)))
			c.Set("logger", logger.With(zap.String("request_id", reqID)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("HTTP",
				zap.String("request_id", reqID),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			)
			return nil
		}
	}
}
