package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/utils"
)

const ReaderKeyHeader = "X-Reader-Key"

// ReaderKey пускает к приему сканов только антенны с общим ключом.
func ReaderKey(key string, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}
			got := c.Request().Header.Get(ReaderKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				logger.Warn("ReaderKey: неверный ключ антенны", zap.String("remote", c.RealIP()))
				return utils.ErrorResponse(c, apperrors.ErrUnauthorized, logger)
			}
			return next(c)
		}
	}
}
