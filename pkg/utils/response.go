package utils

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/pkg/api"
)

// ErrorResponse пишет ответ об ошибке. Пятисотые логируются с полной причиной,
// клиенту уходит только общее сообщение.
func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	code, _, _ := api.StatusFor(err)
	if code >= http.StatusInternalServerError && logger != nil {
		logger.Error("Необработанная ошибка",
			zap.String("path", c.Path()),
			zap.String("method", c.Request().Method),
			zap.Error(err),
		)
	}
	return api.ErrorResponse(c, err)
}
