package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/types"
)

// requestTimeout - секунды на один запрос к ядру.
const requestTimeout = 10

func parseIDParam(ctx echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный формат ID",
			err,
			map[string]interface{}{"param": ctx.Param(name)},
		)
	}
	return id, nil
}

func parseDates(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(types.DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidationError(apperrors.ReasonInvalidDateRange, "Неверная дата начала %q", start)
	}
	e, err := time.Parse(types.DateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.NewValidationError(apperrors.ReasonInvalidDateRange, "Неверная дата окончания %q", end)
	}
	return s, e, nil
}

// bindAndValidate - Bind + Validate с единым ответом на ошибку формата.
func bindAndValidate(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil)
	}
	return ctx.Validate(payload)
}
