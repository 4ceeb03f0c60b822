package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "inventory-system/pkg/errors"
)

type Response[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	Body    T      `json:"body,omitempty"`
}

type ListBody[T any] struct {
	List       []T             `json:"list"`
	Pagination *PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	TotalCount uint64 `json:"total_count"`
	TotalPages int    `json:"total_pages"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

func SuccessOne[T any](c echo.Context, code int, message string, data T) error {
	return c.JSON(code, Response[T]{
		Status:  true,
		Message: message,
		Body:    data,
	})
}

func SuccessList[T any](c echo.Context, message string, list []T, total uint64, page, limit int) error {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + uint64(limit) - 1) / uint64(limit))
	}
	if list == nil {
		list = make([]T, 0)
	}

	return c.JSON(http.StatusOK, Response[ListBody[T]]{
		Status:  true,
		Message: message,
		Body: ListBody[T]{
			List: list,
			Pagination: &PaginationMeta{
				TotalCount: total,
				TotalPages: totalPages,
				Page:       page,
				Limit:      limit,
			},
		},
	})
}

// StatusFor сопоставляет доменную ошибку с HTTP-кодом.
// Исчерпанный повтор при конфликте - это ValidationError, поэтому проверяется раньше ErrConflict.
func StatusFor(err error) (int, string, string) {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErr.Message, ""
	}

	var vErr *apperrors.ValidationError
	if errors.As(err, &vErr) {
		code := http.StatusBadRequest
		if vErr.Reason == apperrors.ReasonConcurrentModification {
			code = http.StatusConflict
		}
		return code, vErr.Message, vErr.Reason
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, e := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("Поле '%s' не прошло проверку '%s'", e.Field(), e.Tag()))
		}
		return http.StatusBadRequest, "Ошибка валидации: " + strings.Join(msgs, "; "), apperrors.ReasonInvalidInput
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, apperrors.ErrNotFound.Error(), ""
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, apperrors.ErrForbidden.Error(), ""
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrEmptyAuthHeader),
		errors.Is(err, apperrors.ErrInvalidAuthHeader),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrTokenIsNotAccess),
		errors.Is(err, apperrors.ErrInvalidSigningMethod),
		errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error(), ""
	case errors.Is(err, apperrors.ErrAccountLocked):
		return http.StatusTooManyRequests, err.Error(), ""
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, apperrors.ErrConflict.Error(), apperrors.ReasonConcurrentModification
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, err.Error(), ""
	}

	// Детали сбоя хранилища наружу не отдаются, они уже в логе.
	return http.StatusInternalServerError, apperrors.ErrInternalServer.Error(), ""
}

func ErrorResponse(c echo.Context, err error) error {
	code, msg, reason := StatusFor(err)
	return c.JSON(code, Response[any]{
		Status:  false,
		Message: msg,
		Reason:  reason,
	})
}
