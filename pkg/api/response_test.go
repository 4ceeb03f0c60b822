package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "inventory-system/pkg/errors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		reason string
	}{
		{"валидация", apperrors.NewValidationError(apperrors.ReasonQuantityExceeds, "мало"), http.StatusBadRequest, apperrors.ReasonQuantityExceeds},
		{"исчерпан повтор", &apperrors.ValidationError{Reason: apperrors.ReasonConcurrentModification, Err: apperrors.ErrConflict}, http.StatusConflict, apperrors.ReasonConcurrentModification},
		{"конфликт", fmt.Errorf("вставка: %w", apperrors.ErrConflict), http.StatusConflict, apperrors.ReasonConcurrentModification},
		{"не найдено", fmt.Errorf("бронь: %w", apperrors.ErrNotFound), http.StatusNotFound, ""},
		{"запрещено", apperrors.ErrForbidden, http.StatusForbidden, ""},
		{"просрочен токен", apperrors.ErrTokenExpired, http.StatusUnauthorized, ""},
		{"неверный пароль", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{"блокировка входа", apperrors.ErrAccountLocked, http.StatusTooManyRequests, ""},
		{"http", apperrors.NewHttpError(http.StatusBadRequest, "плохой id", nil, nil), http.StatusBadRequest, ""},
		{"хранилище", &apperrors.StorageError{Op: "select", Err: errors.New("connection reset")}, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, reason := StatusFor(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.reason, reason)
		})
	}

	_, msg, _ := StatusFor(&apperrors.StorageError{Op: "select", Err: errors.New("password=secret")})
	assert.NotContains(t, msg, "secret")
}

func TestSuccessList(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, SuccessList[int](c, "ok", nil, 21, 2, 10))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body Response[ListBody[int]]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Status)
	assert.NotNil(t, body.Body.List)
	assert.Empty(t, body.Body.List)
	assert.Equal(t, 3, body.Body.Pagination.TotalPages)
	assert.Equal(t, uint64(21), body.Body.Pagination.TotalCount)
}
