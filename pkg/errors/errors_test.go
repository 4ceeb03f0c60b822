package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapStorage(t *testing.T) {
	assert.NoError(t, WrapStorage("op", nil))

	for _, code := range []string{"23505", "40001", "40P01"} {
		err := WrapStorage("вставка", &pgconn.PgError{Code: code})
		assert.True(t, IsConflict(err), "код %s", code)
	}

	fk := WrapStorage("вставка", &pgconn.PgError{Code: "23503"})
	assert.False(t, IsConflict(fk))
	var sErr *StorageError
	assert.True(t, errors.As(fk, &sErr))
	assert.Equal(t, "вставка", sErr.Op)

	assert.ErrorIs(t, WrapStorage("поиск", fmt.Errorf("строка: %w", ErrNotFound)), ErrNotFound)

	vErr := NewValidationError(ReasonModelInUse, "занято")
	assert.Same(t, vErr, WrapStorage("удаление", vErr))

	// повторная обертка не вкладывает StorageError в StorageError
	assert.Same(t, fk, WrapStorage("внешняя", fk))
}

func TestIsValidation(t *testing.T) {
	reason, ok := IsValidation(fmt.Errorf("контекст: %w", NewInvalidInputError("плохо %d", 1)))
	assert.True(t, ok)
	assert.Equal(t, ReasonInvalidInput, reason)

	_, ok = IsValidation(ErrNotFound)
	assert.False(t, ok)

	exhausted := &ValidationError{Reason: ReasonConcurrentModification, Message: "повторите", Err: ErrConflict}
	assert.True(t, IsConflict(exhausted))
}
