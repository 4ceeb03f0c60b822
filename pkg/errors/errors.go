package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")
	ErrInvalidCredentials = fmt.Errorf("неверный email или пароль")
	ErrAccountLocked      = fmt.Errorf("слишком много попыток входа, попробуйте позже")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")

	// Общие
	ErrNotFound       = fmt.Errorf("запись не найдена")
	ErrBadRequest     = fmt.Errorf("неверный запрос")
	ErrInternalServer = fmt.Errorf("внутренняя ошибка сервера")

	// Конкурентный доступ: уникальный индекс, сериализация или дедлок на коммите.
	ErrConflict = fmt.Errorf("конфликт параллельного изменения данных")
)

// Коды причин ValidationError. Совпадают с полем reason в ответе API.
const (
	ReasonNoLines                = "NO_LINES"
	ReasonUnknownModel           = "UNKNOWN_MODEL"
	ReasonTypeMismatch           = "TYPE_MISMATCH"
	ReasonInvalidQuantity        = "INVALID_QUANTITY"
	ReasonQuantityExceeds        = "QUANTITY_EXCEEDS_AVAILABLE"
	ReasonUserCapExceeded        = "USER_CAP_EXCEEDED"
	ReasonTagNamespaceExhausted  = "TAG_NAMESPACE_EXHAUSTED"
	ReasonInvalidDateRange       = "INVALID_DATE_RANGE"
	ReasonInvalidTransition      = "INVALID_TRANSITION"
	ReasonInvalidTag             = "INVALID_TAG"
	ReasonModelInUse             = "MODEL_IN_USE"
	ReasonInvalidInput           = "INVALID_INPUT"
	ReasonConcurrentModification = "CONCURRENT_MODIFICATION"
)

// ValidationError - ошибка, которую может исправить вызывающая сторона.
// Никогда не ретраится автоматически.
type ValidationError struct {
	Reason  string
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidationError(reason string, format string, args ...interface{}) error {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidInputError оставлен для проверок формата входных данных.
func NewInvalidInputError(format string, args ...interface{}) error {
	return NewValidationError(ReasonInvalidInput, format, args...)
}

// IsValidation сообщает, является ли ошибка ValidationError, и возвращает её причину.
func IsValidation(err error) (string, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Reason, true
	}
	return "", false
}

// StorageError - сбой хранилища, не восстанавливаемый на уровне ядра.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Коды PostgreSQL, которые означают гонку, а не поломку.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// WrapStorage превращает ошибку драйвера в ErrConflict или StorageError.
// ErrNotFound и уже классифицированные ошибки пропускаются как есть.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	var sErr *StorageError
	if errors.As(err, &sErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%s: %w (%s)", op, ErrConflict, pgErr.Code)
		}
	}
	return &StorageError{Op: op, Err: err}
}

// IsConflict - true для гонок, которые имеет смысл повторить.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// HttpError - ошибка транспортного слоя с кодом ответа.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}
