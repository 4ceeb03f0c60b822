package validation

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator - обертка для echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New паникует, если правило не зарегистрировалось: сервер без валидации стартовать не должен.
func New() *CustomValidator {
	v := validator.New()
	registerNullTypes(v)
	if err := registerRules(v); err != nil {
		panic("ошибка регистрации валидаторов: " + err.Error())
	}
	return &CustomValidator{validator: v}
}
