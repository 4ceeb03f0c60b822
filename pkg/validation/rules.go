package validation

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"inventory-system/pkg/constants"
	"inventory-system/pkg/types"
)

var tagHexRegex = regexp.MustCompile(`^[0-9A-Fa-f]{4}$`)

// registerRules регистрирует теги, которые используются в DTO.
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("date", isCalendarDate); err != nil {
		return err
	}
	if err := v.RegisterValidation("tag_hex", isTagHex); err != nil {
		return err
	}
	if err := v.RegisterValidation("namespace", isTagNamespace); err != nil {
		return err
	}
	return nil
}

// isCalendarDate - YYYY-MM-DD без времени и часового пояса.
func isCalendarDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(types.DateLayout, fl.Field().String())
	return err == nil
}

// isTagHex - ровно 4 hex-символа.
func isTagHex(fl validator.FieldLevel) bool {
	return tagHexRegex.MatchString(fl.Field().String())
}

func isTagNamespace(fl validator.FieldLevel) bool {
	_, ok := constants.TagNamespace(fl.Field().String()).Range()
	return ok
}
