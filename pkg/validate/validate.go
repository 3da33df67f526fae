package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("cover", validateCover) //nolint:errcheck
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func validateCover(fl validator.FieldLevel) bool {
	switch strings.ToUpper(fl.Field().String()) {
	case "HARD", "SOFT":
		return true
	}
	return false
}
