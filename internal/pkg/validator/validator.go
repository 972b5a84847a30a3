package validator

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate checks struct tags on configuration and threshold values.
func Validate(s interface{}) error {
	return validate.Struct(s)
}
