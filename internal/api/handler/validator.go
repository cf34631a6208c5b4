package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ruleMessages renders a failed tag; %[1]s is the field, %[2]s the tag param.
var ruleMessages = map[string]string{
	"required": "%[1]s is required",
	"email":    "%[1]s must be a valid email",
	"url":      "%[1]s must be a valid URL",
	"min":      "%[1]s must have at least %[2]s characters or items",
	"max":      "%[1]s must have at most %[2]s characters or items",
	"gte":      "%[1]s must be at least %[2]s",
	"lte":      "%[1]s must be at most %[2]s",
	"gt":       "%[1]s must be greater than %[2]s",
	"oneof":    "%[1]s must be one of [%[2]s]",
	"dive":     "%[1]s contains an invalid entry",
}

// requestValidator plugs validator/v10 into echo's c.Validate.
type requestValidator struct {
	validate *validator.Validate
}

// NewValidator returns the echo.Validator used by the router. Messages name
// fields by their json key.
func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &requestValidator{validate: v}
}

func (rv *requestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = describe(fe)
	}
	return errors.New(strings.Join(msgs, "; "))
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	if field == "" {
		field = strings.ToLower(fe.StructField())
	}
	if format, ok := ruleMessages[fe.Tag()]; ok {
		return fmt.Sprintf(format, field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}
