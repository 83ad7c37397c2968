package core

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name so errors line up with the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the struct-tag rules of s and converts the first
// failure into a *ValidationError.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &ValidationError{
		Field:  fe.Field(),
		Reason: reasonForTag(fe.Tag()),
		Value:  valueString(fe.Value()),
	}
}

func reasonForTag(tag string) Reason {
	switch tag {
	case "required":
		return ReasonMissing
	case "max":
		return ReasonTooLong
	case "oneof":
		return ReasonUnknownValue
	default:
		return ReasonMalformed
	}
}

func valueString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if s, ok := v.(RawAmount); ok {
		return string(s)
	}
	return ""
}
