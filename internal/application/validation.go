package application

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	inputValidatorOnce sync.Once
	inputValidatorInst *validator.Validate

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

func inputValidator() *validator.Validate {
	inputValidatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
		inputValidatorInst = v
	})
	return inputValidatorInst
}

// validateInput runs struct tag validation and converts failures into field errors
// keyed by the JSON field name.
func validateInput(input any) *ValidationError {
	vErr := &ValidationError{}

	err := inputValidator().Struct(input)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("input", "input is invalid")
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fieldPath(fe), fieldMessage(fe))
	}
	return vErr
}

// fieldPath drops the root struct name from the namespace so that slice
// elements read as "features[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "username":
		return fmt.Sprintf("%s may only contain letters, digits, dots, dashes and underscores", name)
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be %s %s characters", name, bound, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("%s must contain %s %s items", name, bound, fe.Param())
		default:
			return fmt.Sprintf("%s must be %s %s", name, bound, fe.Param())
		}
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}
