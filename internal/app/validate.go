package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"printshop/internal/core"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report JSON field names rather than Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// validateRequest runs struct validation and converts the first failure into a
// *core.ValidationError.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return fmt.Errorf("validate request: %w", err)
	}
	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return core.Invalid(field, "is required")
	case "gt":
		return core.Invalid(field, "must be greater than %s", fe.Param())
	case "gte", "min":
		return core.Invalid(field, "must be at least %s", fe.Param())
	case "max":
		return core.Invalid(field, "must be at most %s", fe.Param())
	case "email":
		return core.Invalid(field, "must be a valid email address")
	case "oneof":
		return core.Invalid(field, "must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return core.Invalid(field, "must be a date in YYYY-MM-DD form")
	default:
		return core.Invalid(field, "failed %s validation", fe.Tag())
	}
}

// parseDate parses an optional YYYY-MM-DD value. Empty input yields nil.
func parseDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, core.Invalid("date", "must be a date in YYYY-MM-DD form")
	}
	return &t, nil
}
