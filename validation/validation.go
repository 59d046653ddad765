// Package validation wraps go-playground/validator with a shared instance and
// turns field errors into the messages the API returns to clients.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Error lists the fields that failed validation, by their JSON names.
type Error struct {
	Missing []string
	Invalid []string
}

// Error returns a message such as "title and genre are required".
func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		verb := "is"
		if len(e.Missing) > 1 {
			verb = "are"
		}
		parts = append(parts, fmt.Sprintf("%s %s required", joinFields(e.Missing), verb))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid value for %s", joinFields(e.Invalid)))
	}
	return strings.Join(parts, "; ")
}

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct validates s and returns *Error for field failures. Other
// errors (e.g. passing a non-struct) are returned unchanged.
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &Error{}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			out.Missing = append(out.Missing, fe.Field())
		} else {
			out.Invalid = append(out.Invalid, fe.Field())
		}
	}
	return out
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + " and " + fields[len(fields)-1]
	}
}
