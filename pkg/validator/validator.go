// Package validator wraps go-playground/validator with JSON field names and
// structured errors.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Errors []FieldError

func (e Errors) Error() string {
	messages := make([]string, 0, len(e))
	for _, fe := range e {
		messages = append(messages, fe.Message)
	}
	return strings.Join(messages, "; ")
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	// subdomain: a single lowercase DNS label.
	_ = v.RegisterValidation("subdomain", func(fl validator.FieldLevel) bool {
		return subdomainPattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates i and returns Errors on rule failures.
func (v *Validator) Struct(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			out := make(Errors, 0, len(validationErrs))
			for _, fe := range validationErrs {
				out = append(out, toFieldError(fe.Field(), fe))
			}
			return out
		}
		return err
	}
	return nil
}

// Map validates a flat row against per-key rules such as
// {"name": "required", "email": "omitempty,email"}. Errors are sorted by
// field.
func (v *Validator) Map(data map[string]any, rules map[string]string) Errors {
	converted := make(map[string]any, len(rules))
	for k, r := range rules {
		converted[k] = r
	}
	// ValidateMap skips rules whose key is absent, so required keys are
	// filled with the zero value first.
	row := make(map[string]any, len(data)+len(rules))
	for k, val := range data {
		row[k] = val
	}
	for k := range rules {
		if _, ok := row[k]; !ok {
			row[k] = ""
		}
	}

	failed := v.validate.ValidateMap(row, converted)
	if len(failed) == 0 {
		return nil
	}

	keys := make([]string, 0, len(failed))
	for k := range failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Errors, 0, len(keys))
	for _, k := range keys {
		var validationErrs validator.ValidationErrors
		if err, ok := failed[k].(error); ok && errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			out = append(out, toFieldError(k, validationErrs[0]))
			continue
		}
		out = append(out, FieldError{Field: k, Code: "invalid", Message: fmt.Sprintf("%s is invalid", k)})
	}
	return out
}

func toFieldError(field string, err validator.FieldError) FieldError {
	var message string
	switch err.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "email":
		message = fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		message = fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "max":
		message = fmt.Sprintf("%s must be at most %s", field, err.Param())
	case "gte":
		message = fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
	case "lte":
		message = fmt.Sprintf("%s must be less than or equal to %s", field, err.Param())
	case "oneof", "oneofci":
		message = fmt.Sprintf("%s must be one of [%s]", field, err.Param())
	case "numeric", "number":
		message = fmt.Sprintf("%s must be a number", field)
	case "subdomain":
		message = fmt.Sprintf("%s must be a lowercase subdomain label", field)
	default:
		message = fmt.Sprintf("%s failed validation for %s", field, err.Tag())
	}
	return FieldError{Field: field, Code: err.Tag(), Message: message}
}
