package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var (
	errMalformedBody = errors.New("malformed JSON body")

	validate = newValidator()

	indexPattern   = regexp.MustCompile(`\[(\d+)\]`)
	numericSegment = regexp.MustCompile(`\.\d+\.`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// messager lets a request override messages, keyed "field.tag" with list indexes
// written as "*".
type messager interface {
	messages() map[string]string
}

// decodeJSON reads the body into dst and validates it. A non-nil validationError
// means the input was rejected field by field.
func decodeJSON(r *http.Request, dst any) (*validationError, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return validateStruct(dst), nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return fieldError(typeErr.Field, fmt.Sprintf("The %s field has an invalid type.", attribute(typeErr.Field))), nil
		}
		return nil, errMalformedBody
	}
	return validateStruct(dst), nil
}

func validateStruct(v any) *validationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fieldError("body", err.Error())
	}

	custom := map[string]string{}
	if m, ok := v.(messager); ok {
		custom = m.messages()
	}

	out := newValidationError()
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		if fe.Tag() == "eqfield" {
			field = strings.TrimSuffix(field, "_confirmation")
		}
		msg, ok := custom[wildcard(field)+"."+fe.Tag()]
		if !ok {
			msg = defaultMessage(field, fe)
		}
		out.Add(field, msg)
	}
	return out
}

// fieldPath turns "orderRequest.items[0].product_id" into "items.0.product_id".
func fieldPath(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		rest = namespace
	}
	return indexPattern.ReplaceAllString(rest, ".$1")
}

func wildcard(field string) string {
	field = "." + field + "."
	for numericSegment.MatchString(field) {
		field = numericSegment.ReplaceAllString(field, ".*.")
	}
	return strings.Trim(field, ".")
}

// attribute is the human name of the last path segment.
func attribute(field string) string {
	if i := strings.LastIndex(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return strings.ReplaceAll(field, "_", " ")
}

func defaultMessage(field string, fe validator.FieldError) string {
	name := attribute(field)
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", name)
	case "min", "gte":
		if isString {
			return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("The %s field must have at least %s items.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	case "max", "lte":
		if isString {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", name, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}
