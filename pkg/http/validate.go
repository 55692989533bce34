package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ReadAndValidateRequest binds req from query, path and body, fills defaults
// and validates it. It returns nil on success, otherwise a []ValidationError.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, fieldError(fe))
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

func fieldError(fe validator.FieldError) ValidationError {
	ve := ValidationError{
		Code:  "ERR_" + strings.ToUpper(fe.Tag()),
		Field: fe.Field(),
	}
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		ve.Message = fe.Field() + " is required"
	case "min", "gte":
		ve.Message = fmt.Sprintf("%s must be at least %s%s", fe.Field(), fe.Param(), unit)
		ve.Params = map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		ve.Message = fmt.Sprintf("%s must be at most %s%s", fe.Field(), fe.Param(), unit)
		ve.Params = map[string]interface{}{"max": fe.Param()}
	default:
		ve.Message = fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
	return ve
}
