// SPDX-License-Identifier: Apache-2.0

package playground

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

func (o options) message(fe validator.FieldError) string {
	if fn, ok := o.messages[fe.Tag()]; ok {
		return fn(fe)
	}
	return DefaultMessage(fe)
}

// DefaultMessage renders the built-in message for a failed rule.
func DefaultMessage(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "Required"
	case "min":
		return sized(fe.Kind(), "at least", p)
	case "max":
		return sized(fe.Kind(), "at most", p)
	case "len":
		return sized(fe.Kind(), "exactly", p)
	case "gt":
		return fmt.Sprintf("Number must be greater than %s", p)
	case "gte":
		return fmt.Sprintf("Number must be greater than or equal to %s", p)
	case "lt":
		return fmt.Sprintf("Number must be less than %s", p)
	case "lte":
		return fmt.Sprintf("Number must be less than or equal to %s", p)
	case "email":
		return "Invalid email"
	case "url", "http_url":
		return "Invalid url"
	case "uuid", "uuid4", "uuid_rfc4122":
		return "Invalid uuid"
	case "oneof":
		return fmt.Sprintf("Invalid enum value. Expected one of: %s", p)
	case "eqfield":
		return fmt.Sprintf("Must match %s", p)
	default:
		return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
	}
}

func sized(kind reflect.Kind, bound, p string) string {
	switch kind {
	case reflect.String:
		return fmt.Sprintf("String must contain %s %s character(s)", bound, p)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("Array must contain %s %s element(s)", bound, p)
	default:
		switch bound {
		case "at least":
			return fmt.Sprintf("Number must be greater than or equal to %s", p)
		case "at most":
			return fmt.Sprintf("Number must be less than or equal to %s", p)
		default:
			return fmt.Sprintf("Number must be exactly %s", p)
		}
	}
}
