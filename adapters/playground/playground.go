// SPDX-License-Identifier: Apache-2.0

// Package playground adapts go-playground/validator struct tags to the
// safeaction [safeaction.Schema] interface.
//
// Input is decoded into the target type through its JSON form, so both
// already-typed values and generic decoded JSON (map[string]any) are
// accepted. Issue paths use JSON field names.
//
//	type SignUp struct {
//	    Username string `json:"username" validate:"required,min=3"`
//	    Email    string `json:"email" validate:"required,email"`
//	}
//
//	client := safeaction.InputSchema(base, playground.Struct[SignUp]())
package playground

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sam-fredrickson/safeaction"
)

// A MessageFunc renders a failed rule as a client-facing message.
type MessageFunc func(fe validator.FieldError) string

// Option configures a schema.
type Option func(*options)

type options struct {
	validate *validator.Validate
	messages map[string]MessageFunc
}

// WithValidate uses v instead of the package validator, for example to
// register custom rules. Register a JSON tag name function on v so that
// issue paths use JSON names.
func WithValidate(v *validator.Validate) Option {
	return func(o *options) {
		o.validate = v
	}
}

// WithMessages overrides the message for the given rule tags.
func WithMessages(messages map[string]MessageFunc) Option {
	return func(o *options) {
		for tag, fn := range messages {
			o.messages[tag] = fn
		}
	}
}

var defaultValidate = NewValidate()

// NewValidate returns a validator configured the way the adapter expects:
// required structs enabled and JSON field names in error namespaces.
func NewValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonTagName)
	return v
}

func jsonTagName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

func buildOptions(opts []Option) options {
	o := options{validate: defaultValidate, messages: map[string]MessageFunc{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Struct returns a schema validating a T's struct tags.
func Struct[T any](opts ...Option) safeaction.Schema[T] {
	return structSchema[T]{opts: buildOptions(opts)}
}

type structSchema[T any] struct {
	opts options
}

func (s structSchema[T]) Validate(ctx context.Context, data any) (T, []safeaction.Issue, error) {
	value, issues := decode[T](data)
	if len(issues) > 0 {
		var zero T
		return zero, issues, nil
	}
	if err := s.opts.validate.StructCtx(ctx, value); err != nil {
		var zero T
		issues, err := s.opts.report(value, err, true)
		return zero, issues, err
	}
	return value, nil, nil
}

// Var returns a schema validating a single value against tag, such as
// "required,uuid" or "gt=0". Issues are attached to the root.
func Var[T any](tag string, opts ...Option) safeaction.Schema[T] {
	return varSchema[T]{tag: tag, opts: buildOptions(opts)}
}

type varSchema[T any] struct {
	tag  string
	opts options
}

func (s varSchema[T]) Validate(ctx context.Context, data any) (T, []safeaction.Issue, error) {
	value, issues := decode[T](data)
	if len(issues) > 0 {
		var zero T
		return zero, issues, nil
	}
	if err := s.opts.validate.VarCtx(ctx, value, s.tag); err != nil {
		var zero T
		issues, err := s.opts.report(value, err, false)
		return zero, issues, err
	}
	return value, nil, nil
}

func (o options) report(value any, err error, withPath bool) ([]safeaction.Issue, error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate %T: %w", value, err)
	}
	issues := make([]safeaction.Issue, 0, len(verrs))
	for _, fe := range verrs {
		issue := safeaction.Issue{Message: o.message(fe)}
		if withPath {
			issue.Path = namespacePath(fe.Namespace())
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// decode converts data into a T, through JSON when it is not a T already.
func decode[T any](data any) (T, []safeaction.Issue) {
	var result T
	if v, ok := data.(T); ok {
		return v, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return result, []safeaction.Issue{{Message: "Invalid input"}}
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			issue := safeaction.Issue{
				Message: fmt.Sprintf("Expected %s, received %s", typeName(typeErr.Type), typeErr.Value),
			}
			if typeErr.Field != "" {
				issue.Path = namespacePath("." + typeErr.Field)
			}
			return result, []safeaction.Issue{issue}
		}
		return result, []safeaction.Issue{{Message: fmt.Sprintf("Expected %s", typeName(reflect.TypeFor[T]()))}}
	}
	return result, nil
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return t.Kind().String()
	}
}

// namespacePath turns a validator namespace such as "SignUp.tags[1].name"
// into an issue path {"tags", 1, "name"}. The leading segment names the
// root struct and is dropped.
func namespacePath(ns string) []any {
	segments := strings.Split(ns, ".")
	if len(segments) > 0 {
		segments = segments[1:]
	}
	path := make([]any, 0, len(segments))
	for _, segment := range segments {
		for segment != "" {
			open := strings.IndexByte(segment, '[')
			if open == -1 {
				path = append(path, segment)
				break
			}
			if open > 0 {
				path = append(path, segment[:open])
			}
			end := strings.IndexByte(segment[open:], ']')
			if end == -1 {
				path = append(path, segment[open:])
				break
			}
			key := segment[open+1 : open+end]
			if i, err := strconv.Atoi(key); err == nil {
				path = append(path, i)
			} else {
				path = append(path, key)
			}
			segment = segment[open+end+1:]
		}
	}
	return path
}
