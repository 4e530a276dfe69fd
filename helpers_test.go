// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ==== Test Helpers: Error Variables ====

var error1 = errors.New("error 1")
var error2 = errors.New("error 2")

// errPostpone stands in for a host-framework error that is not navigation.
var errPostpone = errors.New("postpone")

// postponeClassifier treats errPostpone as a framework error and defers to
// the default classifier for navigation.
type postponeClassifier struct {
	DefaultClassifier
}

func (c postponeClassifier) IsFrameworkError(err error) bool {
	return errors.Is(err, errPostpone) || c.DefaultClassifier.IsFrameworkError(err)
}

// ==== Test Helpers: Fixtures ====

type testMeta struct {
	Role string `json:"role"`
}

type signUp struct {
	Username string `json:"username"`
}

type okResult struct {
	OK bool `json:"ok"`
}

// quietClient returns a client that does not log server errors.
func quietClient() *Client[testMeta, any] {
	return New[testMeta](ClientOptions{LogServerError: NoopServerErrorLogger})
}

// signUpSchema parses {"username": string} and requires at least 3
// characters.
var signUpSchema = SchemaFunc[signUp](func(_ context.Context, data any) (signUp, []Issue, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return signUp{}, []Issue{{Message: "Expected object"}}, nil
	}
	name, ok := m["username"].(string)
	if !ok {
		return signUp{}, []Issue{{Message: "Required", Path: []any{"username"}}}, nil
	}
	if len(name) < 3 {
		return signUp{}, []Issue{{Message: "String must contain at least 3 character(s)", Path: []any{"username"}}}, nil
	}
	return signUp{Username: name}, nil, nil
})

var positiveNumber = SchemaFunc[int](func(_ context.Context, data any) (int, []Issue, error) {
	n, ok := data.(int)
	if !ok {
		return 0, []Issue{{Message: "Expected number"}}, nil
	}
	if n <= 0 {
		return 0, []Issue{{Message: "Number must be greater than 0"}}, nil
	}
	return n, nil, nil
})

var uuidString = SchemaFunc[string](func(_ context.Context, data any) (string, []Issue, error) {
	s, _ := data.(string)
	if err := uuid.Validate(s); err != nil {
		return "", []Issue{{Message: "Invalid uuid"}}, nil
	}
	return s, nil, nil
})

// brokenSchema fails as a schema engine would, not as bad input.
func brokenSchema[T any](err error) Schema[T] {
	return SchemaFunc[T](func(context.Context, any) (T, []Issue, error) {
		var zero T
		return zero, nil, err
	})
}

// okHandler returns {ok: true}.
func okHandler[In any](context.Context, HandlerArgs[testMeta, In]) (okResult, error) {
	return okResult{OK: true}, nil
}

// failingHandler returns err.
func failingHandler[In any](err error) Handler[testMeta, In, okResult] {
	return func(context.Context, HandlerArgs[testMeta, In]) (okResult, error) {
		return okResult{}, err
	}
}

// ctxSetter returns a middleware that passes args.Ctx extended with kv.
func ctxSetter(kv Ctx) Middleware[testMeta] {
	return func(ctx context.Context, args MiddlewareArgs[testMeta]) (*MiddlewareResult, error) {
		return args.Next(ctx, args.Ctx.With(kv))
	}
}

// callbackRecorder records which action callbacks fired, in order.
type callbackRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callbackRecorder) record(name string) func(context.Context, CallbackArgs[okResult]) {
	return func(context.Context, CallbackArgs[okResult]) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name)
	}
}

func (r *callbackRecorder) options() ActionOptions[okResult] {
	return ActionOptions[okResult]{
		OnSuccess:    r.record("success"),
		OnError:      r.record("error"),
		OnNavigation: r.record("navigation"),
		OnSettled:    r.record("settled"),
	}
}

func (r *callbackRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.calls, ",")
}

// ==== Test Helpers: Error Validators ====

// isNil validates that the error is nil.
func isNil(testErr error) error {
	if testErr != nil {
		return fmt.Errorf("unexpected error: %w", testErr)
	}
	return nil
}

// isNotNil validates that the error is not nil.
func isNotNil(testErr error) error {
	if testErr == nil {
		return fmt.Errorf("expected error but got nil")
	}
	return nil
}

// all returns a validator that passes only if all the given validators pass.
func all(validators ...func(error) error) func(error) error {
	return func(testErr error) error {
		for _, validator := range validators {
			if err := validator(testErr); err != nil {
				return err
			}
		}
		return nil
	}
}

// matches returns a validator that checks if the error matches the target error using errors.Is.
func matches(targetErr error) func(error) error {
	return func(testError error) error {
		if !errors.Is(testError, targetErr) {
			return fmt.Errorf("expected error %v to match error %v", testError, targetErr)
		}
		return nil
	}
}

// contains returns a validator that checks if the error message contains the given substring.
func contains(substring string) func(error) error {
	return func(testErr error) error {
		if testErr == nil {
			return fmt.Errorf("expected error containing %q, got nil", substring)
		}
		if !strings.Contains(testErr.Error(), substring) {
			return fmt.Errorf("expected error to contain %q, got %q", substring, testErr)
		}
		return nil
	}
}

// isNavigation validates that the error is a navigation signal of the given kind.
func isNavigation(kind NavigationKind) func(error) error {
	return func(testErr error) error {
		c := DefaultClassifier{}
		if !c.IsNavigationError(testErr) {
			return fmt.Errorf("expected navigation signal, got %v", testErr)
		}
		if got := c.NavigationKind(testErr); got != kind {
			return fmt.Errorf("expected navigation kind %q, got %q", kind, got)
		}
		return nil
	}
}

// isValidationError validates that the error is a thrown ValidationError.
func isValidationError(testErr error) error {
	var verr *ValidationError
	if !errors.As(testErr, &verr) {
		return fmt.Errorf("expected ValidationError, got %v", testErr)
	}
	return nil
}
