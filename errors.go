// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"errors"
	"fmt"
)

// DefaultServerErrorMessage is the payload exposed for server errors when no
// [ServerErrorHandler] is configured.
const DefaultServerErrorMessage = "Something went wrong while executing the operation."

// DefaultValidationErrorMessage is the message of a thrown [ValidationError]
// when no override is configured.
const DefaultValidationErrorMessage = "Invalid action input"

var (
	// ErrMetadataValidation matches a [MetadataValidationError].
	ErrMetadataValidation = errors.New("invalid metadata: call Metadata with a value matching the metadata schema before defining the action")

	// ErrTooManyArgs is returned when an action is called with more
	// positional arguments than it has bind-arg and input slots.
	ErrTooManyArgs = errors.New("too many arguments for action")
)

// MetadataValidationError is a configuration error: the action's metadata
// does not satisfy the client's metadata schema. It is always returned as
// an error, never as a result.
type MetadataValidationError struct {
	Action string
	Errors *ErrorTree
}

func (e *MetadataValidationError) Error() string {
	return fmt.Sprintf("action %q: %v", e.Action, ErrMetadataValidation)
}

func (e *MetadataValidationError) Is(target error) bool {
	return target == ErrMetadataValidation
}

// ServerValidationError carries validation errors reported by handler or
// middleware code. The pipeline surfaces them exactly like schema failures
// of the main input.
type ServerValidationError struct {
	Errors *ErrorTree
}

func (e *ServerValidationError) Error() string {
	return "server validation error(s) occurred"
}

// ReturnValidationErrors builds the error a handler returns to report
// validation failures it detected itself.
//
// Example:
//
//	if taken {
//	    return Out{}, safeaction.ReturnValidationErrors(
//	        safeaction.NewErrorTree().Add("Username is taken", "username"),
//	    )
//	}
func ReturnValidationErrors(tree *ErrorTree) error {
	if tree == nil {
		tree = NewErrorTree()
	}
	return &ServerValidationError{Errors: tree}
}

// OutputValidationError is raised when a handler's return value fails the
// output schema. It is a server error: the data came from our own code.
type OutputValidationError struct {
	Errors *ErrorTree
}

func (e *OutputValidationError) Error() string {
	return "output data validation error(s) occurred"
}

// ValidationError is returned from the action call instead of a result when
// validation errors are configured to be thrown.
type ValidationError struct {
	Message                  string
	ValidationErrors         any
	BindArgsValidationErrors []any
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RecoveredPanic is an error type that wraps a panic value.
type RecoveredPanic struct {
	Value any
}

func (p *RecoveredPanic) Error() string {
	return fmt.Sprintf("panic recovered: %v", p.Value)
}

// Unwrap exposes a panic value that was itself an error.
func (p *RecoveredPanic) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}

// IndexedError wraps an error with the bind-arg position it came from.
type IndexedError struct {
	Index int
	Err   error
}

func (e *IndexedError) Error() string {
	return fmt.Sprintf("bind arg %d: %v", e.Index, e.Err)
}

func (e *IndexedError) Unwrap() error {
	return e.Err
}
