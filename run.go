// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// inputValidation holds the outcome of validating every positional input.
// Slots are indexed by position, independent of completion order.
type inputValidation[In any] struct {
	parsedInput In
	inputIssues []Issue

	bindParsed []any
	bindIssues [][]Issue
}

func (v *inputValidation[In]) failed() bool {
	if len(v.inputIssues) > 0 {
		return true
	}
	for _, issues := range v.bindIssues {
		if len(issues) > 0 {
			return true
		}
	}
	return false
}

// bindTrees returns one error tree per bind argument, empty at the valid
// positions, or nil when every bind argument passed.
func (v *inputValidation[In]) bindTrees() []*ErrorTree {
	failed := false
	trees := make([]*ErrorTree, len(v.bindIssues))
	for i, issues := range v.bindIssues {
		trees[i] = BuildErrorTree(issues)
		if len(issues) > 0 {
			failed = true
		}
	}
	if !failed {
		return nil
	}
	return trees
}

// validateInputs validates the main input and every bind argument
// concurrently.
//
// Issues are collected into their positional slots. The first schema
// engine failure cancels the remaining validations and is returned; a bind
// argument failure is wrapped in an [*IndexedError].
func validateInputs[In any](
	ctx context.Context,
	classifier Classifier,
	inputSchema Schema[In],
	clientInput any,
	bindSchemas []AnySchema,
	bindInputs []any,
) (*inputValidation[In], error) {
	out := &inputValidation[In]{
		bindParsed: make([]any, len(bindSchemas)),
		bindIssues: make([][]Issue, len(bindSchemas)),
	}

	group, subCtx := errgroup.WithContext(ctx)
	for i, schema := range bindSchemas {
		group.Go(func() (err error) {
			defer recoverInto(&err, classifier)
			if schema == nil {
				out.bindParsed[i] = bindInputs[i]
				return nil
			}
			parsed, issues, err := schema.Validate(subCtx, bindInputs[i])
			if err != nil {
				return &IndexedError{Index: i, Err: err}
			}
			out.bindParsed[i] = parsed
			out.bindIssues[i] = issues
			return nil
		})
	}
	if inputSchema != nil {
		group.Go(func() (err error) {
			defer recoverInto(&err, classifier)
			parsed, issues, err := inputSchema.Validate(subCtx, clientInput)
			if err != nil {
				return fmt.Errorf("input schema: %w", err)
			}
			out.parsedInput = parsed
			out.inputIssues = issues
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// recoverInto turns a panic into an error assigned to *err. A panic whose
// value is a control-flow signal keeps the signal itself.
func recoverInto(err *error, classifier Classifier) {
	if r := recover(); r != nil {
		*err = panicError(r, classifier)
	}
}

func panicError(r any, classifier Classifier) error {
	if e, ok := r.(error); ok && (classifier.IsFrameworkError(e) || classifier.IsNavigationError(e)) {
		return e
	}
	return &RecoveredPanic{Value: r}
}
