// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
)

// errorsKey is the JSON key holding the messages attached to a node.
const errorsKey = "_errors"

// ErrorTree is a nested validation error structure mirroring the shape of
// the validated input.
//
// Every node may carry messages in Errors plus child nodes keyed by field
// name (or array index, rendered as a decimal string). Schema-wide errors
// live in the Errors of the root node.
//
// The JSON form is the "formatted" shape:
//
//	{"_errors": ["root error"], "username": {"_errors": ["too short"]}}
type ErrorTree struct {
	Errors []string

	fields map[string]*ErrorTree
	keys   []string
}

// NewErrorTree returns an empty tree.
func NewErrorTree() *ErrorTree {
	return &ErrorTree{}
}

// BuildErrorTree converts a flat list of issues into a nested [ErrorTree].
//
// Issues without a path are attached to the root. Intermediate nodes are
// created as needed. Messages sharing a path are kept in issue order and
// are not deduplicated.
func BuildErrorTree(issues []Issue) *ErrorTree {
	tree := NewErrorTree()
	for _, issue := range issues {
		tree.Add(issue.Message, issue.Path...)
	}
	return tree
}

// Add appends message at the given path, creating nodes along the way, and
// returns the root so calls can be chained. A "_errors" segment names the
// messages of the node it follows, so it never becomes a child.
//
// Example:
//
//	tree := safeaction.NewErrorTree().
//	    Add("Passwords do not match").
//	    Add("Username is taken", "username")
func (t *ErrorTree) Add(message string, path ...any) *ErrorTree {
	node := t
	for _, segment := range path {
		if key := pathKey(segment); key != errorsKey {
			node = node.child(key)
		}
	}
	node.Errors = append(node.Errors, message)
	return t
}

// Field returns the child node for key, or nil if there is none.
func (t *ErrorTree) Field(key string) *ErrorTree {
	if t == nil {
		return nil
	}
	return t.fields[key]
}

// Keys returns the child keys in insertion order.
func (t *ErrorTree) Keys() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.keys)
}

// IsEmpty reports whether the tree holds no messages at any depth.
func (t *ErrorTree) IsEmpty() bool {
	if t == nil {
		return true
	}
	if len(t.Errors) > 0 {
		return false
	}
	for _, key := range t.keys {
		if !t.fields[key].IsEmpty() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the tree.
func (t *ErrorTree) Clone() *ErrorTree {
	if t == nil {
		return nil
	}
	c := &ErrorTree{
		Errors: slices.Clone(t.Errors),
		keys:   slices.Clone(t.keys),
	}
	if t.fields != nil {
		c.fields = make(map[string]*ErrorTree, len(t.fields))
		for k, v := range t.fields {
			c.fields[k] = v.Clone()
		}
	}
	return c
}

func (t *ErrorTree) child(key string) *ErrorTree {
	if t.fields == nil {
		t.fields = make(map[string]*ErrorTree)
	}
	node, ok := t.fields[key]
	if !ok {
		node = NewErrorTree()
		t.fields[key] = node
		t.keys = append(t.keys, key)
	}
	return node
}

func pathKey(segment any) string {
	switch s := segment.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	default:
		return fmt.Sprint(s)
	}
}

// MarshalJSON renders the "formatted" shape, with _errors first and child
// keys in insertion order.
func (t *ErrorTree) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeKey := func(key string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		return nil
	}
	if t.Errors != nil {
		if err := writeKey(errorsKey); err != nil {
			return nil, err
		}
		errs, err := json.Marshal(t.Errors)
		if err != nil {
			return nil, err
		}
		buf.Write(errs)
	}
	for _, key := range t.keys {
		if err := writeKey(key); err != nil {
			return nil, err
		}
		child, err := t.fields[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(child)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses the "formatted" shape. Child keys are restored in
// sorted order, since JSON objects carry no ordering.
func (t *ErrorTree) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error tree: %w", err)
	}
	*t = ErrorTree{}
	if msgs, ok := raw[errorsKey]; ok {
		if err := json.Unmarshal(msgs, &t.Errors); err != nil {
			return fmt.Errorf("error tree %s: %w", errorsKey, err)
		}
		delete(raw, errorsKey)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := t.child(k).UnmarshalJSON(raw[k]); err != nil {
			return err
		}
	}
	return nil
}

// FlattenedErrors is the two-level rendering of an [ErrorTree].
type FlattenedErrors struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// Clone returns a deep copy.
func (f FlattenedErrors) Clone() FlattenedErrors {
	c := FlattenedErrors{
		FormErrors:  slices.Clone(f.FormErrors),
		FieldErrors: make(map[string][]string, len(f.FieldErrors)),
	}
	for k, v := range f.FieldErrors {
		c.FieldErrors[k] = slices.Clone(v)
	}
	return c
}

// FlattenErrors renders a tree as form-level plus per-field messages.
//
// Root messages become FormErrors. For each first-level child with messages
// of its own, those messages become FieldErrors[key]. Anything nested deeper
// than one level is dropped; the flattened shape is lossy.
func FlattenErrors(tree *ErrorTree) FlattenedErrors {
	flat := FlattenedErrors{
		FormErrors:  []string{},
		FieldErrors: map[string][]string{},
	}
	if tree == nil {
		return flat
	}
	if tree.Errors != nil {
		flat.FormErrors = slices.Clone(tree.Errors)
	}
	for _, key := range tree.keys {
		child := tree.fields[key]
		if child.Errors != nil {
			flat.FieldErrors[key] = slices.Clone(child.Errors)
		}
	}
	return flat
}

// FormatErrors returns the tree unchanged: the nested tree already is the
// "formatted" shape.
func FormatErrors(tree *ErrorTree) *ErrorTree {
	return tree
}

// Shape names a built-in rendering of validation errors.
type Shape string

const (
	// ShapeFormatted exposes the nested [ErrorTree]. This is the default.
	ShapeFormatted Shape = "formatted"
	// ShapeFlattened exposes [FlattenedErrors].
	ShapeFlattened Shape = "flattened"
)

// ParseShape parses a shape name. The empty string yields [ShapeFormatted].
func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case "", ShapeFormatted:
		return ShapeFormatted, nil
	case ShapeFlattened:
		return ShapeFlattened, nil
	default:
		return "", fmt.Errorf("unknown validation errors shape %q", s)
	}
}

// ShapeArgs carries the invocation details available to a shaper.
type ShapeArgs struct {
	ClientInput          any
	BindArgsClientInputs []any
	Metadata             any
	Ctx                  Ctx
}

// ValidationErrorsShaper converts the main input's error tree into the
// client-facing shape.
type ValidationErrorsShaper func(ctx context.Context, tree *ErrorTree, args ShapeArgs) (any, error)

// BindArgsValidationErrorsShaper converts the positional bind-arg error
// trees into client-facing shapes. The returned slice must keep one entry
// per position.
type BindArgsValidationErrorsShaper func(ctx context.Context, trees []*ErrorTree, args ShapeArgs) ([]any, error)

// ShaperFor returns the main-input shaper for a built-in shape.
func ShaperFor(shape Shape) ValidationErrorsShaper {
	if shape == ShapeFlattened {
		return func(_ context.Context, tree *ErrorTree, _ ShapeArgs) (any, error) {
			return FlattenErrors(tree), nil
		}
	}
	return func(_ context.Context, tree *ErrorTree, _ ShapeArgs) (any, error) {
		return FormatErrors(tree), nil
	}
}

// BindArgsShaperFor returns the bind-args shaper for a built-in shape.
func BindArgsShaperFor(shape Shape) BindArgsValidationErrorsShaper {
	return func(_ context.Context, trees []*ErrorTree, _ ShapeArgs) ([]any, error) {
		shaped := make([]any, len(trees))
		for i, tree := range trees {
			if shape == ShapeFlattened {
				shaped[i] = FlattenErrors(tree)
			} else {
				shaped[i] = FormatErrors(tree)
			}
		}
		return shaped, nil
	}
}
