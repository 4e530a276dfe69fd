// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Description summarises an action definition for tooling, such as
// generated client stubs or API listings.
type Description struct {
	Name string `json:"name"`

	// Input and Output are JSON Schemas reflected from the Go types. They
	// are nil for interface types, which carry no structure.
	Input  *jsonschema.Schema `json:"input,omitempty"`
	Output *jsonschema.Schema `json:"output,omitempty"`

	BindArgs     int  `json:"bindArgs"`
	Middleware   int  `json:"middleware"`
	HasMetadata  bool `json:"hasMetadataSchema"`
	HasOutput    bool `json:"hasOutputSchema"`
}

// Describe reflects the client's input type and the given output type into
// JSON Schemas.
//
// Example:
//
//	desc := safeaction.Describe[Meta, SignUp, User](client.Named("signUp"))
//	_ = json.NewEncoder(os.Stdout).Encode(desc)
func Describe[M, In, Out any](c *Client[M, In]) Description {
	return Description{
		Name:         c.name,
		Input:        reflectSchema(reflect.TypeFor[In]()),
		Output:       reflectSchema(reflect.TypeFor[Out]()),
		BindArgs:     len(c.bindArgsSchemas),
		Middleware:   len(c.middleware),
		HasMetadata:  c.metadataSchema != nil,
		HasOutput:    c.outputSchema != nil,
	}
}

func reflectSchema(t reflect.Type) *jsonschema.Schema {
	if t.Kind() == reflect.Interface {
		return nil
	}
	r := &jsonschema.Reflector{DoNotReference: true}
	return r.ReflectFromType(t)
}
