// SPDX-License-Identifier: Apache-2.0

package safeaction

import (
	"context"
	"slices"
)

// ClientOptions configures a [Client]. The zero value is usable: nil
// functions fall back to the package defaults.
type ClientOptions struct {
	// HandleServerError maps a server error to the client-facing payload.
	// Defaults to [DefaultServerErrorHandler], which masks every error.
	HandleServerError ServerErrorHandler

	// LogServerError records server errors before they are mapped.
	// Defaults to [DefaultServerErrorLogger]; use [NoopServerErrorLogger]
	// to silence it.
	LogServerError ServerErrorLogger

	// DefaultValidationErrorsShape is the shape used by schemas that do not
	// set their own shaper. Defaults to [ShapeFormatted].
	DefaultValidationErrorsShape Shape

	// ThrowValidationErrors makes every action return validation failures as
	// a [*ValidationError] error instead of inside the result.
	ThrowValidationErrors bool

	// Classifier recognises host control-flow signals. Defaults to
	// [DefaultClassifier].
	Classifier Classifier
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.HandleServerError == nil {
		o.HandleServerError = DefaultServerErrorHandler
	}
	if o.LogServerError == nil {
		o.LogServerError = DefaultServerErrorLogger
	}
	if o.DefaultValidationErrorsShape == "" {
		o.DefaultValidationErrorsShape = ShapeFormatted
	}
	if o.Classifier == nil {
		o.Classifier = DefaultClassifier{}
	}
	return o
}

// Client is an immutable action definition builder.
//
// M is the metadata type and In the parsed type of the main input. Every
// method returns a new client and leaves the receiver untouched, so a base
// client can be forked into several specialised ones:
//
//	base := safeaction.New[Meta](safeaction.ClientOptions{})
//	authed := base.Use(requireUser)
//	admin := authed.Use(requireAdmin)
//
// Methods that change the input type are free functions, since Go methods
// cannot introduce type parameters: see [InputSchema], [InputSchemaFunc]
// and [RefineInputSchema]. The terminal steps are [Action] and
// [StateAction].
type Client[M, In any] struct {
	opts ClientOptions
	name string

	middleware []Middleware[M]

	metadata       M
	metadataSchema Schema[M]

	inputSchema func(context.Context) (Schema[In], error)
	inputShaper ValidationErrorsShaper

	bindArgsSchemas []AnySchema
	bindArgsShaper  BindArgsValidationErrorsShaper

	outputSchema AnySchema

	shape Shape
}

// New creates a client with the given options and no input schema.
func New[M any](opts ClientOptions) *Client[M, any] {
	return &Client[M, any]{opts: opts.withDefaults()}
}

func (c *Client[M, In]) clone() *Client[M, In] {
	next := *c
	// clipping forces append to copy instead of writing into a slice shared
	// with another branch
	next.middleware = slices.Clip(c.middleware)
	next.bindArgsSchemas = slices.Clip(c.bindArgsSchemas)
	return &next
}

// Options returns the effective client options.
func (c *Client[M, In]) Options() ClientOptions {
	return c.opts
}

// Use appends middleware to the chain. Middleware run in the order they
// were added, across all Use calls.
func (c *Client[M, In]) Use(mw ...Middleware[M]) *Client[M, In] {
	next := c.clone()
	next.middleware = append(next.middleware, mw...)
	return next
}

// DefineMetadataSchema declares the schema that the action metadata must
// satisfy. A mismatch is reported as a [*MetadataValidationError] when the
// action is called.
func (c *Client[M, In]) DefineMetadataSchema(schema Schema[M]) *Client[M, In] {
	next := c.clone()
	next.metadataSchema = schema
	return next
}

// Metadata sets the metadata value passed to every middleware.
func (c *Client[M, In]) Metadata(m M) *Client[M, In] {
	next := c.clone()
	next.metadata = m
	return next
}

// BindArgsSchemas declares one schema per bound positional argument. The
// action then expects those arguments ahead of the main input.
//
// A nil entry accepts the argument unvalidated.
func (c *Client[M, In]) BindArgsSchemas(schemas ...AnySchema) *Client[M, In] {
	next := c.clone()
	next.bindArgsSchemas = slices.Clone(schemas)
	return next
}

// BindArgsErrorsShaper overrides how bind argument error trees are shaped.
func (c *Client[M, In]) BindArgsErrorsShaper(shaper BindArgsValidationErrorsShaper) *Client[M, In] {
	next := c.clone()
	next.bindArgsShaper = shaper
	return next
}

// OutputSchema declares a schema the handler's return value must satisfy.
// A mismatch is a server error.
func (c *Client[M, In]) OutputSchema(schema AnySchema) *Client[M, In] {
	next := c.clone()
	next.outputSchema = schema
	return next
}

// ValidationErrorsShape overrides the client default shape for this client
// and every client derived from it.
func (c *Client[M, In]) ValidationErrorsShape(shape Shape) *Client[M, In] {
	next := c.clone()
	next.shape = shape
	return next
}

func (c *Client[M, In]) effectiveShape() Shape {
	if c.shape != "" {
		return c.shape
	}
	return c.opts.DefaultValidationErrorsShape
}

func (c *Client[M, In]) mainShaper() ValidationErrorsShaper {
	if c.inputShaper != nil {
		return c.inputShaper
	}
	return ShaperFor(c.effectiveShape())
}

func (c *Client[M, In]) bindShaper() BindArgsValidationErrorsShaper {
	if c.bindArgsShaper != nil {
		return c.bindArgsShaper
	}
	return BindArgsShaperFor(c.effectiveShape())
}

// A SchemaOption configures how a main input schema's errors are shaped.
type SchemaOption func(*schemaOptions)

type schemaOptions struct {
	shaper ValidationErrorsShaper
}

// WithShape shapes the schema's errors with a built-in shape.
func WithShape(shape Shape) SchemaOption {
	return func(o *schemaOptions) {
		o.shaper = ShaperFor(shape)
	}
}

// WithShaper shapes the schema's errors with a custom function.
func WithShaper(shaper ValidationErrorsShaper) SchemaOption {
	return func(o *schemaOptions) {
		o.shaper = shaper
	}
}

// InputSchema returns a copy of c whose main input is validated by schema.
// Any previous input schema is replaced.
//
// Example:
//
//	client := safeaction.InputSchema(base, playground.Struct[SignUp]())
func InputSchema[M, Prev, In any](c *Client[M, Prev], schema Schema[In], opts ...SchemaOption) *Client[M, In] {
	return withInput(c, func(context.Context) (Schema[In], error) {
		return schema, nil
	}, opts)
}

// InputSchemaFunc is like [InputSchema] but resolves the schema at call
// time. An error from provider is a server error.
func InputSchemaFunc[M, Prev, In any](
	c *Client[M, Prev],
	provider func(ctx context.Context) (Schema[In], error),
	opts ...SchemaOption,
) *Client[M, In] {
	return withInput(c, provider, opts)
}

// RefineInputSchema composes a new input schema from the previous one. At
// call time the previous schema is resolved first and then passed to
// refine; prev is nil when c had no input schema.
//
// Example:
//
//	withAge := safeaction.RefineInputSchema(client,
//	    func(ctx context.Context, prev safeaction.Schema[Person]) (safeaction.Schema[Adult], error) {
//	        return adultSchema(prev), nil
//	    },
//	)
func RefineInputSchema[M, Prev, In any](
	c *Client[M, Prev],
	refine func(ctx context.Context, prev Schema[Prev]) (Schema[In], error),
	opts ...SchemaOption,
) *Client[M, In] {
	previous := c.inputSchema
	return withInput(c, func(ctx context.Context) (Schema[In], error) {
		var prev Schema[Prev]
		if previous != nil {
			var err error
			if prev, err = previous(ctx); err != nil {
				return nil, err
			}
		}
		return refine(ctx, prev)
	}, opts)
}

func withInput[M, Prev, In any](
	c *Client[M, Prev],
	provider func(context.Context) (Schema[In], error),
	opts []SchemaOption,
) *Client[M, In] {
	so := schemaOptions{}
	for _, opt := range opts {
		opt(&so)
	}
	return &Client[M, In]{
		opts:            c.opts,
		name:            c.name,
		middleware:      slices.Clip(c.middleware),
		metadata:        c.metadata,
		metadataSchema:  c.metadataSchema,
		inputSchema:     provider,
		inputShaper:     so.shaper,
		bindArgsSchemas: slices.Clip(c.bindArgsSchemas),
		bindArgsShaper:  c.bindArgsShaper,
		outputSchema:    c.outputSchema,
		shape:           c.shape,
	}
}
