// Package pipeline composes cross-cutting stages around request handlers.
//
// Every inbound operation passes through an ordered chain of stages
// (exception containment, metadata injection, fault alerting, tracing,
// authorization, schema validation, performance monitoring, response caching,
// cache invalidation)
// before reaching its business handler. Each stage receives the rest of the
// chain as a Handler and either calls it or short-circuits with an Abort.
// The chain order is a fixed, explicit list owned by the Dispatcher, not an
// artifact of registration order.
package pipeline

import (
	"context"
	"reflect"
)

type (
	// Input represents the input type for a request handler.
	Input any

	// Result represents the result type for a request handler.
	Result any
)

// Handler processes a request input and returns a result or error.
type Handler[I Input, R Result] interface {
	// Execute processes the request input and returns a result or error.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadlines.
	//   - input: The request input.
	//
	// Returns the result and error, if any.
	Execute(context.Context, I) (R, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc[I Input, R Result] func(context.Context, I) (R, error)

// Execute calls f(ctx, input).
func (f HandlerFunc[I, R]) Execute(ctx context.Context, input I) (R, error) {
	return f(ctx, input)
}

// WrapFunc defines a middleware function for wrapping request handlers.
//
// It takes a Handler and returns a wrapped Handler, enabling cross-cutting
// concerns to be layered without changing business logic.
type WrapFunc[I Input, R Result] func(Handler[I, R]) Handler[I, R]

// Named lets a request type override its derived logical name.
// Conventional names follow the dotted form "Domain.Commands.X" or
// "Domain.Queries.X".
type Named interface {
	RequestName() string
}

// requestNameFor derives the logical name for a request type: the full
// package path plus type name, pointers unwrapped.
func requestNameFor[I any]() string {
	t := reflect.TypeFor[I]()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
