package pipeline

import (
	"context"

	"github.com/rcrowley/go-metrics"
	"github.com/scotline/pkg/alert"
	"github.com/scotline/pkg/logger"
	"github.com/scotline/pkg/respcache"
)

// Dispatcher wires a business handler into the full stage chain and executes
// requests through it. The chain order is a fixed property of the dispatcher:
//
//	recovery -> meta -> alerting -> tracing -> authorization -> validation ->
//	performance -> cache read -> cache invalidation -> handler
//
// Registration order of authorizers and validators affects only their
// position within their own stage, never the stage order itself.
type Dispatcher[I Input, R Result] struct {
	handler Handler[I, R]
	reqName string
}

// Option configures a Dispatcher.
type Option[I Input, R Result] func(*options[I, R])

type options[I Input, R Result] struct {
	logger         logger.Logger
	store          respcache.Store
	registry       metrics.Registry
	alerts         alert.Provider
	authorizers    []Authorizer[I]
	validators     []SchemaValidator[I]
	serviceName    string
	serviceVersion string
	name           string
}

// WithLogger sets the logger used by all stages. Defaults to a no-op logger.
func WithLogger[I Input, R Result](lg logger.Logger) Option[I, R] {
	return func(o *options[I, R]) { o.logger = lg }
}

// WithStore sets the response cache store backing the cache read and cache
// invalidation stages. Without a store both stages are pass-throughs.
func WithStore[I Input, R Result](store respcache.Store) Option[I, R] {
	return func(o *options[I, R]) { o.store = store }
}

// WithRegistry sets the metrics registry for the performance stage.
// Defaults to the process-wide default registry.
func WithRegistry[I Input, R Result](registry metrics.Registry) Option[I, R] {
	return func(o *options[I, R]) { o.registry = registry }
}

// WithAlerts sets the provider unhandled faults are reported to. Without a
// provider the alerting stage is a pass-through.
func WithAlerts[I Input, R Result](provider alert.Provider) Option[I, R] {
	return func(o *options[I, R]) { o.alerts = provider }
}

// WithAuthorizers registers authorization checks, run sequentially in the
// given order.
func WithAuthorizers[I Input, R Result](authorizers ...Authorizer[I]) Option[I, R] {
	return func(o *options[I, R]) { o.authorizers = append(o.authorizers, authorizers...) }
}

// WithValidators registers schema validators, run concurrently.
func WithValidators[I Input, R Result](validators ...SchemaValidator[I]) Option[I, R] {
	return func(o *options[I, R]) { o.validators = append(o.validators, validators...) }
}

// WithService sets the service name and version injected into request
// metadata.
func WithService[I Input, R Result](name, version string) Option[I, R] {
	return func(o *options[I, R]) {
		o.serviceName = name
		o.serviceVersion = version
	}
}

// WithName overrides the derived request name.
func WithName[I Input, R Result](name string) Option[I, R] {
	return func(o *options[I, R]) { o.name = name }
}

// NewDispatcher builds the stage chain around the given handler.
//
// The request name defaults to the Named interface when the zero input
// implements it, then to the input type's package path and name, and can be
// overridden with WithName.
func NewDispatcher[I Input, R Result](handler Handler[I, R], opts ...Option[I, R]) *Dispatcher[I, R] {
	o := &options[I, R]{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logger.NewNop()
	}

	reqName := o.name
	if reqName == "" {
		var zero I
		if named, ok := any(zero).(Named); ok {
			reqName = named.RequestName()
		} else {
			reqName = requestNameFor[I]()
		}
	}

	// Listed outermost first; applied in reverse so the first stage wraps
	// all the others.
	stages := []WrapFunc[I, R]{
		NewRecoveryStage[I, R](o.logger, reqName),
		NewMetaInjectStage[I, R](o.serviceName, o.serviceVersion),
		NewAlertStage[I, R](o.logger, o.alerts, reqName),
		NewTracingStage[I, R](reqName),
		NewAuthorizationStage[I, R](o.logger, reqName, o.authorizers...),
		NewValidationStage[I, R](o.validators...),
		NewPerformanceStage[I, R](o.logger, reqName, o.registry),
		NewCacheReadStage[I, R](o.logger, o.store),
		NewCacheInvalidationStage[I, R](o.logger, o.store, reqName),
	}

	wrapped := handler
	for i := len(stages) - 1; i >= 0; i-- {
		wrapped = stages[i](wrapped)
	}

	return &Dispatcher[I, R]{
		handler: wrapped,
		reqName: reqName,
	}
}

// RequestName returns the logical name the dispatcher resolved for its
// request type.
func (d *Dispatcher[I, R]) RequestName() string {
	return d.reqName
}

// Dispatch sends the input through the full stage chain.
func (d *Dispatcher[I, R]) Dispatch(ctx context.Context, input I) (R, error) {
	return d.handler.Execute(ctx, input)
}
