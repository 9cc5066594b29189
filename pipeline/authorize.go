package pipeline

import (
	"context"
	"net/http"

	"github.com/scotline/pkg/logger"
)

// DecisionStatus is the outcome category of an authorization check.
type DecisionStatus int

const (
	// StatusContinue allows the chain to proceed.
	StatusContinue DecisionStatus = iota
	// StatusBadRequest rejects the request as malformed (400).
	StatusBadRequest
	// StatusUnauthorized rejects an unauthenticated request (401).
	StatusUnauthorized
	// StatusForbidden rejects an authenticated but unpermitted request (403).
	StatusForbidden
	// StatusNotFound rejects a request targeting a missing resource (404).
	StatusNotFound
	// StatusConflict rejects a request conflicting with current state (409).
	StatusConflict
)

// httpCode maps a DecisionStatus to its HTTP status code.
func (s DecisionStatus) httpCode() int {
	switch s {
	case StatusBadRequest:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	case StatusContinue:
		return 0
	default:
		return http.StatusInternalServerError
	}
}

// Decision is the result of one authorization check. It is terminal once its
// status is anything other than StatusContinue.
type Decision struct {
	Status  DecisionStatus
	Message string
}

// Continue allows the chain to proceed to the next check.
func Continue() Decision { return Decision{Status: StatusContinue} }

// BadRequest rejects the request as malformed.
func BadRequest(message string) Decision {
	return Decision{Status: StatusBadRequest, Message: message}
}

// Unauthorized rejects an unauthenticated request.
func Unauthorized(message string) Decision {
	return Decision{Status: StatusUnauthorized, Message: message}
}

// Forbidden rejects an authenticated but unpermitted request.
func Forbidden(message string) Decision {
	return Decision{Status: StatusForbidden, Message: message}
}

// NotFound rejects a request targeting a missing resource.
func NotFound(message string) Decision {
	return Decision{Status: StatusNotFound, Message: message}
}

// Conflict rejects a request conflicting with current state.
func Conflict(message string) Decision {
	return Decision{Status: StatusConflict, Message: message}
}

// Authorizer performs one business/authorization check for a request type.
// Authorizers may depend on state mutated by earlier checks, so the stage
// runs them strictly in registration order.
type Authorizer[I Input] interface {
	Authorize(ctx context.Context, input I) Decision
}

// AuthorizerFunc adapts a plain function to the Authorizer interface.
type AuthorizerFunc[I Input] func(ctx context.Context, input I) Decision

// Authorize calls f(ctx, input).
func (f AuthorizerFunc[I]) Authorize(ctx context.Context, input I) Decision {
	return f(ctx, input)
}

// AuthorizationStage runs registered authorizers sequentially and
// short-circuits at the first non-Continue decision. The handler is never
// invoked on a rejection; the zero result is returned alongside an Abort
// carrying the mapped status code.
type AuthorizationStage[I Input, R Result] struct {
	logger      logger.Logger
	authorizers []Authorizer[I]
	next        Handler[I, R]
	reqName     string
}

// NewAuthorizationStage returns a WrapFunc that applies the registered
// authorizers in order. With no authorizers the stage is a pass-through.
func NewAuthorizationStage[I Input, R Result](
	lg logger.Logger,
	reqName string,
	authorizers ...Authorizer[I],
) WrapFunc[I, R] {
	return func(next Handler[I, R]) Handler[I, R] {
		return &AuthorizationStage[I, R]{
			logger:      lg.Named("pipeline.authorization"),
			authorizers: authorizers,
			next:        next,
			reqName:     reqName,
		}
	}
}

func (s *AuthorizationStage[I, R]) Execute(ctx context.Context, input I) (R, error) {
	if len(s.authorizers) == 0 {
		return s.next.Execute(ctx, input)
	}

	for _, authorizer := range s.authorizers {
		decision := authorizer.Authorize(ctx, input)
		if decision.Status == StatusContinue {
			continue
		}

		s.logger.
			WithContext(ctx).
			With("request_name", s.reqName).
			With("status", decision.Status.httpCode()).
			With("message", decision.Message).
			Info("request rejected by authorization check")

		var zero R
		return zero, NewAbort(decision.Status.httpCode(), decision.Message)
	}

	return s.next.Execute(ctx, input)
}
