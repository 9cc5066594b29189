package pipeline

import (
	"context"
	"net/http"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/scotline/pkg/val"
	"golang.org/x/sync/errgroup"
)

// SchemaValidator performs schema-level validation for a request type.
// Validators must be independent and side-effect free: the stage launches all
// of them concurrently and aggregates their results only after every one has
// completed. The error return is reserved for infrastructure faults; schema
// violations are reported through the FieldError slice.
type SchemaValidator[I Input] interface {
	Validate(ctx context.Context, input I) ([]val.FieldError, error)
}

// SchemaValidatorFunc adapts a plain function to the SchemaValidator interface.
type SchemaValidatorFunc[I Input] func(ctx context.Context, input I) ([]val.FieldError, error)

// Validate calls f(ctx, input).
func (f SchemaValidatorFunc[I]) Validate(ctx context.Context, input I) ([]val.FieldError, error) {
	return f(ctx, input)
}

// TagValidator returns a SchemaValidator that checks the request's `validate`
// struct tags via the val package.
func TagValidator[I Input]() SchemaValidator[I] {
	return SchemaValidatorFunc[I](func(_ context.Context, input I) ([]val.FieldError, error) {
		return val.CheckSchema(input)
	})
}

// ValidationStage runs all registered schema validators concurrently, awaits
// them all, and aggregates field errors grouped by field name with messages
// deduplicated per field. A non-empty aggregate short-circuits with a 400
// Abort; the handler is never invoked.
type ValidationStage[I Input, R Result] struct {
	validators []SchemaValidator[I]
	next       Handler[I, R]
}

// NewValidationStage returns a WrapFunc that applies the registered schema
// validators. With no validators the stage is a pass-through.
func NewValidationStage[I Input, R Result](validators ...SchemaValidator[I]) WrapFunc[I, R] {
	return func(next Handler[I, R]) Handler[I, R] {
		return &ValidationStage[I, R]{
			validators: validators,
			next:       next,
		}
	}
}

func (s *ValidationStage[I, R]) Execute(ctx context.Context, input I) (R, error) {
	if len(s.validators) == 0 {
		return s.next.Execute(ctx, input)
	}

	results := make([][]val.FieldError, len(s.validators))

	g, gctx := errgroup.WithContext(ctx)
	for i, validator := range s.validators {
		g.Go(func() error {
			fieldErrs, err := validator.Validate(gctx, input)
			if err != nil {
				return errx.Wrap(err)
			}
			results[i] = fieldErrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var zero R
		return zero, errx.Wrap(err)
	}

	aggregated := aggregateFieldErrors(results)
	if len(aggregated) == 0 {
		return s.next.Execute(ctx, input)
	}

	abort := NewAbort(http.StatusBadRequest, "Validation errors")
	abort.Fields = aggregated

	var zero R
	return zero, abort
}

// aggregateFieldErrors groups messages by field name, preserving first-seen
// order within a field and dropping duplicate messages.
func aggregateFieldErrors(results [][]val.FieldError) map[string][]string {
	grouped := make(map[string][]string)
	for _, fieldErrs := range results {
		for _, fe := range fieldErrs {
			grouped[fe.Field] = append(grouped[fe.Field], fe.Message)
		}
	}

	for field, messages := range grouped {
		grouped[field] = lo.Uniq(messages)
	}
	return grouped
}
