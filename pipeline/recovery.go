package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"github.com/code19m/errx"
	"github.com/scotline/pkg/logger"
	"github.com/scotline/pkg/mask"
)

// RecoveryStage is the outermost exception boundary of the chain. It logs
// unhandled faults with full request context and converts panics into errx
// errors. Errors from inner stages are re-returned unchanged so the transport
// edge can render the generic fault response; Abort short-circuits pass
// through silently since the originating stage already reported them.
type RecoveryStage[I Input, R Result] struct {
	logger  logger.Logger
	next    Handler[I, R]
	reqName string
	reqType string
}

// NewRecoveryStage returns a WrapFunc that installs the exception boundary.
func NewRecoveryStage[I Input, R Result](lg logger.Logger, reqName string) WrapFunc[I, R] {
	return func(next Handler[I, R]) Handler[I, R] {
		return &RecoveryStage[I, R]{
			logger:  lg.Named("pipeline.recovery").With("request_name", reqName),
			next:    next,
			reqName: reqName,
			reqType: requestNameFor[I](),
		}
	}
}

func (s *RecoveryStage[I, R]) Execute(ctx context.Context, input I) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			stackTrace := make([]byte, 4096) // 4KB
			stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]

			s.logger.
				WithContext(ctx).
				With("stack_trace", string(stackTrace)).
				With("panic_values", fmt.Sprintf("%v", r)).
				With("input", mask.StructToOrdMap(input)).
				Error("panic recovered in request pipeline")

			err = errx.New("panic recovered in request pipeline", errx.WithDetails(errx.D{
				"stack_trace":  string(stackTrace),
				"panic_values": fmt.Sprintf("%v", r),
			}))
		}
	}()

	result, err = s.next.Execute(ctx, input)

	if err != nil {
		if _, aborted := AsAbort(err); !aborted {
			e := errx.AsErrorX(err)
			s.logger.
				WithContext(ctx).
				With("request_name", s.reqName).
				With("request_type", s.reqType).
				With("input", mask.StructToOrdMap(input)).
				With("error", map[string]any{
					"code":    e.Code(),
					"message": e.Error(),
					"trace":   e.Trace(),
				}).
				Error("unhandled fault in request pipeline")
		}
	}

	// The original error is re-returned unchanged; the boundary never
	// substitutes or suppresses it.
	return result, err
}
