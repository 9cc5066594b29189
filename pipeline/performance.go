package pipeline

import (
	"context"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/scotline/pkg/logger"
	"github.com/scotline/pkg/mask"
)

// LongRunningThreshold is the elapsed time above which a request is logged
// as long-running.
const LongRunningThreshold = 500 * time.Millisecond

// PerformanceStage times the rest of the chain and warns about long-running
// requests. It also feeds a per-request-name timer in the metrics registry.
// Purely observational: it never alters the response or aborts the chain.
type PerformanceStage[I Input, R Result] struct {
	logger  logger.Logger
	timer   metrics.Timer
	next    Handler[I, R]
	reqName string
	reqType string
}

// NewPerformanceStage returns a WrapFunc that times chain execution.
// A nil registry falls back to the process-wide default registry.
func NewPerformanceStage[I Input, R Result](
	lg logger.Logger,
	reqName string,
	registry metrics.Registry,
) WrapFunc[I, R] {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}

	return func(next Handler[I, R]) Handler[I, R] {
		return &PerformanceStage[I, R]{
			logger:  lg.Named("pipeline.performance"),
			timer:   metrics.GetOrRegisterTimer("pipeline."+reqName, registry),
			next:    next,
			reqName: reqName,
			reqType: requestNameFor[I](),
		}
	}
}

func (s *PerformanceStage[I, R]) Execute(ctx context.Context, input I) (R, error) {
	start := time.Now()

	// The elapsed time is recorded even when the continuation fails or panics.
	defer func() {
		elapsed := time.Since(start)
		s.timer.Update(elapsed)

		if elapsed > LongRunningThreshold {
			s.logger.
				WithContext(ctx).
				With("request_name", s.reqName).
				With("request_type", s.reqType).
				With("elapsed_ms", elapsed.Milliseconds()).
				With("input", mask.StructToOrdMap(input)).
				Warn("long running request detected")
		}
	}()

	return s.next.Execute(ctx, input)
}
