package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/code19m/errx"
	"github.com/scotline/pkg/alert"
	"github.com/scotline/pkg/logger"
	"github.com/scotline/pkg/meta"
)

// alertTimeout bounds how long a fault report may take to ship.
const alertTimeout = 3 * time.Second

// AlertStage ships unhandled faults to the configured alert provider. The
// report is sent asynchronously on a detached context so a slow alerting
// backend never delays the response. Aborts are business rejections and are
// not reported.
type AlertStage[I Input, R Result] struct {
	logger   logger.Logger
	provider alert.Provider
	next     Handler[I, R]
	reqName  string
}

// NewAlertStage returns a WrapFunc that reports unhandled faults.
func NewAlertStage[I Input, R Result](
	lg logger.Logger,
	provider alert.Provider,
	reqName string,
) WrapFunc[I, R] {
	return func(next Handler[I, R]) Handler[I, R] {
		return &AlertStage[I, R]{
			logger:   lg.Named("pipeline.alerting"),
			provider: provider,
			next:     next,
			reqName:  reqName,
		}
	}
}

func (s *AlertStage[I, R]) Execute(ctx context.Context, input I) (R, error) {
	result, err := s.next.Execute(ctx, input)
	if err == nil || s.provider == nil {
		return result, err
	}
	if _, aborted := AsAbort(err); aborted {
		return result, err
	}

	e := errx.AsErrorX(err)

	operation := fmt.Sprintf("request: %s", s.reqName)
	details := make(map[string]string)
	for k, v := range meta.ExtractMetaFromContext(ctx) {
		details[string(k)] = v
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)

	go func() {
		defer cancel()

		sendErr := s.provider.SendError(sendCtx, e.Code(), err.Error(), operation, details)
		if sendErr != nil {
			s.logger.With("alert_send_error", sendErr).Warn("failed to send error alert")
		}
	}()

	return result, err
}
