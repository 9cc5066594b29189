// Package respond renders pipeline results and aborts over Fiber.
//
// The pipeline never touches the transport: stages return an Abort as an
// error value and this package is the single place that turns it into a wire
// response. Unhandled faults become a generic 500 envelope; their detail is
// exposed only when hideDetails is off (development mode).
package respond

import (
	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/scotline/pkg/pipeline"
)

// Write renders the outcome of a dispatched request. A nil error writes the
// result as JSON with 200 OK; an Abort writes the abort envelope with its own
// status; any other error writes a 500 envelope.
func Write(c *fiber.Ctx, result any, err error, hideDetails bool) error {
	if err == nil {
		return c.Status(fiber.StatusOK).JSON(result)
	}
	return WriteError(c, err, hideDetails)
}

// WriteError renders an error outcome. The envelope shape is
// {title, status, detail, errors?, timestamp} for aborts and faults alike.
func WriteError(c *fiber.Ctx, err error, hideDetails bool) error {
	if abort, ok := pipeline.AsAbort(err); ok {
		return c.Status(abort.Status).JSON(abort)
	}

	fault := pipeline.NewAbort(fiber.StatusInternalServerError, faultDetail(err, hideDetails))
	return c.Status(fault.Status).JSON(fault)
}

// ErrorHandler returns a Fiber error handler that renders every unhandled
// router error through the same envelope.
//
// If the response status code is already set to an error (>= 400), it does
// not override it.
func ErrorHandler(hideDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		r := c.Response()
		if r != nil && r.StatusCode() >= fiber.StatusBadRequest {
			return nil
		}
		return WriteError(c, err, hideDetails)
	}
}

// faultDetail decides how much of an internal fault leaks to the client.
func faultDetail(err error, hideDetails bool) string {
	if hideDetails {
		return "An unexpected error occurred"
	}
	return errx.AsErrorX(err).Error()
}
