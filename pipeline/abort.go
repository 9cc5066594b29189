package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Abort is the short-circuit result of a stage. It is threaded back through
// the chain as an error value, so terminating the pipeline never requires
// writing to a shared transport object. The transport edge decides how to
// render it (see the http/respond package).
type Abort struct {
	// Title is a short human-readable summary, typically the generic status
	// text ("Unauthorized", "Validation errors").
	Title string `json:"title"`

	// Status is the HTTP status code clients should branch on.
	Status int `json:"status"`

	// Detail optionally explains this particular occurrence.
	Detail string `json:"detail"`

	// Fields carries field-scoped validation messages, when present.
	Fields map[string][]string `json:"errors,omitempty"`

	// Timestamp records when the pipeline was aborted.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (a *Abort) Error() string {
	if a.Detail != "" {
		return fmt.Sprintf("pipeline aborted: %d %s: %s", a.Status, a.Title, a.Detail)
	}
	return fmt.Sprintf("pipeline aborted: %d %s", a.Status, a.Title)
}

// NewAbort creates an Abort for the given status code. An empty detail falls
// back to the standard status text.
func NewAbort(status int, detail string) *Abort {
	return &Abort{
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
}

// AsAbort extracts an Abort from an error chain.
func AsAbort(err error) (*Abort, bool) {
	var a *Abort
	if errors.As(err, &a) {
		return a, true
	}
	return nil, false
}
