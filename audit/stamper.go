package audit

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/scotline/pkg/meta"
)

// State is the pending persistence state of a tracked entity.
type State int

const (
	// StateAdded marks an entity pending insertion.
	StateAdded State = iota
	// StateModified marks an entity pending update.
	StateModified
	// StateDeleted marks an entity pending physical deletion.
	StateDeleted
)

// Change is one tracked entity together with its pending state.
type Change struct {
	Entity any
	State  State
}

// Stamper classifies pending changes and applies audit and soft-delete
// stamps. It runs strictly before the unit of work commits.
type Stamper struct {
	now func() time.Time
}

// NewStamper creates a Stamper using wall-clock time.
func NewStamper() *Stamper {
	return &Stamper{now: time.Now}
}

// Apply stamps every change according to the capabilities its entity
// implements and returns the effective change list:
//
//   - added + CreatedAuditable: creation stamp, fails if already created
//   - modified + ModifiedAuditable: modification stamp, fails if never created
//   - deleted + SoftDeletable: converted in place to a modification with the
//     deletion stamp, so the row is updated instead of removed
//   - added + SoftDeletable: reset to a known non-deleted baseline
//
// The acting user is taken from the request metadata in ctx. Any stamping
// failure rejects the whole save.
func (s *Stamper) Apply(ctx context.Context, changes []Change) ([]Change, error) {
	actor := meta.ActingUserID(ctx)
	now := s.now()

	effective := make([]Change, len(changes))
	for i, change := range changes {
		switch change.State {
		case StateAdded:
			if created, ok := change.Entity.(CreatedAuditable); ok {
				if err := created.MarkAsCreated(actor, now); err != nil {
					return nil, errx.Wrap(err)
				}
			}
			if soft, ok := change.Entity.(SoftDeletable); ok {
				soft.MarkAsNotDeleted()
			}

		case StateModified:
			if modified, ok := change.Entity.(ModifiedAuditable); ok {
				if err := modified.MarkAsUpdated(actor, now); err != nil {
					return nil, errx.Wrap(err)
				}
			}

		case StateDeleted:
			if soft, ok := change.Entity.(SoftDeletable); ok {
				if err := soft.MarkAsDeleted(actor, now); err != nil {
					return nil, errx.Wrap(err)
				}
				// The deletion survives as an update carrying the stamp.
				change.State = StateModified
			}
		}

		effective[i] = change
	}

	return effective, nil
}
