package audit

import (
	"context"
	"database/sql"

	"github.com/code19m/errx"
	"github.com/scotline/pkg/logger"
	"github.com/scotline/pkg/pg"
	"github.com/uptrace/bun"
)

// Tracker collects the entities a unit of work intends to persist. Entities
// are registered instead of written directly so that stamping can run over
// the full change set before anything commits.
type Tracker struct {
	changes []Change
}

// Add registers an entity pending insertion.
func (t *Tracker) Add(entity any) {
	t.changes = append(t.changes, Change{Entity: entity, State: StateAdded})
}

// Update registers an entity pending update.
func (t *Tracker) Update(entity any) {
	t.changes = append(t.changes, Change{Entity: entity, State: StateModified})
}

// Delete registers an entity pending deletion. Soft-deletable entities are
// converted to updates at stamping time.
func (t *Tracker) Delete(entity any) {
	t.changes = append(t.changes, Change{Entity: entity, State: StateDeleted})
}

// Changes returns the registered changes in registration order.
func (t *Tracker) Changes() []Change {
	return t.changes
}

// UnitOfWork executes a function inside one database transaction, stamps the
// tracked changes, and flushes them. Stamping completes strictly before the
// transaction commits, so a cancelled or failed save never leaves partially
// applied stamps in the database.
type UnitOfWork struct {
	db      bun.IDB
	stamper *Stamper
	logger  logger.Logger
}

// NewUnitOfWork creates a UnitOfWork over the given database handle.
func NewUnitOfWork(db bun.IDB, lg logger.Logger) *UnitOfWork {
	return &UnitOfWork{
		db:      db,
		stamper: NewStamper(),
		logger:  lg.Named("audit.uow"),
	}
}

// Run opens a transaction, invokes fn to register changes on the tracker
// (and run any reads on tx), then stamps and flushes the change set. The
// transaction rolls back on any error, including stamping violations.
func (u *UnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, tx bun.Tx, t *Tracker) error) error {
	err := u.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		tracker := &Tracker{}

		if err := fn(ctx, tx, tracker); err != nil {
			return errx.Wrap(err)
		}

		changes, err := u.stamper.Apply(ctx, tracker.Changes())
		if err != nil {
			return errx.Wrap(err)
		}

		if err := u.flush(ctx, tx, changes); err != nil {
			return err
		}

		u.logger.WithContext(ctx).With("changes", len(changes)).Debug("flushed tracked changes")
		return nil
	})
	if err != nil {
		return errx.Wrap(err)
	}

	return nil
}

// flush writes the stamped change set through the transaction.
func (u *UnitOfWork) flush(ctx context.Context, tx bun.Tx, changes []Change) error {
	for _, change := range changes {
		var err error

		switch change.State {
		case StateAdded:
			_, err = tx.NewInsert().Model(change.Entity).Exec(ctx)
		case StateModified:
			_, err = tx.NewUpdate().Model(change.Entity).WherePK().Exec(ctx)
		case StateDeleted:
			_, err = tx.NewDelete().Model(change.Entity).WherePK().Exec(ctx)
		}

		if err != nil {
			if pg.IsConflict(err) {
				return errx.Wrap(err, errx.WithType(errx.T_Conflict))
			}
			return errx.Wrap(err)
		}
	}

	return nil
}
