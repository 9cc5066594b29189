package audit

import "context"

// Selects over soft-deletable models hide deleted rows by default: the
// SoftDelete select hook injects the is_deleted filter on every query, so a
// plain db.NewSelect().Model(...) never returns deleted rows. Visibility is
// widened explicitly through the query context:
//
//	db.NewSelect().Model(&users).Scan(audit.WithDeleted(ctx), &users)

type visibility int

const (
	visibilityLive visibility = iota
	visibilityAll
	visibilityDeletedOnly
)

type visibilityKey struct{}

// WithDeleted keeps soft-deleted rows visible for selects executed with the
// returned context.
func WithDeleted(ctx context.Context) context.Context {
	return context.WithValue(ctx, visibilityKey{}, visibilityAll)
}

// OnlyDeleted restricts selects executed with the returned context to
// soft-deleted rows exclusively.
func OnlyDeleted(ctx context.Context) context.Context {
	return context.WithValue(ctx, visibilityKey{}, visibilityDeletedOnly)
}

func visibilityFrom(ctx context.Context) visibility {
	v, _ := ctx.Value(visibilityKey{}).(visibility)
	return v
}
