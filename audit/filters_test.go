package audit_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/scotline/pkg/audit"
)

// Embedding SoftDelete must promote the select hook onto the model, so bun
// applies the deleted-rows filter on every select without any opt-in.
var _ bun.BeforeSelectHook = (*document)(nil)

func newQueryBuilderDB(t *testing.T) *bun.DB {
	t.Helper()

	// sql.Open is lazy; query building and rendering never connect.
	sqldb, err := sql.Open("pgx", "postgres://localhost:5432/unused")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })

	return bun.NewDB(sqldb, pgdialect.New())
}

func TestSoftDeleteSelectVisibility(t *testing.T) {
	db := newQueryBuilderDB(t)

	render := func(ctx context.Context) string {
		q := db.NewSelect().Model((*document)(nil))
		require.NoError(t, (&audit.SoftDelete{}).BeforeSelect(ctx, q))
		return q.String()
	}

	t.Run("plain select excludes deleted rows", func(t *testing.T) {
		query := render(context.Background())
		assert.Contains(t, query, "is_deleted = FALSE")
	})

	t.Run("WithDeleted keeps deleted rows visible", func(t *testing.T) {
		query := render(audit.WithDeleted(context.Background()))
		assert.NotContains(t, query, "is_deleted")
	})

	t.Run("OnlyDeleted returns deleted rows exclusively", func(t *testing.T) {
		query := render(audit.OnlyDeleted(context.Background()))
		assert.Contains(t, query, "is_deleted = TRUE")
	})
}
