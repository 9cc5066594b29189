// Package audit provides entity lifecycle stamping and soft deletion for
// persisted models.
//
// Models embed Auditable and SoftDelete to opt into who/when stamping and
// reversible deletion. The Stamper classifies pending changes right before a
// unit of work commits, stamps the embedded fields, and converts physical
// deletions of soft-deletable entities into updates. Business handlers never
// touch the lifecycle fields directly.
package audit

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"
)

// Error codes for lifecycle invariant violations. A violation rejects the
// whole save.
const (
	CodeAlreadyCreated = "ENTITY_ALREADY_CREATED"
	CodeNotCreated     = "ENTITY_NOT_CREATED"
	CodeAlreadyDeleted = "ENTITY_ALREADY_DELETED"
)

// CreatedAuditable is the capability of entities that record who created them
// and when.
type CreatedAuditable interface {
	MarkAsCreated(actor string, at time.Time) error
}

// ModifiedAuditable is the capability of entities that record who last
// modified them and when.
type ModifiedAuditable interface {
	MarkAsUpdated(actor string, at time.Time) error
}

// SoftDeletable is the capability of entities whose deletion is recorded as a
// flag instead of removing the row.
type SoftDeletable interface {
	MarkAsDeleted(actor string, at time.Time) error
	MarkAsNotDeleted()
}

// Auditable provides creation and modification stamps. Embed it in a bun
// model to opt the entity into audit stamping.
type Auditable struct {
	// CreatedBy stores the identifier of the user that created the record.
	CreatedBy string `bun:"created_by,nullzero" json:"created_by"`
	// CreatedAt stores the timestamp when the record was created.
	CreatedAt time.Time `bun:"created_at,nullzero" json:"created_at"`
	// UpdatedBy stores the identifier of the user that last modified the record.
	UpdatedBy string `bun:"updated_by,nullzero" json:"updated_by"`
	// UpdatedAt stores the timestamp when the record was last modified.
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at"`
	// IsUpdated reports whether the record was ever modified after creation.
	IsUpdated bool `bun:"is_updated" json:"is_updated"`
}

var (
	_ CreatedAuditable  = (*Auditable)(nil)
	_ ModifiedAuditable = (*Auditable)(nil)
)

// MarkAsCreated stamps the creation fields. An entity can be created at most
// once: a second call fails and must reject the save.
func (m *Auditable) MarkAsCreated(actor string, at time.Time) error {
	if !m.CreatedAt.IsZero() {
		return errx.New(
			"entity is already marked as created",
			errx.WithCode(CodeAlreadyCreated),
			errx.WithType(errx.T_Conflict),
		)
	}

	m.CreatedBy = actor
	m.CreatedAt = at
	return nil
}

// MarkAsUpdated stamps the modification fields. Fails when the entity was
// never created.
func (m *Auditable) MarkAsUpdated(actor string, at time.Time) error {
	if m.CreatedAt.IsZero() {
		return errx.New(
			"entity cannot be updated before it is created",
			errx.WithCode(CodeNotCreated),
			errx.WithType(errx.T_Conflict),
		)
	}

	m.UpdatedBy = actor
	m.UpdatedAt = at
	m.IsUpdated = true
	return nil
}

// SoftDelete provides the reversible deletion flag. Embed it in a bun model
// to have physical deletions converted into updates at save time.
type SoftDelete struct {
	// IsDeleted reports whether the record is currently deleted.
	IsDeleted bool `bun:"is_deleted" json:"is_deleted"`
	// DeletedBy stores the identifier of the user that deleted the record.
	DeletedBy string `bun:"deleted_by,nullzero" json:"deleted_by"`
	// DeletedAt stores the timestamp when the record was deleted.
	DeletedAt time.Time `bun:"deleted_at,nullzero" json:"deleted_at"`
}

var (
	_ SoftDeletable        = (*SoftDelete)(nil)
	_ bun.BeforeSelectHook = (*SoftDelete)(nil)
)

// BeforeSelect implements bun.BeforeSelectHook. Embedding SoftDelete promotes
// the hook onto the model, so every select over a soft-deletable model
// excludes deleted rows unless the query context widens visibility with
// WithDeleted or OnlyDeleted.
func (m *SoftDelete) BeforeSelect(ctx context.Context, query *bun.SelectQuery) error {
	switch visibilityFrom(ctx) {
	case visibilityAll:
	case visibilityDeletedOnly:
		query.Where("is_deleted = TRUE")
	default:
		query.Where("is_deleted = FALSE")
	}
	return nil
}

// MarkAsDeleted stamps the deletion fields. The flag transitions false to
// true exactly once per delete cycle; deleting an already deleted entity
// fails and must reject the save.
func (m *SoftDelete) MarkAsDeleted(actor string, at time.Time) error {
	if m.IsDeleted {
		return errx.New(
			"entity is already marked as deleted",
			errx.WithCode(CodeAlreadyDeleted),
			errx.WithType(errx.T_Conflict),
		)
	}

	m.IsDeleted = true
	m.DeletedBy = actor
	m.DeletedAt = at
	return nil
}

// MarkAsNotDeleted restores the entity to a known non-deleted baseline.
// After a restore the entity may be deleted again.
func (m *SoftDelete) MarkAsNotDeleted() {
	m.IsDeleted = false
	m.DeletedBy = ""
	m.DeletedAt = time.Time{}
}
