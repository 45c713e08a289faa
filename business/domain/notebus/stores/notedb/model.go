package notedb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

type noteDB struct {
	ID             uuid.UUID      `db:"note_id"`
	TenantID       uuid.UUID      `db:"tenant_id"`
	Title          string         `db:"title"`
	Content        string         `db:"content"`
	RelatedTo      sql.NullString `db:"related_to"`
	RelatedToID    uuid.NullUUID  `db:"related_to_id"`
	OwnerID        uuid.UUID      `db:"owner_id"`
	CreatedBy      uuid.UUID      `db:"created_by"`
	LastModifiedBy uuid.UUID      `db:"last_modified_by"`
	Active         bool           `db:"is_active"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func toDBNote(bus notebus.Note) noteDB {
	db := noteDB{
		ID:             bus.ID,
		TenantID:       bus.TenantID,
		Title:          bus.Title,
		Content:        bus.Content,
		OwnerID:        bus.OwnerID,
		CreatedBy:      bus.CreatedBy,
		LastModifiedBy: bus.LastModifiedBy,
		Active:         bus.Active,
		CreatedAt:      bus.CreatedAt.UTC(),
		UpdatedAt:      bus.UpdatedAt.UTC(),
	}

	if !bus.RelatedTo.IsZero() {
		db.RelatedTo = sql.NullString{String: bus.RelatedTo.Kind.String(), Valid: true}
		db.RelatedToID = uuid.NullUUID{UUID: bus.RelatedTo.ID, Valid: true}
	}

	return db
}

func toBusNote(db noteDB) (notebus.Note, error) {
	var ref relation.Ref
	if db.RelatedTo.Valid {
		kind, err := relation.ParseKind(db.RelatedTo.String)
		if err != nil {
			return notebus.Note{}, fmt.Errorf("parse related to: %w", err)
		}
		ref = relation.Ref{Kind: kind, ID: db.RelatedToID.UUID}
	}

	bus := notebus.Note{
		ID:             db.ID,
		TenantID:       db.TenantID,
		Title:          db.Title,
		Content:        db.Content,
		RelatedTo:      ref,
		OwnerID:        db.OwnerID,
		CreatedBy:      db.CreatedBy,
		LastModifiedBy: db.LastModifiedBy,
		Active:         db.Active,
		CreatedAt:      db.CreatedAt.In(time.Local),
		UpdatedAt:      db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusNotes(dbs []noteDB) ([]notebus.Note, error) {
	bus := make([]notebus.Note, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusNote(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
