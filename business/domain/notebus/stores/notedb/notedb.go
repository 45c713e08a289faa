// Package notedb contains note related CRUD functionality.
package notedb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jmoiron/sqlx"
)

const columns = `note_id, tenant_id, title, content, related_to, related_to_id, owner_id,
	created_by, last_modified_by, is_active, created_at, updated_at`

// Store manages the set of APIs for note database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (notebus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// Create inserts a new note into the database.
func (s *Store) Create(ctx context.Context, note notebus.Note) error {
	const q = `
	INSERT INTO notes
		(note_id, tenant_id, title, content, related_to, related_to_id, owner_id,
		created_by, last_modified_by, is_active, created_at, updated_at)
	VALUES
		(:note_id, :tenant_id, :title, :content, :related_to, :related_to_id, :owner_id,
		:created_by, :last_modified_by, :is_active, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBNote(note)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update replaces a note row in the database.
func (s *Store) Update(ctx context.Context, note notebus.Note) error {
	const q = `
	UPDATE
		notes
	SET
		title = :title,
		content = :content,
		related_to = :related_to,
		related_to_id = :related_to_id,
		last_modified_by = :last_modified_by,
		is_active = :is_active,
		updated_at = :updated_at
	WHERE
		note_id = :note_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBNote(note)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves a list of existing notes from the database.
func (s *Store) Query(ctx context.Context, filter notebus.QueryFilter, orderBy order.By, page page.Page) ([]notebus.Note, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		notes`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)

	orderByClause, err := orderByClause(orderBy)
	if err != nil {
		return nil, err
	}

	buf.WriteString(orderByClause)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbNotes []noteDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbNotes); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusNotes(dbNotes)
}

// Count returns the total number of notes in the DB.
func (s *Store) Count(ctx context.Context, filter notebus.QueryFilter) (int, error) {
	data := map[string]any{}

	const q = `
	SELECT
		count(1)
	FROM
		notes`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, buf.String(), data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// QueryByID gets the specified note from the database.
func (s *Store) QueryByID(ctx context.Context, id uuid.UUID) (notebus.Note, error) {
	data := struct {
		ID uuid.UUID `db:"note_id"`
	}{
		ID: id,
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		notes
	WHERE
		note_id = :note_id`

	var dbNote noteDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbNote); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return notebus.Note{}, fmt.Errorf("db: %w", notebus.ErrNotFound)
		}
		return notebus.Note{}, fmt.Errorf("db: %w", err)
	}

	return toBusNote(dbNote)
}
