// Package meetingdb contains meeting related CRUD functionality.
package meetingdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jmoiron/sqlx"
)

const uniqueMeetingID = "meetings_meeting_id_key"

const columns = `meeting_pk, tenant_id, meeting_id, meeting_link, title, description, location,
	location_type, from_at, to_at, host_id, owner_id, created_by, last_modified_by, related_to,
	related_to_id, participants, status, is_active, created_at, updated_at`

// Store manages the set of APIs for meeting database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (meetingbus.Storer, error) {
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

// Create inserts a new meeting into the database.
func (s *Store) Create(ctx context.Context, mtg meetingbus.Meeting) error {
	dbMtg, err := toDBMeeting(mtg)
	if err != nil {
		return err
	}

	const q = `
	INSERT INTO meetings
		(meeting_pk, tenant_id, meeting_id, meeting_link, title, description, location,
		location_type, from_at, to_at, host_id, owner_id, created_by, last_modified_by, related_to,
		related_to_id, participants, status, is_active, created_at, updated_at)
	VALUES
		(:meeting_pk, :tenant_id, :meeting_id, :meeting_link, :title, :description, :location,
		:location_type, :from_at, :to_at, :host_id, :owner_id, :created_by, :last_modified_by, :related_to,
		:related_to_id, :participants, :status, :is_active, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, dbMtg); err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) && dupErr.Column == uniqueMeetingID {
			return fmt.Errorf("namedexeccontext: %w", meetingbus.ErrDuplicateMeetingID)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update replaces a meeting row in the database. The tenant, meeting id,
// link and creator never change.
func (s *Store) Update(ctx context.Context, mtg meetingbus.Meeting) error {
	dbMtg, err := toDBMeeting(mtg)
	if err != nil {
		return err
	}

	const q = `
	UPDATE
		meetings
	SET
		title = :title,
		description = :description,
		location = :location,
		location_type = :location_type,
		from_at = :from_at,
		to_at = :to_at,
		host_id = :host_id,
		last_modified_by = :last_modified_by,
		related_to = :related_to,
		related_to_id = :related_to_id,
		participants = :participants,
		status = :status,
		is_active = :is_active,
		updated_at = :updated_at
	WHERE
		meeting_pk = :meeting_pk`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, dbMtg); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves a list of existing meetings from the database.
func (s *Store) Query(ctx context.Context, filter meetingbus.QueryFilter, orderBy order.By, page page.Page) ([]meetingbus.Meeting, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		meetings`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)

	orderByClause, err := orderByClause(orderBy)
	if err != nil {
		return nil, err
	}

	buf.WriteString(orderByClause)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbMtgs []meetingDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbMtgs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusMeetings(dbMtgs)
}

// Count returns the total number of meetings in the DB.
func (s *Store) Count(ctx context.Context, filter meetingbus.QueryFilter) (int, error) {
	data := map[string]any{}

	const q = `
	SELECT
		count(1)
	FROM
		meetings`

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

// QueryByID gets the specified meeting from the database.
func (s *Store) QueryByID(ctx context.Context, id uuid.UUID) (meetingbus.Meeting, error) {
	data := struct {
		ID uuid.UUID `db:"meeting_pk"`
	}{
		ID: id,
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		meetings
	WHERE
		meeting_pk = :meeting_pk`

	var dbMtg meetingDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbMtg); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return meetingbus.Meeting{}, fmt.Errorf("db: %w", meetingbus.ErrNotFound)
		}
		return meetingbus.Meeting{}, fmt.Errorf("db: %w", err)
	}

	return toBusMeeting(dbMtg)
}
