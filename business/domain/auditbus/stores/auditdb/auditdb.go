// Package auditdb contains access audit persistence.
package auditdb

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/auditaction"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jmoiron/sqlx"
)

type auditDB struct {
	ID           uuid.UUID      `db:"audit_id"`
	TenantID     uuid.NullUUID  `db:"tenant_id"`
	UserID       uuid.UUID      `db:"user_id"`
	ResourceType string         `db:"resource_type"`
	ResourceID   string         `db:"resource_id"`
	ResourceName sql.NullString `db:"resource_name"`
	Action       string         `db:"action"`
	IPAddress    sql.NullString `db:"ip_address"`
	UserAgent    sql.NullString `db:"user_agent"`
	CreatedAt    time.Time      `db:"created_at"`
}

// Store manages the set of APIs for audit database access.
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

// Create appends an audit row.
func (s *Store) Create(ctx context.Context, aud auditbus.Audit) error {
	const q = `
	INSERT INTO access_audits
		(audit_id, tenant_id, user_id, resource_type, resource_id, resource_name, action, ip_address, user_agent, created_at)
	VALUES
		(:audit_id, :tenant_id, :user_id, :resource_type, :resource_id, :resource_name, :action, :ip_address, :user_agent, :created_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBAudit(aud)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves a page of audit rows, newest first.
func (s *Store) Query(ctx context.Context, filter auditbus.QueryFilter, page page.Page) ([]auditbus.Audit, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	const q = `
	SELECT
		audit_id, tenant_id, user_id, resource_type, resource_id, resource_name, action, ip_address, user_agent, created_at
	FROM
		access_audits`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)
	buf.WriteString(" ORDER BY created_at DESC OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbAuds []auditDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbAuds); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	auds := make([]auditbus.Audit, len(dbAuds))
	for i, db := range dbAuds {
		aud, err := toBusAudit(db)
		if err != nil {
			return nil, err
		}
		auds[i] = aud
	}

	return auds, nil
}

// Count returns the number of audit rows matching the filter.
func (s *Store) Count(ctx context.Context, filter auditbus.QueryFilter) (int, error) {
	data := map[string]any{}

	buf := bytes.NewBufferString(`SELECT count(1) FROM access_audits`)
	applyFilter(filter, data, buf)

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, buf.String(), data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// =============================================================================

func applyFilter(filter auditbus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.TenantID != nil {
		data["tenant_id"] = *filter.TenantID
		wc = append(wc, "tenant_id = :tenant_id")
	}

	if filter.UserID != nil {
		data["user_id"] = *filter.UserID
		wc = append(wc, "user_id = :user_id")
	}

	if filter.ResourceType != nil {
		data["resource_type"] = *filter.ResourceType
		wc = append(wc, "resource_type = :resource_type")
	}

	if filter.StartDate != nil {
		data["start_date"] = filter.StartDate.UTC()
		wc = append(wc, "created_at >= :start_date")
	}

	if filter.EndDate != nil {
		data["end_date"] = filter.EndDate.UTC()
		wc = append(wc, "created_at <= :end_date")
	}

	if len(wc) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(wc, " AND "))
	}
}

func toDBAudit(bus auditbus.Audit) auditDB {
	return auditDB{
		ID:           bus.ID,
		TenantID:     uuid.NullUUID{UUID: bus.TenantID, Valid: bus.TenantID != uuid.Nil},
		UserID:       bus.UserID,
		ResourceType: bus.ResourceType,
		ResourceID:   bus.ResourceID,
		ResourceName: nullString(bus.ResourceName),
		Action:       bus.Action.String(),
		IPAddress:    nullString(bus.IPAddress),
		UserAgent:    nullString(bus.UserAgent),
		CreatedAt:    bus.CreatedAt.UTC(),
	}
}

func toBusAudit(db auditDB) (auditbus.Audit, error) {
	act, err := auditaction.Parse(db.Action)
	if err != nil {
		return auditbus.Audit{}, fmt.Errorf("parse action: %w", err)
	}

	aud := auditbus.Audit{
		ID:           db.ID,
		TenantID:     db.TenantID.UUID,
		UserID:       db.UserID,
		ResourceType: db.ResourceType,
		ResourceID:   db.ResourceID,
		ResourceName: db.ResourceName.String,
		Action:       act,
		IPAddress:    db.IPAddress.String,
		UserAgent:    db.UserAgent.String,
		CreatedAt:    db.CreatedAt.In(time.Local),
	}

	return aud, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
