// Package tenantdb contains tenant related CRUD functionality.
package tenantdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jmoiron/sqlx"
)

const columns = `tenant_id, name, slug, email, phone, address, industry, website, is_active,
	suspended, suspension_reason, max_users, user_count, storage_used_mb, created_at, updated_at`

// Store manages the set of APIs for tenant database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (tenantbus.Storer, error) {
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

// Create inserts a new tenant into the database.
func (s *Store) Create(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	INSERT INTO tenants
		(tenant_id, name, slug, email, phone, address, industry, website, is_active,
		suspended, suspension_reason, max_users, user_count, storage_used_mb, created_at, updated_at)
	VALUES
		(:tenant_id, :name, :slug, :email, :phone, :address, :industry, :website, :is_active,
		:suspended, :suspension_reason, :max_users, :user_count, :storage_used_mb, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) && dupErr.Column == "tenants_slug_key" {
			return fmt.Errorf("namedexeccontext: %w", tenantbus.ErrUniqueSlug)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update replaces a tenant row in the database. The usage counters are
// maintained by AdjustUserCount and are not written here.
func (s *Store) Update(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	UPDATE
		tenants
	SET
		name = :name,
		email = :email,
		phone = :phone,
		address = :address,
		industry = :industry,
		website = :website,
		is_active = :is_active,
		suspended = :suspended,
		suspension_reason = :suspension_reason,
		max_users = :max_users,
		updated_at = :updated_at
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Delete removes a tenant from the database.
func (s *Store) Delete(ctx context.Context, t tenantbus.Tenant) error {
	data := struct {
		ID uuid.UUID `db:"tenant_id"`
	}{
		ID: t.ID,
	}

	const q = `
	DELETE FROM
		tenants
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// AdjustUserCount moves user_count by delta. Increments are refused when
// they would pass max_users; the boolean reports whether the row changed.
func (s *Store) AdjustUserCount(ctx context.Context, tenantID uuid.UUID, delta int) (bool, error) {
	data := struct {
		ID    uuid.UUID `db:"tenant_id"`
		Delta int       `db:"delta"`
	}{
		ID:    tenantID,
		Delta: delta,
	}

	const q = `
	UPDATE
		tenants
	SET
		user_count = GREATEST(user_count + :delta, 0)
	WHERE
		tenant_id = :tenant_id AND
		(:delta <= 0 OR user_count + :delta <= max_users)`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return false, fmt.Errorf("namedexeccontext: %w", err)
	}

	return n > 0, nil
}

// Query retrieves a list of existing tenants from the database.
func (s *Store) Query(ctx context.Context, filter tenantbus.QueryFilter, orderBy order.By, page page.Page) ([]tenantbus.Tenant, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		tenants`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)

	orderByClause, err := orderByClause(orderBy)
	if err != nil {
		return nil, err
	}

	buf.WriteString(orderByClause)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbTens []tenantDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbTens); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusTenants(dbTens)
}

// Count returns the total number of tenants in the DB.
func (s *Store) Count(ctx context.Context, filter tenantbus.QueryFilter) (int, error) {
	data := map[string]any{}

	const q = `
	SELECT
		count(1)
	FROM
		tenants`

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

// QueryByID gets the specified tenant from the database.
func (s *Store) QueryByID(ctx context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	data := struct {
		ID string `db:"tenant_id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		tenants
	WHERE
		tenant_id = :tenant_id`

	var dbT tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbT); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return tenantbus.Tenant{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
		}
		return tenantbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbT)
}

// QueryBySlug gets the tenant owning the slug.
func (s *Store) QueryBySlug(ctx context.Context, slug string) (tenantbus.Tenant, error) {
	data := struct {
		Slug string `db:"slug"`
	}{
		Slug: slug,
	}

	const q = `
	SELECT
		` + columns + `
	FROM
		tenants
	WHERE
		slug = :slug`

	var dbT tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbT); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return tenantbus.Tenant{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
		}
		return tenantbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbT)
}

// Stats counts tenants by lifecycle state in a single pass.
func (s *Store) Stats(ctx context.Context) (tenantbus.Stats, error) {
	const q = `
	SELECT
		count(1) AS total,
		count(1) FILTER (WHERE is_active) AS active,
		count(1) FILTER (WHERE suspended) AS suspended
	FROM
		tenants`

	var st struct {
		Total     int `db:"total"`
		Active    int `db:"active"`
		Suspended int `db:"suspended"`
	}
	if err := sqldb.QueryStruct(ctx, s.log, s.db, q, &st); err != nil {
		return tenantbus.Stats{}, fmt.Errorf("db: %w", err)
	}

	return tenantbus.Stats{
		Total:     st.Total,
		Active:    st.Active,
		Suspended: st.Suspended,
	}, nil
}
