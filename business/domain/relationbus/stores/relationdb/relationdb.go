// Package relationdb implements one existence lookup per related table.
package relationdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// tables maps each kind to its table and key column.
var tables = map[relation.Kind][2]string{
	relation.Lead:        {"leads", "lead_id"},
	relation.Account:     {"accounts", "account_id"},
	relation.Contact:     {"contacts", "contact_id"},
	relation.Opportunity: {"opportunities", "opportunity_id"},
	relation.Deal:        {"deals", "deal_id"},
}

// Store checks existence of rows in a single table.
type Store struct {
	log   *logger.Logger
	db    sqlx.ExtContext
	query string
}

// NewLookups constructs the lookup table for every supported kind.
func NewLookups(log *logger.Logger, db *sqlx.DB) map[relation.Kind]relationbus.Lookup {
	lookups := make(map[relation.Kind]relationbus.Lookup, len(tables))

	for kind, t := range tables {
		lookups[kind] = &Store{
			log: log,
			db:  db,
			query: `
	SELECT
		count(1)
	FROM
		` + t[0] + `
	WHERE
		` + t[1] + ` = :id AND tenant_id = :tenant_id AND is_active = TRUE`,
		}
	}

	return lookups
}

// Exists implements relationbus.Lookup.
func (s *Store) Exists(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (bool, error) {
	data := struct {
		ID       uuid.UUID `db:"id"`
		TenantID uuid.UUID `db:"tenant_id"`
	}{
		ID:       id,
		TenantID: tenantID,
	}

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, s.query, data, &count); err != nil {
		return false, fmt.Errorf("db: %w", err)
	}

	return count.Count > 0, nil
}
