// Package migrate contains the database schema, migrations and seeding data.
package migrate

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jmoiron/sqlx"
)

var (
	//go:embed sql/migrate.sql
	migrateDoc string

	//go:embed sql/seed.sql
	seedDoc string
)

// Migration is one versioned block of the schema document.
type Migration struct {
	Version     string
	Description string
	Script      string
}

// Parse splits a schema document into its versioned blocks. Each block
// starts with a "-- Version:" line followed by a "-- Description:" line.
func Parse(doc string) ([]Migration, error) {
	var migs []Migration
	var cur *Migration

	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "-- Version:"):
			if cur != nil {
				migs = append(migs, *cur)
			}
			cur = &Migration{Version: strings.TrimSpace(strings.TrimPrefix(trimmed, "-- Version:"))}

		case strings.HasPrefix(trimmed, "-- Description:"):
			if cur == nil {
				return nil, errors.New("description before version")
			}
			cur.Description = strings.TrimSpace(strings.TrimPrefix(trimmed, "-- Description:"))

		default:
			if cur == nil {
				if trimmed != "" {
					return nil, fmt.Errorf("statement outside a version block: %q", trimmed)
				}
				continue
			}
			cur.Script += line + "\n"
		}
	}

	if cur != nil {
		migs = append(migs, *cur)
	}

	seen := make(map[string]bool)
	for _, m := range migs {
		if seen[m.Version] {
			return nil, fmt.Errorf("duplicate version %s", m.Version)
		}
		seen[m.Version] = true
	}

	return migs, nil
}

// Migrate attempts to bring the database up to date with the migrations
// defined in this package.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := sqldb.StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("status check database: %w", err)
	}

	migs, err := Parse(migrateDoc)
	if err != nil {
		return fmt.Errorf("parse migrations: %w", err)
	}

	const create = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version     TEXT        NOT NULL PRIMARY KEY,
		description TEXT        NOT NULL,
		applied_at  TIMESTAMPTZ NOT NULL
	)`

	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return fmt.Errorf("query versions: %w", err)
	}

	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, m := range migs {
		if done[m.Version] {
			continue
		}

		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("version %s: %w", m.Version, err)
		}
	}

	return nil
}

func apply(ctx context.Context, db *sqlx.DB, m Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.Script); err != nil {
		return err
	}

	const q = `INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, q, m.Version, m.Description, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

// Seed runs the seed document against the database. It is safe to run
// more than once.
func Seed(ctx context.Context, db *sqlx.DB) (err error) {
	if err := sqldb.StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("status check database: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if errTx := tx.Rollback(); errTx != nil {
			if errors.Is(errTx, sql.ErrTxDone) {
				return
			}

			err = fmt.Errorf("rollback: %w", errTx)
			return
		}
	}()

	if _, err := tx.Exec(seedDoc); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
