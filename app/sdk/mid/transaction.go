package mid

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

// BeginCommitRollback runs the handler inside one transaction, available
// through GetTran. Every write of the request commits together when the
// handler returns a success response and rolls back together otherwise.
func BeginCommitRollback(log *logger.Logger, bgn sqldb.Beginner) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			tx, err := bgn.Begin()
			if err != nil {
				return errs.Errorf(errs.Internal, "begin transaction: %s", err)
			}

			log.Info(ctx, "transaction", "status", "begin", "path", r.URL.Path)

			committed := false
			defer func() {
				if committed {
					return
				}

				switch err := tx.Rollback(); {
				case err == nil:
					log.Info(ctx, "transaction", "status", "rollback", "path", r.URL.Path)
				case !errors.Is(err, sql.ErrTxDone):
					log.Error(ctx, "transaction", "status", "rollback failed", "path", r.URL.Path, "ERROR", err)
				}
			}()

			resp := next(setTran(ctx, tx), r)

			if checkIsError(resp) != nil {
				return resp
			}

			if err := tx.Commit(); err != nil {
				return errs.Errorf(errs.Internal, "commit transaction: %s", err)
			}
			committed = true

			log.Info(ctx, "transaction", "status", "commit", "path", r.URL.Path)

			return resp
		}

		return h
	}

	return m
}
