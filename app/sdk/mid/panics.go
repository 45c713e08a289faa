package mid

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/app/sdk/metrics"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

// Panics recovers from a panic in the handler chain. The stack is logged here
// and the client receives the generic internal failure from Errors.
func Panics(log *logger.Logger) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) (resp web.Encoder) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				log.Error(ctx, "panic", "method", r.Method, "path", r.URL.Path, "panic", rec, "trace", string(debug.Stack()))
				metrics.AddPanics(ctx)

				resp = errs.Errorf(errs.InternalOnlyLog, "PANIC %s %s [%v]", r.Method, r.URL.Path, rec)
			}()

			return next(ctx, r)
		}

		return h
	}

	return m
}
