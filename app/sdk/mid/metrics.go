package mid

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/metrics"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
)

// Metrics updates program counters.
func Metrics() web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			resp := next(ctx, r)

			metrics.AddRequests(ctx)

			if checkIsError(resp) != nil {
				metrics.AddErrors(ctx)
			}

			return resp
		}

		return h
	}

	return m
}
