package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/limiter"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

// Allower records one attempt for a key and clears the attempts of a key.
type Allower interface {
	Allow(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// RateLimit counts attempts per authenticated user for the named operation.
// A nil limiter disables the check. When the counter backend fails the
// request is let through and the failure logged.
func RateLimit(log *logger.Logger, l Allower, op string) web.MidFunc {
	return rateLimit(log, l, op, false)
}

// RateLimitUntilSuccess is RateLimit for credential checks. A success
// response clears the attempts so only consecutive failures count.
func RateLimitUntilSuccess(log *logger.Logger, l Allower, op string) web.MidFunc {
	return rateLimit(log, l, op, true)
}

func rateLimit(log *logger.Logger, l Allower, op string, clearOnSuccess bool) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			if l == nil {
				return next(ctx, r)
			}

			actor, err := GetActor(ctx)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			key := op + ":" + actor.UserID.String()

			if _, err := l.Allow(ctx, key); err != nil {
				if errors.Is(err, limiter.ErrLimitExceeded) {
					return errs.New(errs.ResourceExhausted, errors.New("too many attempts, try again later"))
				}
				log.Error(ctx, "ratelimit", "op", op, "ERROR", err)
			}

			resp := next(ctx, r)

			if clearOnSuccess && checkIsError(resp) == nil {
				if err := l.Reset(ctx, key); err != nil {
					log.Error(ctx, "ratelimit", "op", op, "status", "reset failed", "ERROR", err)
				}
			}

			return resp
		}

		return h
	}

	return m
}
