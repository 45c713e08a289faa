package mid

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/business/types/actions"
	"github.com/jcpaschoal/tenantcrm/business/types/resource"
)

// Authorize checks the caller's role against the policy for the resource,
// deriving the action from the HTTP method.
func Authorize(a *auth.Auth, res resource.Resource) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			act, err := actions.FromMethod(r.Method)
			if err != nil {
				return errs.New(errs.FailedPrecondition, err)
			}

			if err := a.Authorize(GetClaims(ctx), res, act); err != nil {
				return errs.New(errs.PermissionDenied, err)
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}

// AuthorizeAction checks the caller's role against the policy for an
// explicit action.
func AuthorizeAction(a *auth.Auth, res resource.Resource, act actions.Action) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			if err := a.Authorize(GetClaims(ctx), res, act); err != nil {
				return errs.New(errs.PermissionDenied, err)
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}
