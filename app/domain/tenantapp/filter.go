package tenantapp

import (
	"net/http"
	"strconv"

	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
)

type queryParams struct {
	Page        string
	Limit       string
	OrderBy     string
	Search      string
	IsActive    string
	IsSuspended string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:        values.Get("page"),
		Limit:       values.Get("limit"),
		OrderBy:     values.Get("orderBy"),
		Search:      values.Get("search"),
		IsActive:    values.Get("isActive"),
		IsSuspended: values.Get("isSuspended"),
	}
}

// parseFilter restricts tenant users to their own tenant row.
func parseFilter(qp queryParams, actor tenancy.Actor) (tenantbus.QueryFilter, *errs.Error) {
	var fieldErrors errs.FieldErrors

	filter := tenantbus.QueryFilter{
		ID: actor.ScopeFilter(),
	}

	if qp.Search != "" {
		filter.Search = &qp.Search
	}

	if qp.IsActive != "" {
		b, err := strconv.ParseBool(qp.IsActive)
		switch err {
		case nil:
			filter.Active = &b
		default:
			fieldErrors.Add("isActive", err)
		}
	}

	if qp.IsSuspended != "" {
		b, err := strconv.ParseBool(qp.IsSuspended)
		switch err {
		case nil:
			filter.Suspended = &b
		default:
			fieldErrors.Add("isSuspended", err)
		}
	}

	if fieldErrors != nil {
		return tenantbus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
