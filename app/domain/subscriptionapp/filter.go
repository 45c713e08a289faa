package subscriptionapp

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/types/substatus"
)

type queryParams struct {
	Page     string
	Limit    string
	OrderBy  string
	TenantID string
	Status   string
	PlanID   string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:     values.Get("page"),
		Limit:    values.Get("limit"),
		OrderBy:  values.Get("orderBy"),
		TenantID: values.Get("tenantId"),
		Status:   values.Get("status"),
		PlanID:   values.Get("planId"),
	}
}

func parseFilter(qp queryParams) (subscriptionbus.QueryFilter, *errs.Error) {
	var fieldErrors errs.FieldErrors
	var filter subscriptionbus.QueryFilter

	if qp.TenantID != "" {
		id, err := uuid.Parse(qp.TenantID)
		switch err {
		case nil:
			filter.TenantID = &id
		default:
			fieldErrors.Add("tenantId", err)
		}
	}

	if qp.Status != "" {
		status, err := substatus.Parse(qp.Status)
		switch err {
		case nil:
			filter.Status = &status
		default:
			fieldErrors.Add("status", err)
		}
	}

	if qp.PlanID != "" {
		id, err := uuid.Parse(qp.PlanID)
		switch err {
		case nil:
			filter.PlanID = &id
		default:
			fieldErrors.Add("planId", err)
		}
	}

	if fieldErrors != nil {
		return subscriptionbus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
