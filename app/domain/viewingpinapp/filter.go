package viewingpinapp

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
)

type queryParams struct {
	Page         string
	Limit        string
	TenantID     string
	UserID       string
	ResourceType string
	StartDate    string
	EndDate      string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:         values.Get("page"),
		Limit:        values.Get("limit"),
		TenantID:     values.Get("tenantId"),
		UserID:       values.Get("userId"),
		ResourceType: values.Get("resourceType"),
		StartDate:    values.Get("startDate"),
		EndDate:      values.Get("endDate"),
	}
}

func parseFilter(qp queryParams, actor tenancy.Actor) (auditbus.QueryFilter, *errs.Error) {
	var fieldErrors errs.FieldErrors
	var filter auditbus.QueryFilter

	var requested *uuid.UUID
	if qp.TenantID != "" {
		id, err := uuid.Parse(qp.TenantID)
		switch err {
		case nil:
			requested = &id
		default:
			fieldErrors.Add("tenantId", err)
		}
	}
	filter.TenantID = actor.QueryTenant(requested)

	if qp.UserID != "" {
		id, err := uuid.Parse(qp.UserID)
		switch err {
		case nil:
			filter.UserID = &id
		default:
			fieldErrors.Add("userId", err)
		}
	}

	if qp.ResourceType != "" {
		filter.ResourceType = &qp.ResourceType
	}

	if qp.StartDate != "" {
		t, err := time.Parse(time.RFC3339, qp.StartDate)
		switch err {
		case nil:
			filter.StartDate = &t
		default:
			fieldErrors.Add("startDate", err)
		}
	}

	if qp.EndDate != "" {
		t, err := time.Parse(time.RFC3339, qp.EndDate)
		switch err {
		case nil:
			filter.EndDate = &t
		default:
			fieldErrors.Add("endDate", err)
		}
	}

	if fieldErrors != nil {
		return auditbus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
