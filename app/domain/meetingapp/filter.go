package meetingapp

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
	"github.com/jcpaschoal/tenantcrm/business/types/meetingstatus"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

type queryParams struct {
	Page        string
	Limit       string
	OrderBy     string
	TenantID    string
	Search      string
	Status      string
	RelatedTo   string
	RelatedToID string
	HostID      string
	StartDate   string
	EndDate     string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:        values.Get("page"),
		Limit:       values.Get("limit"),
		OrderBy:     values.Get("orderBy"),
		TenantID:    values.Get("tenantId"),
		Search:      values.Get("search"),
		Status:      values.Get("status"),
		RelatedTo:   values.Get("relatedTo"),
		RelatedToID: values.Get("relatedToId"),
		HostID:      values.Get("hostId"),
		StartDate:   values.Get("startDate"),
		EndDate:     values.Get("endDate"),
	}
}

// parseFilter builds the query filter. Deleted meetings are never listed
// and non privileged callers only see their own tenant.
func parseFilter(qp queryParams, actor tenancy.Actor) (meetingbus.QueryFilter, *errs.Error) {
	var fieldErrors errs.FieldErrors

	active := true
	filter := meetingbus.QueryFilter{
		Active: &active,
	}

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

	if qp.Search != "" {
		filter.Search = &qp.Search
	}

	if qp.Status != "" {
		status, err := meetingstatus.Parse(qp.Status)
		switch err {
		case nil:
			filter.Status = &status
		default:
			fieldErrors.Add("status", err)
		}
	}

	if qp.RelatedTo != "" {
		kind, err := relation.ParseKind(qp.RelatedTo)
		switch err {
		case nil:
			filter.RelatedToKind = &kind
		default:
			fieldErrors.Add("relatedTo", err)
		}
	}

	if qp.RelatedToID != "" {
		id, err := uuid.Parse(qp.RelatedToID)
		switch err {
		case nil:
			filter.RelatedToID = &id
		default:
			fieldErrors.Add("relatedToId", err)
		}
	}

	if qp.HostID != "" {
		id, err := uuid.Parse(qp.HostID)
		switch err {
		case nil:
			filter.HostID = &id
		default:
			fieldErrors.Add("hostId", err)
		}
	}

	if qp.StartDate != "" {
		t, err := time.Parse(time.RFC3339, qp.StartDate)
		switch err {
		case nil:
			filter.StartFrom = &t
		default:
			fieldErrors.Add("startDate", err)
		}
	}

	if qp.EndDate != "" {
		t, err := time.Parse(time.RFC3339, qp.EndDate)
		switch err {
		case nil:
			filter.EndFrom = &t
		default:
			fieldErrors.Add("endDate", err)
		}
	}

	if fieldErrors != nil {
		return meetingbus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
