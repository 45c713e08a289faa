package noteapp

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
	"github.com/jcpaschoal/tenantcrm/business/types/relation"
)

type queryParams struct {
	Page        string
	Limit       string
	OrderBy     string
	TenantID    string
	Search      string
	RelatedTo   string
	RelatedToID string
	OwnerID     string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:        values.Get("page"),
		Limit:       values.Get("limit"),
		OrderBy:     values.Get("orderBy"),
		TenantID:    values.Get("tenantId"),
		Search:      values.Get("search"),
		RelatedTo:   values.Get("relatedTo"),
		RelatedToID: values.Get("relatedToId"),
		OwnerID:     values.Get("ownerId"),
	}
}

func parseFilter(qp queryParams, actor tenancy.Actor) (notebus.QueryFilter, *errs.Error) {
	var fieldErrors errs.FieldErrors

	active := true
	filter := notebus.QueryFilter{
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

	if qp.OwnerID != "" {
		id, err := uuid.Parse(qp.OwnerID)
		switch err {
		case nil:
			filter.OwnerID = &id
		default:
			fieldErrors.Add("ownerId", err)
		}
	}

	if fieldErrors != nil {
		return notebus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
