package activityapp

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
)

type queryParams struct {
	Page       string
	Limit      string
	TenantID   string
	EntityType string
	EntityID   string
	UserID     string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:       values.Get("page"),
		Limit:      values.Get("limit"),
		TenantID:   values.Get("tenantId"),
		EntityType: values.Get("entityType"),
		EntityID:   values.Get("entityId"),
		UserID:     values.Get("userId"),
	}
}

func parseFilter(qp queryParams, actor tenancy.Actor) (activitybus.QueryFilter, *errs.Error) {
	var fieldErrors errs.FieldErrors
	var filter activitybus.QueryFilter

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

	if qp.EntityType != "" {
		filter.EntityType = &qp.EntityType
	}

	if qp.EntityID != "" {
		filter.EntityID = &qp.EntityID
	}

	if qp.UserID != "" {
		id, err := uuid.Parse(qp.UserID)
		switch err {
		case nil:
			filter.UserID = &id
		default:
			fieldErrors.Add("userId", err)
		}
	}

	if fieldErrors != nil {
		return activitybus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
