package userapp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
)

type queryParams struct {
	Page             string
	Limit            string
	OrderBy          string
	TenantID         string
	Search           string
	Role             string
	IsActive         string
	StartCreatedDate string
	EndCreatedDate   string
}

func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:             values.Get("page"),
		Limit:            values.Get("limit"),
		OrderBy:          values.Get("orderBy"),
		TenantID:         values.Get("tenantId"),
		Search:           values.Get("search"),
		Role:             values.Get("role"),
		IsActive:         values.Get("isActive"),
		StartCreatedDate: values.Get("startCreatedDate"),
		EndCreatedDate:   values.Get("endCreatedDate"),
	}
}

func parseFilter(qp queryParams, actor tenancy.Actor) (userbus.QueryFilter, *errs.Error) {
	var fieldErrors errs.FieldErrors
	var filter userbus.QueryFilter

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

	if qp.Role != "" {
		r, err := role.Parse(qp.Role)
		switch err {
		case nil:
			filter.Role = &r
		default:
			fieldErrors.Add("role", err)
		}
	}

	if qp.IsActive != "" {
		active, err := strconv.ParseBool(qp.IsActive)
		switch err {
		case nil:
			filter.Active = &active
		default:
			fieldErrors.Add("isActive", err)
		}
	}

	if qp.StartCreatedDate != "" {
		t, err := time.Parse(time.RFC3339, qp.StartCreatedDate)
		switch err {
		case nil:
			filter.StartCreatedAt = &t
		default:
			fieldErrors.Add("startCreatedDate", err)
		}
	}

	if qp.EndCreatedDate != "" {
		t, err := time.Parse(time.RFC3339, qp.EndCreatedDate)
		switch err {
		case nil:
			filter.EndCreatedAt = &t
		default:
			fieldErrors.Add("endCreatedDate", err)
		}
	}

	if fieldErrors != nil {
		return userbus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
