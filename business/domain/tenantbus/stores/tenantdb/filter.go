package tenantdb

import (
	"bytes"
	"strings"

	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
)

func applyFilter(filter tenantbus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.ID != nil {
		data["tenant_id"] = *filter.ID
		wc = append(wc, "tenant_id = :tenant_id")
	}

	if filter.Search != nil {
		data["search"] = sqldb.ILike(*filter.Search)
		wc = append(wc, "(name ILIKE :search OR email ILIKE :search OR slug ILIKE :search)")
	}

	if filter.Active != nil {
		data["is_active"] = *filter.Active
		wc = append(wc, "is_active = :is_active")
	}

	if filter.Suspended != nil {
		data["suspended"] = *filter.Suspended
		wc = append(wc, "suspended = :suspended")
	}

	if len(wc) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(wc, " AND "))
	}
}
