package meetingdb

import (
	"bytes"
	"strings"

	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
)

func applyFilter(filter meetingbus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.ID != nil {
		data["meeting_pk"] = *filter.ID
		wc = append(wc, "meeting_pk = :meeting_pk")
	}

	if filter.TenantID != nil {
		data["tenant_id"] = *filter.TenantID
		wc = append(wc, "tenant_id = :tenant_id")
	}

	if filter.Search != nil {
		data["search"] = sqldb.ILike(*filter.Search)
		wc = append(wc, "(title ILIKE :search OR location ILIKE :search)")
	}

	if filter.Status != nil {
		data["status"] = filter.Status.String()
		wc = append(wc, "status = :status")
	}

	if filter.RelatedToKind != nil {
		data["related_to"] = filter.RelatedToKind.String()
		wc = append(wc, "related_to = :related_to")
	}

	if filter.RelatedToID != nil {
		data["related_to_id"] = *filter.RelatedToID
		wc = append(wc, "related_to_id = :related_to_id")
	}

	if filter.HostID != nil {
		data["host_id"] = *filter.HostID
		wc = append(wc, "host_id = :host_id")
	}

	if filter.StartFrom != nil {
		data["start_from"] = filter.StartFrom.UTC()
		wc = append(wc, "from_at >= :start_from")
	}

	if filter.EndFrom != nil {
		data["end_from"] = filter.EndFrom.UTC()
		wc = append(wc, "from_at <= :end_from")
	}

	if filter.Active != nil {
		data["is_active"] = *filter.Active
		wc = append(wc, "is_active = :is_active")
	}

	if len(wc) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(wc, " AND "))
	}
}
