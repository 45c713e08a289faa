package notedb

import (
	"bytes"
	"strings"

	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
)

func applyFilter(filter notebus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.ID != nil {
		data["note_id"] = *filter.ID
		wc = append(wc, "note_id = :note_id")
	}

	if filter.TenantID != nil {
		data["tenant_id"] = *filter.TenantID
		wc = append(wc, "tenant_id = :tenant_id")
	}

	if filter.Search != nil {
		data["search"] = sqldb.ILike(*filter.Search)
		wc = append(wc, "(title ILIKE :search OR content ILIKE :search)")
	}

	if filter.RelatedToKind != nil {
		data["related_to"] = filter.RelatedToKind.String()
		wc = append(wc, "related_to = :related_to")
	}

	if filter.RelatedToID != nil {
		data["related_to_id"] = *filter.RelatedToID
		wc = append(wc, "related_to_id = :related_to_id")
	}

	if filter.OwnerID != nil {
		data["owner_id"] = *filter.OwnerID
		wc = append(wc, "owner_id = :owner_id")
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
