package meetingdb

import (
	"fmt"

	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
)

var orderByFields = map[string]string{
	meetingbus.OrderByFrom:      "from_at",
	meetingbus.OrderByTitle:     "title",
	meetingbus.OrderByStatus:    "status",
	meetingbus.OrderByCreatedAt: "created_at",
}

func orderByClause(orderBy order.By) (string, error) {
	by, exists := orderByFields[orderBy.Field]
	if !exists {
		return "", fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	return " ORDER BY " + by + " " + orderBy.Direction, nil
}
