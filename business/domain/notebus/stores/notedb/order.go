package notedb

import (
	"fmt"

	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
)

var orderByFields = map[string]string{
	notebus.OrderByCreatedAt: "created_at",
	notebus.OrderByTitle:     "title",
	notebus.OrderByUpdatedAt: "updated_at",
}

func orderByClause(orderBy order.By) (string, error) {
	by, exists := orderByFields[orderBy.Field]
	if !exists {
		return "", fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	return " ORDER BY " + by + " " + orderBy.Direction, nil
}
