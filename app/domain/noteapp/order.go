package noteapp

import "github.com/jcpaschoal/tenantcrm/business/domain/notebus"

var orderByFields = map[string]string{
	"createdAt": notebus.OrderByCreatedAt,
	"title":     notebus.OrderByTitle,
	"updatedAt": notebus.OrderByUpdatedAt,
}
