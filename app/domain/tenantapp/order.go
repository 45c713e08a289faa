package tenantapp

import "github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"

var orderByFields = map[string]string{
	"id":        tenantbus.OrderByID,
	"name":      tenantbus.OrderByName,
	"slug":      tenantbus.OrderBySlug,
	"createdAt": tenantbus.OrderByCreatedAt,
}
