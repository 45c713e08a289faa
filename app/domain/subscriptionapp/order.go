package subscriptionapp

import "github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"

var orderByFields = map[string]string{
	"createdAt": subscriptionbus.OrderByCreatedAt,
	"endDate":   subscriptionbus.OrderByEndDate,
	"status":    subscriptionbus.OrderByStatus,
	"planName":  subscriptionbus.OrderByPlanName,
}
