package meetingapp

import "github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"

var orderByFields = map[string]string{
	"from":      meetingbus.OrderByFrom,
	"title":     meetingbus.OrderByTitle,
	"status":    meetingbus.OrderByStatus,
	"createdAt": meetingbus.OrderByCreatedAt,
}
