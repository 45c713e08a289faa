package meetingapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/business/types/resource"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *logger.Logger
	Auth        *auth.Auth
	MeetingBus  *meetingbus.Core
	ActivityBus *activitybus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	authorize := mid.Authorize(cfg.Auth, resource.Meeting)

	api := newApp(cfg.MeetingBus, cfg.ActivityBus)

	app.HandlerFunc(http.MethodGet, version, "/meetings", api.query, authen, authorize)
	app.HandlerFunc(http.MethodGet, version, "/meetings/{meeting_id}", api.queryByID, authen, authorize)
	app.HandlerFunc(http.MethodPost, version, "/meetings", api.create, authen, authorize)
	app.HandlerFunc(http.MethodPut, version, "/meetings/{meeting_id}", api.update, authen, authorize)
	app.HandlerFunc(http.MethodDelete, version, "/meetings/{meeting_id}", api.delete, authen, authorize)
}
