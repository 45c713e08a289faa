package activityapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/business/types/resource"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth        *auth.Auth
	ActivityBus *activitybus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg.ActivityBus)

	app.HandlerFunc(http.MethodGet, version, "/activities", api.query,
		mid.Authenticate(cfg.Auth), mid.Authorize(cfg.Auth, resource.Activity))
}
