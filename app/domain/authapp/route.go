package authapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

// Config contains all the mandatory systems required by handlers. The Auth
// value must be built with a user core for login to work.
type Config struct {
	Log       *logger.Logger
	Auth      *auth.Auth
	TenantBus *tenantbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg)

	app.HandlerFunc(http.MethodPost, version, "/auth/login", api.login)
}
