package viewingpinapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/business/types/actions"
	"github.com/jcpaschoal/tenantcrm/business/types/resource"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

// Config contains all the mandatory systems required by handlers. A nil
// Limiter turns attempt limiting off.
type Config struct {
	Log      *logger.Logger
	Auth     *auth.Auth
	PinBus   *pinbus.Core
	AuditBus *auditbus.Core
	Limiter  mid.Allower
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	use := mid.AuthorizeAction(cfg.Auth, resource.ViewingPin, actions.Create)
	read := mid.AuthorizeAction(cfg.Auth, resource.ViewingPin, actions.Get)

	api := newApp(cfg)

	app.HandlerFunc(http.MethodGet, version, "/viewing-pin/status", api.status, authen, read)
	app.HandlerFunc(http.MethodPost, version, "/viewing-pin/set", api.set, authen, use)
	app.HandlerFunc(http.MethodPost, version, "/viewing-pin/verify", api.verify, authen, use,
		mid.RateLimitUntilSuccess(cfg.Log, cfg.Limiter, "pin-verify"))
	app.HandlerFunc(http.MethodPost, version, "/viewing-pin/change", api.change, authen, use)
	app.HandlerFunc(http.MethodPost, version, "/viewing-pin/forgot", api.forgot, authen, use,
		mid.RateLimit(cfg.Log, cfg.Limiter, "pin-forgot"))
	app.HandlerFunc(http.MethodPost, version, "/viewing-pin/reset", api.reset, authen, use,
		mid.RateLimitUntilSuccess(cfg.Log, cfg.Limiter, "pin-reset"))
	app.HandlerFunc(http.MethodPost, version, "/viewing-pin/log-access", api.logAccess, authen, use)
	app.HandlerFunc(http.MethodGet, version, "/viewing-pin/audit-logs", api.auditLogs, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Audit, actions.Get))
}
