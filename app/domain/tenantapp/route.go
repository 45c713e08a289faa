package tenantapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/business/types/actions"
	"github.com/jcpaschoal/tenantcrm/business/types/resource"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log             *logger.Logger
	Auth            *auth.Auth
	Beginner        sqldb.Beginner
	TenantBus       *tenantbus.Core
	UserBus         *userbus.Core
	SubscriptionBus *subscriptionbus.Core
	ActivityBus     *activitybus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	authorize := mid.Authorize(cfg.Auth, resource.Tenant)
	transaction := mid.BeginCommitRollback(cfg.Log, cfg.Beginner)

	api := newApp(cfg)

	app.HandlerFunc(http.MethodGet, version, "/tenants", api.query, authen, authorize)
	app.HandlerFunc(http.MethodGet, version, "/tenants/stats/overview", api.stats, authen, authorize)
	app.HandlerFunc(http.MethodGet, version, "/tenants/{tenant_id}", api.queryByID, authen, authorize)
	app.HandlerFunc(http.MethodPost, version, "/tenants", api.create, authen, authorize, transaction)
	app.HandlerFunc(http.MethodPut, version, "/tenants/{tenant_id}", api.update, authen, authorize)
	app.HandlerFunc(http.MethodPost, version, "/tenants/{tenant_id}/suspend", api.suspend, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Tenant, actions.Update), transaction)
	app.HandlerFunc(http.MethodPost, version, "/tenants/{tenant_id}/activate", api.activate, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Tenant, actions.Update), transaction)
	app.HandlerFunc(http.MethodDelete, version, "/tenants/{tenant_id}", api.delete, authen, authorize, transaction)
}
