package subscriptionapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
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
	SubscriptionBus *subscriptionbus.Core
	PaymentBus      *paymentbus.Core
	ActivityBus     *activitybus.Core
	WebhookSecret   string
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	transaction := mid.BeginCommitRollback(cfg.Log, cfg.Beginner)

	api := newApp(cfg)

	app.HandlerFunc(http.MethodGet, version, "/subscriptions/plans", api.plans)
	app.HandlerFunc(http.MethodPost, version, "/subscriptions/webhook", api.webhook, transaction)

	app.HandlerFunc(http.MethodGet, version, "/subscriptions/current", api.current, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Subscription, actions.Get))
	app.HandlerFunc(http.MethodPost, version, "/subscriptions/upgrade", api.upgrade, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Billing, actions.Create), transaction)
	app.HandlerFunc(http.MethodPost, version, "/subscriptions/cancel", api.cancel, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Billing, actions.Create), transaction)
	app.HandlerFunc(http.MethodGet, version, "/subscriptions/payments", api.payments, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Billing, actions.Get))
	app.HandlerFunc(http.MethodGet, version, "/subscriptions/history", api.history, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Billing, actions.Get))
	app.HandlerFunc(http.MethodGet, version, "/subscriptions/all", api.queryAll, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Subscription, actions.Manage))
	app.HandlerFunc(http.MethodPut, version, "/subscriptions/{tenant_id}", api.update, authen,
		mid.AuthorizeAction(cfg.Auth, resource.Subscription, actions.Update))
}
