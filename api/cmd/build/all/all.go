// Package all binds all the routes into the specified app.
package all

import (
	"fmt"
	"time"

	"github.com/jcpaschoal/tenantcrm/app/domain/activityapp"
	"github.com/jcpaschoal/tenantcrm/app/domain/authapp"
	"github.com/jcpaschoal/tenantcrm/app/domain/checkapp"
	"github.com/jcpaschoal/tenantcrm/app/domain/meetingapp"
	"github.com/jcpaschoal/tenantcrm/app/domain/noteapp"
	"github.com/jcpaschoal/tenantcrm/app/domain/subscriptionapp"
	"github.com/jcpaschoal/tenantcrm/app/domain/tenantapp"
	"github.com/jcpaschoal/tenantcrm/app/domain/userapp"
	"github.com/jcpaschoal/tenantcrm/app/domain/viewingpinapp"
	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mux"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus/stores/activitydb"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/auditbus/stores/auditdb"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/meetingbus/stores/meetingdb"
	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/domain/notebus/stores/notedb"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus/stores/paymentdb"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus/stores/pindb"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/relationbus/stores/relationdb"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus/stores/subscriptiondb"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus/stores/tenantdb"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus/stores/usercache"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
)

// Routes constructs the add value which provides the implementation of
// of RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

// Add implements the RouterAdder interface.
func (add) Add(app *web.App, cfg mux.Config) error {

	// Construct the business domain packages we need here so we are using the
	// sames instances for the different set of domain apis.
	beginner := sqldb.NewBeginner(cfg.DB)

	activityBus := activitybus.NewCore(cfg.Log, activitydb.NewStore(cfg.Log, cfg.Mongo))
	relationBus := relationbus.NewCore(relationdb.NewLookups(cfg.Log, cfg.DB))
	userBus := userbus.NewCore(usercache.NewStore(cfg.Log, userdb.NewStore(cfg.Log, cfg.DB), 5*time.Minute))
	tenantBus := tenantbus.NewCore(cfg.Log, tenantdb.NewStore(cfg.Log, cfg.DB))
	paymentBus := paymentbus.NewCore(paymentdb.NewStore(cfg.Log, cfg.DB))
	subscriptionBus := subscriptionbus.NewCore(cfg.Log, paymentBus, subscriptiondb.NewStore(cfg.Log, cfg.DB), cfg.Billing.DemoActivation)
	meetingBus := meetingbus.NewCore(cfg.Log, relationBus, meetingdb.NewStore(cfg.Log, cfg.DB), cfg.Meeting.LinkBase)
	noteBus := notebus.NewCore(cfg.Log, relationBus, notedb.NewStore(cfg.Log, cfg.DB))
	pinBus := pinbus.NewCore(pindb.NewStore(cfg.Log, cfg.DB), cfg.Pin.Mailer)
	auditBus := auditbus.NewCore(auditdb.NewStore(cfg.Log, cfg.DB))

	authClient, err := auth.New(auth.Config{
		Log:       cfg.Log,
		UserBus:   userBus,
		KeyLookup: cfg.Auth.KeyLookup,
		Issuer:    cfg.Auth.Issuer,
		ActiveKID: cfg.Auth.ActiveKID,
	})
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	checkapp.Routes(app, checkapp.Config{
		Build: cfg.Build,
		Log:   cfg.Log,
		DB:    cfg.DB,
		Mongo: cfg.Mongo,
	})

	authapp.Routes(app, authapp.Config{
		Log:       cfg.Log,
		Auth:      authClient,
		TenantBus: tenantBus,
	})

	userapp.Routes(app, userapp.Config{
		Log:         cfg.Log,
		Auth:        authClient,
		Beginner:    beginner,
		UserBus:     userBus,
		TenantBus:   tenantBus,
		ActivityBus: activityBus,
	})

	tenantapp.Routes(app, tenantapp.Config{
		Log:             cfg.Log,
		Auth:            authClient,
		Beginner:        beginner,
		TenantBus:       tenantBus,
		UserBus:         userBus,
		SubscriptionBus: subscriptionBus,
		ActivityBus:     activityBus,
	})

	meetingapp.Routes(app, meetingapp.Config{
		Log:         cfg.Log,
		Auth:        authClient,
		MeetingBus:  meetingBus,
		ActivityBus: activityBus,
	})

	noteapp.Routes(app, noteapp.Config{
		Auth:        authClient,
		NoteBus:     noteBus,
		ActivityBus: activityBus,
	})

	subscriptionapp.Routes(app, subscriptionapp.Config{
		Log:             cfg.Log,
		Auth:            authClient,
		Beginner:        beginner,
		SubscriptionBus: subscriptionBus,
		PaymentBus:      paymentBus,
		ActivityBus:     activityBus,
		WebhookSecret:   cfg.Billing.WebhookSecret,
	})

	viewingpinapp.Routes(app, viewingpinapp.Config{
		Log:      cfg.Log,
		Auth:     authClient,
		PinBus:   pinBus,
		AuditBus: auditBus,
		Limiter:  cfg.Pin.Limiter,
	})

	activityapp.Routes(app, activityapp.Config{
		Auth:        authClient,
		ActivityBus: activityBus,
	})

	return nil
}
