// Package mux provides support to bind domain level routes
// to the application mux.
package mux

import (
	"fmt"
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/business/domain/pinbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
)

// Options represent optional parameters.
type Options struct {
	corsOrigin []string
}

// WithCORS provides configuration options for CORS.
func WithCORS(origins []string) func(opts *Options) {
	return func(opts *Options) {
		opts.corsOrigin = origins
	}
}

// AuthConfig contains the token settings.
type AuthConfig struct {
	KeyLookup auth.KeyLookup
	Issuer    string
	ActiveKID string
}

// MeetingConfig contains meeting specific config.
type MeetingConfig struct {
	LinkBase string
}

// BillingConfig contains the payment activation settings.
type BillingConfig struct {
	DemoActivation bool
	WebhookSecret  string
}

// PinConfig contains the viewing PIN collaborators. A nil Limiter turns
// attempt limiting off.
type PinConfig struct {
	Mailer  pinbus.Mailer
	Limiter mid.Allower
}

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build   string
	Log     *logger.Logger
	DB      *sqlx.DB
	Mongo   *mongo.Database
	Tracer  trace.Tracer
	Auth    AuthConfig
	Meeting MeetingConfig
	Billing BillingConfig
	Pin     PinConfig
}

// RouteAdder defines behavior that sets the routes to bind for an instance
// of the service.
type RouteAdder interface {
	Add(app *web.App, cfg Config) error
}

// WebAPI constructs a http.Handler with all application routes bound.
func WebAPI(cfg Config, routeAdder RouteAdder, options ...func(opts *Options)) (http.Handler, error) {
	app := web.NewApp(
		cfg.Log.Info,
		cfg.Tracer,
		mid.Otel(cfg.Tracer),
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(cfg.Log),
	)

	var opts Options
	for _, option := range options {
		option(&opts)
	}

	if len(opts.corsOrigin) > 0 {
		app.EnableCORS(opts.corsOrigin)
	}

	if err := routeAdder.Add(app, cfg); err != nil {
		return nil, fmt.Errorf("add routes: %w", err)
	}

	return app, nil
}
