package checkapp

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jcpaschoal/tenantcrm/foundation/mongodb"
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build string
	Log   *logger.Logger
	DB    *sqlx.DB
	Mongo *mongo.Database
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	checks := []check{
		{name: "postgres", fn: func(ctx context.Context) error { return sqldb.StatusCheck(ctx, cfg.DB) }},
		{name: "mongo", fn: func(ctx context.Context) error { return mongodb.StatusCheck(ctx, cfg.Mongo) }},
	}

	api := newApp(cfg.Build, cfg.Log, checks)

	app.HandlerFuncNoMid(http.MethodGet, version, "/readiness", api.readiness)
	app.HandlerFuncNoMid(http.MethodGet, version, "/liveness", api.liveness)
}
