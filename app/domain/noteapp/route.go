package noteapp

import (
	"net/http"

	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/mid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus"
	"github.com/jcpaschoal/tenantcrm/business/domain/notebus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/business/types/resource"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth        *auth.Auth
	NoteBus     *notebus.Core
	ActivityBus *activitybus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	authorize := mid.Authorize(cfg.Auth, resource.Note)

	api := newApp(cfg.NoteBus, cfg.ActivityBus)

	app.HandlerFunc(http.MethodGet, version, "/notes", api.query, authen, authorize)
	app.HandlerFunc(http.MethodGet, version, "/notes/{note_id}", api.queryByID, authen, authorize)
	app.HandlerFunc(http.MethodPost, version, "/notes", api.create, authen, authorize)
	app.HandlerFunc(http.MethodPut, version, "/notes/{note_id}", api.update, authen, authorize)
	app.HandlerFunc(http.MethodDelete, version, "/notes/{note_id}", api.delete, authen, authorize)
}
