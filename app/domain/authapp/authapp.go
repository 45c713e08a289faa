// Package authapp maintains the app layer api for logging in.
package authapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/app/sdk/errs"
	"github.com/jcpaschoal/tenantcrm/app/sdk/response"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/web"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

var (
	errInvalidCredentials = errors.New("invalid email or password")
	errTenantSuspended    = errors.New("tenant account is suspended")
)

type app struct {
	log       *logger.Logger
	auth      *auth.Auth
	tenantBus *tenantbus.Core
}

func newApp(cfg Config) *app {
	return &app{
		log:       cfg.Log,
		auth:      cfg.Auth,
		tenantBus: cfg.TenantBus,
	}
}

// login exchanges credentials for a token. Users of a suspended tenant are
// refused.
func (a *app) login(ctx context.Context, r *http.Request) web.Encoder {
	var app Login
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("parsing email: %w", err))
	}

	usr, err := a.auth.Login(ctx, *addr, app.Password)
	if err != nil {
		a.log.Info(ctx, "login failed", "email", addr.Address, "ERROR", err)
		return errs.New(errs.Unauthenticated, errInvalidCredentials)
	}

	if usr.TenantID != uuid.Nil {
		t, err := a.tenantBus.QueryByID(ctx, usr.TenantID)
		if err != nil {
			return errs.Errorf(errs.Internal, "querybyid: tenantID[%s]: %s", usr.TenantID, err)
		}

		if t.Suspended || !t.Active {
			return errs.New(errs.PermissionDenied, errTenantSuspended)
		}
	}

	token, err := a.auth.GenerateToken(usr)
	if err != nil {
		return errs.Errorf(errs.Internal, "generatetoken: userID[%s]: %s", usr.ID, err)
	}

	resp := Token{
		Token:     token,
		ExpiresAt: time.Now().Add(auth.TokenTTL).Format(time.RFC3339),
		User:      toAppProfile(usr),
	}

	return response.OK("Login successful", resp)
}
