package authapp_test

import (
	"context"
	"net/http"
	"net/mail"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/domain/authapp"
	"github.com/jcpaschoal/tenantcrm/app/sdk/apitest"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/types/name"
	"github.com/jcpaschoal/tenantcrm/business/types/password"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()

	userBus := userbus.NewCore(apitest.NewUserStore())
	at := apitest.NewWithUsers(t, userBus)
	tenantBus := tenantbus.NewCore(at.Log, apitest.NewTenantStore())

	authapp.Routes(at.App, authapp.Config{
		Log:       at.Log,
		Auth:      at.Auth,
		TenantBus: tenantBus,
	})

	ten, err := tenantBus.Create(ctx, tenantbus.NewTenant{Name: name.MustParse("Acme Corp"), Slug: "acme"})
	if err != nil {
		t.Fatalf("tenant: %s", err)
	}

	usr, err := userBus.Create(ctx, userbus.NewUser{
		TenantID: ten.ID,
		Name:     name.MustParse("Asha Rao"),
		Email:    mail.Address{Address: "asha@acme.test"},
		Role:     role.TenantAdmin,
		Password: password.MustParse("gophers-rule"),
	})
	if err != nil {
		t.Fatalf("user: %s", err)
	}

	login := func(pass string) apitest.Response {
		return at.Do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "asha@acme.test", "password": pass})
	}

	resp := login("gophers-rule")
	if resp.Status != http.StatusOK {
		t.Fatalf("login: got %d: %s", resp.Status, resp.Message)
	}

	var tok authapp.Token
	resp.Decode(t, &tok)

	if tok.User.ID != usr.ID.String() || tok.User.TenantID != ten.ID.String() || tok.User.Role != "TENANT_ADMIN" {
		t.Errorf("profile: got %+v", tok.User)
	}

	claims, err := at.Auth.Authenticate(ctx, "Bearer "+tok.Token)
	if err != nil {
		t.Fatalf("authenticate: %s", err)
	}

	actor, err := claims.Actor()
	if err != nil {
		t.Fatalf("actor: %s", err)
	}
	if actor.UserID != usr.ID || actor.TenantID != ten.ID || actor.Role != role.TenantAdmin {
		t.Errorf("actor: got %+v", actor)
	}

	if resp := login("wrong-password"); resp.Status != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d want %d", resp.Status, http.StatusUnauthorized)
	}

	if _, err := tenantBus.Suspend(ctx, ten, "unpaid"); err != nil {
		t.Fatalf("suspend: %s", err)
	}

	if resp := login("gophers-rule"); resp.Status != http.StatusForbidden {
		t.Errorf("suspended tenant: got %d want %d", resp.Status, http.StatusForbidden)
	}

	if _, err := userBus.Deactivate(ctx, usr); err != nil {
		t.Fatalf("deactivate: %s", err)
	}

	if _, err := at.Auth.Authenticate(ctx, "Bearer "+tok.Token); err == nil {
		t.Error("token of an inactive user must be refused")
	}
}

func TestPlatformLogin(t *testing.T) {
	ctx := context.Background()

	userBus := userbus.NewCore(apitest.NewUserStore())
	at := apitest.NewWithUsers(t, userBus)

	authapp.Routes(at.App, authapp.Config{
		Log:       at.Log,
		Auth:      at.Auth,
		TenantBus: tenantbus.NewCore(at.Log, apitest.NewTenantStore()),
	})

	if _, err := userBus.Create(ctx, userbus.NewUser{
		TenantID: uuid.Nil,
		Name:     name.MustParse("Root Owner"),
		Email:    mail.Address{Address: "owner@saas.test"},
		Role:     role.SaaSOwner,
		Password: password.MustParse("gophers-rule"),
	}); err != nil {
		t.Fatalf("user: %s", err)
	}

	resp := at.Do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "owner@saas.test", "password": "gophers-rule"})
	if resp.Status != http.StatusOK {
		t.Fatalf("login: got %d: %s", resp.Status, resp.Message)
	}

	var tok authapp.Token
	resp.Decode(t, &tok)
	if tok.User.TenantID != "" {
		t.Errorf("platform user tenant: got %q", tok.User.TenantID)
	}
}
