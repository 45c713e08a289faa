package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/sdk/auth"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/types/actions"
	"github.com/jcpaschoal/tenantcrm/business/types/resource"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
	"github.com/jcpaschoal/tenantcrm/foundation/keystore"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
)

const kid = "s4sKIjD9kIRjxs2tulPqGLdxSfgPErRN1Mu3HxaN6"

func newAuth(t *testing.T) *auth.Auth {
	t.Helper()

	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}

	block := pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(pk),
	}

	ks := keystore.New()
	if err := ks.Add(kid, string(pem.EncodeToMemory(&block))); err != nil {
		t.Fatalf("adding key: %s", err)
	}

	a, err := auth.New(auth.Config{
		Log:       logger.New(io.Discard, logger.LevelError, "TEST", nil),
		KeyLookup: ks,
		Issuer:    "service project",
		ActiveKID: kid,
	})
	if err != nil {
		t.Fatalf("auth: %s", err)
	}

	return a
}

func TestTokenRoundTrip(t *testing.T) {
	a := newAuth(t)

	usr := userbus.User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Role:     role.Manager,
	}

	token, err := a.GenerateToken(usr)
	if err != nil {
		t.Fatalf("GenerateToken: %s", err)
	}

	claims, err := a.Authenticate(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("Authenticate: %s", err)
	}

	actor, err := claims.Actor()
	if err != nil {
		t.Fatalf("Actor: %s", err)
	}

	if actor.UserID != usr.ID || actor.TenantID != usr.TenantID || !actor.Role.Equal(role.Manager) {
		t.Errorf("actor: got %+v", actor)
	}

	if _, err := a.Authenticate(context.Background(), token); err == nil {
		t.Error("token without bearer prefix accepted")
	}

	if _, err := a.Authenticate(context.Background(), "Bearer "+token+"x"); err == nil {
		t.Error("tampered token accepted")
	}
}

func TestPolicy(t *testing.T) {
	a := newAuth(t)

	tests := []struct {
		role  role.Role
		res   resource.Resource
		act   actions.Action
		allow bool
	}{
		{role.SaaSOwner, resource.Tenant, actions.Delete, true},
		{role.SaaSAdmin, resource.Tenant, actions.Delete, false},
		{role.SaaSAdmin, resource.Tenant, actions.Update, true},
		{role.TenantAdmin, resource.Tenant, actions.Update, false},
		{role.TenantAdmin, resource.Billing, actions.Create, true},
		{role.Manager, resource.Billing, actions.Create, false},
		{role.User, resource.Meeting, actions.Delete, true},
		{role.User, resource.Audit, actions.Get, false},
		{role.TenantAdmin, resource.Subscription, actions.Manage, false},
		{role.SaaSAdmin, resource.Subscription, actions.Manage, true},
	}

	for _, tt := range tests {
		t.Run(tt.role.String()+"/"+tt.res.String()+"/"+tt.act.String(), func(t *testing.T) {
			err := a.Authorize(auth.Claims{Role: tt.role.String()}, tt.res, tt.act)

			switch {
			case tt.allow && err != nil:
				t.Errorf("expected allow, got %s", err)
			case !tt.allow && !errors.Is(err, auth.ErrForbidden):
				t.Errorf("expected ErrForbidden, got %v", err)
			}
		})
	}
}
