package tenantapp_test

import (
	"context"
	"net/http"
	"net/mail"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/domain/tenantapp"
	"github.com/jcpaschoal/tenantcrm/app/sdk/apitest"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/types/name"
	"github.com/jcpaschoal/tenantcrm/business/types/password"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
	"github.com/jcpaschoal/tenantcrm/business/types/substatus"
)

type fixture struct {
	at       *apitest.Test
	bgn      *apitest.Beginner
	users    *apitest.UserStore
	subs     *apitest.SubscriptionStore
	userBus  *userbus.Core
	tenantID uuid.UUID
	owner    apitest.User
	admin    apitest.User
	tenant   apitest.User
}

func newFixture(t *testing.T) fixture {
	at := apitest.New(t)

	bgn := &apitest.Beginner{}
	users := apitest.NewUserStore()
	subs := apitest.NewSubscriptionStore()

	tenantBus := tenantbus.NewCore(at.Log, apitest.NewTenantStore())
	userBus := userbus.NewCore(users)
	subBus := subscriptionbus.NewCore(at.Log, paymentbus.NewCore(apitest.NewPaymentStore()), subs, false)

	tenantapp.Routes(at.App, tenantapp.Config{
		Log:             at.Log,
		Auth:            at.Auth,
		Beginner:        bgn,
		TenantBus:       tenantBus,
		UserBus:         userBus,
		SubscriptionBus: subBus,
		ActivityBus:     at.ActivityBus(),
	})

	owner := at.NewUser(t, role.SaaSOwner, uuid.Nil)

	resp := at.Do(t, http.MethodPost, "/v1/tenants", owner.Token, map[string]any{
		"name":     "Acme Corp",
		"slug":     "acme",
		"email":    "ops@acme.test",
		"maxUsers": 3,
	})
	if resp.Status != http.StatusCreated {
		t.Fatalf("create tenant: got %d: %s", resp.Status, resp.Message)
	}

	var tn tenantapp.Tenant
	resp.Decode(t, &tn)
	tenantID := uuid.MustParse(tn.ID)

	return fixture{
		at:       at,
		bgn:      bgn,
		users:    users,
		subs:     subs,
		userBus:  userBus,
		tenantID: tenantID,
		owner:    owner,
		admin:    at.NewUser(t, role.SaaSAdmin, uuid.Nil),
		tenant:   at.NewUser(t, role.TenantAdmin, tenantID),
	}
}

func TestCreateTenantStartsTrial(t *testing.T) {
	f := newFixture(t)

	sub, err := f.subs.QueryByTenant(context.Background(), f.tenantID)
	if err != nil {
		t.Fatalf("trial: %s", err)
	}
	if sub.Status != substatus.Trial || !sub.IsTrial {
		t.Errorf("trial: got status %s trial %t", sub.Status, sub.IsTrial)
	}

	resp := f.at.Do(t, http.MethodPost, "/v1/tenants", f.owner.Token, map[string]any{"name": "Acme Two", "slug": "acme"})
	if resp.Status != http.StatusConflict {
		t.Errorf("duplicate slug: got %d want %d", resp.Status, http.StatusConflict)
	}

	resp = f.at.Do(t, http.MethodPost, "/v1/tenants", f.owner.Token, map[string]any{"name": "Acme Two", "slug": "Not A Slug"})
	if _, exists := resp.Fields["slug"]; resp.Status != http.StatusBadRequest || !exists {
		t.Errorf("bad slug: got %d %v", resp.Status, resp.Fields)
	}

	resp = f.at.Do(t, http.MethodPost, "/v1/tenants", f.tenant.Token, map[string]any{"name": "Mine", "slug": "mine"})
	if resp.Status != http.StatusForbidden {
		t.Errorf("tenant admin create: got %d want %d", resp.Status, http.StatusForbidden)
	}

	if f.bgn.Commits != 1 {
		t.Errorf("commits: got %d want 1", f.bgn.Commits)
	}
}

func TestTenantVisibility(t *testing.T) {
	f := newFixture(t)

	resp := f.at.Do(t, http.MethodGet, "/v1/tenants/"+f.tenantID.String(), f.tenant.Token, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("own tenant: got %d: %s", resp.Status, resp.Message)
	}

	var tn tenantapp.Tenant
	resp.Decode(t, &tn)
	if tn.Subscription == nil || tn.Subscription.Status != "trial" {
		t.Errorf("embedded subscription: got %+v", tn.Subscription)
	}

	other := f.at.NewUser(t, role.TenantAdmin, uuid.New())
	resp = f.at.Do(t, http.MethodGet, "/v1/tenants/"+f.tenantID.String(), other.Token, nil)
	if resp.Status != http.StatusForbidden {
		t.Errorf("other tenant: got %d want %d", resp.Status, http.StatusForbidden)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/tenants", other.Token, nil)
	var pg apitest.Page[tenantapp.Tenant]
	resp.Decode(t, &pg)
	if pg.Pagination.Total != 0 {
		t.Errorf("other tenant list: got %d want 0", pg.Pagination.Total)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/tenants/stats/overview", f.tenant.Token, nil)
	if resp.Status != http.StatusForbidden {
		t.Errorf("stats as tenant admin: got %d want %d", resp.Status, http.StatusForbidden)
	}
}

func TestQueryRejectsHugePage(t *testing.T) {
	f := newFixture(t)

	resp := f.at.Do(t, http.MethodGet, "/v1/tenants?page=9223372036854775807&limit=100", f.tenant.Token, nil)
	if _, exists := resp.Fields["page"]; resp.Status != http.StatusBadRequest || !exists {
		t.Errorf("huge page: got %d fields %v want %d with page", resp.Status, resp.Fields, http.StatusBadRequest)
	}
}

func TestUpdateTenantAllowList(t *testing.T) {
	f := newFixture(t)

	resp := f.at.Do(t, http.MethodPut, "/v1/tenants/"+f.tenantID.String(), f.admin.Token, map[string]any{
		"industry":  "Retail",
		"slug":      "hijack",
		"userCount": 99,
	})
	if resp.Status != http.StatusOK {
		t.Fatalf("update: got %d: %s", resp.Status, resp.Message)
	}

	var tn tenantapp.Tenant
	resp.Decode(t, &tn)
	if tn.Industry != "Retail" || tn.Slug != "acme" || tn.UserCount != 0 {
		t.Errorf("update: got industry %q slug %q users %d", tn.Industry, tn.Slug, tn.UserCount)
	}

	resp = f.at.Do(t, http.MethodPut, "/v1/tenants/"+f.tenantID.String(), f.tenant.Token, map[string]any{"industry": "Nope"})
	if resp.Status != http.StatusForbidden {
		t.Errorf("tenant admin update: got %d want %d", resp.Status, http.StatusForbidden)
	}
}

func TestSuspendActivate(t *testing.T) {
	f := newFixture(t)
	path := "/v1/tenants/" + f.tenantID.String()

	resp := f.at.Do(t, http.MethodPost, path+"/suspend", f.admin.Token, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("suspend: got %d: %s", resp.Status, resp.Message)
	}

	var tn tenantapp.Tenant
	resp.Decode(t, &tn)
	if !tn.IsSuspended || tn.IsActive || tn.SuspensionReason != tenantbus.DefaultSuspensionReason {
		t.Errorf("suspend: got %+v", tn)
	}

	sub, _ := f.subs.QueryByTenant(context.Background(), f.tenantID)
	if sub.Status != substatus.Suspended {
		t.Errorf("subscription after suspend: got %s", sub.Status)
	}

	resp = f.at.Do(t, http.MethodPost, path+"/suspend", f.admin.Token, map[string]any{"reason": "unpaid"})
	resp.Decode(t, &tn)
	if resp.Status != http.StatusOK || tn.SuspensionReason != "unpaid" {
		t.Errorf("suspend twice: got %d %q", resp.Status, tn.SuspensionReason)
	}

	resp = f.at.Do(t, http.MethodPost, path+"/activate", f.admin.Token, nil)

	var activated tenantapp.Tenant
	resp.Decode(t, &activated)
	if resp.Status != http.StatusOK || activated.IsSuspended || !activated.IsActive || activated.SuspensionReason != "" {
		t.Errorf("activate: got %d %+v", resp.Status, activated)
	}

	sub, _ = f.subs.QueryByTenant(context.Background(), f.tenantID)
	if sub.Status != substatus.Active {
		t.Errorf("subscription after activate: got %s", sub.Status)
	}

	resp = f.at.Do(t, http.MethodPost, path+"/suspend", f.tenant.Token, nil)
	if resp.Status != http.StatusForbidden {
		t.Errorf("tenant admin suspend: got %d want %d", resp.Status, http.StatusForbidden)
	}
}

func TestDeleteTenantCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.userBus.Create(ctx, userbus.NewUser{
		TenantID: f.tenantID,
		Name:     name.MustParse("Asha Rao"),
		Email:    mail.Address{Address: "asha@acme.test"},
		Role:     role.User,
		Password: password.MustParse("gophers-rule"),
	})
	if err != nil {
		t.Fatalf("seed user: %s", err)
	}

	path := "/v1/tenants/" + f.tenantID.String()

	resp := f.at.Do(t, http.MethodDelete, path, f.admin.Token, nil)
	if resp.Status != http.StatusForbidden {
		t.Errorf("admin delete: got %d want %d", resp.Status, http.StatusForbidden)
	}

	resp = f.at.Do(t, http.MethodDelete, path, f.owner.Token, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("owner delete: got %d: %s", resp.Status, resp.Message)
	}

	if n, _ := f.users.Count(ctx, userbus.QueryFilter{TenantID: &f.tenantID}); n != 0 {
		t.Errorf("users left: %d", n)
	}
	if _, err := f.subs.QueryByTenant(ctx, f.tenantID); err == nil {
		t.Errorf("subscription left")
	}

	resp = f.at.Do(t, http.MethodGet, path, f.owner.Token, nil)
	if resp.Status != http.StatusNotFound {
		t.Errorf("get deleted: got %d want %d", resp.Status, http.StatusNotFound)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/tenants/stats/overview", f.owner.Token, nil)
	var ov tenantapp.Overview
	resp.Decode(t, &ov)
	if ov.Tenants.Total != 0 {
		t.Errorf("overview after delete: got %+v", ov)
	}
}
