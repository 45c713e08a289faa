package userapp_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/app/domain/userapp"
	"github.com/jcpaschoal/tenantcrm/app/sdk/apitest"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/types/name"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
)

type fixture struct {
	at        *apitest.Test
	bgn       *apitest.Beginner
	tenantBus *tenantbus.Core
	tenantID  uuid.UUID
	admin     apitest.User
	platform  apitest.User
}

func newFixture(t *testing.T) fixture {
	at := apitest.New(t)

	bgn := &apitest.Beginner{}
	tenantBus := tenantbus.NewCore(at.Log, apitest.NewTenantStore())

	ten, err := tenantBus.Create(context.Background(), tenantbus.NewTenant{Name: name.MustParse("Acme Corp"), Slug: "acme", MaxUsers: 2})
	if err != nil {
		t.Fatalf("tenant: %s", err)
	}

	userapp.Routes(at.App, userapp.Config{
		Log:         at.Log,
		Auth:        at.Auth,
		Beginner:    bgn,
		UserBus:     userbus.NewCore(apitest.NewUserStore()),
		TenantBus:   tenantBus,
		ActivityBus: at.ActivityBus(),
	})

	return fixture{
		at:        at,
		bgn:       bgn,
		tenantBus: tenantBus,
		tenantID:  ten.ID,
		admin:     at.NewUser(t, role.TenantAdmin, ten.ID),
		platform:  at.NewUser(t, role.SaaSOwner, uuid.Nil),
	}
}

func newUser(email string, r role.Role) map[string]any {
	return map[string]any{
		"name":            "Asha Rao",
		"email":           email,
		"role":            r.String(),
		"password":        "gophers-rule",
		"passwordConfirm": "gophers-rule",
	}
}

func (f fixture) seats(t *testing.T) int {
	t.Helper()

	ten, err := f.tenantBus.QueryByID(context.Background(), f.tenantID)
	if err != nil {
		t.Fatalf("tenant: %s", err)
	}

	return ten.UserCount
}

func TestCreateRespectsSeatLimit(t *testing.T) {
	f := newFixture(t)

	var first userapp.User
	for i, email := range []string{"a@acme.test", "b@acme.test"} {
		resp := f.at.Do(t, http.MethodPost, "/v1/users", f.admin.Token, newUser(email, role.User))
		if resp.Status != http.StatusCreated {
			t.Fatalf("create %d: got %d: %s %v", i, resp.Status, resp.Message, resp.Fields)
		}
		if i == 0 {
			resp.Decode(t, &first)
		}
	}

	if first.TenantID != f.tenantID.String() {
		t.Errorf("tenant: got %s want %s", first.TenantID, f.tenantID)
	}

	resp := f.at.Do(t, http.MethodPost, "/v1/users", f.admin.Token, newUser("c@acme.test", role.User))
	if resp.Status != http.StatusBadRequest || resp.Message != tenantbus.ErrUserLimit.Error() {
		t.Errorf("over limit: got %d %q", resp.Status, resp.Message)
	}

	if got := f.seats(t); got != 2 {
		t.Errorf("seats: got %d want 2", got)
	}

	resp = f.at.Do(t, http.MethodDelete, "/v1/users/"+first.ID, f.admin.Token, nil)
	if resp.Status != http.StatusOK {
		t.Fatalf("delete: got %d: %s", resp.Status, resp.Message)
	}

	if got := f.seats(t); got != 1 {
		t.Errorf("seats after delete: got %d want 1", got)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/users/"+first.ID, f.admin.Token, nil)
	var usr userapp.User
	resp.Decode(t, &usr)
	if usr.IsActive {
		t.Error("deleted user must be inactive")
	}

	resp = f.at.Do(t, http.MethodPost, "/v1/users", f.admin.Token, newUser("c@acme.test", role.User))
	if resp.Status != http.StatusCreated {
		t.Errorf("create after delete: got %d: %s", resp.Status, resp.Message)
	}
}

func TestCreateRoleRules(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		token  string
		body   map[string]any
		status int
	}{
		{"tenant admin makes platform user", f.admin.Token, newUser("p@acme.test", role.SaaSAdmin), http.StatusForbidden},
		{"platform user without tenant", f.platform.Token, newUser("t@acme.test", role.User), http.StatusBadRequest},
		{"platform makes platform user", f.platform.Token, newUser("ops@saas.test", role.SaaSAdmin), http.StatusCreated},
		{"unknown role", f.admin.Token, map[string]any{"name": "Bo", "email": "bo@acme.test", "role": "ROOT", "password": "gophers-rule", "passwordConfirm": "gophers-rule"}, http.StatusBadRequest},
		{"short password", f.admin.Token, map[string]any{"name": "Bo", "email": "bo@acme.test", "role": "USER", "password": "short", "passwordConfirm": "short"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.at.Do(t, http.MethodPost, "/v1/users", tt.token, tt.body)
			if resp.Status != tt.status {
				t.Errorf("got %d want %d: %s %v", resp.Status, tt.status, resp.Message, resp.Fields)
			}
		})
	}

	body := newUser("named@acme.test", role.Manager)
	body["tenantId"] = f.tenantID.String()
	if resp := f.at.Do(t, http.MethodPost, "/v1/users", f.platform.Token, body); resp.Status != http.StatusCreated {
		t.Errorf("platform with tenant: got %d: %s", resp.Status, resp.Message)
	}

	if resp := f.at.Do(t, http.MethodPost, "/v1/users", f.admin.Token, newUser("named@acme.test", role.User)); resp.Status != http.StatusConflict {
		t.Errorf("duplicate email: got %d want %d", resp.Status, http.StatusConflict)
	}
}

func TestUserScoping(t *testing.T) {
	f := newFixture(t)

	resp := f.at.Do(t, http.MethodPost, "/v1/users", f.admin.Token, newUser("a@acme.test", role.User))
	var usr userapp.User
	resp.Decode(t, &usr)

	other := f.at.NewUser(t, role.TenantAdmin, uuid.New())

	if resp := f.at.Do(t, http.MethodGet, "/v1/users/"+usr.ID, other.Token, nil); resp.Status != http.StatusForbidden {
		t.Errorf("other tenant read: got %d want %d", resp.Status, http.StatusForbidden)
	}

	if resp := f.at.Do(t, http.MethodPut, "/v1/users/"+usr.ID, other.Token, map[string]any{"name": "Taken Over"}); resp.Status != http.StatusForbidden {
		t.Errorf("other tenant update: got %d want %d", resp.Status, http.StatusForbidden)
	}

	resp = f.at.Do(t, http.MethodGet, "/v1/users", other.Token, nil)
	var pg apitest.Page[userapp.User]
	resp.Decode(t, &pg)
	if pg.Pagination.Total != 0 {
		t.Errorf("other tenant list: got %d want 0", pg.Pagination.Total)
	}

	resp = f.at.Do(t, http.MethodPut, "/v1/users/"+usr.ID, f.admin.Token, map[string]any{"name": "Asha R.", "role": "MANAGER"})
	if resp.Status != http.StatusOK {
		t.Fatalf("update: got %d: %s", resp.Status, resp.Message)
	}
	resp.Decode(t, &usr)
	if usr.Name != "Asha R." || usr.Role != "MANAGER" {
		t.Errorf("update: got %+v", usr)
	}

	if resp := f.at.Do(t, http.MethodPut, "/v1/users/"+usr.ID, f.admin.Token, map[string]any{"role": "SAAS_OWNER"}); resp.Status != http.StatusForbidden {
		t.Errorf("promote to platform: got %d want %d", resp.Status, http.StatusForbidden)
	}

	manager := f.at.NewUser(t, role.Manager, f.tenantID)
	if resp := f.at.Do(t, http.MethodPost, "/v1/users", manager.Token, newUser("m@acme.test", role.User)); resp.Status != http.StatusForbidden {
		t.Errorf("manager create: got %d want %d", resp.Status, http.StatusForbidden)
	}
}
