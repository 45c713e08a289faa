package tenancy_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/sdk/tenancy"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
)

func TestPrivileged(t *testing.T) {
	for _, r := range role.All() {
		want := r.Equal(role.SaaSOwner) || r.Equal(role.SaaSAdmin)
		if got := (tenancy.Actor{Role: r}).Privileged(); got != want {
			t.Errorf("%s: got %t want %t", r, got, want)
		}
	}
}

func TestScoping(t *testing.T) {
	own := uuid.New()
	other := uuid.New()

	usr := tenancy.Actor{UserID: uuid.New(), TenantID: own, Role: role.Manager}
	owner := tenancy.Actor{UserID: uuid.New(), Role: role.SaaSOwner}

	if f := usr.ScopeFilter(); f == nil || *f != own {
		t.Errorf("scope filter: got %v want %s", f, own)
	}
	if f := owner.ScopeFilter(); f != nil {
		t.Errorf("privileged scope filter: got %v want nil", f)
	}

	if err := usr.CheckTenant(own); err != nil {
		t.Errorf("own tenant: %s", err)
	}
	if err := usr.CheckTenant(other); !errors.Is(err, tenancy.ErrAccessDenied) {
		t.Errorf("other tenant: got %v", err)
	}
	if err := owner.CheckTenant(other); err != nil {
		t.Errorf("privileged other tenant: %s", err)
	}

	got, err := usr.ResolveTenant(other)
	if err != nil || got != own {
		t.Errorf("resolve forced: got %s, %v", got, err)
	}

	if _, err := owner.ResolveTenant(uuid.Nil); !errors.Is(err, tenancy.ErrTenantRequired) {
		t.Errorf("privileged without tenant: got %v", err)
	}
	if got, err := owner.ResolveTenant(other); err != nil || got != other {
		t.Errorf("privileged with tenant: got %s, %v", got, err)
	}

	if q := usr.QueryTenant(&other); q == nil || *q != own {
		t.Errorf("query tenant forced: got %v", q)
	}
	if q := owner.QueryTenant(&other); q == nil || *q != other {
		t.Errorf("query tenant requested: got %v", q)
	}
}
