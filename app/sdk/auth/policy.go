package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/jcpaschoal/tenantcrm/business/types/actions"
	"github.com/jcpaschoal/tenantcrm/business/types/resource"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
)

// A MANAGE grant covers every action on the resource.
const casbinModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && (r.act == p.act || p.act == "MANAGE")
`

type grant struct {
	res  resource.Resource
	acts []actions.Action
}

func manage(res resource.Resource) grant {
	return grant{res: res, acts: []actions.Action{actions.Manage}}
}

func allow(res resource.Resource, acts ...actions.Action) grant {
	return grant{res: res, acts: acts}
}

// policy is the role x resource x action table. Tenant rows are still
// scoped per request; this only decides whether a role may reach a route.
var policy = map[role.Role][]grant{
	role.SaaSOwner: {
		manage(resource.Tenant),
		manage(resource.Subscription),
		manage(resource.Billing),
		manage(resource.Meeting),
		manage(resource.Note),
		manage(resource.ViewingPin),
		manage(resource.Audit),
		manage(resource.Activity),
		manage(resource.User),
	},
	role.SaaSAdmin: {
		allow(resource.Tenant, actions.Get, actions.Create, actions.Update),
		manage(resource.Subscription),
		manage(resource.Billing),
		manage(resource.Meeting),
		manage(resource.Note),
		manage(resource.ViewingPin),
		manage(resource.Audit),
		manage(resource.Activity),
		manage(resource.User),
	},
	role.TenantAdmin: {
		allow(resource.Tenant, actions.Get),
		allow(resource.Subscription, actions.Get),
		manage(resource.Billing),
		manage(resource.Meeting),
		manage(resource.Note),
		manage(resource.ViewingPin),
		allow(resource.Audit, actions.Get),
		allow(resource.Activity, actions.Get),
		manage(resource.User),
	},
	role.Manager: {
		allow(resource.Tenant, actions.Get),
		allow(resource.Subscription, actions.Get),
		manage(resource.Meeting),
		manage(resource.Note),
		manage(resource.ViewingPin),
		allow(resource.Audit, actions.Get),
		allow(resource.Activity, actions.Get),
		allow(resource.User, actions.Get),
	},
	role.User: {
		allow(resource.Subscription, actions.Get),
		manage(resource.Meeting),
		manage(resource.Note),
		manage(resource.ViewingPin),
	},
}

func newEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	var rules [][]string
	for r, grants := range policy {
		for _, g := range grants {
			for _, act := range g.acts {
				rules = append(rules, []string{r.String(), g.res.String(), act.String()})
			}
		}
	}

	if _, err := e.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}

	return e, nil
}
