// Package authz decides which roles may act on which resources.
package authz

import (
	"fmt"
	"strconv"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Objects.
const (
	ObjProduct  = "product"
	ObjCategory = "category"
	ObjReview   = "review"
	ObjOrder    = "order"
)

// Actions.
const (
	ActCreate = "create"
	ActUpdate = "update"
	ActDelete = "delete"
)

const (
	scopeAny = "any"
	scopeOwn = "own"
)

// A policy with scope "own" only matches when the subject owns the resource.
const modelText = `
[request_definition]
r = role, sub, owner, obj, act

[policy_definition]
p = role, obj, act, scope

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (p.role == "*" || r.role == p.role) && r.obj == p.obj && r.act == p.act && (p.scope == "any" || r.sub == r.owner)
`

var defaultPolicies = [][]string{
	{RoleAdmin, ObjProduct, ActCreate, scopeAny},
	{RoleAdmin, ObjProduct, ActUpdate, scopeAny},
	{RoleAdmin, ObjProduct, ActDelete, scopeAny},
	{RoleAdmin, ObjCategory, ActCreate, scopeAny},
	{"*", ObjReview, ActCreate, scopeAny},
	{"*", ObjReview, ActDelete, scopeOwn},
	{"*", ObjOrder, ActCreate, scopeAny},
}

// Subject is the authenticated caller.
type Subject struct {
	ID   int64
	Role string
}

type Enforcer struct {
	e *casbin.Enforcer
}

func New() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("load authz model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}
	return &Enforcer{e: e}, nil
}

// Allow checks sub against obj/act. ownerID is the resource owner, or 0 when the
// resource has none.
func (e *Enforcer) Allow(sub Subject, obj, act string, ownerID int64) (bool, error) {
	owner := ""
	if ownerID != 0 {
		owner = strconv.FormatInt(ownerID, 10)
	}
	ok, err := e.e.Enforce(sub.Role, strconv.FormatInt(sub.ID, 10), owner, obj, act)
	if err != nil {
		return false, fmt.Errorf("enforce %s %s: %w", obj, act, err)
	}
	return ok, nil
}
