package application

import (
	"fmt"

	"github.com/casbin/casbin"

	"github.com/example/rental-marketplace/internal/persistence"
)

// Resources and actions understood by the access policy.
const (
	resourceBooking   = "booking"
	resourceApartment = "apartment"
	resourceUser      = "user"
	resourceBalance   = "balance"
	resourceReview    = "review"
	resourceContent   = "content"
	resourceContact   = "contact"

	actionCreate     = "create"
	actionRead       = "read"
	actionUpdate     = "update"
	actionDelete     = "delete"
	actionTransition = "transition"
	actionDeposit    = "deposit"
	actionModerate   = "moderate"
)

const accessModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

var defaultAccessRules = [][]string{
	{string(persistence.RoleClient), resourceBooking, actionCreate},
	{string(persistence.RoleClient), resourceBooking, actionRead},
	{string(persistence.RoleClient), resourceBooking, actionTransition},
	{string(persistence.RoleClient), resourceUser, actionRead},
	{string(persistence.RoleClient), resourceUser, actionUpdate},
	{string(persistence.RoleClient), resourceBalance, actionDeposit},
	{string(persistence.RoleClient), resourceBalance, actionRead},
	{string(persistence.RoleClient), resourceReview, actionCreate},
	{string(persistence.RoleClient), resourceReview, actionDelete},
	{string(persistence.RoleHost), resourceApartment, actionCreate},
	{string(persistence.RoleHost), resourceApartment, actionUpdate},
	{string(persistence.RoleHost), resourceApartment, actionDelete},
	{string(persistence.RoleAdmin), "*", "*"},
}

// AccessPolicy evaluates role level permissions. Ownership of individual
// records is checked by the services themselves.
type AccessPolicy struct {
	enforcer *casbin.Enforcer
}

// NewAccessPolicy builds the role policy. Hosts inherit every client permission.
func NewAccessPolicy() (*AccessPolicy, error) {
	enforcer, err := casbin.NewEnforcerSafe(casbin.NewModel(accessModel))
	if err != nil {
		return nil, fmt.Errorf("build access policy: %w", err)
	}
	enforcer.EnableLog(false)
	for _, rule := range defaultAccessRules {
		enforcer.AddPolicy(rule[0], rule[1], rule[2])
	}
	enforcer.AddGroupingPolicy(string(persistence.RoleHost), string(persistence.RoleClient))
	enforcer.BuildRoleLinks()
	return &AccessPolicy{enforcer: enforcer}, nil
}

// MustAccessPolicy is NewAccessPolicy for static wiring; it panics on a malformed model.
func MustAccessPolicy() *AccessPolicy {
	policy, err := NewAccessPolicy()
	if err != nil {
		panic(err)
	}
	return policy
}

// Allowed reports whether the role may perform action on resource.
func (p *AccessPolicy) Allowed(role persistence.Role, resource, action string) (bool, error) {
	if p == nil || p.enforcer == nil {
		return false, fmt.Errorf("access policy not configured")
	}
	if !role.Valid() {
		return false, nil
	}
	return p.enforcer.EnforceSafe(string(role), resource, action)
}

// authorize returns ErrUnauthorized unless the principal's role grants the action.
func (p *AccessPolicy) authorize(principal Principal, resource, action string) error {
	if principal.UserID == "" {
		return ErrUnauthenticated
	}
	ok, err := p.Allowed(principal.Role, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
