package auth

import (
	"fmt"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

// RoleAdministrator holds every table permission by default.
const RoleAdministrator = "administrator"

// PermissionManage gates exports and fragment refreshes.
const PermissionManage = "manage_options"

const _rbacModel = `
[request_definition]
r = sub, perm

[policy_definition]
p = sub, perm

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.perm == p.perm
`

// Permissions is a role based permission table backed by a casbin enforcer.
type Permissions struct {
	enforcer *casbin.Enforcer
}

// NewPermissions builds an empty permission table where RoleAdministrator
// holds PermissionManage.
func NewPermissions() (*Permissions, error) {
	m, err := model.NewModelFromString(_rbacModel)
	if err != nil {
		return nil, fmt.Errorf("cannot load permission model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("cannot create enforcer: %w", err)
	}

	p := &Permissions{enforcer: enforcer}
	if err := p.Grant(RoleAdministrator, PermissionManage); err != nil {
		return nil, err
	}

	return p, nil
}

// Grant gives permission to subject, a user or a role.
func (p *Permissions) Grant(subject, permission string) error {
	if _, err := p.enforcer.AddPolicy(subject, permission); err != nil {
		return fmt.Errorf("cannot grant %q to %q: %w", permission, subject, err)
	}

	return nil
}

// Revoke removes a permission granted with Grant.
func (p *Permissions) Revoke(subject, permission string) error {
	if _, err := p.enforcer.RemovePolicy(subject, permission); err != nil {
		return fmt.Errorf("cannot revoke %q from %q: %w", permission, subject, err)
	}

	return nil
}

// Assign adds subject to role.
func (p *Permissions) Assign(subject, role string) error {
	if _, err := p.enforcer.AddGroupingPolicy(subject, role); err != nil {
		return fmt.Errorf("cannot assign %q to %q: %w", role, subject, err)
	}

	return nil
}

// Can reports whether subject holds permission directly or through a role.
// The empty subject never does.
func (p *Permissions) Can(subject, permission string) (bool, error) {
	if subject == "" {
		return false, nil
	}

	allowed, err := p.enforcer.Enforce(subject, permission)
	if err != nil {
		return false, fmt.Errorf("cannot enforce %q for %q: %w", permission, subject, err)
	}

	return allowed, nil
}
