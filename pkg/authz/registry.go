package authz

import (
	"fmt"
	"sort"
)

// Registry holds the closed enum sets the engine validates against.
// It is built once at startup and passed by reference; nothing mutates it
// after construction.
type Registry struct {
	roles     map[Role]struct{}
	userTypes map[UserType]struct{}
	modules   map[Module]struct{}
	actions   map[Action]struct{}
	levels    map[AccessLevel]struct{}

	moduleOrder []Module
}

// NewRegistry constructs the registry with the full GlowDesk enum sets.
func NewRegistry() *Registry {
	r := &Registry{
		roles:     make(map[Role]struct{}),
		userTypes: make(map[UserType]struct{}),
		modules:   make(map[Module]struct{}),
		actions:   make(map[Action]struct{}),
		levels:    make(map[AccessLevel]struct{}),
	}
	for _, role := range []Role{RoleAdmin, RoleManagement, RoleHR, RoleSales, RoleDirector, RoleClient} {
		r.roles[role] = struct{}{}
	}
	for _, ut := range []UserType{UserTypeStaff, UserTypeClient} {
		r.userTypes[ut] = struct{}{}
	}
	r.moduleOrder = []Module{
		ModuleDashboard, ModuleClients, ModuleTasks, ModuleStaff,
		ModuleLeads, ModuleMeetings, ModuleInvoices, ModuleReports,
		ModuleSettings, ModuleAnalytics, ModuleDocuments,
	}
	for _, m := range r.moduleOrder {
		r.modules[m] = struct{}{}
	}
	for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove, ActionAssign, ActionShare} {
		r.actions[a] = struct{}{}
	}
	for _, l := range []AccessLevel{LevelNone, LevelView, LevelEdit, LevelFull} {
		r.levels[l] = struct{}{}
	}
	return r
}

// Modules returns all modules in their canonical display order.
func (r *Registry) Modules() []Module {
	out := make([]Module, len(r.moduleOrder))
	copy(out, r.moduleOrder)
	return out
}

// ValidRole reports whether the role is a member of the closed enum.
func (r *Registry) ValidRole(role Role) bool {
	_, ok := r.roles[role]
	return ok
}

// ValidUserType reports whether the user type is a member of the closed enum.
func (r *Registry) ValidUserType(ut UserType) bool {
	_, ok := r.userTypes[ut]
	return ok
}

// ValidModule reports whether the module is a member of the closed enum.
func (r *Registry) ValidModule(m Module) bool {
	_, ok := r.modules[m]
	return ok
}

// ValidAction reports whether the action is a member of the closed enum.
func (r *Registry) ValidAction(a Action) bool {
	_, ok := r.actions[a]
	return ok
}

// ValidLevel reports whether the level is a member of the closed enum.
func (r *Registry) ValidLevel(l AccessLevel) bool {
	_, ok := r.levels[l]
	return ok
}

// ValidateGrant checks that every field of the grant is a valid enum member.
func (r *Registry) ValidateGrant(g Grant) error {
	if !r.ValidModule(g.Module) {
		return fmt.Errorf("%w: unknown module %q", ErrValidation, g.Module)
	}
	if !r.ValidLevel(g.Level) {
		return fmt.Errorf("%w: unknown access level %q", ErrValidation, g.Level)
	}
	for _, a := range g.Actions {
		if !r.ValidAction(a) {
			return fmt.Errorf("%w: unknown action %q", ErrValidation, a)
		}
	}
	return nil
}

// ValidatePrincipal checks role, user type and every grant on the principal.
func (r *Registry) ValidatePrincipal(p *Principal) error {
	if p == nil {
		return fmt.Errorf("%w: principal is nil", ErrValidation)
	}
	if !r.ValidRole(p.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, p.Role)
	}
	if !r.ValidUserType(p.UserType) {
		return fmt.Errorf("%w: unknown user type %q", ErrValidation, p.UserType)
	}
	for _, g := range p.Grants {
		if err := r.ValidateGrant(g); err != nil {
			return err
		}
	}
	seen := make(map[Module]struct{}, len(p.Grants))
	for _, g := range p.Grants {
		if _, dup := seen[g.Module]; dup {
			return fmt.Errorf("%w: duplicate grant for module %q", ErrValidation, g.Module)
		}
		seen[g.Module] = struct{}{}
	}
	return nil
}

// SortModules sorts modules into the registry's canonical order.
// Unknown modules sort last, alphabetically.
func (r *Registry) SortModules(modules []Module) {
	rank := make(map[Module]int, len(r.moduleOrder))
	for i, m := range r.moduleOrder {
		rank[m] = i
	}
	sort.SliceStable(modules, func(i, j int) bool {
		ri, iok := rank[modules[i]]
		rj, jok := rank[modules[j]]
		if iok && jok {
			return ri < rj
		}
		if iok != jok {
			return iok
		}
		return modules[i] < modules[j]
	})
}
