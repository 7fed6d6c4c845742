package authz

import "errors"

// Sentinel errors for the authorization taxonomy. Handlers map these to
// HTTP 401/403/400 respectively.
var (
	// ErrUnauthenticated means no principal was presented on a gated operation.
	ErrUnauthenticated = errors.New("unauthorized")
	// ErrForbidden means a principal was presented but the check failed.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation means a role/userType/module/action/level value is not a
	// member of its closed enum.
	ErrValidation = errors.New("validation failed")
)

// Engine evaluates authorization decisions. It is pure and stateless; the
// same instance backs the request-gating middleware and the decision endpoint
// the dashboard queries for UI affordances.
type Engine struct {
	registry *Registry
}

// NewEngine creates an engine bound to the given enum registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry returns the enum registry the engine validates against.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Authorize reports whether the principal may perform action on module.
//
// Decision order:
//  1. admin role passes everything.
//  2. client user type passes only (clients, read); grants are ignored.
//  3. otherwise the module's grant decides: action listed OR level full.
//
// A nil principal never reaches this function; callers must reject
// unauthenticated requests with ErrUnauthenticated first.
func (e *Engine) Authorize(p *Principal, module Module, action Action) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	if p.UserType == UserTypeClient {
		return module == ModuleClients && action == ActionRead
	}
	grant, ok := p.GrantFor(module)
	if !ok {
		return false
	}
	return grant.Allows(action)
}

// AccessibleModules returns the modules visible to the principal, in the
// registry's canonical order. Drives navigation/menu gating.
func (e *Engine) AccessibleModules(p *Principal) []Module {
	if p == nil {
		return nil
	}
	if p.Role == RoleAdmin {
		return e.registry.Modules()
	}
	if p.UserType == UserTypeClient {
		// Fixed portal surface, independent of any grants on the account.
		return []Module{ModuleDashboard, ModuleClients, ModuleDocuments}
	}
	var visible []Module
	for _, g := range DedupeGrants(p.Grants) {
		if g.Level != LevelNone {
			visible = append(visible, g.Module)
		}
	}
	e.registry.SortModules(visible)
	return visible
}

// CheckModuleAccess reports whether the module is in the principal's
// accessible set. Used as a coarse pre-gate before Authorize.
func (e *Engine) CheckModuleAccess(p *Principal, module Module) bool {
	for _, m := range e.AccessibleModules(p) {
		if m == module {
			return true
		}
	}
	return false
}

// EnsureOwnData is the ownership guard applied on top of Authorize for
// per-resource endpoints. ownerID is the client id that owns the requested
// resource; empty means the request is not resource-scoped.
func (e *Engine) EnsureOwnData(p *Principal, ownerID string) bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	if p.UserType == UserTypeClient {
		return ownerID == "" || ownerID == p.ClientID
	}
	// Staff accounts carry no ownership restriction.
	return true
}

// Decision is the result of an authorization query, shaped for the
// /authz/check endpoint so UI gating consumes the same evaluation the
// middleware applies.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Module  Module `json:"module"`
	Action  Action `json:"action"`
	Reason  string `json:"reason,omitempty"`
}

// Check validates the requested module/action against the registry and
// evaluates Authorize, returning a structured decision.
func (e *Engine) Check(p *Principal, module Module, action Action) (Decision, error) {
	if p == nil {
		return Decision{}, ErrUnauthenticated
	}
	if !e.registry.ValidModule(module) {
		return Decision{}, &ValidationError{Field: "module", Value: string(module)}
	}
	if !e.registry.ValidAction(action) {
		return Decision{}, &ValidationError{Field: "action", Value: string(action)}
	}
	d := Decision{
		Allowed: e.Authorize(p, module, action),
		Module:  module,
		Action:  action,
	}
	if !d.Allowed {
		d.Reason = "insufficient permissions"
	}
	return d, nil
}

// ValidationError reports a value outside its closed enum.
type ValidationError struct {
	Field string
	Value string
}

func (v *ValidationError) Error() string {
	return "validation failed: unknown " + v.Field + " \"" + v.Value + "\""
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (v *ValidationError) Unwrap() error {
	return ErrValidation
}
