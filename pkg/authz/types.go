package authz

// Role is an organization-level role assigned to a principal.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManagement Role = "management"
	RoleHR         Role = "hr"
	RoleSales      Role = "sales"
	RoleDirector   Role = "director"
	RoleClient     Role = "client"
)

// UserType distinguishes internal staff accounts from client portal accounts.
type UserType string

const (
	UserTypeStaff  UserType = "staff"
	UserTypeClient UserType = "client"
)

// Module is a named functional area used as the unit of access control.
type Module string

const (
	ModuleDashboard Module = "dashboard"
	ModuleClients   Module = "clients"
	ModuleTasks     Module = "tasks"
	ModuleStaff     Module = "staff"
	ModuleLeads     Module = "leads"
	ModuleMeetings  Module = "meetings"
	ModuleInvoices  Module = "invoices"
	ModuleReports   Module = "reports"
	ModuleSettings  Module = "settings"
	ModuleAnalytics Module = "analytics"
	ModuleDocuments Module = "documents"
)

// Action is an operation type performed on a module.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionAssign  Action = "assign"
	ActionShare   Action = "share"
)

// AccessLevel is a coarse ordinal attached to a module grant.
// Levels are ordered none < view < edit < full.
type AccessLevel string

const (
	LevelNone AccessLevel = "none"
	LevelView AccessLevel = "view"
	LevelEdit AccessLevel = "edit"
	LevelFull AccessLevel = "full"
)

// Rank returns the ordinal position of the level for threshold comparisons.
// Unknown levels rank below none.
func (l AccessLevel) Rank() int {
	switch l {
	case LevelNone:
		return 0
	case LevelView:
		return 1
	case LevelEdit:
		return 2
	case LevelFull:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether l grants at least the given level.
func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return l.Rank() >= min.Rank()
}

// Grant is a principal's permission entry for a single module.
// The action list and the level are independent gates: an action passes when
// it is listed or when Level is full. view/edit imply no actions.
type Grant struct {
	Module  Module      `json:"module"`
	Actions []Action    `json:"actions"`
	Level   AccessLevel `json:"level"`
}

// Allows reports whether the grant permits the given action.
func (g Grant) Allows(action Action) bool {
	if g.Level == LevelFull {
		return true
	}
	for _, a := range g.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Principal is an authenticated actor making a request.
type Principal struct {
	ID       string   `json:"id"`
	Role     Role     `json:"role"`
	UserType UserType `json:"user_type"`
	// Grants holds at most one entry per module; module is the dedup key.
	Grants []Grant `json:"grants"`
	// ClientID back-references the client record a portal account belongs
	// to. Only set when UserType is client; used for ownership checks.
	ClientID string `json:"client_id,omitempty"`
	IsActive bool   `json:"is_active"`
}

// GrantFor returns the principal's grant for the module, if any.
// When duplicate entries exist the last one wins, matching the dedup rule
// applied when grants are persisted.
func (p *Principal) GrantFor(module Module) (Grant, bool) {
	found := Grant{}
	ok := false
	for _, g := range p.Grants {
		if g.Module == module {
			found = g
			ok = true
		}
	}
	return found, ok
}

// DedupeGrants collapses duplicate module entries, keeping the last entry
// for each module and preserving first-seen module order.
func DedupeGrants(grants []Grant) []Grant {
	index := make(map[Module]int, len(grants))
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		if i, ok := index[g.Module]; ok {
			out[i] = g
			continue
		}
		index[g.Module] = len(out)
		out = append(out, g)
	}
	return out
}
