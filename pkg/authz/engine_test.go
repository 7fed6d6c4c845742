package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(NewRegistry())
}

func staffPrincipal(grants ...Grant) *Principal {
	return &Principal{
		ID:       "user-1",
		Role:     RoleSales,
		UserType: UserTypeStaff,
		Grants:   grants,
		IsActive: true,
	}
}

func TestAuthorizeAdminBypassesGrants(t *testing.T) {
	e := newTestEngine()
	admin := &Principal{ID: "admin-1", Role: RoleAdmin, UserType: UserTypeStaff, IsActive: true}

	for _, m := range e.Registry().Modules() {
		for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove, ActionAssign, ActionShare} {
			assert.True(t, e.Authorize(admin, m, a), "admin denied %s on %s", a, m)
		}
	}
}

func TestAuthorizeClientUserTypeIgnoresGrants(t *testing.T) {
	e := newTestEngine()

	// Even a full grant on invoices does not widen a client account.
	client := &Principal{
		ID:       "portal-1",
		Role:     RoleClient,
		UserType: UserTypeClient,
		ClientID: "client-9",
		Grants: []Grant{
			{Module: ModuleInvoices, Level: LevelFull},
			{Module: ModuleClients, Actions: []Action{ActionUpdate}, Level: LevelEdit},
		},
		IsActive: true,
	}

	assert.True(t, e.Authorize(client, ModuleClients, ActionRead))
	assert.False(t, e.Authorize(client, ModuleClients, ActionUpdate))
	assert.False(t, e.Authorize(client, ModuleInvoices, ActionRead))
	assert.False(t, e.Authorize(client, ModuleInvoices, ActionDelete))
	assert.False(t, e.Authorize(client, ModuleDashboard, ActionRead))
}

func TestAuthorizeGrantActionList(t *testing.T) {
	e := newTestEngine()
	p := staffPrincipal(Grant{
		Module:  ModuleTasks,
		Actions: []Action{ActionRead, ActionCreate},
		Level:   LevelEdit,
	})

	assert.True(t, e.Authorize(p, ModuleTasks, ActionRead))
	assert.True(t, e.Authorize(p, ModuleTasks, ActionCreate))
	// edit level does not imply any action; only the list and full count.
	assert.False(t, e.Authorize(p, ModuleTasks, ActionUpdate))
	assert.False(t, e.Authorize(p, ModuleTasks, ActionDelete))
	assert.False(t, e.Authorize(p, ModuleInvoices, ActionRead))
}

func TestAuthorizeFullLevelAllowsAllActions(t *testing.T) {
	e := newTestEngine()
	p := staffPrincipal(Grant{Module: ModuleInvoices, Level: LevelFull})

	for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove, ActionAssign, ActionShare} {
		assert.True(t, e.Authorize(p, ModuleInvoices, a), "full level denied %s", a)
	}
}

func TestAuthorizeViewLevelWithEmptyActionsDeniesEverything(t *testing.T) {
	e := newTestEngine()
	p := staffPrincipal(Grant{Module: ModuleReports, Level: LevelView})

	for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete} {
		assert.False(t, e.Authorize(p, ModuleReports, a))
	}
}

func TestAuthorizeNilPrincipal(t *testing.T) {
	e := newTestEngine()
	assert.False(t, e.Authorize(nil, ModuleClients, ActionRead))
}

func TestAuthorizeDuplicateGrantLastWins(t *testing.T) {
	e := newTestEngine()
	p := staffPrincipal(
		Grant{Module: ModuleTasks, Actions: []Action{ActionRead}, Level: LevelView},
		Grant{Module: ModuleTasks, Actions: []Action{ActionDelete}, Level: LevelEdit},
	)

	assert.True(t, e.Authorize(p, ModuleTasks, ActionDelete))
	assert.False(t, e.Authorize(p, ModuleTasks, ActionRead))
}

func TestAccessibleModulesAdmin(t *testing.T) {
	e := newTestEngine()
	admin := &Principal{ID: "admin-1", Role: RoleAdmin, UserType: UserTypeStaff}

	got := e.AccessibleModules(admin)
	assert.Equal(t, e.Registry().Modules(), got)
	assert.Len(t, got, 11)
}

func TestAccessibleModulesClientFixedSet(t *testing.T) {
	e := newTestEngine()
	client := &Principal{
		ID:       "portal-1",
		Role:     RoleClient,
		UserType: UserTypeClient,
		ClientID: "client-9",
		Grants:   []Grant{{Module: ModuleInvoices, Level: LevelFull}},
	}

	got := e.AccessibleModules(client)
	assert.Equal(t, []Module{ModuleDashboard, ModuleClients, ModuleDocuments}, got)
}

func TestAccessibleModulesStaffFiltersNoneAndSorts(t *testing.T) {
	e := newTestEngine()
	p := staffPrincipal(
		Grant{Module: ModuleReports, Level: LevelView},
		Grant{Module: ModuleClients, Level: LevelEdit},
		Grant{Module: ModuleTasks, Level: LevelNone},
		Grant{Module: ModuleDashboard, Level: LevelFull},
	)

	got := e.AccessibleModules(p)
	assert.Equal(t, []Module{ModuleDashboard, ModuleClients, ModuleReports}, got)
}

func TestAccessibleModulesStaffDuplicateModule(t *testing.T) {
	e := newTestEngine()
	p := staffPrincipal(
		Grant{Module: ModuleTasks, Level: LevelView},
		Grant{Module: ModuleTasks, Level: LevelNone},
	)

	// Last entry wins, so the module drops out entirely.
	assert.Empty(t, e.AccessibleModules(p))
}

func TestCheckModuleAccess(t *testing.T) {
	e := newTestEngine()
	p := staffPrincipal(Grant{Module: ModuleClients, Level: LevelView})

	assert.True(t, e.CheckModuleAccess(p, ModuleClients))
	assert.False(t, e.CheckModuleAccess(p, ModuleInvoices))
	assert.False(t, e.CheckModuleAccess(nil, ModuleClients))
}

func TestEnsureOwnData(t *testing.T) {
	e := newTestEngine()

	admin := &Principal{ID: "a", Role: RoleAdmin, UserType: UserTypeStaff}
	staff := staffPrincipal()
	client := &Principal{ID: "p", Role: RoleClient, UserType: UserTypeClient, ClientID: "client-9"}

	assert.True(t, e.EnsureOwnData(admin, "client-1"))
	assert.True(t, e.EnsureOwnData(staff, "client-1"))
	assert.True(t, e.EnsureOwnData(client, "client-9"))
	assert.True(t, e.EnsureOwnData(client, ""))
	assert.False(t, e.EnsureOwnData(client, "client-1"))
	assert.False(t, e.EnsureOwnData(nil, ""))
}

func TestCheckValidatesEnums(t *testing.T) {
	e := newTestEngine()
	p := staffPrincipal(Grant{Module: ModuleClients, Actions: []Action{ActionRead}, Level: LevelView})

	d, err := e.Check(p, ModuleClients, ActionRead)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)

	d, err = e.Check(p, ModuleClients, ActionDelete)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "insufficient permissions", d.Reason)

	_, err = e.Check(p, Module("payroll"), ActionRead)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = e.Check(p, ModuleClients, Action("explode"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = e.Check(nil, ModuleClients, ActionRead)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestValidatePrincipal(t *testing.T) {
	r := NewRegistry()

	ok := staffPrincipal(Grant{Module: ModuleClients, Actions: []Action{ActionRead}, Level: LevelView})
	assert.NoError(t, r.ValidatePrincipal(ok))

	badRole := &Principal{ID: "x", Role: Role("superuser"), UserType: UserTypeStaff}
	assert.ErrorIs(t, r.ValidatePrincipal(badRole), ErrValidation)

	badLevel := staffPrincipal(Grant{Module: ModuleClients, Level: AccessLevel("total")})
	assert.ErrorIs(t, r.ValidatePrincipal(badLevel), ErrValidation)

	dup := staffPrincipal(
		Grant{Module: ModuleClients, Level: LevelView},
		Grant{Module: ModuleClients, Level: LevelEdit},
	)
	assert.ErrorIs(t, r.ValidatePrincipal(dup), ErrValidation)

	assert.ErrorIs(t, r.ValidatePrincipal(nil), ErrValidation)
}

func TestSortModulesUnknownLast(t *testing.T) {
	r := NewRegistry()
	mods := []Module{Module("zeta"), ModuleReports, Module("alpha"), ModuleDashboard}
	r.SortModules(mods)
	assert.Equal(t, []Module{ModuleDashboard, ModuleReports, Module("alpha"), Module("zeta")}, mods)
}

func TestDedupeGrantsKeepsLastPreservesOrder(t *testing.T) {
	in := []Grant{
		{Module: ModuleClients, Level: LevelView},
		{Module: ModuleTasks, Level: LevelEdit},
		{Module: ModuleClients, Level: LevelFull},
	}
	out := DedupeGrants(in)
	require.Len(t, out, 2)
	assert.Equal(t, ModuleClients, out[0].Module)
	assert.Equal(t, LevelFull, out[0].Level)
	assert.Equal(t, ModuleTasks, out[1].Module)
}
