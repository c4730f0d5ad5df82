package core_test

import (
	"context"
	"testing"

	"github.com/agubarev/lowcode/internal/core"
	"github.com/agubarev/lowcode/pkg/accesspolicy"
	"github.com/agubarev/lowcode/pkg/config"
	"github.com/agubarev/lowcode/pkg/domain"
	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/agubarev/lowcode/pkg/group"
	"github.com/agubarev/lowcode/pkg/workflow"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func leadDefinition(domainID string) workflow.Definition {
	return workflow.Definition{
		DomainID: domainID,
		Name:     "Lead qualification",
		ModelID:  "lead",
		States: []workflow.State{
			{ID: "draft", Name: "Draft", IsInitial: true},
			{ID: "approved", Name: "Approved", IsFinal: true},
		},
		Transitions: []workflow.Transition{
			{ID: "submit", Name: "Submit", FromState: "draft", ToState: "approved", ActionType: workflow.ActionSubmit},
		},
	}
}

func domainGroupByName(groups []group.DomainGroup, name string) group.DomainGroup {
	for _, g := range groups {
		if g.Name == name {
			return g
		}
	}

	return group.DomainGroup{}
}

func TestNew(t *testing.T) {
	a := assert.New(t)

	_, err := core.New(core.Stores{})
	a.Error(err)

	c, err := core.NewForTesting()
	a.NoError(err)
	a.NotNil(c.DomainManager())
	a.NotNil(c.GroupManager())
	a.NotNil(c.WorkflowManager())
	a.NotNil(c.Engine())
	a.NotNil(c.Resolver())

	a.Equal(core.ErrNilLogger, c.SetLogger(nil))
}

func TestCore_EndToEnd(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	c, err := core.NewForTesting()
	require.NoError(t, err)

	d, domainGroups, err := c.CreateDomain(ctx, domain.NewDomain{Name: "Acme", Slug: "acme", OwnerUserID: "alice"})
	require.NoError(t, err)
	a.Equal("acme", d.Slug)
	a.Len(domainGroups, 2)

	app, appGroups, err := c.CreateApplication(ctx, d.ID, domain.NewApplication{Name: "CRM", Slug: "crm", OwnerUserID: "alice"})
	require.NoError(t, err)
	a.Equal("crm", app.Slug)
	a.Len(appGroups, 3)

	alice := accesspolicy.DomainUser("alice", d.ID)

	perms, err := c.Resolver().DomainPermissions(ctx, alice, d.ID)
	a.NoError(err)
	a.Equal(accesspolicy.DPAll, perms)

	appPerms, err := c.Resolver().AppPermissions(ctx, alice, app.ID)
	a.NoError(err)
	a.Equal(accesspolicy.APAll, appPerms)

	def, err := c.CreateWorkflow(ctx, alice, leadDefinition(d.ID))
	require.NoError(t, err)
	a.Equal(1, def.Version)
	a.Equal("alice", def.CreatedBy)

	i, err := c.StartWorkflow(ctx, alice, def.ID, d.ID, "lead-1", map[string]interface{}{"company": "Globex"})
	require.NoError(t, err)
	a.Equal("draft", i.CurrentState)

	i, err = c.ExecuteTransition(ctx, alice, i.ID, "submit", "qualified", nil)
	require.NoError(t, err)
	a.Equal("approved", i.CurrentState)
	a.Len(i.History, 1)

	terminal, err := c.Engine().IsTerminal(ctx, i.ID)
	a.NoError(err)
	a.True(terminal)

	// provisioning again changes nothing
	again, err := c.ProvisionDomain(ctx, d)
	a.NoError(err)
	a.Len(again, 2)

	members, err := c.GroupManager().DomainGroupMembers(ctx, d.ID, domainGroupByName(again, group.DomainAdmin).ID)
	a.NoError(err)
	a.Len(members, 1)
}

func TestCore_AddUserToDomain(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	c, err := core.NewForTesting()
	require.NoError(t, err)

	d, domainGroups, err := c.CreateDomain(ctx, domain.NewDomain{Name: "Acme", OwnerUserID: "alice"})
	require.NoError(t, err)

	crm, _, err := c.CreateApplication(ctx, d.ID, domain.NewApplication{Name: "CRM", OwnerUserID: "alice"})
	require.NoError(t, err)

	hr, _, err := c.CreateApplication(ctx, d.ID, domain.NewApplication{Name: "HR"})
	require.NoError(t, err)

	contributors := domainGroupByName(domainGroups, group.DomainContributor)

	m, enrolled, err := c.AddUserToDomain(ctx, d.ID, contributors.ID, "bob", "alice")
	a.NoError(err)
	a.Equal("bob", m.UserID)
	a.Equal(2, enrolled)

	bob := accesspolicy.DomainUser("bob", d.ID)

	for _, appID := range []string{crm.ID, hr.ID} {
		perms, err := c.Resolver().AppPermissions(ctx, bob, appID)
		a.NoError(err)
		a.Equal(accesspolicy.APRead, perms)
	}

	perms, err := c.Resolver().DomainPermissions(ctx, bob, d.ID)
	a.NoError(err)
	a.True(perms.Has(accesspolicy.DPManageApps))
	a.False(perms.Has(accesspolicy.DPManageUsers))

	// already a member
	_, _, err = c.AddUserToDomain(ctx, d.ID, contributors.ID, "bob", "alice")
	a.True(fault.Is(err, fault.KValidation))

	enrolled, err = c.OnUserAddedToDomain(ctx, d.ID, "bob", "alice")
	a.NoError(err)
	a.Zero(enrolled)

	// the owner already administers crm, only hr is left
	enrolled, err = c.OnUserAddedToDomain(ctx, d.ID, "alice", "alice")
	a.NoError(err)
	a.Equal(1, enrolled)
}

func TestCore_Authorization(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	c, err := core.NewForTesting()
	require.NoError(t, err)

	acme, _, err := c.CreateDomain(ctx, domain.NewDomain{Name: "Acme", OwnerUserID: "alice"})
	require.NoError(t, err)

	globex, _, err := c.CreateDomain(ctx, domain.NewDomain{Name: "Globex", OwnerUserID: "hank"})
	require.NoError(t, err)

	// a user of another domain
	hank := accesspolicy.DomainUser("hank", globex.ID)

	// foreign domains don't exist as far as hank is concerned
	_, err = c.CreateWorkflow(ctx, hank, leadDefinition(acme.ID))
	a.Equal(domain.ErrDomainNotFound, err)

	// a plain domain user may use apps but not manage them
	carol := accesspolicy.DomainUser("carol", acme.ID)

	_, err = c.CreateWorkflow(ctx, carol, leadDefinition(acme.ID))
	a.True(fault.Is(err, fault.KForbidden))

	// platform owner
	def, err := c.CreateWorkflow(ctx, accesspolicy.Owner("root"), leadDefinition(acme.ID))
	require.NoError(t, err)

	i, err := c.StartWorkflow(ctx, carol, def.ID, acme.ID, "lead-1", nil)
	require.NoError(t, err)

	_, err = c.StartWorkflow(ctx, hank, def.ID, acme.ID, "lead-2", nil)
	a.True(fault.IsNotFound(err))

	// foreign instances don't exist as far as hank is concerned
	_, err = c.ExecuteTransition(ctx, hank, i.ID, "submit", "", nil)
	a.Equal(workflow.ErrInstanceNotFound, err)

	// an unknown principal resolves to nothing
	_, err = c.ExecuteTransition(ctx, accesspolicy.Principal{}, i.ID, "submit", "", nil)
	a.True(fault.IsNotFound(err))

	i, err = c.ExecuteTransition(ctx, carol, i.ID, "submit", "", nil)
	a.NoError(err)
	a.Equal("approved", i.CurrentState)
	a.Equal("carol", i.History[0].PerformedBy)
}

func TestCore_UnknownDomain(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	c, err := core.NewForTesting()
	require.NoError(t, err)

	acme, _, err := c.CreateDomain(ctx, domain.NewDomain{Name: "Acme", OwnerUserID: "alice"})
	require.NoError(t, err)

	root := accesspolicy.Owner("root")

	// even the platform owner can't target a domain that doesn't exist
	_, err = c.CreateWorkflow(ctx, root, leadDefinition("nowhere"))
	a.True(fault.IsNotFound(err))

	defs, err := c.WorkflowManager().WorkflowsByDomain(ctx, "nowhere")
	a.NoError(err)
	a.Empty(defs)

	def, err := c.CreateWorkflow(ctx, root, leadDefinition(acme.ID))
	require.NoError(t, err)

	_, err = c.StartWorkflow(ctx, root, def.ID, "nowhere", "lead-1", nil)
	a.True(fault.IsNotFound(err))

	// a user scoped to a missing domain
	_, err = c.StartWorkflow(ctx, accesspolicy.DomainUser("carol", "nowhere"), def.ID, "nowhere", "lead-1", nil)
	a.True(fault.IsNotFound(err))

	// an invalid principal doesn't reach the resolver either
	_, err = c.StartWorkflow(ctx, accesspolicy.Principal{}, def.ID, acme.ID, "lead-1", nil)
	a.True(fault.IsNotFound(err))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	configs := map[string]config.Config{
		"memory": {Backend: config.BackendMemory},
		"badger": {Backend: config.BackendBadger, Badger: config.Badger{Dir: t.TempDir()}},
		"redis":  {Backend: config.BackendRedis, Redis: config.Redis{Addr: mr.Addr(), Prefix: "test:"}},
	}

	for name, cfg := range configs {
		cfg := cfg

		t.Run(name, func(t *testing.T) {
			a := assert.New(t)

			rt, err := core.Open(ctx, cfg, zap.NewNop(), prometheus.NewRegistry())
			require.NoError(t, err)
			defer rt.Close()

			a.Nil(rt.Pool)

			d, _, err := rt.CreateDomain(ctx, domain.NewDomain{Name: "Acme " + name, OwnerUserID: "alice"})
			require.NoError(t, err)

			owner := accesspolicy.DomainUser("alice", d.ID)

			def, err := rt.CreateWorkflow(ctx, owner, leadDefinition(d.ID))
			require.NoError(t, err)

			i, err := rt.StartWorkflow(ctx, owner, def.ID, d.ID, "lead-1", nil)
			require.NoError(t, err)

			i, err = rt.ExecuteTransition(ctx, owner, i.ID, "submit", "", nil)
			a.NoError(err)
			a.Equal("approved", i.CurrentState)
		})
	}

	_, err = core.Open(ctx, config.Config{Backend: "mongo"}, zap.NewNop(), nil)
	assert.Error(t, err)

	_, err = core.Open(ctx, config.Config{Backend: config.BackendMemory}, nil, nil)
	assert.Equal(t, core.ErrNilLogger, err)
}
