package group_test

import (
	"context"
	"testing"

	"github.com/agubarev/lowcode/pkg/accesspolicy"
	"github.com/agubarev/lowcode/pkg/database"
	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/agubarev/lowcode/pkg/group"
	"github.com/agubarev/lowcode/pkg/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newManager(t *testing.T, s group.Store) *group.Manager {
	m, err := group.NewManager(s)
	require.NoError(t, err)
	require.NoError(t, m.SetLogger(zap.NewNop()))

	return m
}

func groupNames(gs []group.DomainGroup) map[string]group.DomainGroup {
	names := make(map[string]group.DomainGroup)
	for _, g := range gs {
		names[g.Name] = g
	}

	return names
}

func appGroupNames(gs []group.AppGroup) map[string]group.AppGroup {
	names := make(map[string]group.AppGroup)
	for _, g := range gs {
		names[g.Name] = g
	}

	return names
}

func testProvisioning(t *testing.T, s group.Store) {
	a := assert.New(t)
	ctx := context.Background()

	m := newManager(t, s)
	domainID := util.NewID()
	appID := util.NewID()

	//---------------------------------------------------------------------------
	// domain defaults, twice
	//---------------------------------------------------------------------------
	first, err := m.ProvisionDomainDefaults(ctx, domainID, "owner")
	a.NoError(err)
	a.Len(first, 2)

	second, err := m.ProvisionDomainDefaults(ctx, domainID, "owner")
	a.NoError(err)
	a.Len(second, 2)

	names := groupNames(second)
	a.Equal(accesspolicy.DPAll, names[group.DomainAdmin].Permissions)
	a.Equal(accesspolicy.DPManageApps|accesspolicy.DPUseApp, names[group.DomainContributor].Permissions)
	a.True(names[group.DomainAdmin].DefaultGroup)
	a.True(names[group.DomainContributor].DefaultGroup)

	// owner is an admin exactly once
	members, err := m.DomainGroupMembers(ctx, domainID, names[group.DomainAdmin].ID)
	a.NoError(err)
	a.Len(members, 1)
	a.Equal("owner", members[0].UserID)
	a.Equal("owner", members[0].AssignedBy)

	//---------------------------------------------------------------------------
	// application defaults, twice
	//---------------------------------------------------------------------------
	appGroups, err := m.ProvisionAppDefaults(ctx, appID, "owner")
	a.NoError(err)
	a.Len(appGroups, 3)

	appGroups, err = m.ProvisionAppDefaults(ctx, appID, "owner")
	a.NoError(err)
	a.Len(appGroups, 3)

	appNames := appGroupNames(appGroups)
	a.Equal(accesspolicy.APAll, appNames[group.AppAdmin].Permissions)
	a.Equal(accesspolicy.APRead|accesspolicy.APWrite, appNames[group.AppEditor].Permissions)
	a.Equal(accesspolicy.APRead, appNames[group.AppViewer].Permissions)

	appMembers, err := m.AppGroupMembers(ctx, appID, appNames[group.AppAdmin].ID)
	a.NoError(err)
	a.Len(appMembers, 1)

	// provisioning without an owner creates groups only
	otherDomain := util.NewID()
	gs, err := m.ProvisionDomainDefaults(ctx, otherDomain, "")
	a.NoError(err)
	a.Len(gs, 2)

	members, err = m.DomainGroupMembers(ctx, otherDomain, groupNames(gs)[group.DomainAdmin].ID)
	a.NoError(err)
	a.Empty(members)
}

func testConcurrentProvisioning(t *testing.T, s group.Store) {
	a := assert.New(t)
	ctx := context.Background()

	m := newManager(t, s)
	domainID := util.NewID()

	var eg errgroup.Group
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			_, err := m.ProvisionDomainDefaults(ctx, domainID, "owner")
			return err
		})
	}
	a.NoError(eg.Wait())

	gs, err := m.DomainGroups(ctx, domainID)
	a.NoError(err)
	a.Len(gs, 2)

	members, err := m.DomainGroupMembers(ctx, domainID, groupNames(gs)[group.DomainAdmin].ID)
	a.NoError(err)
	a.Len(members, 1)
}

func testMemberships(t *testing.T, s group.Store) {
	a := assert.New(t)
	ctx := context.Background()

	m := newManager(t, s)
	domainID := util.NewID()
	appID := util.NewID()

	gs, err := m.ProvisionDomainDefaults(ctx, domainID, "owner")
	a.NoError(err)
	contributor := groupNames(gs)[group.DomainContributor]

	//---------------------------------------------------------------------------
	// domain groups
	//---------------------------------------------------------------------------
	_, err = m.CreateDomainGroup(ctx, domainID, "Custom", accesspolicy.DPViewReports)
	a.Equal(group.ErrDomainGroupsManaged, err)

	_, err = m.AddDomainGroupMember(ctx, domainID, contributor.ID, "alice", "owner")
	a.NoError(err)

	// duplicate membership
	_, err = m.AddDomainGroupMember(ctx, domainID, contributor.ID, "alice", "owner")
	a.True(fault.Is(err, fault.KValidation))

	// group of another domain is not found
	_, err = m.AddDomainGroupMember(ctx, util.NewID(), contributor.ID, "bob", "owner")
	a.True(fault.IsNotFound(err))

	_, err = m.AddDomainGroupMember(ctx, domainID, contributor.ID, "  ", "owner")
	a.Equal(group.ErrEmptyUserID, errors.Cause(err))

	ofUser, err := m.DomainGroupsOfUser(ctx, domainID, "alice")
	a.NoError(err)
	a.Len(ofUser, 1)

	a.NoError(m.RemoveDomainGroupMember(ctx, domainID, contributor.ID, "alice"))
	a.NoError(m.RemoveDomainGroupMember(ctx, domainID, contributor.ID, "alice"))

	ofUser, err = m.DomainGroupsOfUser(ctx, domainID, "alice")
	a.NoError(err)
	a.Empty(ofUser)

	//---------------------------------------------------------------------------
	// application groups
	//---------------------------------------------------------------------------
	_, err = m.ProvisionAppDefaults(ctx, appID, "owner")
	a.NoError(err)

	auditors, err := m.CreateAppGroup(ctx, appID, "  Auditors ", accesspolicy.APRead|accesspolicy.APExecute)
	a.NoError(err)
	a.Equal("Auditors", auditors.Name)
	a.False(auditors.DefaultGroup)

	_, err = m.CreateAppGroup(ctx, appID, "Auditors", accesspolicy.APRead)
	a.True(fault.Is(err, fault.KValidation))

	_, err = m.CreateAppGroup(ctx, appID, "", accesspolicy.APRead)
	a.Equal(group.ErrEmptyGroupName, err)

	_, err = m.CreateAppGroup(ctx, appID, "Broken", accesspolicy.AppPermission(1<<6))
	a.Equal(group.ErrInvalidAppPermission, err)

	// same name in another application
	_, err = m.CreateAppGroup(ctx, util.NewID(), "Auditors", accesspolicy.APRead)
	a.NoError(err)

	_, err = m.AddAppGroupMember(ctx, appID, auditors.ID, "carol", "owner")
	a.NoError(err)

	_, err = m.AddAppGroupMember(ctx, appID, auditors.ID, "carol", "owner")
	a.True(fault.Is(err, fault.KValidation))

	_, err = m.AddAppGroupMember(ctx, util.NewID(), auditors.ID, "carol", "owner")
	a.True(fault.IsNotFound(err))

	// removing the last group brings the default membership back
	a.NoError(m.RemoveAppGroupMember(ctx, appID, auditors.ID, "carol", "owner"))

	ofCarol, err := m.AppGroupsOfUser(ctx, appID, "carol")
	a.NoError(err)
	a.Len(ofCarol, 1)
	a.Equal(group.AppViewer, ofCarol[0].Name)

	// removing a non-member does nothing
	a.NoError(m.RemoveAppGroupMember(ctx, appID, auditors.ID, "carol", "owner"))
}

func testEnsureDefaultMembership(t *testing.T, s group.Store) {
	a := assert.New(t)
	ctx := context.Background()

	m := newManager(t, s)
	appID := util.NewID()
	unprovisioned := util.NewID()

	// nothing to enroll into
	ok, err := m.EnsureDefaultMembership(ctx, unprovisioned, "dave", "system")
	a.NoError(err)
	a.False(ok)

	_, err = m.ProvisionAppDefaults(ctx, appID, "owner")
	a.NoError(err)

	ok, err = m.EnsureDefaultMembership(ctx, appID, "dave", "system")
	a.NoError(err)
	a.True(ok)

	// idempotent
	ok, err = m.EnsureDefaultMembership(ctx, appID, "dave", "system")
	a.NoError(err)
	a.False(ok)

	// owner already has a membership
	ok, err = m.EnsureDefaultMembership(ctx, appID, "owner", "system")
	a.NoError(err)
	a.False(ok)

	_, err = m.EnsureDefaultMembership(ctx, appID, "", "system")
	a.Equal(group.ErrEmptyUserID, err)

	n, err := m.EnsureDefaultMemberships(ctx, []string{appID, unprovisioned}, "erin", "system")
	a.NoError(err)
	a.Equal(1, n)

	// concurrent enrollment of the same user yields exactly one membership
	var eg errgroup.Group
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			_, err := m.EnsureDefaultMembership(ctx, appID, "frank", "system")
			return err
		})
	}
	a.NoError(eg.Wait())

	ofFrank, err := m.AppGroupsOfUser(ctx, appID, "frank")
	a.NoError(err)
	a.Len(ofFrank, 1)
}

func testGrants(t *testing.T, s group.Store) {
	a := assert.New(t)
	ctx := context.Background()

	m := newManager(t, s)
	domainID := util.NewID()
	appID := util.NewID()

	gs, err := m.ProvisionDomainDefaults(ctx, domainID, "owner")
	a.NoError(err)

	_, err = m.AddDomainGroupMember(ctx, domainID, groupNames(gs)[group.DomainContributor].ID, "alice", "owner")
	a.NoError(err)

	appGroups, err := m.ProvisionAppDefaults(ctx, appID, "owner")
	a.NoError(err)

	_, err = m.AddAppGroupMember(ctx, appID, appGroupNames(appGroups)[group.AppEditor].ID, "alice", "owner")
	a.NoError(err)

	grants, err := group.NewGrants(s)
	a.NoError(err)

	r, err := accesspolicy.NewResolver(grants)
	a.NoError(err)
	a.NoError(r.SetLogger(zap.NewNop()))

	// domain owner is a domain user with the admin group
	perms, err := r.DomainPermissions(ctx, accesspolicy.DomainUser("owner", domainID), domainID)
	a.NoError(err)
	a.Equal(accesspolicy.DPAll, perms)

	perms, err = r.DomainPermissions(ctx, accesspolicy.DomainUser("alice", domainID), domainID)
	a.NoError(err)
	a.Equal(accesspolicy.DPManageApps|accesspolicy.DPUseApp, perms)

	appPerms, err := r.AppPermissions(ctx, accesspolicy.DomainUser("alice", domainID), appID)
	a.NoError(err)
	a.Equal(accesspolicy.APRead|accesspolicy.APWrite, appPerms)

	// no membership, no fallback
	appPerms, err = r.AppPermissions(ctx, accesspolicy.DomainUser("mallory", domainID), appID)
	a.NoError(err)
	a.Equal(accesspolicy.APNone, appPerms)

	_, err = group.NewGrants(nil)
	a.Equal(group.ErrNilStore, err)
}

func runAll(t *testing.T, newStore func(t *testing.T) group.Store) {
	t.Run("provisioning", func(t *testing.T) { testProvisioning(t, newStore(t)) })
	t.Run("concurrent provisioning", func(t *testing.T) { testConcurrentProvisioning(t, newStore(t)) })
	t.Run("memberships", func(t *testing.T) { testMemberships(t, newStore(t)) })
	t.Run("default membership", func(t *testing.T) { testEnsureDefaultMembership(t, newStore(t)) })
	t.Run("grants", func(t *testing.T) { testGrants(t, newStore(t)) })
}

func TestManager_Memory(t *testing.T) {
	runAll(t, func(t *testing.T) group.Store { return group.NewMemoryStore() })
}

func TestManager_PostgreSQL(t *testing.T) {
	pool, err := database.PostgresForTesting(context.Background())
	require.NoError(t, err)
	if pool == nil {
		t.Skipf("%s is not set", database.TestDatabaseEnv)
	}
	defer pool.Close()

	runAll(t, func(t *testing.T) group.Store {
		s, err := group.NewPostgreSQLStore(pool)
		require.NoError(t, err)

		return s
	})
}

func TestNewManager(t *testing.T) {
	_, err := group.NewManager(nil)
	assert.Equal(t, group.ErrNilStore, err)
}
