package group

import (
	"context"
	"strings"

	"github.com/agubarev/lowcode/pkg/accesspolicy"
	"github.com/agubarev/lowcode/pkg/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Manager is responsible for domain and application groups,
// their default provisioning and memberships
type Manager struct {
	store  Store
	clock  util.Clock
	logger *zap.Logger
}

// NewManager initializing a new group manager
func NewManager(s Store) (*Manager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	m := &Manager{
		store: s,
		clock: util.SystemClock{},
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *Manager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[group]")
	}

	m.logger = logger

	return nil
}

// Logger returns primary logger if is set, otherwise initializing and returning
func (m *Manager) Logger() *zap.Logger {
	if m.logger == nil {
		m.logger = util.DevelopmentLogger("group manager")
	}

	return m.logger
}

// SetClock overrides the time source
func (m *Manager) SetClock(c util.Clock) {
	if c != nil {
		m.clock = c
	}
}

// Store returns the underlying group store
func (m *Manager) Store() Store {
	return m.store
}

//---------------------------------------------------------------------------
// provisioning
//---------------------------------------------------------------------------

// ProvisionDomainDefaults creates "Domain Admin" and "Domain Contributor"
// and makes the owner an admin
// NOTE: does nothing if every default group already exists; concurrent
// calls are settled by the unique (domain_id, name) index
func (m *Manager) ProvisionDomainDefaults(ctx context.Context, domainID, ownerUserID string) ([]DomainGroup, error) {
	existing, err := m.store.FetchDomainGroups(ctx, domainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check existing domain groups")
	}

	names := make(map[string]bool, len(existing))
	for _, g := range existing {
		names[g.Name] = true
	}

	if provisioned(domainBlueprints, names) {
		m.Logger().Debug("domain groups already provisioned", zap.String("domain_id", domainID))
		return existing, nil
	}

	now := m.clock.Now()

	for _, bp := range domainBlueprints {
		g := DomainGroup{
			ID:           util.NewID(),
			DomainID:     domainID,
			Name:         bp.name,
			Permissions:  bp.domainSet,
			DefaultGroup: true,
			CreatedAt:    now,
		}

		if err = g.Validate(); err != nil {
			return nil, err
		}

		switch err = m.store.CreateDomainGroup(ctx, g); errors.Cause(err) {
		case nil:
		case ErrDuplicateGroup:
			// provisioned concurrently
			m.Logger().Debug("default domain group already exists", zap.String("domain_id", domainID), zap.String("name", bp.name))
		default:
			return nil, errors.Wrapf(err, "failed to create domain group %s", bp.name)
		}
	}

	if ownerUserID = strings.TrimSpace(ownerUserID); ownerUserID != "" {
		admin, err := m.domainGroupByName(ctx, domainID, DomainAdmin)
		if err != nil {
			return nil, err
		}

		if _, err = m.addDomainMember(ctx, admin, ownerUserID, ownerUserID); err != nil && errors.Cause(err) != ErrDuplicateMember {
			return nil, err
		}
	}

	m.Logger().Info("domain groups provisioned", zap.String("domain_id", domainID), zap.String("owner", ownerUserID))

	return m.store.FetchDomainGroups(ctx, domainID)
}

// ProvisionAppDefaults creates "App Admin", "App Editor" and "App Viewer"
// and makes the owner an admin
// NOTE: does nothing if every default group already exists
func (m *Manager) ProvisionAppDefaults(ctx context.Context, appID, ownerUserID string) ([]AppGroup, error) {
	existing, err := m.store.FetchAppGroups(ctx, appID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check existing app groups")
	}

	names := make(map[string]bool, len(existing))
	for _, g := range existing {
		names[g.Name] = true
	}

	if provisioned(appBlueprints, names) {
		m.Logger().Debug("app groups already provisioned", zap.String("app_id", appID))
		return existing, nil
	}

	now := m.clock.Now()

	for _, bp := range appBlueprints {
		g := AppGroup{
			ID:           util.NewID(),
			AppID:        appID,
			Name:         bp.name,
			Permissions:  bp.appSet,
			DefaultGroup: true,
			CreatedAt:    now,
		}

		if err = g.Validate(); err != nil {
			return nil, err
		}

		switch err = m.store.CreateAppGroup(ctx, g); errors.Cause(err) {
		case nil:
		case ErrDuplicateGroup:
			m.Logger().Debug("default app group already exists", zap.String("app_id", appID), zap.String("name", bp.name))
		default:
			return nil, errors.Wrapf(err, "failed to create app group %s", bp.name)
		}
	}

	if ownerUserID = strings.TrimSpace(ownerUserID); ownerUserID != "" {
		admin, err := m.store.FetchAppGroupByName(ctx, appID, AppAdmin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch app admin group")
		}

		if _, err = m.addAppMember(ctx, admin, ownerUserID, ownerUserID); err != nil && errors.Cause(err) != ErrDuplicateMember {
			return nil, err
		}
	}

	m.Logger().Info("app groups provisioned", zap.String("app_id", appID), zap.String("owner", ownerUserID))

	return m.store.FetchAppGroups(ctx, appID)
}

//---------------------------------------------------------------------------
// domain groups
//---------------------------------------------------------------------------

// CreateDomainGroup is always rejected, domain groups only come from provisioning
func (m *Manager) CreateDomainGroup(ctx context.Context, domainID, name string, perms accesspolicy.DomainPermission) (DomainGroup, error) {
	return DomainGroup{}, ErrDomainGroupsManaged
}

// DomainGroups returns all groups of a domain
func (m *Manager) DomainGroups(ctx context.Context, domainID string) ([]DomainGroup, error) {
	return m.store.FetchDomainGroups(ctx, domainID)
}

// DomainGroupsOfUser returns the domain groups a user belongs to
func (m *Manager) DomainGroupsOfUser(ctx context.Context, domainID, userID string) ([]DomainGroup, error) {
	return m.store.FetchDomainGroupsOfUser(ctx, domainID, userID)
}

// DomainGroupMembers returns members of a domain group
func (m *Manager) DomainGroupMembers(ctx context.Context, domainID, groupID string) ([]DomainGroupMember, error) {
	if _, err := m.domainGroup(ctx, domainID, groupID); err != nil {
		return nil, err
	}

	return m.store.FetchDomainGroupMembers(ctx, groupID)
}

// AddDomainGroupMember adds a user to a domain group
func (m *Manager) AddDomainGroupMember(ctx context.Context, domainID, groupID, userID, assignedBy string) (DomainGroupMember, error) {
	g, err := m.domainGroup(ctx, domainID, groupID)
	if err != nil {
		return DomainGroupMember{}, err
	}

	return m.addDomainMember(ctx, g, userID, assignedBy)
}

// RemoveDomainGroupMember removes a user from a domain group,
// removing a non-member is a no-op
func (m *Manager) RemoveDomainGroupMember(ctx context.Context, domainID, groupID, userID string) error {
	if _, err := m.domainGroup(ctx, domainID, groupID); err != nil {
		return err
	}

	switch err := m.store.DeleteDomainGroupMember(ctx, groupID, userID); errors.Cause(err) {
	case nil, ErrNotMember:
		m.Logger().Info(
			"domain group member removed",
			zap.String("domain_id", domainID),
			zap.String("group_id", groupID),
			zap.String("user_id", userID),
		)

		return nil
	default:
		return err
	}
}

// domainGroup fetches a group and makes sure it belongs to a given domain
func (m *Manager) domainGroup(ctx context.Context, domainID, groupID string) (DomainGroup, error) {
	g, err := m.store.FetchDomainGroupByID(ctx, groupID)
	if err != nil {
		return g, err
	}

	// cross-tenant lookups look exactly like missing ones
	if g.DomainID != domainID {
		return DomainGroup{}, ErrGroupNotFound
	}

	return g, nil
}

func (m *Manager) domainGroupByName(ctx context.Context, domainID, name string) (DomainGroup, error) {
	gs, err := m.store.FetchDomainGroups(ctx, domainID)
	if err != nil {
		return DomainGroup{}, err
	}

	for _, g := range gs {
		if g.Name == name {
			return g, nil
		}
	}

	return DomainGroup{}, ErrGroupNotFound
}

func (m *Manager) addDomainMember(ctx context.Context, g DomainGroup, userID, assignedBy string) (DomainGroupMember, error) {
	if userID = strings.TrimSpace(userID); userID == "" {
		return DomainGroupMember{}, ErrEmptyUserID
	}

	member := DomainGroupMember{
		ID:            util.NewID(),
		DomainGroupID: g.ID,
		DomainID:      g.DomainID,
		UserID:        userID,
		AssignedBy:    assignedBy,
		AssignedAt:    m.clock.Now(),
	}

	if err := m.store.CreateDomainGroupMember(ctx, member); err != nil {
		return DomainGroupMember{}, err
	}

	m.Logger().Info(
		"domain group member added",
		zap.String("domain_id", g.DomainID),
		zap.String("group", g.Name),
		zap.String("user_id", userID),
		zap.String("assigned_by", assignedBy),
	)

	return member, nil
}

//---------------------------------------------------------------------------
// application groups
//---------------------------------------------------------------------------

// CreateAppGroup creates a custom, non-default application group
func (m *Manager) CreateAppGroup(ctx context.Context, appID, name string, perms accesspolicy.AppPermission) (AppGroup, error) {
	if name = normalizeName(name); name == "" {
		return AppGroup{}, ErrEmptyGroupName
	}

	g := AppGroup{
		ID:           util.NewID(),
		AppID:        appID,
		Name:         name,
		Permissions:  perms,
		DefaultGroup: false,
		CreatedAt:    m.clock.Now(),
	}

	if err := g.Validate(); err != nil {
		return AppGroup{}, err
	}

	if err := m.store.CreateAppGroup(ctx, g); err != nil {
		return AppGroup{}, err
	}

	m.Logger().Info(
		"app group created",
		zap.String("app_id", appID),
		zap.String("name", name),
		zap.String("permissions", perms.String()),
	)

	return g, nil
}

// AppGroups returns all groups of an application
func (m *Manager) AppGroups(ctx context.Context, appID string) ([]AppGroup, error) {
	return m.store.FetchAppGroups(ctx, appID)
}

// AppGroupsOfUser returns the application groups a user belongs to
func (m *Manager) AppGroupsOfUser(ctx context.Context, appID, userID string) ([]AppGroup, error) {
	return m.store.FetchAppGroupsOfUser(ctx, appID, userID)
}

// AppGroupMembers returns members of an application group
func (m *Manager) AppGroupMembers(ctx context.Context, appID, groupID string) ([]AppGroupMember, error) {
	if _, err := m.appGroup(ctx, appID, groupID); err != nil {
		return nil, err
	}

	return m.store.FetchAppGroupMembers(ctx, groupID)
}

// AddAppGroupMember adds a user to an application group
func (m *Manager) AddAppGroupMember(ctx context.Context, appID, groupID, userID, assignedBy string) (AppGroupMember, error) {
	g, err := m.appGroup(ctx, appID, groupID)
	if err != nil {
		return AppGroupMember{}, err
	}

	return m.addAppMember(ctx, g, userID, assignedBy)
}

// RemoveAppGroupMember removes a user from an application group; if that
// was the user's last group then the default membership is restored
func (m *Manager) RemoveAppGroupMember(ctx context.Context, appID, groupID, userID, removedBy string) error {
	if _, err := m.appGroup(ctx, appID, groupID); err != nil {
		return err
	}

	switch err := m.store.DeleteAppGroupMember(ctx, groupID, userID); errors.Cause(err) {
	case nil:
	case ErrNotMember:
		return nil
	default:
		return err
	}

	m.Logger().Info(
		"app group member removed",
		zap.String("app_id", appID),
		zap.String("group_id", groupID),
		zap.String("user_id", userID),
	)

	_, err := m.EnsureDefaultMembership(ctx, appID, userID, removedBy)

	return err
}

// EnsureDefaultMembership enrolls a user into the "App Viewer" group of an
// application, but only if the user has no membership there at all;
// returns true if the user was enrolled
// NOTE: idempotent, safe to call concurrently
func (m *Manager) EnsureDefaultMembership(ctx context.Context, appID, userID, assignedBy string) (bool, error) {
	if userID = strings.TrimSpace(userID); userID == "" {
		return false, ErrEmptyUserID
	}

	current, err := m.store.FetchAppGroupsOfUser(ctx, appID, userID)
	if err != nil {
		return false, errors.Wrap(err, "failed to fetch user app groups")
	}

	if len(current) > 0 {
		return false, nil
	}

	viewer, err := m.store.FetchAppGroupByName(ctx, appID, AppViewer)
	if err != nil {
		if errors.Cause(err) == ErrGroupNotFound {
			// nothing to enroll into, application is not provisioned
			return false, nil
		}

		return false, err
	}

	if !viewer.DefaultGroup {
		return false, nil
	}

	switch _, err = m.addAppMember(ctx, viewer, userID, assignedBy); errors.Cause(err) {
	case nil:
		return true, nil
	case ErrDuplicateMember:
		return false, nil
	default:
		return false, err
	}
}

// EnsureDefaultMemberships applies EnsureDefaultMembership to
// multiple applications, returns the number of enrollments
func (m *Manager) EnsureDefaultMemberships(ctx context.Context, appIDs []string, userID, assignedBy string) (int, error) {
	enrolled := 0

	for _, appID := range appIDs {
		ok, err := m.EnsureDefaultMembership(ctx, appID, userID, assignedBy)
		if err != nil {
			return enrolled, errors.Wrapf(err, "failed to ensure default membership in app %s", appID)
		}

		if ok {
			enrolled++
		}
	}

	return enrolled, nil
}

func (m *Manager) appGroup(ctx context.Context, appID, groupID string) (AppGroup, error) {
	g, err := m.store.FetchAppGroupByID(ctx, groupID)
	if err != nil {
		return g, err
	}

	if g.AppID != appID {
		return AppGroup{}, ErrGroupNotFound
	}

	return g, nil
}

func (m *Manager) addAppMember(ctx context.Context, g AppGroup, userID, assignedBy string) (AppGroupMember, error) {
	if userID = strings.TrimSpace(userID); userID == "" {
		return AppGroupMember{}, ErrEmptyUserID
	}

	member := AppGroupMember{
		ID:         util.NewID(),
		GroupID:    g.ID,
		AppID:      g.AppID,
		UserID:     userID,
		AssignedBy: assignedBy,
		AssignedAt: m.clock.Now(),
	}

	if err := m.store.CreateAppGroupMember(ctx, member); err != nil {
		return AppGroupMember{}, err
	}

	m.Logger().Info(
		"app group member added",
		zap.String("app_id", g.AppID),
		zap.String("group", g.Name),
		zap.String("user_id", userID),
		zap.String("assigned_by", assignedBy),
	)

	return member, nil
}
