package core

import (
	"context"

	"github.com/agubarev/lowcode/pkg/accesspolicy"
	"github.com/agubarev/lowcode/pkg/domain"
	"github.com/agubarev/lowcode/pkg/group"
	"github.com/agubarev/lowcode/pkg/workflow"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CreateDomain creates a domain and provisions its default groups,
// making the owner a domain admin
// NOTE: provisioning is idempotent, so a failed call can simply be
// retried by ProvisionDomain
func (c *Core) CreateDomain(ctx context.Context, nd domain.NewDomain) (domain.Domain, []group.DomainGroup, error) {
	d, err := c.domains.CreateDomain(ctx, nd)
	if err != nil {
		return domain.Domain{}, nil, err
	}

	groups, err := c.ProvisionDomain(ctx, d)
	if err != nil {
		return d, nil, err
	}

	return d, groups, nil
}

// ProvisionDomain provisions default groups of an existing domain
func (c *Core) ProvisionDomain(ctx context.Context, d domain.Domain) ([]group.DomainGroup, error) {
	groups, err := c.groups.ProvisionDomainDefaults(ctx, d.ID, d.OwnerUserID)
	if err != nil {
		c.Logger().Error(
			"failed to provision domain",
			zap.String("domain_id", d.ID),
			zap.Error(err),
		)

		return nil, errors.Wrapf(err, "failed to provision domain %s", d.Slug)
	}

	return groups, nil
}

// CreateApplication creates an application within a domain and
// provisions its default groups
func (c *Core) CreateApplication(ctx context.Context, domainID string, na domain.NewApplication) (domain.Application, []group.AppGroup, error) {
	a, err := c.domains.CreateApplication(ctx, domainID, na)
	if err != nil {
		return domain.Application{}, nil, err
	}

	groups, err := c.ProvisionApplication(ctx, a)
	if err != nil {
		return a, nil, err
	}

	return a, groups, nil
}

// ProvisionApplication provisions default groups of an existing application
func (c *Core) ProvisionApplication(ctx context.Context, a domain.Application) ([]group.AppGroup, error) {
	groups, err := c.groups.ProvisionAppDefaults(ctx, a.ID, a.OwnerUserID)
	if err != nil {
		c.Logger().Error(
			"failed to provision application",
			zap.String("app_id", a.ID),
			zap.String("domain_id", a.DomainID),
			zap.Error(err),
		)

		return nil, errors.Wrapf(err, "failed to provision application %s", a.Slug)
	}

	return groups, nil
}

// AddUserToDomain adds a user to a domain group and then makes sure
// the user can at least view every application of that domain;
// returns the membership and the number of new app enrollments
func (c *Core) AddUserToDomain(ctx context.Context, domainID, groupID, userID, assignedBy string) (group.DomainGroupMember, int, error) {
	m, err := c.groups.AddDomainGroupMember(ctx, domainID, groupID, userID, assignedBy)
	if err != nil {
		return group.DomainGroupMember{}, 0, err
	}

	enrolled, err := c.OnUserAddedToDomain(ctx, domainID, userID, assignedBy)
	if err != nil {
		return m, enrolled, err
	}

	return m, enrolled, nil
}

// OnUserAddedToDomain ensures default app membership of a user
// across every application of a domain
func (c *Core) OnUserAddedToDomain(ctx context.Context, domainID, userID, assignedBy string) (int, error) {
	apps, err := c.domains.ApplicationsByDomain(ctx, domainID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to fetch domain applications")
	}

	ids := make([]string, len(apps))
	for i, a := range apps {
		ids[i] = a.ID
	}

	enrolled, err := c.groups.EnsureDefaultMemberships(ctx, ids, userID, assignedBy)
	if err != nil {
		return enrolled, err
	}

	if enrolled > 0 {
		c.Logger().Info(
			"user enrolled into default app groups",
			zap.String("domain_id", domainID),
			zap.String("user_id", userID),
			zap.Int("enrolled", enrolled),
		)
	}

	return enrolled, nil
}

//---------------------------------------------------------------------------
// permission-checked workflow operations
//---------------------------------------------------------------------------

// CreateWorkflow creates a definition on behalf of a principal
// who is allowed to manage applications of the domain
func (c *Core) CreateWorkflow(ctx context.Context, p accesspolicy.Principal, def workflow.Definition) (workflow.Definition, error) {
	if err := c.requireDomainPermission(ctx, p, def.DomainID, accesspolicy.DPManageApps); err != nil {
		return workflow.Definition{}, err
	}

	def.CreatedBy = p.ID

	return c.workflows.CreateWorkflow(ctx, def)
}

// StartWorkflow creates an instance bound to a record on behalf
// of a principal who is allowed to use applications of the domain
func (c *Core) StartWorkflow(
	ctx context.Context,
	p accesspolicy.Principal,
	definitionID string,
	domainID string,
	recordID string,
	initialData map[string]interface{},
) (workflow.Instance, error) {
	if err := c.requireDomainPermission(ctx, p, domainID, accesspolicy.DPUseApp); err != nil {
		return workflow.Instance{}, err
	}

	return c.engine.CreateInstance(ctx, definitionID, domainID, recordID, initialData, p.ID)
}

// ExecuteTransition applies a transition on behalf of a principal,
// an instance of a foreign domain is reported as not found
func (c *Core) ExecuteTransition(
	ctx context.Context,
	p accesspolicy.Principal,
	instanceID string,
	transitionID string,
	comment string,
	additionalData map[string]interface{},
) (workflow.Instance, error) {
	i, err := c.engine.Instance(ctx, instanceID)
	if err != nil {
		return workflow.Instance{}, err
	}

	if !p.IsOwner() && !p.IsScopedTo(i.DomainID) {
		return workflow.Instance{}, workflow.ErrInstanceNotFound
	}

	if err = c.resolver.RequireDomainPermission(ctx, p, i.DomainID, accesspolicy.DPUseApp); err != nil {
		return workflow.Instance{}, err
	}

	return c.engine.ExecuteTransition(ctx, instanceID, transitionID, p.ID, comment, additionalData)
}

// requireDomainPermission checks that the domain exists and is visible
// to the principal before resolving permissions, a domain of another
// tenant is reported as not found
func (c *Core) requireDomainPermission(ctx context.Context, p accesspolicy.Principal, domainID string, perm accesspolicy.DomainPermission) error {
	if _, err := c.domains.DomainByID(ctx, domainID); err != nil {
		return err
	}

	if !p.IsOwner() && !p.IsScopedTo(domainID) {
		return domain.ErrDomainNotFound
	}

	return c.resolver.RequireDomainPermission(ctx, p, domainID, perm)
}
