package core

import (
	"github.com/agubarev/lowcode/pkg/accesspolicy"
	"github.com/agubarev/lowcode/pkg/domain"
	"github.com/agubarev/lowcode/pkg/group"
	"github.com/agubarev/lowcode/pkg/util"
	"github.com/agubarev/lowcode/pkg/workflow"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Core is an aggregate of the platform's core functionality:
// tenancy, group memberships, permission resolution and workflows
type Core struct {
	domains   *domain.Manager
	groups    *group.Manager
	workflows *workflow.Manager
	engine    *workflow.Engine
	resolver  *accesspolicy.Resolver
	logger    *zap.Logger
}

// Stores is a set of persistence ports the core is built upon
type Stores struct {
	Domains   domain.Store
	Groups    group.Store
	Workflows workflow.Store
}

// Validate makes sure every store is set
func (s Stores) Validate() error {
	if s.Domains == nil {
		return errors.Wrap(ErrNilStore, "domains")
	}

	if s.Groups == nil {
		return errors.Wrap(ErrNilStore, "groups")
	}

	if s.Workflows == nil {
		return errors.Wrap(ErrNilStore, "workflows")
	}

	return nil
}

// New initializes the core over a given set of stores
func New(s Stores) (*Core, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	//---------------------------------------------------------------------------
	// tenancy
	//---------------------------------------------------------------------------
	dm, err := domain.NewManager(s.Domains)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize domain manager")
	}

	gm, err := group.NewManager(s.Groups)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize group manager")
	}

	grants, err := group.NewGrants(s.Groups)
	if err != nil {
		return nil, err
	}

	resolver, err := accesspolicy.NewResolver(grants)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize permission resolver")
	}

	//---------------------------------------------------------------------------
	// workflows
	//---------------------------------------------------------------------------
	wm, err := workflow.NewManager(s.Workflows)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize workflow manager")
	}

	engine, err := workflow.NewEngine(s.Workflows, s.Workflows)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize workflow engine")
	}

	c := &Core{
		domains:   dm,
		groups:    gm,
		workflows: wm,
		engine:    engine,
		resolver:  resolver,
	}

	return c, nil
}

// DomainManager returns the domain manager
func (c *Core) DomainManager() *domain.Manager {
	return c.domains
}

// GroupManager returns the group manager
func (c *Core) GroupManager() *group.Manager {
	return c.groups
}

// WorkflowManager returns the workflow definition manager
func (c *Core) WorkflowManager() *workflow.Manager {
	return c.workflows
}

// Engine returns the workflow instance engine
func (c *Core) Engine() *workflow.Engine {
	return c.engine
}

// Resolver returns the permission resolver
func (c *Core) Resolver() *accesspolicy.Resolver {
	return c.resolver
}

// SetLogger setting a primary logger for the core and every component
func (c *Core) SetLogger(logger *zap.Logger) error {
	if logger == nil {
		return ErrNilLogger
	}

	// each component names its own logger
	for _, set := range []func(*zap.Logger) error{
		c.domains.SetLogger,
		c.groups.SetLogger,
		c.workflows.SetLogger,
		c.engine.SetLogger,
		c.resolver.SetLogger,
	} {
		if err := set(logger); err != nil {
			return err
		}
	}

	c.logger = logger.Named("[core]")

	return nil
}

// Logger returns primary logger if is set, otherwise initializing and returning
func (c *Core) Logger() *zap.Logger {
	if c.logger == nil {
		c.logger = util.DevelopmentLogger("core")
	}

	return c.logger
}

// SetClock overrides the time source of every component
func (c *Core) SetClock(clock util.Clock) {
	c.domains.SetClock(clock)
	c.groups.SetClock(clock)
	c.workflows.SetClock(clock)
	c.engine.SetClock(clock)
}
