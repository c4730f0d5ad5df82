package workflow

import (
	"context"
	"strings"

	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/agubarev/lowcode/pkg/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Patch is a full replacement of the editable parts of a definition
type Patch struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	States      []State      `json:"states"`
	Transitions []Transition `json:"transitions"`
}

// definitionEssential is what a definition update is compared over
type definitionEssential struct {
	Name        string
	Description string
	Icon        string
	ModelID     string
	IsActive    bool
	States      []State
	Transitions []Transition
}

func essentialOf(d Definition) definitionEssential {
	return definitionEssential{
		Name:        d.Name,
		Description: d.Description,
		Icon:        d.Icon,
		ModelID:     d.ModelID,
		IsActive:    d.IsActive,
		States:      d.States,
		Transitions: d.Transitions,
	}
}

// fields an update is allowed to touch
var patchableFields = map[string]bool{
	"Name":        true,
	"Description": true,
	"Icon":        true,
	"States":      true,
	"Transitions": true,
}

// Manager maintains workflow definitions
type Manager struct {
	store  DefinitionStore
	clock  util.Clock
	logger *zap.Logger
}

// NewManager initializing a new definition manager
func NewManager(s DefinitionStore) (*Manager, error) {
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
		logger = logger.Named("[workflow]")
	}

	m.logger = logger

	return nil
}

// Logger returns primary logger if is set, otherwise initializing and returning
func (m *Manager) Logger() *zap.Logger {
	if m.logger == nil {
		m.logger = util.DevelopmentLogger("workflow manager")
	}

	return m.logger
}

// SetClock overrides the time source
func (m *Manager) SetClock(c util.Clock) {
	if c != nil {
		m.clock = c
	}
}

// CreateWorkflow validates and stores a new definition
// as an active definition of version 1
func (m *Manager) CreateWorkflow(ctx context.Context, d Definition) (Definition, error) {
	if strings.TrimSpace(d.ID) == "" {
		d.ID = util.NewID()
	}

	now := m.clock.Now()

	d.Version = 1
	d.IsActive = true
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := ValidateDefinition(d); err != nil {
		return Definition{}, err
	}

	if err := m.store.CreateDefinition(ctx, d); err != nil {
		return Definition{}, errors.Wrap(err, "failed to store workflow definition")
	}

	m.Logger().Info(
		"workflow created",
		zap.String("id", d.ID),
		zap.String("domain_id", d.DomainID),
		zap.String("name", d.Name),
		zap.Int("states", len(d.States)),
		zap.Int("transitions", len(d.Transitions)),
	)

	return d, nil
}

// UpdateWorkflow replaces the editable parts of a definition
// and increments its version
func (m *Manager) UpdateWorkflow(ctx context.Context, id, domainID string, patch Patch) (Definition, error) {
	existing, err := m.WorkflowByID(ctx, id, domainID)
	if err != nil {
		return Definition{}, err
	}

	updated := existing
	updated.Name = patch.Name
	updated.Description = patch.Description
	updated.Icon = patch.Icon
	updated.States = patch.States
	updated.Transitions = patch.Transitions

	if err = ValidateDefinition(updated); err != nil {
		return Definition{}, err
	}

	changelog, err := util.ProtectedChangelog(patchableFields, essentialOf(existing), essentialOf(updated))
	if err != nil {
		// the changelog is informational only
		m.Logger().Warn("failed to compute workflow changelog", zap.String("id", id), zap.Error(err))
	}

	updated.Version = existing.Version + 1
	updated.UpdatedAt = m.clock.Now()

	if err = m.store.UpdateDefinition(ctx, updated); err != nil {
		return Definition{}, errors.Wrap(err, "failed to update workflow definition")
	}

	m.Logger().Info(
		"workflow updated",
		zap.String("id", id),
		zap.String("domain_id", domainID),
		zap.Int("version", updated.Version),
		zap.Strings("changed", util.ChangedFields(changelog)),
	)

	return updated, nil
}

// WorkflowByID returns a definition of a given domain, a definition
// of any other domain is reported as not found
func (m *Manager) WorkflowByID(ctx context.Context, id, domainID string) (Definition, error) {
	d, err := m.store.FetchDefinitionByID(ctx, id)
	if err != nil {
		return Definition{}, err
	}

	if d.DomainID != domainID {
		return Definition{}, ErrDefinitionNotFound
	}

	return d, nil
}

// WorkflowsByDomain returns every definition of a domain
func (m *Manager) WorkflowsByDomain(ctx context.Context, domainID string) ([]Definition, error) {
	return m.store.FetchDefinitionsByDomain(ctx, domainID)
}

// ActiveWorkflows returns active definitions of a domain
func (m *Manager) ActiveWorkflows(ctx context.Context, domainID string) ([]Definition, error) {
	ds, err := m.store.FetchDefinitionsByDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}

	active := make([]Definition, 0, len(ds))
	for _, d := range ds {
		if d.IsActive {
			active = append(active, d)
		}
	}

	return active, nil
}

// WorkflowsByModel returns definitions of a domain governing a given model
func (m *Manager) WorkflowsByModel(ctx context.Context, domainID, modelID string) ([]Definition, error) {
	ds, err := m.store.FetchDefinitionsByModel(ctx, modelID)
	if err != nil {
		return nil, err
	}

	scoped := make([]Definition, 0, len(ds))
	for _, d := range ds {
		if d.DomainID == domainID {
			scoped = append(scoped, d)
		}
	}

	return scoped, nil
}

// DeactivateWorkflow keeps a definition for existing instances,
// but no new instances may be started from it
func (m *Manager) DeactivateWorkflow(ctx context.Context, id, domainID string) (Definition, error) {
	d, err := m.WorkflowByID(ctx, id, domainID)
	if err != nil {
		return Definition{}, err
	}

	if !d.IsActive {
		return d, nil
	}

	d.IsActive = false
	d.UpdatedAt = m.clock.Now()

	if err = m.store.UpdateDefinition(ctx, d); err != nil {
		return Definition{}, errors.Wrap(err, "failed to deactivate workflow definition")
	}

	m.Logger().Info("workflow deactivated", zap.String("id", id), zap.String("domain_id", domainID))

	return d, nil
}

// DeleteWorkflow removes a definition of a given domain
// NOTE: live instances of a deleted definition can no longer move
func (m *Manager) DeleteWorkflow(ctx context.Context, id, domainID string) error {
	if _, err := m.WorkflowByID(ctx, id, domainID); err != nil {
		return err
	}

	if err := m.store.DeleteDefinition(ctx, id); err != nil {
		if fault.IsNotFound(err) {
			return err
		}

		return errors.Wrap(err, "failed to delete workflow definition")
	}

	m.Logger().Info("workflow deleted", zap.String("id", id), zap.String("domain_id", domainID))

	return nil
}
