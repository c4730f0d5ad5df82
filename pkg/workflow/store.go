package workflow

import (
	"context"
)

// DefinitionStore persists workflow definitions
type DefinitionStore interface {
	CreateDefinition(ctx context.Context, d Definition) error
	UpdateDefinition(ctx context.Context, d Definition) error
	FetchDefinitionByID(ctx context.Context, id string) (Definition, error)
	FetchDefinitionsByDomain(ctx context.Context, domainID string) ([]Definition, error)
	FetchDefinitionsByModel(ctx context.Context, modelID string) ([]Definition, error)
	DeleteDefinition(ctx context.Context, id string) error
}

// InstanceStore persists workflow instances
type InstanceStore interface {
	CreateInstance(ctx context.Context, i Instance) error
	FetchInstanceByID(ctx context.Context, id string) (Instance, error)
	FetchInstancesByDefinition(ctx context.Context, definitionID string) ([]Instance, error)
	FetchInstancesByState(ctx context.Context, domainID, state string) ([]Instance, error)
	FetchInstancesByAssignee(ctx context.Context, userID string) ([]Instance, error)
	FetchInstanceByRecord(ctx context.Context, domainID, recordID string) (Instance, error)

	// UpdateInstance replaces an instance only if its persisted revision and
	// current state still equal the expected ones, returns ErrConflict otherwise
	UpdateInstance(ctx context.Context, next Instance, expectedRevision int64, expectedState string) error
}

// Store is a complete workflow persistence port
type Store interface {
	DefinitionStore
	InstanceStore
}
