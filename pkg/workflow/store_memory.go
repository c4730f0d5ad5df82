package workflow

import (
	"context"
	"sort"
	"sync"

	"github.com/cespare/xxhash"
)

const instanceShards = 32

type instanceShard struct {
	instances map[string]Instance
	sync.RWMutex
}

// memoryStore keeps definitions in a single map and spreads
// instances over shards picked by the hash of their id
type memoryStore struct {
	definitions map[string]Definition
	defMu       sync.RWMutex
	shards      [instanceShards]*instanceShard
}

// NewMemoryStore returns an initialized in-memory workflow store
func NewMemoryStore() Store {
	s := &memoryStore{
		definitions: make(map[string]Definition),
	}

	for i := range s.shards {
		s.shards[i] = &instanceShard{instances: make(map[string]Instance)}
	}

	return s
}

func (s *memoryStore) shard(id string) *instanceShard {
	return s.shards[xxhash.Sum64([]byte(id))%instanceShards]
}

//---------------------------------------------------------------------------
// definitions
//---------------------------------------------------------------------------

func (s *memoryStore) CreateDefinition(ctx context.Context, d Definition) error {
	s.defMu.Lock()
	defer s.defMu.Unlock()

	if _, ok := s.definitions[d.ID]; ok {
		return ErrDuplicateDefinition
	}

	s.definitions[d.ID] = d.Clone()

	return nil
}

func (s *memoryStore) UpdateDefinition(ctx context.Context, d Definition) error {
	s.defMu.Lock()
	defer s.defMu.Unlock()

	if _, ok := s.definitions[d.ID]; !ok {
		return ErrDefinitionNotFound
	}

	s.definitions[d.ID] = d.Clone()

	return nil
}

func (s *memoryStore) FetchDefinitionByID(ctx context.Context, id string) (Definition, error) {
	s.defMu.RLock()
	d, ok := s.definitions[id]
	s.defMu.RUnlock()

	if !ok {
		return Definition{}, ErrDefinitionNotFound
	}

	return d.Clone(), nil
}

func (s *memoryStore) filterDefinitions(fn func(d Definition) bool) []Definition {
	s.defMu.RLock()
	ds := make([]Definition, 0)
	for _, d := range s.definitions {
		if fn(d) {
			ds = append(ds, d.Clone())
		}
	}
	s.defMu.RUnlock()

	sort.Slice(ds, func(i, j int) bool { return ds[i].ID < ds[j].ID })

	return ds
}

func (s *memoryStore) FetchDefinitionsByDomain(ctx context.Context, domainID string) ([]Definition, error) {
	return s.filterDefinitions(func(d Definition) bool { return d.DomainID == domainID }), nil
}

func (s *memoryStore) FetchDefinitionsByModel(ctx context.Context, modelID string) ([]Definition, error) {
	return s.filterDefinitions(func(d Definition) bool { return d.ModelID == modelID }), nil
}

func (s *memoryStore) DeleteDefinition(ctx context.Context, id string) error {
	s.defMu.Lock()
	defer s.defMu.Unlock()

	if _, ok := s.definitions[id]; !ok {
		return ErrDefinitionNotFound
	}

	delete(s.definitions, id)

	return nil
}

//---------------------------------------------------------------------------
// instances
//---------------------------------------------------------------------------

func (s *memoryStore) CreateInstance(ctx context.Context, i Instance) error {
	sh := s.shard(i.ID)

	sh.Lock()
	defer sh.Unlock()

	if _, ok := sh.instances[i.ID]; ok {
		return ErrDuplicateInstance
	}

	sh.instances[i.ID] = i.Clone()

	return nil
}

func (s *memoryStore) FetchInstanceByID(ctx context.Context, id string) (Instance, error) {
	sh := s.shard(id)

	sh.RLock()
	i, ok := sh.instances[id]
	sh.RUnlock()

	if !ok {
		return Instance{}, ErrInstanceNotFound
	}

	return i.Clone(), nil
}

func (s *memoryStore) filterInstances(fn func(i Instance) bool) []Instance {
	is := make([]Instance, 0)

	for _, sh := range s.shards {
		sh.RLock()
		for _, i := range sh.instances {
			if fn(i) {
				is = append(is, i.Clone())
			}
		}
		sh.RUnlock()
	}

	sort.Slice(is, func(a, b int) bool { return is[a].ID < is[b].ID })

	return is
}

func (s *memoryStore) FetchInstancesByDefinition(ctx context.Context, definitionID string) ([]Instance, error) {
	return s.filterInstances(func(i Instance) bool { return i.DefinitionID == definitionID }), nil
}

func (s *memoryStore) FetchInstancesByState(ctx context.Context, domainID, state string) ([]Instance, error) {
	return s.filterInstances(func(i Instance) bool {
		return i.DomainID == domainID && i.CurrentState == state
	}), nil
}

func (s *memoryStore) FetchInstancesByAssignee(ctx context.Context, userID string) ([]Instance, error) {
	return s.filterInstances(func(i Instance) bool { return i.AssigneeID() == userID }), nil
}

func (s *memoryStore) FetchInstanceByRecord(ctx context.Context, domainID, recordID string) (Instance, error) {
	is := s.filterInstances(func(i Instance) bool {
		return i.DomainID == domainID && i.RecordID == recordID
	})

	if len(is) == 0 {
		return Instance{}, ErrInstanceNotFound
	}

	return is[0], nil
}

func (s *memoryStore) UpdateInstance(ctx context.Context, next Instance, expectedRevision int64, expectedState string) error {
	sh := s.shard(next.ID)

	sh.Lock()
	defer sh.Unlock()

	current, ok := sh.instances[next.ID]
	if !ok {
		return ErrInstanceNotFound
	}

	if current.Revision != expectedRevision || current.CurrentState != expectedState {
		return ErrConflict
	}

	sh.instances[next.ID] = next.Clone()

	return nil
}
