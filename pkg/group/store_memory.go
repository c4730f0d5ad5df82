package group

import (
	"context"
	"sort"
	"sync"
)

// memoryStore keeps groups and memberships in memory,
// enforcing the same unique indexes as the database schema
type memoryStore struct {
	domainGroups  map[string]DomainGroup
	domainNames   map[string]string
	domainMembers map[string]DomainGroupMember
	appGroups     map[string]AppGroup
	appNames      map[string]string
	appMembers    map[string]AppGroupMember
	sync.RWMutex
}

// NewMemoryStore returns an initialized in-memory group store
func NewMemoryStore() Store {
	return &memoryStore{
		domainGroups:  make(map[string]DomainGroup),
		domainNames:   make(map[string]string),
		domainMembers: make(map[string]DomainGroupMember),
		appGroups:     make(map[string]AppGroup),
		appNames:      make(map[string]string),
		appMembers:    make(map[string]AppGroupMember),
	}
}

func pairKey(a, b string) string {
	return a + "/" + b
}

func (s *memoryStore) CreateDomainGroup(ctx context.Context, g DomainGroup) error {
	s.Lock()
	defer s.Unlock()

	key := pairKey(g.DomainID, g.Name)
	if _, ok := s.domainNames[key]; ok {
		return ErrDuplicateGroup
	}

	s.domainGroups[g.ID] = g
	s.domainNames[key] = g.ID

	return nil
}

func (s *memoryStore) FetchDomainGroupByID(ctx context.Context, id string) (DomainGroup, error) {
	s.RLock()
	g, ok := s.domainGroups[id]
	s.RUnlock()

	if !ok {
		return DomainGroup{}, ErrGroupNotFound
	}

	return g, nil
}

func (s *memoryStore) FetchDomainGroups(ctx context.Context, domainID string) ([]DomainGroup, error) {
	s.RLock()
	gs := make([]DomainGroup, 0)
	for _, g := range s.domainGroups {
		if g.DomainID == domainID {
			gs = append(gs, g)
		}
	}
	s.RUnlock()

	sort.Slice(gs, func(i, j int) bool { return gs[i].ID < gs[j].ID })

	return gs, nil
}

func (s *memoryStore) FetchDomainGroupsOfUser(ctx context.Context, domainID, userID string) ([]DomainGroup, error) {
	s.RLock()
	gs := make([]DomainGroup, 0)
	for _, m := range s.domainMembers {
		if m.DomainID != domainID || m.UserID != userID {
			continue
		}

		if g, ok := s.domainGroups[m.DomainGroupID]; ok {
			gs = append(gs, g)
		}
	}
	s.RUnlock()

	sort.Slice(gs, func(i, j int) bool { return gs[i].ID < gs[j].ID })

	return gs, nil
}

func (s *memoryStore) FetchDomainGroupMembers(ctx context.Context, groupID string) ([]DomainGroupMember, error) {
	s.RLock()
	ms := make([]DomainGroupMember, 0)
	for _, m := range s.domainMembers {
		if m.DomainGroupID == groupID {
			ms = append(ms, m)
		}
	}
	s.RUnlock()

	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })

	return ms, nil
}

func (s *memoryStore) CreateDomainGroupMember(ctx context.Context, m DomainGroupMember) error {
	s.Lock()
	defer s.Unlock()

	key := pairKey(m.DomainGroupID, m.UserID)
	if _, ok := s.domainMembers[key]; ok {
		return ErrDuplicateMember
	}

	s.domainMembers[key] = m

	return nil
}

func (s *memoryStore) DeleteDomainGroupMember(ctx context.Context, groupID, userID string) error {
	s.Lock()
	defer s.Unlock()

	key := pairKey(groupID, userID)
	if _, ok := s.domainMembers[key]; !ok {
		return ErrNotMember
	}

	delete(s.domainMembers, key)

	return nil
}

func (s *memoryStore) CreateAppGroup(ctx context.Context, g AppGroup) error {
	s.Lock()
	defer s.Unlock()

	key := pairKey(g.AppID, g.Name)
	if _, ok := s.appNames[key]; ok {
		return ErrDuplicateGroup
	}

	s.appGroups[g.ID] = g
	s.appNames[key] = g.ID

	return nil
}

func (s *memoryStore) FetchAppGroupByID(ctx context.Context, id string) (AppGroup, error) {
	s.RLock()
	g, ok := s.appGroups[id]
	s.RUnlock()

	if !ok {
		return AppGroup{}, ErrGroupNotFound
	}

	return g, nil
}

func (s *memoryStore) FetchAppGroupByName(ctx context.Context, appID, name string) (AppGroup, error) {
	s.RLock()
	defer s.RUnlock()

	id, ok := s.appNames[pairKey(appID, name)]
	if !ok {
		return AppGroup{}, ErrGroupNotFound
	}

	return s.appGroups[id], nil
}

func (s *memoryStore) FetchAppGroups(ctx context.Context, appID string) ([]AppGroup, error) {
	s.RLock()
	gs := make([]AppGroup, 0)
	for _, g := range s.appGroups {
		if g.AppID == appID {
			gs = append(gs, g)
		}
	}
	s.RUnlock()

	sort.Slice(gs, func(i, j int) bool { return gs[i].ID < gs[j].ID })

	return gs, nil
}

func (s *memoryStore) FetchAppGroupsOfUser(ctx context.Context, appID, userID string) ([]AppGroup, error) {
	s.RLock()
	gs := make([]AppGroup, 0)
	for _, m := range s.appMembers {
		if m.AppID != appID || m.UserID != userID {
			continue
		}

		if g, ok := s.appGroups[m.GroupID]; ok {
			gs = append(gs, g)
		}
	}
	s.RUnlock()

	sort.Slice(gs, func(i, j int) bool { return gs[i].ID < gs[j].ID })

	return gs, nil
}

func (s *memoryStore) FetchAppGroupMembers(ctx context.Context, groupID string) ([]AppGroupMember, error) {
	s.RLock()
	ms := make([]AppGroupMember, 0)
	for _, m := range s.appMembers {
		if m.GroupID == groupID {
			ms = append(ms, m)
		}
	}
	s.RUnlock()

	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })

	return ms, nil
}

func (s *memoryStore) CreateAppGroupMember(ctx context.Context, m AppGroupMember) error {
	s.Lock()
	defer s.Unlock()

	key := pairKey(m.GroupID, m.UserID)
	if _, ok := s.appMembers[key]; ok {
		return ErrDuplicateMember
	}

	s.appMembers[key] = m

	return nil
}

func (s *memoryStore) DeleteAppGroupMember(ctx context.Context, groupID, userID string) error {
	s.Lock()
	defer s.Unlock()

	key := pairKey(groupID, userID)
	if _, ok := s.appMembers[key]; !ok {
		return ErrNotMember
	}

	delete(s.appMembers, key)

	return nil
}
