package domain

import (
	"context"
	"sort"
	"sync"
)

// memoryStore keeps domains and applications in memory
type memoryStore struct {
	domains     map[string]Domain
	domainSlugs map[string]string
	apps        map[string]Application
	appSlugs    map[string]string
	sync.RWMutex
}

// NewMemoryStore returns an initialized in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		domains:     make(map[string]Domain),
		domainSlugs: make(map[string]string),
		apps:        make(map[string]Application),
		appSlugs:    make(map[string]string),
	}
}

func appSlugKey(domainID, slug string) string {
	return domainID + "/" + slug
}

func (s *memoryStore) CreateDomain(ctx context.Context, d Domain) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.domainSlugs[d.Slug]; ok {
		return ErrDuplicateSlug
	}

	s.domains[d.ID] = d
	s.domainSlugs[d.Slug] = d.ID

	return nil
}

func (s *memoryStore) FetchDomainByID(ctx context.Context, id string) (Domain, error) {
	s.RLock()
	d, ok := s.domains[id]
	s.RUnlock()

	if !ok {
		return Domain{}, ErrDomainNotFound
	}

	return d, nil
}

func (s *memoryStore) FetchDomainBySlug(ctx context.Context, slug string) (Domain, error) {
	s.RLock()
	defer s.RUnlock()

	id, ok := s.domainSlugs[slug]
	if !ok {
		return Domain{}, ErrDomainNotFound
	}

	return s.domains[id], nil
}

func (s *memoryStore) FetchDomainsByOwner(ctx context.Context, ownerUserID string) ([]Domain, error) {
	s.RLock()
	ds := make([]Domain, 0)
	for _, d := range s.domains {
		if d.OwnerUserID == ownerUserID {
			ds = append(ds, d)
		}
	}
	s.RUnlock()

	sort.Slice(ds, func(i, j int) bool { return ds[i].ID < ds[j].ID })

	return ds, nil
}

func (s *memoryStore) CreateApplication(ctx context.Context, a Application) error {
	s.Lock()
	defer s.Unlock()

	key := appSlugKey(a.DomainID, a.Slug)
	if _, ok := s.appSlugs[key]; ok {
		return ErrDuplicateSlug
	}

	s.apps[a.ID] = a
	s.appSlugs[key] = a.ID

	return nil
}

func (s *memoryStore) FetchApplicationByID(ctx context.Context, id string) (Application, error) {
	s.RLock()
	a, ok := s.apps[id]
	s.RUnlock()

	if !ok {
		return Application{}, ErrApplicationNotFound
	}

	return a, nil
}

func (s *memoryStore) FetchApplicationBySlug(ctx context.Context, domainID, slug string) (Application, error) {
	s.RLock()
	defer s.RUnlock()

	id, ok := s.appSlugs[appSlugKey(domainID, slug)]
	if !ok {
		return Application{}, ErrApplicationNotFound
	}

	return s.apps[id], nil
}

func (s *memoryStore) FetchApplicationsByDomain(ctx context.Context, domainID string) ([]Application, error) {
	s.RLock()
	as := make([]Application, 0)
	for _, a := range s.apps {
		if a.DomainID == domainID {
			as = append(as, a)
		}
	}
	s.RUnlock()

	sort.Slice(as, func(i, j int) bool { return as[i].ID < as[j].ID })

	return as, nil
}
