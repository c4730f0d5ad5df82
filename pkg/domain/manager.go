package domain

import (
	"context"
	"strings"
	"time"

	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/agubarev/lowcode/pkg/util"
	"github.com/allegro/bigcache"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Manager is responsible for domains and their applications
type Manager struct {
	store  Store
	clock  util.Clock
	cache  *bigcache.BigCache
	logger *zap.Logger
}

// NewManager initializing a new domain manager
// NOTE: slug lookups are cached, which is safe because domains
// are never deleted and their slugs never change
func NewManager(s Store) (*Manager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	config := bigcache.DefaultConfig(30 * time.Minute)
	config.Verbose = false

	cache, err := bigcache.NewBigCache(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize domain cache")
	}

	m := &Manager{
		store: s,
		clock: util.SystemClock{},
		cache: cache,
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *Manager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[domain]")
	}

	m.logger = logger

	return nil
}

// Logger returns primary logger if is set, otherwise initializing and returning
func (m *Manager) Logger() *zap.Logger {
	if m.logger == nil {
		m.logger = util.DevelopmentLogger("domain manager")
	}

	return m.logger
}

// SetClock overrides the time source
func (m *Manager) SetClock(c util.Clock) {
	if c != nil {
		m.clock = c
	}
}

// CreateDomain creates a new domain, the slug is derived
// from the name if it's not given explicitly
func (m *Manager) CreateDomain(ctx context.Context, nd NewDomain) (d Domain, err error) {
	slug := nd.Slug
	if strings.TrimSpace(slug) == "" {
		slug = nd.Name
	}

	if slug = Slugify(slug); slug == "" {
		return d, ErrEmptySlug
	}

	now := m.clock.Now()

	d = Domain{
		ID:          util.NewID(),
		Slug:        slug,
		Name:        strings.TrimSpace(nd.Name),
		OwnerUserID: strings.TrimSpace(nd.OwnerUserID),
		Description: nd.Description,
		Industry:    nd.Industry,
		Metadata:    nd.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = d.Validate(); err != nil {
		return Domain{}, err
	}

	if err = m.store.CreateDomain(ctx, d); err != nil {
		return Domain{}, errors.Wrapf(err, "failed to create domain %s", d.Slug)
	}

	m.Logger().Info(
		"domain created",
		zap.String("id", d.ID),
		zap.String("slug", d.Slug),
		zap.String("owner", d.OwnerUserID),
	)

	return d, nil
}

// DomainByID returns a domain by its id
func (m *Manager) DomainByID(ctx context.Context, id string) (Domain, error) {
	return m.store.FetchDomainByID(ctx, id)
}

// DomainBySlug returns a domain by its slug,
// the given slug is normalized before the lookup
func (m *Manager) DomainBySlug(ctx context.Context, slug string) (d Domain, err error) {
	if slug = Slugify(slug); slug == "" {
		return d, ErrDomainNotFound
	}

	if buf, err := m.cache.Get(slug); err == nil {
		if err = json.Unmarshal(buf, &d); err == nil {
			return d, nil
		}
	}

	d, err = m.store.FetchDomainBySlug(ctx, slug)
	if err != nil {
		return d, err
	}

	if buf, err := json.Marshal(d); err == nil {
		if err = m.cache.Set(slug, buf); err != nil {
			m.Logger().Warn("failed to cache domain", zap.String("slug", slug), zap.Error(err))
		}
	}

	return d, nil
}

// DomainsByOwner returns all domains owned by a given user
func (m *Manager) DomainsByOwner(ctx context.Context, ownerUserID string) ([]Domain, error) {
	return m.store.FetchDomainsByOwner(ctx, ownerUserID)
}

// CreateApplication creates a new application within an existing domain
func (m *Manager) CreateApplication(ctx context.Context, domainID string, na NewApplication) (a Application, err error) {
	if _, err = m.store.FetchDomainByID(ctx, domainID); err != nil {
		return a, err
	}

	slug := na.Slug
	if strings.TrimSpace(slug) == "" {
		slug = na.Name
	}

	if slug = Slugify(slug); slug == "" {
		return a, ErrEmptySlug
	}

	now := m.clock.Now()

	a = Application{
		ID:          util.NewID(),
		DomainID:    domainID,
		Slug:        slug,
		Name:        strings.TrimSpace(na.Name),
		Description: na.Description,
		OwnerUserID: strings.TrimSpace(na.OwnerUserID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = a.Validate(); err != nil {
		return Application{}, err
	}

	if err = m.store.CreateApplication(ctx, a); err != nil {
		return Application{}, errors.Wrapf(err, "failed to create application %s", a.Slug)
	}

	m.Logger().Info(
		"application created",
		zap.String("id", a.ID),
		zap.String("domain_id", domainID),
		zap.String("slug", a.Slug),
	)

	return a, nil
}

// ApplicationByID returns an application of a given domain
// NOTE: an application of another domain is reported as not found
func (m *Manager) ApplicationByID(ctx context.Context, domainID, appID string) (Application, error) {
	a, err := m.store.FetchApplicationByID(ctx, appID)
	if err != nil {
		return a, err
	}

	if a.DomainID != domainID {
		return Application{}, ErrApplicationNotFound
	}

	return a, nil
}

// ApplicationBySlug returns an application by its slug within a domain
func (m *Manager) ApplicationBySlug(ctx context.Context, domainID, slug string) (Application, error) {
	if slug = Slugify(slug); slug == "" {
		return Application{}, ErrApplicationNotFound
	}

	return m.store.FetchApplicationBySlug(ctx, domainID, slug)
}

// ApplicationsByDomain returns all applications of a domain
func (m *Manager) ApplicationsByDomain(ctx context.Context, domainID string) ([]Application, error) {
	return m.store.FetchApplicationsByDomain(ctx, domainID)
}

// ResolveApplication looks up a domain and one of its applications by slugs,
// which is how callers address tenants
func (m *Manager) ResolveApplication(ctx context.Context, domainSlug, appSlug string) (Domain, Application, error) {
	d, err := m.DomainBySlug(ctx, domainSlug)
	if err != nil {
		return Domain{}, Application{}, err
	}

	a, err := m.ApplicationBySlug(ctx, d.ID, appSlug)
	if err != nil {
		return Domain{}, Application{}, err
	}

	return d, a, nil
}

// IsSlugTaken tells whether a domain slug is already in use
func (m *Manager) IsSlugTaken(ctx context.Context, slug string) (bool, error) {
	_, err := m.DomainBySlug(ctx, slug)
	switch {
	case err == nil:
		return true, nil
	case fault.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}
