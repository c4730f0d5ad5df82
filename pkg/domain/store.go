package domain

import (
	"context"
)

// Store describes a storage contract for domains and applications
// NOTE: slug uniqueness (global for domains, per domain for applications)
// must be enforced by the store itself, returning ErrDuplicateSlug
type Store interface {
	CreateDomain(ctx context.Context, d Domain) error
	FetchDomainByID(ctx context.Context, id string) (Domain, error)
	FetchDomainBySlug(ctx context.Context, slug string) (Domain, error)
	FetchDomainsByOwner(ctx context.Context, ownerUserID string) ([]Domain, error)
	CreateApplication(ctx context.Context, a Application) error
	FetchApplicationByID(ctx context.Context, id string) (Application, error)
	FetchApplicationBySlug(ctx context.Context, domainID, slug string) (Application, error)
	FetchApplicationsByDomain(ctx context.Context, domainID string) ([]Application, error)
}
