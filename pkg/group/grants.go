package group

import (
	"context"

	"github.com/agubarev/lowcode/pkg/accesspolicy"
)

// Grants exposes group memberships to the permission resolver
type Grants struct {
	store Store
}

// NewGrants returns a grant source backed by a group store
func NewGrants(s Store) (*Grants, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	return &Grants{store: s}, nil
}

// DomainGrants returns permission sets of the domain groups a user belongs to
func (g *Grants) DomainGrants(ctx context.Context, domainID, userID string) ([]accesspolicy.DomainPermission, error) {
	gs, err := g.store.FetchDomainGroupsOfUser(ctx, domainID, userID)
	if err != nil {
		return nil, err
	}

	sets := make([]accesspolicy.DomainPermission, len(gs))
	for i, dg := range gs {
		sets[i] = dg.Permissions
	}

	return sets, nil
}

// AppGrants returns permission sets of the application groups a user belongs to
func (g *Grants) AppGrants(ctx context.Context, appID, userID string) ([]accesspolicy.AppPermission, error) {
	gs, err := g.store.FetchAppGroupsOfUser(ctx, appID, userID)
	if err != nil {
		return nil, err
	}

	sets := make([]accesspolicy.AppPermission, len(gs))
	for i, ag := range gs {
		sets[i] = ag.Permissions
	}

	return sets, nil
}
