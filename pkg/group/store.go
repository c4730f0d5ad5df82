package group

import (
	"context"
)

// Store describes a storage contract for groups and memberships
// NOTE: the store is the actual concurrency guard for uniqueness:
// (domain_id, name) and (app_id, name) for groups must yield ErrDuplicateGroup,
// (group_id, user_id) for members must yield ErrDuplicateMember
type Store interface {
	CreateDomainGroup(ctx context.Context, g DomainGroup) error
	FetchDomainGroupByID(ctx context.Context, id string) (DomainGroup, error)
	FetchDomainGroups(ctx context.Context, domainID string) ([]DomainGroup, error)
	FetchDomainGroupsOfUser(ctx context.Context, domainID, userID string) ([]DomainGroup, error)
	FetchDomainGroupMembers(ctx context.Context, groupID string) ([]DomainGroupMember, error)
	CreateDomainGroupMember(ctx context.Context, m DomainGroupMember) error
	DeleteDomainGroupMember(ctx context.Context, groupID, userID string) error

	CreateAppGroup(ctx context.Context, g AppGroup) error
	FetchAppGroupByID(ctx context.Context, id string) (AppGroup, error)
	FetchAppGroupByName(ctx context.Context, appID, name string) (AppGroup, error)
	FetchAppGroups(ctx context.Context, appID string) ([]AppGroup, error)
	FetchAppGroupsOfUser(ctx context.Context, appID, userID string) ([]AppGroup, error)
	FetchAppGroupMembers(ctx context.Context, groupID string) ([]AppGroupMember, error)
	CreateAppGroupMember(ctx context.Context, m AppGroupMember) error
	DeleteAppGroupMember(ctx context.Context, groupID, userID string) error
}
