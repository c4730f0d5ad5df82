package accesspolicy

import (
	"context"

	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/agubarev/lowcode/pkg/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GrantSource supplies permission sets of the groups a user belongs to
// NOTE: unknown domains, apps and users must yield an empty slice, not an error
type GrantSource interface {
	DomainGrants(ctx context.Context, domainID, userID string) ([]DomainPermission, error)
	AppGrants(ctx context.Context, appID, userID string) ([]AppPermission, error)
}

// Resolver computes effective permissions of a principal
// within a domain or an application
// NOTE: resolver is read-only and never mutates memberships
type Resolver struct {
	grants GrantSource
	logger *zap.Logger
}

// NewResolver initializing a new permission resolver
func NewResolver(grants GrantSource) (*Resolver, error) {
	if grants == nil {
		return nil, errors.New("grant source is nil")
	}

	return &Resolver{grants: grants}, nil
}

// SetLogger assigns a logger for this resolver
func (r *Resolver) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[accesspolicy]")
	}

	r.logger = logger

	return nil
}

// Logger returns primary logger if is set, otherwise initializing and returning
func (r *Resolver) Logger() *zap.Logger {
	if r.logger == nil {
		r.logger = util.DevelopmentLogger("resolver")
	}

	return r.logger
}

// DomainPermissions returns the effective domain permissions:
// owners get everything, users of a different domain get nothing,
// and a correctly scoped user gets DOMAIN_USE_APP plus whatever
// their domain groups grant
func (r *Resolver) DomainPermissions(ctx context.Context, p Principal, domainID string) (DomainPermission, error) {
	if p.IsOwner() {
		return DPAll, nil
	}

	if !p.IsScopedTo(domainID) {
		return DPNone, nil
	}

	grants, err := r.grants.DomainGrants(ctx, domainID, p.ID)
	if err != nil {
		return DPNone, errors.Wrapf(err, "failed to fetch domain grants for user %s", p.ID)
	}

	perms := DPUseApp
	for _, g := range grants {
		perms |= g
	}

	return perms, nil
}

// HasDomainPermission tells whether a principal holds a given domain permission
func (r *Resolver) HasDomainPermission(ctx context.Context, p Principal, domainID string, perm DomainPermission) (bool, error) {
	perms, err := r.DomainPermissions(ctx, p, domainID)
	if err != nil {
		return false, err
	}

	return perms.Has(perm), nil
}

// RequireDomainPermission returns a forbidden error unless the permission is held
func (r *Resolver) RequireDomainPermission(ctx context.Context, p Principal, domainID string, perm DomainPermission) error {
	ok, err := r.HasDomainPermission(ctx, p, domainID, perm)
	if err != nil {
		return err
	}

	if !ok {
		r.Logger().Debug(
			"domain permission denied",
			zap.String("principal", p.ID),
			zap.String("domain_id", domainID),
			zap.String("permission", perm.String()),
		)

		return fault.Wrap(ErrForbidden, fault.KForbidden, perm.String())
	}

	return nil
}

// AppPermissions returns the effective application permissions:
// owners get everything, a domain user gets the union of the app groups
// they are a member of, without any fallback
// NOTE: app-to-domain consistency is the caller's concern, since
// applications are resolved through their domain first
func (r *Resolver) AppPermissions(ctx context.Context, p Principal, appID string) (AppPermission, error) {
	if p.IsOwner() {
		return APAll, nil
	}

	if p.Kind != KDomainUser || p.ID == "" || appID == "" {
		return APNone, nil
	}

	grants, err := r.grants.AppGrants(ctx, appID, p.ID)
	if err != nil {
		return APNone, errors.Wrapf(err, "failed to fetch app grants for user %s", p.ID)
	}

	var perms AppPermission
	for _, g := range grants {
		perms |= g
	}

	return perms, nil
}

// HasAppPermission tells whether a principal holds a given application permission
func (r *Resolver) HasAppPermission(ctx context.Context, p Principal, appID string, perm AppPermission) (bool, error) {
	perms, err := r.AppPermissions(ctx, p, appID)
	if err != nil {
		return false, err
	}

	return perms.Has(perm), nil
}

// RequireAppPermission returns a forbidden error unless the permission is held
func (r *Resolver) RequireAppPermission(ctx context.Context, p Principal, appID string, perm AppPermission) error {
	ok, err := r.HasAppPermission(ctx, p, appID, perm)
	if err != nil {
		return err
	}

	if !ok {
		r.Logger().Debug(
			"app permission denied",
			zap.String("principal", p.ID),
			zap.String("app_id", appID),
			zap.String("permission", perm.String()),
		)

		return fault.Wrap(ErrForbidden, fault.KForbidden, perm.String())
	}

	return nil
}
