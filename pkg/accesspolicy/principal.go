package accesspolicy

import (
	"strings"

	"github.com/agubarev/lowcode/pkg/fault"
)

// Kind designates a principal kind
type Kind uint8

// principal kinds
const (
	KUnknown Kind = iota
	KOwner
	KDomainUser
)

func (k Kind) String() string {
	switch k {
	case KOwner:
		return "OWNER"
	case KDomainUser:
		return "DOMAIN_USER"
	default:
		return "UNKNOWN"
	}
}

// ParseKind converts a principal type name into a Kind,
// anything unrecognized is rejected
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OWNER":
		return KOwner, nil
	case "DOMAIN_USER":
		return KDomainUser, nil
	default:
		return KUnknown, fault.Wrap(ErrUnknownPrincipalKind, fault.KValidation, s)
	}
}

// Principal is an authenticated actor, either a platform owner
// or a user scoped to exactly one domain
// NOTE: principal is always passed explicitly, never taken from context
type Principal struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	DomainID string `json:"domain_id,omitempty"`
}

// Owner returns a platform owner principal
func Owner(id string) Principal {
	return Principal{ID: id, Kind: KOwner}
}

// DomainUser returns a principal scoped to a given domain
func DomainUser(id, domainID string) Principal {
	return Principal{ID: id, Kind: KDomainUser, DomainID: domainID}
}

// NewPrincipal builds and validates a principal from raw descriptor values
func NewPrincipal(id, kind, domainID string) (p Principal, err error) {
	k, err := ParseKind(kind)
	if err != nil {
		return p, err
	}

	p = Principal{
		ID:       strings.TrimSpace(id),
		Kind:     k,
		DomainID: strings.TrimSpace(domainID),
	}

	return p, p.Validate()
}

// Validate performs a principal self-check
func (p Principal) Validate() error {
	if p.ID == "" {
		return ErrEmptyPrincipalID
	}

	switch p.Kind {
	case KOwner:
		return nil
	case KDomainUser:
		if p.DomainID == "" {
			return ErrMissingDomainID
		}

		return nil
	default:
		return ErrUnknownPrincipalKind
	}
}

// IsOwner tells whether this principal is a platform owner
func (p Principal) IsOwner() bool {
	return p.Kind == KOwner && p.ID != ""
}

// IsScopedTo tells whether this is a domain user of a given domain
func (p Principal) IsScopedTo(domainID string) bool {
	return p.Kind == KDomainUser && p.ID != "" && domainID != "" && p.DomainID == domainID
}
