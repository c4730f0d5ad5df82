package accesspolicy

import (
	"strings"

	"github.com/agubarev/lowcode/pkg/fault"
)

// errors
var (
	ErrUnknownPermission    = fault.New(fault.KValidation, "unknown permission")
	ErrUnknownPrincipalKind = fault.New(fault.KValidation, "unknown principal kind")
	ErrEmptyPrincipalID     = fault.New(fault.KValidation, "principal id is empty")
	ErrMissingDomainID      = fault.New(fault.KValidation, "domain user must be scoped to a domain")
	ErrForbidden            = fault.New(fault.KForbidden, "access denied")
)

// unrecognizedFlag is used for permission bits without translation
const unrecognizedFlag = "UNRECOGNIZED"

// DomainPermission is a set of domain-level permissions
type DomainPermission uint8

// discrete domain permissions
const (
	DPNone        = DomainPermission(0)
	DPManage      = DomainPermission(1 << (iota - DomainPermission(1)))
	DPManageUsers
	DPManageApps
	DPUseApp
	DPViewReports

	// DPAll is the full domain permission universe
	DPAll = DPManage | DPManageUsers | DPManageApps | DPUseApp | DPViewReports
)

// Translate returns the canonical name of a single permission bit
func (p DomainPermission) Translate() string {
	switch p {
	case DPManage:
		return "DOMAIN_MANAGE"
	case DPManageUsers:
		return "DOMAIN_MANAGE_USERS"
	case DPManageApps:
		return "DOMAIN_MANAGE_APPS"
	case DPUseApp:
		return "DOMAIN_USE_APP"
	case DPViewReports:
		return "DOMAIN_VIEW_REPORTS"
	default:
		return unrecognizedFlag
	}
}

// Has tells whether every bit of q is present in this set
// NOTE: an empty q is never considered granted
func (p DomainPermission) Has(q DomainPermission) bool {
	return q != DPNone && p&q == q
}

// List expands the set into canonical names, lowest bit first
func (p DomainPermission) List() []string {
	names := make([]string, 0)
	for bit := DomainPermission(1); bit != 0 && bit <= DPViewReports; bit <<= 1 {
		if p&bit != 0 {
			names = append(names, bit.Translate())
		}
	}

	return names
}

// String returns comma-separated permission names
func (p DomainPermission) String() string {
	return strings.Join(p.List(), ",")
}

// DomainDictionary returns a map of permission bits to their names
func DomainDictionary() map[DomainPermission]string {
	dict := make(map[DomainPermission]string)
	for bit := DomainPermission(1); bit != 0 && bit <= DPViewReports; bit <<= 1 {
		dict[bit] = bit.Translate()
	}

	return dict
}

// ParseDomainPermission converts a canonical name into a permission bit,
// the "DOMAIN_" prefix is optional and the case is ignored
func ParseDomainPermission(name string) (DomainPermission, error) {
	name = normalizePermissionName(name, "DOMAIN_")

	for bit, n := range DomainDictionary() {
		if n == name {
			return bit, nil
		}
	}

	return DPNone, fault.Wrap(ErrUnknownPermission, fault.KValidation, name)
}

// ParseDomainPermissions converts multiple names into a single set
func ParseDomainPermissions(names ...string) (set DomainPermission, err error) {
	for _, name := range names {
		bit, err := ParseDomainPermission(name)
		if err != nil {
			return DPNone, err
		}

		set |= bit
	}

	return set, nil
}

//---------------------------------------------------------------------------
// application permissions
//---------------------------------------------------------------------------

// AppPermission is a set of application-level permissions
type AppPermission uint8

// discrete application permissions
const (
	APNone    = AppPermission(0)
	APRead    = AppPermission(1 << (iota - AppPermission(1)))
	APWrite
	APExecute

	// APAll is the full application permission universe
	APAll = APRead | APWrite | APExecute
)

// Translate returns the canonical name of a single permission bit
func (p AppPermission) Translate() string {
	switch p {
	case APRead:
		return "APP_READ"
	case APWrite:
		return "APP_WRITE"
	case APExecute:
		return "APP_EXECUTE"
	default:
		return unrecognizedFlag
	}
}

// Has tells whether every bit of q is present in this set
func (p AppPermission) Has(q AppPermission) bool {
	return q != APNone && p&q == q
}

// List expands the set into canonical names, lowest bit first
func (p AppPermission) List() []string {
	names := make([]string, 0)
	for bit := AppPermission(1); bit != 0 && bit <= APExecute; bit <<= 1 {
		if p&bit != 0 {
			names = append(names, bit.Translate())
		}
	}

	return names
}

// String returns comma-separated permission names
func (p AppPermission) String() string {
	return strings.Join(p.List(), ",")
}

// AppDictionary returns a map of permission bits to their names
func AppDictionary() map[AppPermission]string {
	dict := make(map[AppPermission]string)
	for bit := AppPermission(1); bit != 0 && bit <= APExecute; bit <<= 1 {
		dict[bit] = bit.Translate()
	}

	return dict
}

// ParseAppPermission converts a canonical name into a permission bit,
// the "APP_" prefix is optional and the case is ignored
func ParseAppPermission(name string) (AppPermission, error) {
	name = normalizePermissionName(name, "APP_")

	for bit, n := range AppDictionary() {
		if n == name {
			return bit, nil
		}
	}

	return APNone, fault.Wrap(ErrUnknownPermission, fault.KValidation, name)
}

// ParseAppPermissions converts multiple names into a single set
func ParseAppPermissions(names ...string) (set AppPermission, err error) {
	for _, name := range names {
		bit, err := ParseAppPermission(name)
		if err != nil {
			return APNone, err
		}

		set |= bit
	}

	return set, nil
}

func normalizePermissionName(name, prefix string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name != "" && !strings.HasPrefix(name, prefix) {
		name = prefix + name
	}

	return name
}
