package group

import (
	"strings"
	"time"

	"github.com/agubarev/lowcode/pkg/accesspolicy"
	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/asaskevich/govalidator"
	"github.com/pkg/errors"
)

// errors
var (
	ErrNilStore             = errors.New("group store is nil")
	ErrNilDatabase          = errors.New("database is nil")
	ErrGroupNotFound        = fault.New(fault.KNotFound, "group not found")
	ErrDuplicateGroup       = fault.New(fault.KValidation, "duplicate group")
	ErrDuplicateMember      = fault.New(fault.KValidation, "already a member")
	ErrNotMember            = fault.New(fault.KNotFound, "not a member")
	ErrEmptyGroupName       = fault.New(fault.KValidation, "empty group name")
	ErrInvalidGroup         = fault.New(fault.KValidation, "invalid group")
	ErrDomainGroupsManaged  = fault.New(fault.KValidation, "domain groups are managed automatically and cannot be created manually")
	ErrEmptyUserID          = fault.New(fault.KValidation, "user id is empty")
	ErrInvalidAppPermission = fault.New(fault.KValidation, "invalid application permissions")
)

// default group names
const (
	DomainAdmin       = "Domain Admin"
	DomainContributor = "Domain Contributor"
	AppAdmin          = "App Admin"
	AppEditor         = "App Editor"
	AppViewer         = "App Viewer"
)

// DomainGroup is a named set of domain permissions
type DomainGroup struct {
	ID           string                        `json:"id"`
	DomainID     string                        `json:"domain_id" valid:"required"`
	Name         string                        `json:"name" valid:"required"`
	Permissions  accesspolicy.DomainPermission `json:"permissions"`
	DefaultGroup bool                          `json:"default_group"`
	CreatedAt    time.Time                     `json:"created_at"`
}

// Validate performs a group self-check
func (g DomainGroup) Validate() error {
	if ok, err := govalidator.ValidateStruct(g); !ok || err != nil {
		return fault.Wrap(ErrInvalidGroup, fault.KValidation, err.Error())
	}

	return nil
}

// DomainGroupMember links a user to a domain group
type DomainGroupMember struct {
	ID            string    `json:"id"`
	DomainGroupID string    `json:"domain_group_id"`
	DomainID      string    `json:"domain_id"`
	UserID        string    `json:"user_id"`
	AssignedBy    string    `json:"assigned_by"`
	AssignedAt    time.Time `json:"assigned_at"`
}

// AppGroup is a named set of application permissions
type AppGroup struct {
	ID           string                     `json:"id"`
	AppID        string                     `json:"app_id" valid:"required"`
	Name         string                     `json:"name" valid:"required"`
	Permissions  accesspolicy.AppPermission `json:"permissions"`
	DefaultGroup bool                       `json:"default_group"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// Validate performs a group self-check
func (g AppGroup) Validate() error {
	if ok, err := govalidator.ValidateStruct(g); !ok || err != nil {
		return fault.Wrap(ErrInvalidGroup, fault.KValidation, err.Error())
	}

	if g.Permissions&^accesspolicy.APAll != 0 {
		return ErrInvalidAppPermission
	}

	return nil
}

// AppGroupMember links a user to an application group
type AppGroupMember struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	AppID      string    `json:"app_id"`
	UserID     string    `json:"user_id"`
	AssignedBy string    `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// blueprint describes a group created during provisioning
type blueprint struct {
	name      string
	domainSet accesspolicy.DomainPermission
	appSet    accesspolicy.AppPermission
}

var domainBlueprints = []blueprint{
	{name: DomainAdmin, domainSet: accesspolicy.DPAll},
	{name: DomainContributor, domainSet: accesspolicy.DPManageApps | accesspolicy.DPUseApp},
}

var appBlueprints = []blueprint{
	{name: AppAdmin, appSet: accesspolicy.APAll},
	{name: AppEditor, appSet: accesspolicy.APRead | accesspolicy.APWrite},
	{name: AppViewer, appSet: accesspolicy.APRead},
}

// provisioned tells whether every blueprint name is among a given set
func provisioned(bps []blueprint, names map[string]bool) bool {
	for _, bp := range bps {
		if !names[bp.name] {
			return false
		}
	}

	return true
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
