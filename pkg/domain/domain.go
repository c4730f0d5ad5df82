package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/asaskevich/govalidator"
	"github.com/pkg/errors"
)

// errors
var (
	ErrDomainNotFound      = fault.New(fault.KNotFound, "domain not found")
	ErrApplicationNotFound = fault.New(fault.KNotFound, "application not found")
	ErrDuplicateSlug       = fault.New(fault.KValidation, "slug is already taken")
	ErrEmptySlug           = fault.New(fault.KValidation, "slug is empty")
	ErrInvalidDomain       = fault.New(fault.KValidation, "invalid domain")
	ErrInvalidApplication  = fault.New(fault.KValidation, "invalid application")
	ErrNilStore            = errors.New("domain store is nil")
	ErrNilDatabase         = errors.New("database is nil")
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a string into a slug: trimmed, lowercased,
// every run of characters other than [a-z0-9] collapsed into a single
// hyphen and no leading or trailing hyphens
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugChars.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

// Domain represents a tenant, the outermost isolation boundary
// NOTE: domains are never deleted here
type Domain struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug" valid:"required"`
	Name        string            `json:"name" valid:"required"`
	OwnerUserID string            `json:"owner_user_id" valid:"required"`
	Description string            `json:"description,omitempty"`
	Industry    string            `json:"industry,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewDomain is a set of fields required to create a domain
type NewDomain struct {
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	OwnerUserID string            `json:"owner_user_id"`
	Description string            `json:"description"`
	Industry    string            `json:"industry"`
	Metadata    map[string]string `json:"metadata"`
}

// Validate performs a domain self-check
func (d Domain) Validate() error {
	if d.Slug != Slugify(d.Slug) {
		return fault.Wrap(ErrInvalidDomain, fault.KValidation, "slug is not normalized")
	}

	if ok, err := govalidator.ValidateStruct(d); !ok || err != nil {
		return fault.Wrap(ErrInvalidDomain, fault.KValidation, err.Error())
	}

	return nil
}

// Application is a unit of functionality within a domain
type Application struct {
	ID          string    `json:"id"`
	DomainID    string    `json:"domain_id" valid:"required"`
	Slug        string    `json:"slug" valid:"required"`
	Name        string    `json:"name" valid:"required"`
	Description string    `json:"description,omitempty"`
	OwnerUserID string    `json:"owner_user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewApplication is a set of fields required to create an application
type NewApplication struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	OwnerUserID string `json:"owner_user_id"`
}

// Validate performs an application self-check
func (a Application) Validate() error {
	if a.Slug != Slugify(a.Slug) {
		return fault.Wrap(ErrInvalidApplication, fault.KValidation, "slug is not normalized")
	}

	if ok, err := govalidator.ValidateStruct(a); !ok || err != nil {
		return fault.Wrap(ErrInvalidApplication, fault.KValidation, err.Error())
	}

	return nil
}
