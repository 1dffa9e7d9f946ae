package school

import (
	"context"
	"errors"
	"strings"

	"schoolyard.org/internal/ids"
)

// OrganizationService validates tenant operations before they reach the store.
type OrganizationService struct {
	store OrganizationStore
}

func NewOrganizationService(store OrganizationStore) (*OrganizationService, error) {
	if store == nil {
		return nil, errors.New("organization store is required")
	}
	return &OrganizationService{store: store}, nil
}

type CreateOrganizationInput struct {
	Name         string
	Slug         string
	ContactEmail string
	ContactPhone string
	Timezone     string
}

func (s *OrganizationService) Create(ctx context.Context, in CreateOrganizationInput) (Organization, error) {
	var fields []FieldError
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "is required"})
	}
	in.Slug = strings.TrimSpace(strings.ToLower(in.Slug))
	if !validSlug(in.Slug) {
		fields = append(fields, FieldError{Field: "slug", Message: "must be URL-safe (lowercase letters, digits, hyphens)"})
	}
	in.ContactEmail = strings.TrimSpace(strings.ToLower(in.ContactEmail))
	if in.ContactEmail != "" && !validEmail(in.ContactEmail) {
		fields = append(fields, FieldError{Field: "contact_email", Message: "must be a valid email"})
	}
	in.Timezone = strings.TrimSpace(in.Timezone)
	if in.Timezone == "" {
		in.Timezone = "UTC"
	}
	if len(fields) > 0 {
		return Organization{}, &ValidationError{Fields: fields}
	}
	return s.store.CreateOrganization(ctx, Organization{
		Name:         in.Name,
		Slug:         in.Slug,
		ContactEmail: in.ContactEmail,
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		Timezone:     in.Timezone,
		Active:       true,
	})
}

func (s *OrganizationService) List(ctx context.Context, p Page) ([]Organization, int, error) {
	return s.store.ListOrganizations(ctx, p)
}

func (s *OrganizationService) Get(ctx context.Context, id string) (Organization, error) {
	id = strings.TrimSpace(id)
	if !ids.Valid(id) {
		return Organization{}, Invalid("id", "must be a valid identifier")
	}
	return s.store.GetOrganization(ctx, id)
}

func (s *OrganizationService) Update(ctx context.Context, id string, upd OrganizationUpdate) (Organization, error) {
	id = strings.TrimSpace(id)
	if !ids.Valid(id) {
		return Organization{}, Invalid("id", "must be a valid identifier")
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Organization{}, Invalid("name", "is required")
		}
		upd.Name = &name
	}
	if upd.ContactEmail != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.ContactEmail))
		if email != "" && !validEmail(email) {
			return Organization{}, Invalid("contact_email", "must be a valid email")
		}
		upd.ContactEmail = &email
	}
	if upd.Timezone != nil {
		tz := strings.TrimSpace(*upd.Timezone)
		if tz == "" {
			return Organization{}, Invalid("timezone", "is required")
		}
		upd.Timezone = &tz
	}
	return s.store.UpdateOrganization(ctx, id, upd)
}

// SetActive soft-deactivates or reactivates a tenant. Organizations are
// never hard-deleted while referenced.
func (s *OrganizationService) SetActive(ctx context.Context, id string, active bool) (Organization, error) {
	return s.Update(ctx, id, OrganizationUpdate{Active: &active})
}
