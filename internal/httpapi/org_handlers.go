package httpapi

import (
	"net/http"

	"schoolyard.org/internal/policy"
	"schoolyard.org/internal/school"
)

type createOrganizationRequest struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Timezone     string `json:"timezone"`
}

type updateOrganizationRequest struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Timezone     *string `json:"timezone"`
	Active       *bool   `json:"active"`
}

func (a *API) handleOrganizationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createOrganization(w, r)
	case http.MethodGet:
		a.listOrganizations(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrganizationResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/organizations/")
	if !ok {
		writeNotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getOrganization(w, r, id)
	case http.MethodPut, http.MethodPatch:
		a.updateOrganization(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch)
	}
}

func (a *API) createOrganization(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, policy.ResourceOrganizations, policy.OpCreate); !ok {
		return
	}
	var req createOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	org, err := a.orgs.Create(r.Context(), school.CreateOrganizationInput{
		Name:         req.Name,
		Slug:         req.Slug,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Timezone:     req.Timezone,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "organization.create", "organization", org.ID, map[string]string{"slug": org.Slug})
	w.Header().Set("Location", "/v1/organizations/"+org.ID)
	writeJSON(w, http.StatusCreated, org)
}

func (a *API) listOrganizations(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, policy.ResourceOrganizations, policy.OpList); !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, total, err := a.orgs.List(r.Context(), page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []school.Organization{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}

func (a *API) getOrganization(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceOrganizations, policy.OpRead)
	if !ok {
		return
	}
	org, err := a.orgs.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceOrganizations, policy.OpRead, org.ID) {
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (a *API) updateOrganization(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceOrganizations, policy.OpUpdate)
	if !ok {
		return
	}
	existing, err := a.orgs.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceOrganizations, policy.OpUpdate, existing.ID) {
		return
	}
	var req updateOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	org, err := a.orgs.Update(r.Context(), id, school.OrganizationUpdate{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Timezone:     req.Timezone,
		Active:       req.Active,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "organization.update", "organization", org.ID, nil)
	writeJSON(w, http.StatusOK, org)
}
