package httpapi

import (
	"net/http"
	"strings"

	"schoolyard.org/internal/policy"
	"schoolyard.org/internal/school"
)

type createMenuRequest struct {
	ServedOn    string `json:"served_on"`
	Meal        string `json:"meal"`
	Description string `json:"description"`
}

type updateMenuRequest struct {
	ServedOn    *string `json:"served_on"`
	Meal        *string `json:"meal"`
	Description *string `json:"description"`
}

func (a *API) handleMenusCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createMenu(w, r)
	case http.MethodGet:
		a.listMenus(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleMenuResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/menus/")
	if !ok {
		writeNotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getMenu(w, r, id)
	case http.MethodPut, http.MethodPatch:
		a.updateMenu(w, r, id)
	case http.MethodDelete:
		a.deleteMenu(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createMenu(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceMenus, policy.OpCreate)
	if !ok {
		return
	}
	var req createMenuRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	menu, err := a.content.CreateMenu(r.Context(), school.CreateMenuInput{
		OrganizationID: pr.principal.OrganizationID,
		ServedOn:       req.ServedOn,
		Meal:           req.Meal,
		Description:    req.Description,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "menu.create", "menu", menu.ID, map[string]string{
		"served_on": menu.ServedOn,
		"meal":      menu.Meal,
	})
	w.Header().Set("Location", "/v1/menus/"+menu.ID)
	writeJSON(w, http.StatusCreated, menu)
}

func (a *API) listMenus(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceMenus, policy.OpList)
	if !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	q := r.URL.Query()
	items, total, err := a.content.ListMenus(r.Context(), pr.principal.OrganizationID,
		strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to")), page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []school.Menu{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}

func (a *API) getMenu(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceMenus, policy.OpRead)
	if !ok {
		return
	}
	menu, err := a.content.GetMenu(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceMenus, policy.OpRead, menu.OrganizationID) {
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (a *API) updateMenu(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceMenus, policy.OpUpdate)
	if !ok {
		return
	}
	existing, err := a.content.GetMenu(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceMenus, policy.OpUpdate, existing.OrganizationID) {
		return
	}
	var req updateMenuRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	menu, err := a.content.UpdateMenu(r.Context(), id, school.MenuUpdate{
		ServedOn:    req.ServedOn,
		Meal:        req.Meal,
		Description: req.Description,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "menu.update", "menu", menu.ID, nil)
	writeJSON(w, http.StatusOK, menu)
}

func (a *API) deleteMenu(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceMenus, policy.OpDelete)
	if !ok {
		return
	}
	existing, err := a.content.GetMenu(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceMenus, policy.OpDelete, existing.OrganizationID) {
		return
	}
	if err := a.content.DeleteMenu(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "menu.delete", "menu", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

type createPhotoRequest struct {
	Caption   string `json:"caption"`
	ObjectKey string `json:"object_key"`
	ClassName string `json:"class_name"`
}

func (a *API) handlePhotosCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createPhoto(w, r)
	case http.MethodGet:
		a.listPhotos(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handlePhotoResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/photos/")
	if !ok {
		writeNotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getPhoto(w, r, id)
	case http.MethodDelete:
		a.deletePhoto(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) createPhoto(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourcePhotos, policy.OpCreate)
	if !ok {
		return
	}
	var req createPhotoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	photo, err := a.content.CreatePhoto(r.Context(), school.CreatePhotoInput{
		OrganizationID: pr.principal.OrganizationID,
		Caption:        req.Caption,
		ObjectKey:      req.ObjectKey,
		ClassName:      req.ClassName,
		UploadedBy:     pr.principal.UserID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "photo.create", "photo", photo.ID, nil)
	w.Header().Set("Location", "/v1/photos/"+photo.ID)
	writeJSON(w, http.StatusCreated, photo)
}

func (a *API) listPhotos(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourcePhotos, policy.OpList)
	if !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, total, err := a.content.ListPhotos(r.Context(), pr.principal.OrganizationID, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []school.Photo{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}

func (a *API) getPhoto(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourcePhotos, policy.OpRead)
	if !ok {
		return
	}
	photo, err := a.content.GetPhoto(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourcePhotos, policy.OpRead, photo.OrganizationID) {
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

func (a *API) deletePhoto(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourcePhotos, policy.OpDelete)
	if !ok {
		return
	}
	existing, err := a.content.GetPhoto(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourcePhotos, policy.OpDelete, existing.OrganizationID) {
		return
	}
	if err := a.content.DeletePhoto(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "photo.delete", "photo", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

type createAnnouncementRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type updateAnnouncementRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

func (a *API) handleAnnouncementsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createAnnouncement(w, r)
	case http.MethodGet:
		a.listAnnouncements(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAnnouncementResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/announcements/")
	if !ok {
		writeNotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getAnnouncement(w, r, id)
	case http.MethodPut, http.MethodPatch:
		a.updateAnnouncement(w, r, id)
	case http.MethodDelete:
		a.deleteAnnouncement(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceAnnouncements, policy.OpCreate)
	if !ok {
		return
	}
	var req createAnnouncementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	ann, err := a.content.CreateAnnouncement(r.Context(), school.CreateAnnouncementInput{
		OrganizationID: pr.principal.OrganizationID,
		Title:          req.Title,
		Body:           req.Body,
		CreatedBy:      pr.principal.UserID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "announcement.create", "announcement", ann.ID, nil)
	w.Header().Set("Location", "/v1/announcements/"+ann.ID)
	writeJSON(w, http.StatusCreated, ann)
}

func (a *API) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceAnnouncements, policy.OpList)
	if !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, total, err := a.content.ListAnnouncements(r.Context(), pr.principal.OrganizationID, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []school.Announcement{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}

func (a *API) getAnnouncement(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceAnnouncements, policy.OpRead)
	if !ok {
		return
	}
	ann, err := a.content.GetAnnouncement(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceAnnouncements, policy.OpRead, ann.OrganizationID) {
		return
	}
	writeJSON(w, http.StatusOK, ann)
}

func (a *API) updateAnnouncement(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceAnnouncements, policy.OpUpdate)
	if !ok {
		return
	}
	existing, err := a.content.GetAnnouncement(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceAnnouncements, policy.OpUpdate, existing.OrganizationID) {
		return
	}
	var req updateAnnouncementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	ann, err := a.content.UpdateAnnouncement(r.Context(), id, school.AnnouncementUpdate{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "announcement.update", "announcement", ann.ID, nil)
	writeJSON(w, http.StatusOK, ann)
}

func (a *API) deleteAnnouncement(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceAnnouncements, policy.OpDelete)
	if !ok {
		return
	}
	existing, err := a.content.GetAnnouncement(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceAnnouncements, policy.OpDelete, existing.OrganizationID) {
		return
	}
	if err := a.content.DeleteAnnouncement(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "announcement.delete", "announcement", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
