package httpapi

import (
	"net/http"
	"strings"

	"schoolyard.org/internal/policy"
	"schoolyard.org/internal/school"
)

type createThreadRequest struct {
	Subject        string   `json:"subject"`
	ParticipantIDs []string `json:"participant_ids"`
}

type postMessageRequest struct {
	Body string `json:"body"`
}

func (a *API) handleThreadsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createThread(w, r)
	case http.MethodGet:
		a.listThreads(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleThreadResource routes /v1/threads/{id} plus the nested
// /messages and /read endpoints.
func (a *API) handleThreadResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/threads/")
	if rest == "" {
		writeNotFound(w, r)
		return
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	switch {
	case len(parts) == 1:
		a.threadByID(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "messages":
		a.threadMessages(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "read":
		a.markThreadRead(w, r, parts[0])
	default:
		writeNotFound(w, r)
	}
}

func (a *API) threadByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		a.getThread(w, r, id)
	case http.MethodDelete:
		a.deleteThread(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) threadMessages(w http.ResponseWriter, r *http.Request, threadID string) {
	switch r.Method {
	case http.MethodGet:
		a.listMessages(w, r, threadID)
	case http.MethodPost:
		a.postMessage(w, r, threadID)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createThread(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceThreads, policy.OpCreate)
	if !ok {
		return
	}
	var req createThreadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	thread, err := a.messaging.CreateThread(r.Context(), school.CreateThreadInput{
		OrganizationID: pr.principal.OrganizationID,
		Subject:        req.Subject,
		CreatedBy:      pr.principal.UserID,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "thread.create", "thread", thread.ID, nil)
	w.Header().Set("Location", "/v1/threads/"+thread.ID)
	writeJSON(w, http.StatusCreated, thread)
}

func (a *API) listThreads(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceThreads, policy.OpList)
	if !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, total, err := a.messaging.ListThreads(r.Context(), pr.principal.OrganizationID, pr.principal.UserID, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []school.Thread{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}

// getThread returns the thread plus its participant list with unread
// flags. Non-participants get the generic miss.
func (a *API) getThread(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceThreads, policy.OpRead)
	if !ok {
		return
	}
	thread, err := a.messaging.GetThread(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceThreads, policy.OpRead, thread.OrganizationID) {
		return
	}
	participants, err := a.messaging.ListParticipants(r.Context(), thread.ID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !isParticipant(participants, pr.principal.UserID) {
		writeNotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thread":       thread,
		"participants": participants,
	})
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request, threadID string) {
	pr, ok := a.authorize(w, r, policy.ResourceThreads, policy.OpRead)
	if !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	thread, err := a.messaging.GetThread(r.Context(), threadID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceThreads, policy.OpRead, thread.OrganizationID) {
		return
	}
	participants, err := a.messaging.ListParticipants(r.Context(), thread.ID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !isParticipant(participants, pr.principal.UserID) {
		writeNotFound(w, r)
		return
	}
	items, total, err := a.messaging.ListMessages(r.Context(), thread.ID, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []school.ThreadMessage{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}

func (a *API) postMessage(w http.ResponseWriter, r *http.Request, threadID string) {
	pr, ok := a.authorize(w, r, policy.ResourceThreads, policy.OpUpdate)
	if !ok {
		return
	}
	thread, err := a.messaging.GetThread(r.Context(), threadID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceThreads, policy.OpUpdate, thread.OrganizationID) {
		return
	}
	var req postMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	msg, err := a.messaging.Post(r.Context(), thread.ID, pr.principal.UserID, req.Body)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "thread.post", "message", msg.ID, map[string]string{"thread_id": thread.ID})
	writeJSON(w, http.StatusCreated, msg)
}

func (a *API) markThreadRead(w http.ResponseWriter, r *http.Request, threadID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	pr, ok := a.authorize(w, r, policy.ResourceThreads, policy.OpUpdate)
	if !ok {
		return
	}
	thread, err := a.messaging.GetThread(r.Context(), threadID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceThreads, policy.OpUpdate, thread.OrganizationID) {
		return
	}
	if err := a.messaging.MarkRead(r.Context(), thread.ID, pr.principal.UserID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteThread(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceThreads, policy.OpDelete)
	if !ok {
		return
	}
	thread, err := a.messaging.GetThread(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceThreads, policy.OpDelete, thread.OrganizationID) {
		return
	}
	if err := a.messaging.DeleteThread(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "thread.delete", "thread", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func isParticipant(participants []school.ThreadParticipant, userID string) bool {
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
