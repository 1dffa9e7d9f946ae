package httpapi

import (
	"net/http"
	"strings"
	"time"

	"schoolyard.org/internal/audit"
	"schoolyard.org/internal/auth"
	"schoolyard.org/internal/policy"
)

const sessionTTL = 15 * time.Minute

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type roleSwitchRequest struct {
	Role string `json:"role"`
}

type sessionResponse struct {
	Token              string    `json:"token"`
	ExpiresAt          time.Time `json:"expires_at"`
	OrganizationID     string    `json:"organization_id"`
	Roles              []string  `json:"roles"`
	ActiveRole         string    `json:"active_role"`
	MustChangePassword bool      `json:"must_change_password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	account, err := a.directory.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	// The landing role is the most privileged held role; the client can
	// switch afterwards. Role and org context come from the store, never
	// from the request body.
	activeRole := string(policy.FallbackRole(account.Roles))
	token, err := auth.GenerateToken(account.UserID, account.OrganizationID, account.Roles, activeRole, sessionTTL)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":     account.UserID,
		"org_id":      account.OrganizationID,
		"active_role": activeRole,
	})

	a.writeSession(w, token, sessionResponse{
		Token:              token,
		ExpiresAt:          time.Now().UTC().Add(sessionTTL),
		OrganizationID:     account.OrganizationID,
		Roles:              account.Roles,
		ActiveRole:         activeRole,
		MustChangePassword: account.MustChangePassword,
	})
}

// handleRoleSwitch re-issues the session with a different active role.
// The requested role must already be in the held set.
func (a *API) handleRoleSwitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	p, ok := principalFrom(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
		return
	}

	var req roleSwitchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	role := strings.TrimSpace(strings.ToLower(req.Role))
	if !policy.Known(role) {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, "unknown role")
		return
	}
	if !p.HoldsRole(role) {
		writeError(w, r, http.StatusForbidden, codeForbidden, "role is not held by this account")
		return
	}

	token, err := auth.GenerateToken(p.UserID, p.OrganizationID, p.Roles, role, sessionTTL)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.role_switch", map[string]any{
		"user_id": p.UserID,
		"to_role": role,
	})

	a.writeSession(w, token, sessionResponse{
		Token:          token,
		ExpiresAt:      time.Now().UTC().Add(sessionTTL),
		OrganizationID: p.OrganizationID,
		Roles:          p.Roles,
		ActiveRole:     role,
	})
}

func (a *API) writeSession(w http.ResponseWriter, token string, resp sessionResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, resp)
}
