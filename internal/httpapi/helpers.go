package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"schoolyard.org/internal/auth"
	"schoolyard.org/internal/policy"
	"schoolyard.org/internal/school"
)

// Machine-readable error codes on the wire.
const (
	codeUnauthenticated     = "unauthenticated"
	codeMissingOrganization = "missing_organization"
	codeForbidden           = "forbidden"
	codeNotFound            = "not_found"
	codeValidationFailed    = "validation_failed"
	codeConflict            = "conflict"
	codeRateLimited         = "rate_limited"
	codeUnexpected          = "unexpected"
)

// principalRule pairs the resolved principal with the policy rule that
// admitted the request.
type principalRule struct {
	principal auth.Principal
	rule      policy.Rule
}

func principalFrom(r *http.Request) (auth.Principal, bool) {
	return auth.PrincipalFromContext(r.Context())
}

type listResponse struct {
	Items       any `json:"items"`
	TotalCount  int `json:"total_count"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

func newListResponse(items any, total int, p school.Page) listResponse {
	return listResponse{
		Items:       items,
		TotalCount:  total,
		TotalPages:  p.Pages(total),
		CurrentPage: p.Number,
	}
}

// pageFrom parses page/pageSize query parameters. Out-of-range values are
// clamped; malformed values are rejected.
func pageFrom(r *http.Request) (school.Page, error) {
	q := r.URL.Query()
	number, err := queryInt(q.Get("page"), 1)
	if err != nil {
		return school.Page{}, school.Invalid("page", "must be an integer")
	}
	size, err := queryInt(q.Get("pageSize"), school.DefaultPageSize)
	if err != nil {
		return school.Page{}, school.Invalid("pageSize", "must be an integer")
	}
	return school.NormalizePage(number, size), nil
}

func queryInt(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"error": msg,
		"code":  code,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

// writeNotFound is the single generic miss response. Cross-tenant hits use
// the same body so the two cases are indistinguishable on the wire.
func writeNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
}

func writeValidation(w http.ResponseWriter, r *http.Request, verr *school.ValidationError) {
	payload := map[string]any{
		"error":  verr.Error(),
		"code":   codeValidationFailed,
		"fields": verr.Fields,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, http.StatusBadRequest, payload)
}

// handleDomainError maps the failure taxonomy onto response codes. Any
// error outside the taxonomy becomes an opaque 500.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *school.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, r, verr)
	case errors.Is(err, school.ErrValidation):
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
	case errors.Is(err, school.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
	case errors.Is(err, auth.ErrMissingOrganization):
		writeError(w, r, http.StatusUnauthorized, codeMissingOrganization, "session has no organization")
	case errors.Is(err, school.ErrForbidden):
		writeError(w, r, http.StatusForbidden, codeForbidden, "operation not permitted for the active role")
	case errors.Is(err, school.ErrCrossTenant):
		writeNotFound(w, r)
	case errors.Is(err, school.ErrNotFound):
		writeNotFound(w, r)
	case errors.Is(err, school.ErrConflict):
		writeError(w, r, http.StatusConflict, codeConflict, "resource conflict")
	default:
		writeError(w, r, http.StatusInternalServerError, codeUnexpected, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, codeValidationFailed, "method not allowed")
}

// resourceID extracts the trailing id from a collection-prefixed path.
// Empty or nested remainders are misses.
func resourceID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	id = strings.TrimSuffix(id, "/")
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
