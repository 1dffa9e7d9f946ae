package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"schoolyard.org/internal/audit"
	"schoolyard.org/internal/obs"
	"schoolyard.org/internal/policy"
	"schoolyard.org/internal/school"
)

// ReadyProbe reports whether downstream dependencies answer.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. All protected routes share the same pipeline:
// session middleware resolves a principal, the handler consults the
// policy table, then delegates to a service.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	orgs      *school.OrganizationService
	directory *school.DirectoryService
	attend    *school.AttendanceService
	messaging *school.MessagingService
	content   *school.ContentService
}

type Config struct {
	Store   school.Store
	Ready   ReadyProbe
	Version string
}

func New(cfg Config) (*API, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	orgs, err := school.NewOrganizationService(cfg.Store)
	if err != nil {
		return nil, err
	}
	directory, err := school.NewDirectoryService(cfg.Store)
	if err != nil {
		return nil, err
	}
	attend, err := school.NewAttendanceService(cfg.Store)
	if err != nil {
		return nil, err
	}
	messaging, err := school.NewMessagingService(cfg.Store)
	if err != nil {
		return nil, err
	}
	content, err := school.NewContentService(cfg.Store)
	if err != nil {
		return nil, err
	}

	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: cfg.Ready,
		version:    cfg.Version,
		orgs:       orgs,
		directory:  directory,
		attend:     attend,
		messaging:  messaging,
		content:    content,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/role", a.handleRoleSwitch)

	a.mux.HandleFunc("/v1/organizations", a.handleOrganizationsCollection)
	a.mux.HandleFunc("/v1/organizations/", a.handleOrganizationResource)
	a.mux.HandleFunc("/v1/staff", a.handleStaffCollection)
	a.mux.HandleFunc("/v1/staff/", a.handleStaffResource)
	a.mux.HandleFunc("/v1/students", a.handleStudentsCollection)
	a.mux.HandleFunc("/v1/students/", a.handleStudentResource)
	a.mux.HandleFunc("/v1/guardians", a.handleGuardiansCollection)
	a.mux.HandleFunc("/v1/guardians/", a.handleGuardianResource)
	a.mux.HandleFunc("/v1/attendance", a.handleAttendance)
	a.mux.HandleFunc("/v1/threads", a.handleThreadsCollection)
	a.mux.HandleFunc("/v1/threads/", a.handleThreadResource)
	a.mux.HandleFunc("/v1/menus", a.handleMenusCollection)
	a.mux.HandleFunc("/v1/menus/", a.handleMenuResource)
	a.mux.HandleFunc("/v1/photos", a.handlePhotosCollection)
	a.mux.HandleFunc("/v1/photos/", a.handlePhotoResource)
	a.mux.HandleFunc("/v1/announcements", a.handleAnnouncementsCollection)
	a.mux.HandleFunc("/v1/announcements/", a.handleAnnouncementResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a, nil
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withAuth(h)
	h = Logging(h)
	h = RequestID(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 20, 10)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "schoolyard-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "schoolyard-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// authorize resolves the principal and consults the policy table. On
// denial it records the decision and writes the response itself; callers
// stop when ok is false.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, resource policy.Resource, op policy.Op) (principalRule, bool) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
		return principalRule{}, false
	}
	rule, err := policy.Authorize(p, resource, op)
	if err != nil {
		if errors.Is(err, school.ErrUnauthenticated) {
			writeError(w, r, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return principalRule{}, false
		}
		obs.AuthzDenied(string(resource), string(op), "role")
		_ = audit.LogEvent(r.Context(), "authz.denied", map[string]any{
			"resource":  string(resource),
			"operation": string(op),
		})
		writeError(w, r, http.StatusForbidden, codeForbidden, "operation not permitted for the active role")
		return principalRule{}, false
	}
	return principalRule{principal: p, rule: rule}, true
}

// scopeCheck enforces tenancy after the target row was fetched by id. A
// cross-tenant hit is logged, counted, and then answered exactly like a
// miss so existence cannot be probed across organizations.
func (a *API) scopeCheck(w http.ResponseWriter, r *http.Request, pr principalRule, resource policy.Resource, op policy.Op, targetOrgID string) bool {
	if !pr.rule.OrgScoped {
		return true
	}
	if err := policy.CheckOrgScope(pr.principal, targetOrgID); err != nil {
		obs.AuthzDenied(string(resource), string(op), "cross_tenant")
		_ = audit.LogEvent(r.Context(), "authz.cross_tenant", map[string]any{
			"resource":  string(resource),
			"operation": string(op),
		})
		writeNotFound(w, r)
		return false
	}
	return true
}

func (a *API) audit(ctx context.Context, event, resourceType, resourceID string, meta map[string]string) {
	fields := map[string]any{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}
	for k, v := range meta {
		fields[k] = v
	}
	_ = audit.LogEvent(ctx, event, fields)
}
