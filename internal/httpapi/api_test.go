package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schoolyard.org/internal/auth"
	"schoolyard.org/internal/school"
)

func newTestServer(t *testing.T) (*httptest.Server, *school.InMemory) {
	t.Helper()
	t.Setenv("SCHOOLYARD_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()
	t.Cleanup(auth.ResetSecretForTests)

	store := school.NewInMemory()
	api, err := New(Config{Store: store, Version: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func seedOrg(t *testing.T, store *school.InMemory, slug string) school.Organization {
	t.Helper()
	org, err := store.CreateOrganization(context.Background(), school.Organization{
		Name: slug, Slug: slug, Timezone: "UTC", Active: true,
	})
	if err != nil {
		t.Fatalf("seed org %s: %v", slug, err)
	}
	return org
}

func seedStaff(t *testing.T, store *school.InMemory, orgID, email string, roles []string) school.StaffMember {
	t.Helper()
	staff, err := store.CreateStaff(context.Background(), school.StaffMember{
		OrganizationID: orgID,
		Email:          email,
		FullName:       "Staff " + email,
		Roles:          roles,
		NationalID:     "NID-" + email,
		Phone:          "+1-555-0100",
		HomeAddress:    "12 Main St",
	}, "x")
	if err != nil {
		t.Fatalf("seed staff %s: %v", email, err)
	}
	return staff
}

func seedStudent(t *testing.T, store *school.InMemory, orgID, name string) school.Student {
	t.Helper()
	student, err := store.CreateStudent(context.Background(), school.Student{
		OrganizationID: orgID,
		FullName:       name,
		NationalID:     "NID-" + name,
		MedicalNotes:   "peanut allergy",
	})
	if err != nil {
		t.Fatalf("seed student %s: %v", name, err)
	}
	return student
}

func mintToken(t *testing.T, userID, orgID string, roles []string, activeRole string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, orgID, roles, activeRole, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", string(data), err)
	}
	return v
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

type listBody[T any] struct {
	Items       []T `json:"items"`
	TotalCount  int `json:"total_count"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "northside")

	hash, err := auth.HashPassword("initial-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	_, err = store.CreateStaff(context.Background(), school.StaffMember{
		OrganizationID:     org.ID,
		Email:              "head@northside.example",
		FullName:           "Head of School",
		Roles:              []string{"principal", "teacher"},
		MustChangePassword: true,
	}, hash)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}

	resp, data := doRequest(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "head@northside.example", "password": "initial-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d body %s", resp.StatusCode, data)
	}
	session := decode[sessionResponse](t, data)
	if session.Token == "" {
		t.Fatal("expected a token")
	}
	if session.ActiveRole != "principal" {
		t.Fatalf("landing role = %s, want principal (most privileged held)", session.ActiveRole)
	}
	if !session.MustChangePassword {
		t.Fatal("provisioned account must report must_change_password")
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly %s cookie, got %+v", sessionCookie, cookie)
	}

	resp, _ = doRequest(t, srv, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "head@northside.example", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d, want 401", resp.StatusCode)
	}
}

func TestRequestsWithoutSessionAreRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, data := doRequest(t, srv, http.MethodGet, "/v1/students", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
	if e := decode[errorBody](t, data); e.Code != codeUnauthenticated {
		t.Fatalf("code = %s, want %s", e.Code, codeUnauthenticated)
	}
}

func TestTenantIsolation(t *testing.T) {
	srv, store := newTestServer(t)
	orgA := seedOrg(t, store, "org-a")
	orgB := seedOrg(t, store, "org-b")
	student := seedStudent(t, store, orgA.ID, "Ada")
	adminB := seedStaff(t, store, orgB.ID, "admin@org-b.example", []string{"admin"})
	tokenB := mintToken(t, adminB.ID, orgB.ID, adminB.Roles, "admin")

	resp, data := doRequest(t, srv, http.MethodGet, "/v1/students/"+student.ID, tokenB, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-tenant read: status %d, want 404", resp.StatusCode)
	}
	crossBody := decode[errorBody](t, data)

	// A well-formed id that no row carries.
	missing := "01HZZZZZZZZZZZZZZZZZZZZZZZ"
	resp, data = doRequest(t, srv, http.MethodGet, "/v1/students/"+missing, tokenB, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("true miss: status %d, want 404", resp.StatusCode)
	}
	missBody := decode[errorBody](t, data)

	// The two 404s must be indistinguishable apart from the request id.
	if crossBody.Error != missBody.Error || crossBody.Code != missBody.Code {
		t.Fatalf("cross-tenant body %+v differs from miss body %+v", crossBody, missBody)
	}
}

func TestAllowListEnforcement(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "maple")
	teacher := seedStaff(t, store, org.ID, "t@maple.example", []string{"teacher"})
	token := mintToken(t, teacher.ID, org.ID, teacher.Roles, "teacher")

	resp, data := doRequest(t, srv, http.MethodPost, "/v1/staff", token, map[string]any{
		"email": "new@maple.example", "full_name": "New Hire",
		"roles": []string{"teacher"}, "initial_password": "pw",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("teacher creating staff: status %d body %s, want 403", resp.StatusCode, data)
	}
	if e := decode[errorBody](t, data); e.Code != codeForbidden {
		t.Fatalf("code = %s, want %s", e.Code, codeForbidden)
	}

	// Reads stay open to the same role.
	resp, _ = doRequest(t, srv, http.MethodGet, "/v1/staff", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("teacher listing staff: status %d, want 200", resp.StatusCode)
	}
}

func TestActiveRolePrecedence(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "cedar")
	dual := seedStaff(t, store, org.ID, "dual@cedar.example", []string{"admin", "teacher"})

	body := map[string]any{"name": "New School", "slug": "new-school"}

	asTeacher := mintToken(t, dual.ID, org.ID, dual.Roles, "teacher")
	resp, _ := doRequest(t, srv, http.MethodPost, "/v1/organizations", asTeacher, body)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("inactive admin role: status %d, want 403", resp.StatusCode)
	}

	asAdmin := mintToken(t, dual.ID, org.ID, dual.Roles, "admin")
	resp, data := doRequest(t, srv, http.MethodPost, "/v1/organizations", asAdmin, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("active admin role: status %d body %s, want 201", resp.StatusCode, data)
	}
}

func TestRoleSwitchEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "elm")
	dual := seedStaff(t, store, org.ID, "dual@elm.example", []string{"admin", "teacher"})
	token := mintToken(t, dual.ID, org.ID, dual.Roles, "teacher")

	resp, data := doRequest(t, srv, http.MethodPost, "/v1/auth/role", token, map[string]string{"role": "admin"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("role switch: status %d body %s", resp.StatusCode, data)
	}
	session := decode[sessionResponse](t, data)
	if session.ActiveRole != "admin" {
		t.Fatalf("active role = %s, want admin", session.ActiveRole)
	}

	resp, _ = doRequest(t, srv, http.MethodPost, "/v1/auth/role", token, map[string]string{"role": "guardian"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("switch to unheld role: status %d, want 403", resp.StatusCode)
	}
}

func TestPaginationClamping(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "pine")
	admin := seedStaff(t, store, org.ID, "a@pine.example", []string{"admin"})
	token := mintToken(t, admin.ID, org.ID, admin.Roles, "admin")

	for i := 0; i < 120; i++ {
		seedStudent(t, store, org.ID, fmt.Sprintf("Student %03d", i))
	}

	resp, data := doRequest(t, srv, http.MethodGet, "/v1/students?page=0&pageSize=100000", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d body %s", resp.StatusCode, data)
	}
	list := decode[listBody[school.Student]](t, data)
	if len(list.Items) != school.MaxPageSize {
		t.Fatalf("page size not clamped: got %d items, want %d", len(list.Items), school.MaxPageSize)
	}
	if list.CurrentPage != 1 {
		t.Fatalf("page 0 not coerced: current_page = %d, want 1", list.CurrentPage)
	}
	if list.TotalCount != 120 || list.TotalPages != 2 {
		t.Fatalf("totals: count=%d pages=%d, want 120/2", list.TotalCount, list.TotalPages)
	}

	resp, data = doRequest(t, srv, http.MethodGet, "/v1/students?pageSize=abc", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed pageSize: status %d, want 400", resp.StatusCode)
	}
}

func TestSoftDeleteIsIdempotentViaNotFound(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "oak")
	admin := seedStaff(t, store, org.ID, "a@oak.example", []string{"admin"})
	student := seedStudent(t, store, org.ID, "Grace")
	token := mintToken(t, admin.ID, org.ID, admin.Roles, "admin")

	resp, _ := doRequest(t, srv, http.MethodDelete, "/v1/students/"+student.ID, token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("first delete: status %d, want 204", resp.StatusCode)
	}
	resp, _ = doRequest(t, srv, http.MethodDelete, "/v1/students/"+student.ID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: status %d, want 404", resp.StatusCode)
	}
	resp, _ = doRequest(t, srv, http.MethodGet, "/v1/students/"+student.ID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("read after delete: status %d, want 404", resp.StatusCode)
	}
}

func TestSensitiveFieldRedaction(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "birch")
	target := seedStaff(t, store, org.ID, "target@birch.example", []string{"teacher"})
	admin := seedStaff(t, store, org.ID, "a@birch.example", []string{"admin"})
	teacher := seedStaff(t, store, org.ID, "t@birch.example", []string{"teacher"})

	adminToken := mintToken(t, admin.ID, org.ID, admin.Roles, "admin")
	teacherToken := mintToken(t, teacher.ID, org.ID, teacher.Roles, "teacher")

	_, data := doRequest(t, srv, http.MethodGet, "/v1/staff/"+target.ID, teacherToken, nil)
	asTeacher := decode[school.StaffMember](t, data)
	if asTeacher.NationalID != "" || asTeacher.Phone != "" || asTeacher.HomeAddress != "" {
		t.Fatalf("sensitive fields leaked to teacher: %+v", asTeacher)
	}

	_, data = doRequest(t, srv, http.MethodGet, "/v1/staff/"+target.ID, adminToken, nil)
	asAdmin := decode[school.StaffMember](t, data)
	if asAdmin.NationalID == "" || asAdmin.Phone == "" || asAdmin.HomeAddress == "" {
		t.Fatalf("sensitive fields missing for admin: %+v", asAdmin)
	}
}

func TestCreateThenListRoundTrip(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "willow")
	admin := seedStaff(t, store, org.ID, "a@willow.example", []string{"admin"})
	token := mintToken(t, admin.ID, org.ID, admin.Roles, "admin")

	resp, data := doRequest(t, srv, http.MethodPost, "/v1/students", token, map[string]any{
		"full_name": "Lin Wu", "class_name": "2B",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d body %s", resp.StatusCode, data)
	}
	created := decode[school.Student](t, data)
	if created.OrganizationID != org.ID {
		t.Fatalf("student org = %s, want caller's org %s", created.OrganizationID, org.ID)
	}

	_, data = doRequest(t, srv, http.MethodGet, "/v1/students", token, nil)
	list := decode[listBody[school.Student]](t, data)
	found := false
	for _, s := range list.Items {
		if s.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created student %s missing from list", created.ID)
	}
}

func TestCrossTenantDeleteLeavesTargetIntact(t *testing.T) {
	srv, store := newTestServer(t)
	orgA := seedOrg(t, store, "aspen")
	orgB := seedOrg(t, store, "basil")
	student := seedStudent(t, store, orgA.ID, "Noor")
	adminA := seedStaff(t, store, orgA.ID, "a@aspen.example", []string{"admin"})
	adminB := seedStaff(t, store, orgB.ID, "a@basil.example", []string{"admin"})

	tokenB := mintToken(t, adminB.ID, orgB.ID, adminB.Roles, "admin")
	resp, _ := doRequest(t, srv, http.MethodDelete, "/v1/students/"+student.ID, tokenB, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-tenant delete: status %d, want 404", resp.StatusCode)
	}

	tokenA := mintToken(t, adminA.ID, orgA.ID, adminA.Roles, "admin")
	resp, data := doRequest(t, srv, http.MethodGet, "/v1/students/"+student.ID, tokenA, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("target after failed delete: status %d body %s, want 200", resp.StatusCode, data)
	}
}

func TestGuardianSeesOnlyOwnWards(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "fern")
	ward := seedStudent(t, store, org.ID, "Ivy")
	other := seedStudent(t, store, org.ID, "Max")
	guardian, err := store.CreateGuardian(context.Background(), school.Guardian{
		OrganizationID: org.ID,
		Email:          "g@fern.example",
		FullName:       "Pat Guardian",
	}, "x")
	if err != nil {
		t.Fatalf("seed guardian: %v", err)
	}
	if _, err := store.LinkGuardian(context.Background(), guardian.ID, ward.ID, "parent"); err != nil {
		t.Fatalf("link ward: %v", err)
	}

	token := mintToken(t, guardian.ID, org.ID, []string{"guardian"}, "guardian")

	_, data := doRequest(t, srv, http.MethodGet, "/v1/students", token, nil)
	list := decode[listBody[school.Student]](t, data)
	if len(list.Items) != 1 || list.Items[0].ID != ward.ID {
		t.Fatalf("guardian list = %+v, want only ward %s", list.Items, ward.ID)
	}
	// Sensitive student fields stay redacted for guardians.
	if list.Items[0].MedicalNotes != "" || list.Items[0].NationalID != "" {
		t.Fatalf("sensitive fields leaked to guardian: %+v", list.Items[0])
	}

	resp, _ := doRequest(t, srv, http.MethodGet, "/v1/students/"+other.ID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("non-ward read: status %d, want 404", resp.StatusCode)
	}
}
