package school

import (
	"context"
	"errors"
	"testing"
)

func newDirectory(t *testing.T) (*DirectoryService, *InMemory, string) {
	t.Helper()
	store := NewInMemory()
	svc, err := NewDirectoryService(store)
	if err != nil {
		t.Fatalf("new directory service: %v", err)
	}
	org, err := store.CreateOrganization(context.Background(), Organization{
		Name: "Test School", Slug: "test-school", Timezone: "UTC", Active: true,
	})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	return svc, store, org.ID
}

func TestCreateStaffValidation(t *testing.T) {
	svc, _, orgID := newDirectory(t)
	ctx := context.Background()

	_, err := svc.CreateStaff(ctx, CreateStaffInput{
		OrganizationID:  orgID,
		Email:           "not-an-email",
		FullName:        "",
		Roles:           []string{"janitor"},
		InitialPassword: "",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	got := make(map[string]bool, len(verr.Fields))
	for _, f := range verr.Fields {
		got[f.Field] = true
	}
	for _, field := range []string{"email", "full_name", "roles", "initial_password"} {
		if !got[field] {
			t.Errorf("missing field error for %q in %v", field, verr.Fields)
		}
	}
}

func TestCreateStaffNormalizesRoles(t *testing.T) {
	svc, _, orgID := newDirectory(t)
	staff, err := svc.CreateStaff(context.Background(), CreateStaffInput{
		OrganizationID:  orgID,
		Email:           "Jane.Doe@Example.COM",
		FullName:        "Jane Doe",
		Roles:           []string{"Teacher", "teacher", " ADMIN "},
		InitialPassword: "initial-secret",
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if staff.Email != "jane.doe@example.com" {
		t.Fatalf("email not lowercased: %q", staff.Email)
	}
	if len(staff.Roles) != 2 || staff.Roles[0] != "teacher" || staff.Roles[1] != "admin" {
		t.Fatalf("roles not normalized: %v", staff.Roles)
	}
	if !staff.MustChangePassword {
		t.Fatal("provisioned accounts must start with must_change_password")
	}
}

func TestCreateStaffDuplicateEmail(t *testing.T) {
	svc, _, orgID := newDirectory(t)
	ctx := context.Background()
	in := CreateStaffInput{
		OrganizationID:  orgID,
		Email:           "dup@example.com",
		FullName:        "First",
		Roles:           []string{"teacher"},
		InitialPassword: "initial-secret",
	}
	if _, err := svc.CreateStaff(ctx, in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	in.FullName = "Second"
	if _, err := svc.CreateStaff(ctx, in); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: got %v, want ErrConflict", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, orgID := newDirectory(t)
	ctx := context.Background()
	staff, err := svc.CreateStaff(ctx, CreateStaffInput{
		OrganizationID:  orgID,
		Email:           "login@example.com",
		FullName:        "Login Tester",
		Roles:           []string{"principal"},
		InitialPassword: "correct horse",
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}

	account, err := svc.Login(ctx, "LOGIN@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if account.UserID != staff.ID || account.OrganizationID != orgID {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := svc.Login(ctx, "login@example.com", "wrong"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("wrong password: got %v, want ErrUnauthenticated", err)
	}
	// An unknown email answers identically to a bad password.
	if _, err := svc.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("unknown email: got %v, want ErrUnauthenticated", err)
	}
}

func TestUpdateStaffPasswordClearsMustChange(t *testing.T) {
	svc, _, orgID := newDirectory(t)
	ctx := context.Background()
	staff, err := svc.CreateStaff(ctx, CreateStaffInput{
		OrganizationID:  orgID,
		Email:           "rotate@example.com",
		FullName:        "Rotator",
		Roles:           []string{"teacher"},
		InitialPassword: "temp-secret",
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	pw := "my-new-password"
	updated, err := svc.UpdateStaff(ctx, staff.ID, StaffUpdate{Password: &pw})
	if err != nil {
		t.Fatalf("update password: %v", err)
	}
	if updated.MustChangePassword {
		t.Fatal("password rotation must clear must_change_password")
	}
	if _, err := svc.Login(ctx, staff.Email, pw); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, staff.Email, "temp-secret"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("old password still accepted: %v", err)
	}
}

func TestGuardianshipLinkLifecycle(t *testing.T) {
	svc, store, orgID := newDirectory(t)
	ctx := context.Background()

	guardian, err := svc.CreateGuardian(ctx, CreateGuardianInput{
		OrganizationID:  orgID,
		Email:           "parent@example.com",
		FullName:        "Parent One",
		InitialPassword: "initial-secret",
	})
	if err != nil {
		t.Fatalf("create guardian: %v", err)
	}
	student, err := svc.CreateStudent(ctx, CreateStudentInput{
		OrganizationID: orgID,
		FullName:       "Kid One",
	})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}

	link, err := svc.LinkGuardian(ctx, guardian.ID, student.ID, "Mother")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if link.Relation != "mother" {
		t.Fatalf("relation not normalized: %q", link.Relation)
	}
	if _, err := svc.LinkGuardian(ctx, guardian.ID, student.ID, "mother"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate link: got %v, want ErrConflict", err)
	}

	ward, err := svc.IsWard(ctx, guardian.ID, student.ID)
	if err != nil || !ward {
		t.Fatalf("IsWard = %v, %v; want true", ward, err)
	}
	wards, err := svc.ListWards(ctx, guardian.ID)
	if err != nil || len(wards) != 1 || wards[0].ID != student.ID {
		t.Fatalf("ListWards = %v, %v", wards, err)
	}

	// A student from another tenant cannot be linked.
	otherOrg, err := store.CreateOrganization(ctx, Organization{Name: "Other", Slug: "other", Timezone: "UTC", Active: true})
	if err != nil {
		t.Fatalf("create other org: %v", err)
	}
	foreign, err := svc.CreateStudent(ctx, CreateStudentInput{OrganizationID: otherOrg.ID, FullName: "Foreign Kid"})
	if err != nil {
		t.Fatalf("create foreign student: %v", err)
	}
	if _, err := svc.LinkGuardian(ctx, guardian.ID, foreign.ID, "father"); !errors.Is(err, ErrCrossTenant) {
		t.Fatalf("cross-tenant link: got %v, want ErrCrossTenant", err)
	}

	if err := svc.UnlinkGuardian(ctx, guardian.ID, student.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if err := svc.UnlinkGuardian(ctx, guardian.ID, student.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second unlink: got %v, want ErrNotFound", err)
	}
}

func TestSoftDeleteStudentIsTerminal(t *testing.T) {
	svc, _, orgID := newDirectory(t)
	ctx := context.Background()
	student, err := svc.CreateStudent(ctx, CreateStudentInput{OrganizationID: orgID, FullName: "Gone Soon"})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	if err := svc.DeleteStudent(ctx, student.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetStudent(ctx, student.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
	if err := svc.DeleteStudent(ctx, student.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestStudentDateOfBirthValidation(t *testing.T) {
	svc, _, orgID := newDirectory(t)
	_, err := svc.CreateStudent(context.Background(), CreateStudentInput{
		OrganizationID: orgID,
		FullName:       "Bad Date",
		DateOfBirth:    "31-12-2019",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("malformed date: got %v, want validation error", err)
	}
}
