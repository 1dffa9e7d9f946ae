// Package policy is the single decision point for role and tenant checks.
// Every protected endpoint consults the same declarative table instead of
// repeating inline role comparisons, so allow-lists cannot drift between
// handlers.
package policy

import (
	"strings"

	"schoolyard.org/internal/auth"
	"schoolyard.org/internal/school"
)

// Role is one of a fixed, closed set.
type Role string

const (
	RoleAdmin     Role = "admin"
	RolePrincipal Role = "principal"
	RoleTeacher   Role = "teacher"
	RoleGuardian  Role = "guardian"
)

// Hierarchy orders roles by privilege, most privileged first. It is used
// only to pick a fallback landing role at login; authorization decisions
// are allow-list based, never hierarchy based.
var Hierarchy = []Role{RoleAdmin, RolePrincipal, RoleTeacher, RoleGuardian}

// Resource names a protected resource family.
type Resource string

const (
	ResourceOrganizations Resource = "organizations"
	ResourceStaff         Resource = "staff"
	ResourceStudents      Resource = "students"
	ResourceGuardians     Resource = "guardians"
	ResourceGuardianship  Resource = "guardianship"
	ResourceAttendance    Resource = "attendance"
	ResourceThreads       Resource = "threads"
	ResourceMenus         Resource = "menus"
	ResourcePhotos        Resource = "photos"
	ResourceAnnouncements Resource = "announcements"
)

// Op names an operation on a resource family.
type Op string

const (
	OpList   Op = "list"
	OpRead   Op = "read"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Rule declares who may perform an operation and how the result is scoped.
type Rule struct {
	Allowed map[Role]bool
	// OrgScoped rules require the target's organization id to equal the
	// principal's; the check runs after the fetch so a cross-tenant hit
	// stays distinguishable from a miss internally.
	OrgScoped bool
	// RedactFor lists roles whose responses omit sensitive fields.
	RedactFor map[Role]bool
}

func roles(rs ...Role) map[Role]bool {
	m := make(map[Role]bool, len(rs))
	for _, r := range rs {
		m[r] = true
	}
	return m
}

var (
	allRoles   = roles(RoleAdmin, RolePrincipal, RoleTeacher, RoleGuardian)
	staffWrite = roles(RoleAdmin, RolePrincipal)
	narrow     = roles(RoleTeacher, RoleGuardian)
)

type key struct {
	Resource Resource
	Op       Op
}

// The table deliberately grants broader read access than write access:
// teachers and guardians need the staff directory for messaging, but only
// admin and principal manage records.
var table = map[key]Rule{
	// Organizations are platform-level: only admins manage tenants.
	{ResourceOrganizations, OpCreate}: {Allowed: roles(RoleAdmin)},
	{ResourceOrganizations, OpList}:   {Allowed: roles(RoleAdmin)},
	{ResourceOrganizations, OpRead}:   {Allowed: allRoles, OrgScoped: true},
	{ResourceOrganizations, OpUpdate}: {Allowed: roles(RoleAdmin), OrgScoped: true},

	{ResourceStaff, OpList}:   {Allowed: allRoles, RedactFor: narrow},
	{ResourceStaff, OpRead}:   {Allowed: allRoles, OrgScoped: true, RedactFor: narrow},
	{ResourceStaff, OpCreate}: {Allowed: staffWrite},
	{ResourceStaff, OpUpdate}: {Allowed: staffWrite, OrgScoped: true},
	{ResourceStaff, OpDelete}: {Allowed: staffWrite, OrgScoped: true},

	{ResourceStudents, OpList}:   {Allowed: roles(RoleAdmin, RolePrincipal, RoleTeacher, RoleGuardian), RedactFor: narrow},
	{ResourceStudents, OpRead}:   {Allowed: allRoles, OrgScoped: true, RedactFor: narrow},
	{ResourceStudents, OpCreate}: {Allowed: staffWrite},
	{ResourceStudents, OpUpdate}: {Allowed: staffWrite, OrgScoped: true},
	{ResourceStudents, OpDelete}: {Allowed: staffWrite, OrgScoped: true},

	{ResourceGuardians, OpList}:   {Allowed: roles(RoleAdmin, RolePrincipal, RoleTeacher), RedactFor: narrow},
	{ResourceGuardians, OpRead}:   {Allowed: allRoles, OrgScoped: true, RedactFor: narrow},
	{ResourceGuardians, OpCreate}: {Allowed: staffWrite},
	{ResourceGuardians, OpUpdate}: {Allowed: staffWrite, OrgScoped: true},
	{ResourceGuardians, OpDelete}: {Allowed: staffWrite, OrgScoped: true},

	{ResourceGuardianship, OpCreate}: {Allowed: staffWrite, OrgScoped: true},
	{ResourceGuardianship, OpDelete}: {Allowed: staffWrite, OrgScoped: true},
	{ResourceGuardianship, OpList}:   {Allowed: allRoles, OrgScoped: true},

	{ResourceAttendance, OpCreate}: {Allowed: roles(RoleAdmin, RolePrincipal, RoleTeacher)},
	{ResourceAttendance, OpList}:   {Allowed: allRoles},

	{ResourceThreads, OpCreate}: {Allowed: allRoles},
	{ResourceThreads, OpList}:   {Allowed: allRoles},
	{ResourceThreads, OpRead}:   {Allowed: allRoles, OrgScoped: true},
	{ResourceThreads, OpUpdate}: {Allowed: allRoles, OrgScoped: true}, // post / mark read
	{ResourceThreads, OpDelete}: {Allowed: staffWrite, OrgScoped: true},

	{ResourceMenus, OpList}:   {Allowed: allRoles},
	{ResourceMenus, OpRead}:   {Allowed: allRoles, OrgScoped: true},
	{ResourceMenus, OpCreate}: {Allowed: staffWrite},
	{ResourceMenus, OpUpdate}: {Allowed: staffWrite, OrgScoped: true},
	{ResourceMenus, OpDelete}: {Allowed: staffWrite, OrgScoped: true},

	{ResourcePhotos, OpList}:   {Allowed: allRoles},
	{ResourcePhotos, OpRead}:   {Allowed: allRoles, OrgScoped: true},
	{ResourcePhotos, OpCreate}: {Allowed: roles(RoleAdmin, RolePrincipal, RoleTeacher)},
	{ResourcePhotos, OpDelete}: {Allowed: roles(RoleAdmin, RolePrincipal, RoleTeacher), OrgScoped: true},

	{ResourceAnnouncements, OpList}:   {Allowed: allRoles},
	{ResourceAnnouncements, OpRead}:   {Allowed: allRoles, OrgScoped: true},
	{ResourceAnnouncements, OpCreate}: {Allowed: staffWrite},
	{ResourceAnnouncements, OpUpdate}: {Allowed: staffWrite, OrgScoped: true},
	{ResourceAnnouncements, OpDelete}: {Allowed: staffWrite, OrgScoped: true},
}

// Lookup returns the declared rule for an operation.
func Lookup(resource Resource, op Op) (Rule, bool) {
	rule, ok := table[key{resource, op}]
	return rule, ok
}

// Authorize checks the principal's ACTIVE role against the declared
// allow-list. Holding an allowed role that is not currently active does
// not grant access. Undeclared operations are denied outright.
func Authorize(p auth.Principal, resource Resource, op Op) (Rule, error) {
	if p.UserID == "" {
		return Rule{}, school.ErrUnauthenticated
	}
	if len(p.Roles) == 0 {
		return Rule{}, school.ErrForbidden
	}
	rule, ok := Lookup(resource, op)
	if !ok {
		return Rule{}, school.ErrForbidden
	}
	if !rule.Allowed[Role(p.ActiveRole)] {
		return rule, school.ErrForbidden
	}
	return rule, nil
}

// CheckOrgScope compares the target's organization against the
// principal's after the target has been fetched by primary key.
func CheckOrgScope(p auth.Principal, resourceOrgID string) error {
	if resourceOrgID == "" || p.OrganizationID == "" {
		return school.ErrCrossTenant
	}
	if resourceOrgID != p.OrganizationID {
		return school.ErrCrossTenant
	}
	return nil
}

// Redact reports whether responses for this rule must omit sensitive
// fields for the given active role.
func (r Rule) Redact(activeRole string) bool {
	return r.RedactFor[Role(activeRole)]
}

// FallbackRole picks the most privileged held role, used only to choose a
// landing context at login when the client did not ask for one.
func FallbackRole(held []string) Role {
	set := make(map[Role]bool, len(held))
	for _, r := range held {
		set[Role(strings.TrimSpace(strings.ToLower(r)))] = true
	}
	for _, r := range Hierarchy {
		if set[r] {
			return r
		}
	}
	return RoleGuardian
}

// Known reports whether the role is in the closed set.
func Known(role string) bool {
	switch Role(strings.TrimSpace(strings.ToLower(role))) {
	case RoleAdmin, RolePrincipal, RoleTeacher, RoleGuardian:
		return true
	}
	return false
}
