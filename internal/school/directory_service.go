package school

import (
	"context"
	"errors"
	"strings"

	"schoolyard.org/internal/auth"
	"schoolyard.org/internal/ids"
)

// DirectoryService validates staff, student and guardian operations. The
// organization id on created records always comes from the resolved
// session, never from a client-supplied field.
type DirectoryService struct {
	store DirectoryStore
}

func NewDirectoryService(store DirectoryStore) (*DirectoryService, error) {
	if store == nil {
		return nil, errors.New("directory store is required")
	}
	return &DirectoryService{store: store}, nil
}

// Staff account roles a staff member may hold.
var staffRoles = map[string]bool{
	"admin":     true,
	"principal": true,
	"teacher":   true,
}

type CreateStaffInput struct {
	OrganizationID  string
	Email           string
	FullName        string
	Title           string
	Roles           []string
	NationalID      string
	Phone           string
	HomeAddress     string
	InitialPassword string
}

func (s *DirectoryService) CreateStaff(ctx context.Context, in CreateStaffInput) (StaffMember, error) {
	var fields []FieldError
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if !validEmail(in.Email) {
		fields = append(fields, FieldError{Field: "email", Message: "must be a valid email"})
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		fields = append(fields, FieldError{Field: "full_name", Message: "is required"})
	}
	roles := normalizeRoles(in.Roles)
	if len(roles) == 0 {
		fields = append(fields, FieldError{Field: "roles", Message: "at least one role is required"})
	}
	for _, role := range roles {
		if !staffRoles[role] {
			fields = append(fields, FieldError{Field: "roles", Message: "unsupported role " + role})
			break
		}
	}
	if strings.TrimSpace(in.InitialPassword) == "" {
		fields = append(fields, FieldError{Field: "initial_password", Message: "is required"})
	}
	if len(fields) > 0 {
		return StaffMember{}, &ValidationError{Fields: fields}
	}
	hash, err := auth.HashPassword(strings.TrimSpace(in.InitialPassword))
	if err != nil {
		return StaffMember{}, err
	}
	return s.store.CreateStaff(ctx, StaffMember{
		OrganizationID: in.OrganizationID,
		Email:          in.Email,
		FullName:       in.FullName,
		Title:          strings.TrimSpace(in.Title),
		Roles:          roles,
		NationalID:     strings.TrimSpace(in.NationalID),
		Phone:          strings.TrimSpace(in.Phone),
		HomeAddress:    strings.TrimSpace(in.HomeAddress),
		// Admin-provisioned accounts start on a shared initial secret and
		// must rotate it at first login.
		MustChangePassword: true,
	}, hash)
}

func (s *DirectoryService) ListStaff(ctx context.Context, orgID string, p Page) ([]StaffMember, int, error) {
	return s.store.ListStaff(ctx, orgID, p)
}

func (s *DirectoryService) GetStaff(ctx context.Context, id string) (StaffMember, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return StaffMember{}, Invalid("id", "must be a valid identifier")
	}
	return s.store.GetStaff(ctx, strings.TrimSpace(id))
}

func (s *DirectoryService) UpdateStaff(ctx context.Context, id string, upd StaffUpdate) (StaffMember, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return StaffMember{}, Invalid("id", "must be a valid identifier")
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if !validEmail(email) {
			return StaffMember{}, Invalid("email", "must be a valid email")
		}
		upd.Email = &email
	}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return StaffMember{}, Invalid("full_name", "is required")
		}
		upd.FullName = &name
	}
	if upd.Roles != nil {
		roles := normalizeRoles(upd.Roles)
		if len(roles) == 0 {
			return StaffMember{}, Invalid("roles", "at least one role is required")
		}
		for _, role := range roles {
			if !staffRoles[role] {
				return StaffMember{}, Invalid("roles", "unsupported role "+role)
			}
		}
		upd.Roles = roles
	}
	if upd.Password != nil {
		pw := strings.TrimSpace(*upd.Password)
		if pw == "" {
			return StaffMember{}, Invalid("password", "is required")
		}
		hash, err := auth.HashPassword(pw)
		if err != nil {
			return StaffMember{}, err
		}
		upd.Password = &hash
	}
	return s.store.UpdateStaff(ctx, strings.TrimSpace(id), upd)
}

func (s *DirectoryService) DeleteStaff(ctx context.Context, id string) error {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Invalid("id", "must be a valid identifier")
	}
	return s.store.SoftDeleteStaff(ctx, strings.TrimSpace(id))
}

type CreateStudentInput struct {
	OrganizationID string
	FullName       string
	ClassName      string
	DateOfBirth    string
	NationalID     string
	HomeAddress    string
	MedicalNotes   string
}

func (s *DirectoryService) CreateStudent(ctx context.Context, in CreateStudentInput) (Student, error) {
	var fields []FieldError
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		fields = append(fields, FieldError{Field: "full_name", Message: "is required"})
	}
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
	if in.DateOfBirth != "" && !validDate(in.DateOfBirth) {
		fields = append(fields, FieldError{Field: "date_of_birth", Message: "must be YYYY-MM-DD"})
	}
	if len(fields) > 0 {
		return Student{}, &ValidationError{Fields: fields}
	}
	return s.store.CreateStudent(ctx, Student{
		OrganizationID: in.OrganizationID,
		FullName:       in.FullName,
		ClassName:      strings.TrimSpace(in.ClassName),
		DateOfBirth:    in.DateOfBirth,
		NationalID:     strings.TrimSpace(in.NationalID),
		HomeAddress:    strings.TrimSpace(in.HomeAddress),
		MedicalNotes:   strings.TrimSpace(in.MedicalNotes),
	})
}

func (s *DirectoryService) ListStudents(ctx context.Context, orgID string, p Page) ([]Student, int, error) {
	return s.store.ListStudents(ctx, orgID, p)
}

func (s *DirectoryService) GetStudent(ctx context.Context, id string) (Student, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Student{}, Invalid("id", "must be a valid identifier")
	}
	return s.store.GetStudent(ctx, strings.TrimSpace(id))
}

func (s *DirectoryService) UpdateStudent(ctx context.Context, id string, upd StudentUpdate) (Student, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Student{}, Invalid("id", "must be a valid identifier")
	}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return Student{}, Invalid("full_name", "is required")
		}
		upd.FullName = &name
	}
	if upd.DateOfBirth != nil {
		dob := strings.TrimSpace(*upd.DateOfBirth)
		if dob != "" && !validDate(dob) {
			return Student{}, Invalid("date_of_birth", "must be YYYY-MM-DD")
		}
		upd.DateOfBirth = &dob
	}
	return s.store.UpdateStudent(ctx, strings.TrimSpace(id), upd)
}

func (s *DirectoryService) DeleteStudent(ctx context.Context, id string) error {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Invalid("id", "must be a valid identifier")
	}
	return s.store.SoftDeleteStudent(ctx, strings.TrimSpace(id))
}

type CreateGuardianInput struct {
	OrganizationID  string
	Email           string
	FullName        string
	Phone           string
	HomeAddress     string
	InitialPassword string
}

func (s *DirectoryService) CreateGuardian(ctx context.Context, in CreateGuardianInput) (Guardian, error) {
	var fields []FieldError
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if !validEmail(in.Email) {
		fields = append(fields, FieldError{Field: "email", Message: "must be a valid email"})
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		fields = append(fields, FieldError{Field: "full_name", Message: "is required"})
	}
	if strings.TrimSpace(in.InitialPassword) == "" {
		fields = append(fields, FieldError{Field: "initial_password", Message: "is required"})
	}
	if len(fields) > 0 {
		return Guardian{}, &ValidationError{Fields: fields}
	}
	hash, err := auth.HashPassword(strings.TrimSpace(in.InitialPassword))
	if err != nil {
		return Guardian{}, err
	}
	return s.store.CreateGuardian(ctx, Guardian{
		OrganizationID:     in.OrganizationID,
		Email:              in.Email,
		FullName:           in.FullName,
		Phone:              strings.TrimSpace(in.Phone),
		HomeAddress:        strings.TrimSpace(in.HomeAddress),
		MustChangePassword: true,
	}, hash)
}

func (s *DirectoryService) ListGuardians(ctx context.Context, orgID string, p Page) ([]Guardian, int, error) {
	return s.store.ListGuardians(ctx, orgID, p)
}

func (s *DirectoryService) GetGuardian(ctx context.Context, id string) (Guardian, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Guardian{}, Invalid("id", "must be a valid identifier")
	}
	return s.store.GetGuardian(ctx, strings.TrimSpace(id))
}

func (s *DirectoryService) UpdateGuardian(ctx context.Context, id string, upd GuardianUpdate) (Guardian, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Guardian{}, Invalid("id", "must be a valid identifier")
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if !validEmail(email) {
			return Guardian{}, Invalid("email", "must be a valid email")
		}
		upd.Email = &email
	}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return Guardian{}, Invalid("full_name", "is required")
		}
		upd.FullName = &name
	}
	if upd.Password != nil {
		pw := strings.TrimSpace(*upd.Password)
		if pw == "" {
			return Guardian{}, Invalid("password", "is required")
		}
		hash, err := auth.HashPassword(pw)
		if err != nil {
			return Guardian{}, err
		}
		upd.Password = &hash
	}
	return s.store.UpdateGuardian(ctx, strings.TrimSpace(id), upd)
}

func (s *DirectoryService) DeleteGuardian(ctx context.Context, id string) error {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Invalid("id", "must be a valid identifier")
	}
	return s.store.SoftDeleteGuardian(ctx, strings.TrimSpace(id))
}

func (s *DirectoryService) LinkGuardian(ctx context.Context, guardianID, studentID, relation string) (Guardianship, error) {
	guardianID = strings.TrimSpace(guardianID)
	studentID = strings.TrimSpace(studentID)
	if !ids.Valid(guardianID) {
		return Guardianship{}, Invalid("guardian_id", "must be a valid identifier")
	}
	if !ids.Valid(studentID) {
		return Guardianship{}, Invalid("student_id", "must be a valid identifier")
	}
	relation = strings.TrimSpace(strings.ToLower(relation))
	if relation == "" {
		relation = "guardian"
	}
	return s.store.LinkGuardian(ctx, guardianID, studentID, relation)
}

func (s *DirectoryService) UnlinkGuardian(ctx context.Context, guardianID, studentID string) error {
	guardianID = strings.TrimSpace(guardianID)
	studentID = strings.TrimSpace(studentID)
	if !ids.Valid(guardianID) || !ids.Valid(studentID) {
		return Invalid("id", "must be a valid identifier")
	}
	return s.store.UnlinkGuardian(ctx, guardianID, studentID)
}

func (s *DirectoryService) ListWards(ctx context.Context, guardianID string) ([]Student, error) {
	guardianID = strings.TrimSpace(guardianID)
	if !ids.Valid(guardianID) {
		return nil, Invalid("guardian_id", "must be a valid identifier")
	}
	return s.store.ListWards(ctx, guardianID)
}

func (s *DirectoryService) IsWard(ctx context.Context, guardianID, studentID string) (bool, error) {
	return s.store.IsWard(ctx, strings.TrimSpace(guardianID), strings.TrimSpace(studentID))
}

// Login resolves an account by email and verifies the password.
// It returns ErrUnauthenticated on any mismatch, without revealing
// whether the email exists.
func (s *DirectoryService) Login(ctx context.Context, email, password string) (Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validEmail(email) || strings.TrimSpace(password) == "" {
		return Account{}, ErrUnauthenticated
	}
	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, ErrUnauthenticated
		}
		return Account{}, err
	}
	if err := auth.VerifyPassword(account.PasswordHash, password); err != nil {
		return Account{}, ErrUnauthenticated
	}
	return account, nil
}

func normalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	var out []string
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}
