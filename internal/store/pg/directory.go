package pg

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"schoolyard.org/internal/ids"
	"schoolyard.org/internal/school"
)

const staffColumns = `id, organization_id, email, full_name, title, roles, national_id, phone, home_address, must_change_password, created_at, updated_at`

func scanStaff(scan func(dest ...any) error) (school.StaffMember, error) {
	var (
		st                        school.StaffMember
		title, natID, phone, addr sql.NullString
		roles                     string
	)
	err := scan(&st.ID, &st.OrganizationID, &st.Email, &st.FullName, &title, &roles, &natID, &phone, &addr, &st.MustChangePassword, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return school.StaffMember{}, err
	}
	st.Title = fromNull(title)
	st.NationalID = fromNull(natID)
	st.Phone = fromNull(phone)
	st.HomeAddress = fromNull(addr)
	if roles != "" {
		st.Roles = strings.Split(roles, ",")
	}
	return st, nil
}

func (s *Store) CreateStaff(ctx context.Context, staff school.StaffMember, passwordHash string) (school.StaffMember, error) {
	id := ids.New()
	row := s.db.QueryRowContext(ctx, `
		insert into staff (id, organization_id, email, full_name, title, roles, national_id, phone, home_address, password_hash, must_change_password)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		returning `+staffColumns+`
	`, id, staff.OrganizationID, staff.Email, staff.FullName, nullable(staff.Title), strings.Join(staff.Roles, ","),
		nullable(staff.NationalID), nullable(staff.Phone), nullable(staff.HomeAddress), passwordHash, staff.MustChangePassword)
	out, err := scanStaff(row.Scan)
	if err != nil {
		return school.StaffMember{}, mapWriteError(err)
	}
	return out, nil
}

func (s *Store) ListStaff(ctx context.Context, orgID string, p school.Page) ([]school.StaffMember, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		select count(*) from staff where organization_id = $1 and deleted_at is null
	`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+staffColumns+`
		from staff
		where organization_id = $1 and deleted_at is null
		order by full_name
		limit $2 offset $3
	`, orgID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.StaffMember
	for rows.Next() {
		st, err := scanStaff(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) GetStaff(ctx context.Context, id string) (school.StaffMember, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+staffColumns+` from staff where id = $1 and deleted_at is null
	`, id)
	st, err := scanStaff(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return school.StaffMember{}, school.ErrNotFound
	}
	if err != nil {
		return school.StaffMember{}, err
	}
	return st, nil
}

func (s *Store) UpdateStaff(ctx context.Context, id string, upd school.StaffUpdate) (school.StaffMember, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	next := 2
	add := func(column string, value any) {
		sets = append(sets, column+" = $"+strconv.Itoa(next))
		args = append(args, value)
		next++
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.Title != nil {
		add("title", nullable(*upd.Title))
	}
	if upd.Roles != nil {
		add("roles", strings.Join(upd.Roles, ","))
	}
	if upd.NationalID != nil {
		add("national_id", nullable(*upd.NationalID))
	}
	if upd.Phone != nil {
		add("phone", nullable(*upd.Phone))
	}
	if upd.HomeAddress != nil {
		add("home_address", nullable(*upd.HomeAddress))
	}
	if upd.Password != nil {
		add("password_hash", *upd.Password)
		add("must_change_password", false)
	}
	row := s.db.QueryRowContext(ctx, `
		update staff set `+strings.Join(sets, ", ")+`
		where id = $1 and deleted_at is null
		returning `+staffColumns+`
	`, args...)
	st, err := scanStaff(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return school.StaffMember{}, school.ErrNotFound
	}
	if err != nil {
		return school.StaffMember{}, mapWriteError(err)
	}
	return st, nil
}

func (s *Store) SoftDeleteStaff(ctx context.Context, id string) error {
	return s.softDelete(ctx, "staff", id)
}

// softDelete marks a live row deleted. Deleting an already-deleted row
// reports ErrNotFound, never a second success.
func (s *Store) softDelete(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update `+table+` set deleted_at = now() where id = $1 and deleted_at is null
	`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return school.ErrNotFound
	}
	return nil
}

const studentColumns = `id, organization_id, full_name, class_name, date_of_birth, national_id, home_address, medical_notes, created_at, updated_at`

func scanStudent(scan func(dest ...any) error) (school.Student, error) {
	var (
		st                              school.Student
		class, dob, natID, addr, notes sql.NullString
	)
	err := scan(&st.ID, &st.OrganizationID, &st.FullName, &class, &dob, &natID, &addr, &notes, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return school.Student{}, err
	}
	st.ClassName = fromNull(class)
	st.DateOfBirth = fromNull(dob)
	st.NationalID = fromNull(natID)
	st.HomeAddress = fromNull(addr)
	st.MedicalNotes = fromNull(notes)
	return st, nil
}

func (s *Store) CreateStudent(ctx context.Context, student school.Student) (school.Student, error) {
	id := ids.New()
	row := s.db.QueryRowContext(ctx, `
		insert into students (id, organization_id, full_name, class_name, date_of_birth, national_id, home_address, medical_notes)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning `+studentColumns+`
	`, id, student.OrganizationID, student.FullName, nullable(student.ClassName), nullable(student.DateOfBirth),
		nullable(student.NationalID), nullable(student.HomeAddress), nullable(student.MedicalNotes))
	out, err := scanStudent(row.Scan)
	if err != nil {
		return school.Student{}, mapWriteError(err)
	}
	return out, nil
}

func (s *Store) ListStudents(ctx context.Context, orgID string, p school.Page) ([]school.Student, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		select count(*) from students where organization_id = $1 and deleted_at is null
	`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+studentColumns+`
		from students
		where organization_id = $1 and deleted_at is null
		order by full_name
		limit $2 offset $3
	`, orgID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.Student
	for rows.Next() {
		st, err := scanStudent(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (school.Student, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+studentColumns+` from students where id = $1 and deleted_at is null
	`, id)
	st, err := scanStudent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Student{}, school.ErrNotFound
	}
	if err != nil {
		return school.Student{}, err
	}
	return st, nil
}

func (s *Store) UpdateStudent(ctx context.Context, id string, upd school.StudentUpdate) (school.Student, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	next := 2
	add := func(column string, value any) {
		sets = append(sets, column+" = $"+strconv.Itoa(next))
		args = append(args, value)
		next++
	}
	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.ClassName != nil {
		add("class_name", nullable(*upd.ClassName))
	}
	if upd.DateOfBirth != nil {
		add("date_of_birth", nullable(*upd.DateOfBirth))
	}
	if upd.NationalID != nil {
		add("national_id", nullable(*upd.NationalID))
	}
	if upd.HomeAddress != nil {
		add("home_address", nullable(*upd.HomeAddress))
	}
	if upd.MedicalNotes != nil {
		add("medical_notes", nullable(*upd.MedicalNotes))
	}
	row := s.db.QueryRowContext(ctx, `
		update students set `+strings.Join(sets, ", ")+`
		where id = $1 and deleted_at is null
		returning `+studentColumns+`
	`, args...)
	st, err := scanStudent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Student{}, school.ErrNotFound
	}
	if err != nil {
		return school.Student{}, mapWriteError(err)
	}
	return st, nil
}

func (s *Store) SoftDeleteStudent(ctx context.Context, id string) error {
	return s.softDelete(ctx, "students", id)
}

const guardianColumns = `id, organization_id, email, full_name, phone, home_address, must_change_password, created_at, updated_at`

func scanGuardian(scan func(dest ...any) error) (school.Guardian, error) {
	var (
		g           school.Guardian
		phone, addr sql.NullString
	)
	err := scan(&g.ID, &g.OrganizationID, &g.Email, &g.FullName, &phone, &addr, &g.MustChangePassword, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return school.Guardian{}, err
	}
	g.Phone = fromNull(phone)
	g.HomeAddress = fromNull(addr)
	return g, nil
}

func (s *Store) CreateGuardian(ctx context.Context, guardian school.Guardian, passwordHash string) (school.Guardian, error) {
	id := ids.New()
	row := s.db.QueryRowContext(ctx, `
		insert into guardians (id, organization_id, email, full_name, phone, home_address, password_hash, must_change_password)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning `+guardianColumns+`
	`, id, guardian.OrganizationID, guardian.Email, guardian.FullName, nullable(guardian.Phone), nullable(guardian.HomeAddress), passwordHash, guardian.MustChangePassword)
	out, err := scanGuardian(row.Scan)
	if err != nil {
		return school.Guardian{}, mapWriteError(err)
	}
	return out, nil
}

func (s *Store) ListGuardians(ctx context.Context, orgID string, p school.Page) ([]school.Guardian, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		select count(*) from guardians where organization_id = $1 and deleted_at is null
	`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+guardianColumns+`
		from guardians
		where organization_id = $1 and deleted_at is null
		order by full_name
		limit $2 offset $3
	`, orgID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.Guardian
	for rows.Next() {
		g, err := scanGuardian(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) GetGuardian(ctx context.Context, id string) (school.Guardian, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+guardianColumns+` from guardians where id = $1 and deleted_at is null
	`, id)
	g, err := scanGuardian(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Guardian{}, school.ErrNotFound
	}
	if err != nil {
		return school.Guardian{}, err
	}
	return g, nil
}

func (s *Store) UpdateGuardian(ctx context.Context, id string, upd school.GuardianUpdate) (school.Guardian, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	next := 2
	add := func(column string, value any) {
		sets = append(sets, column+" = $"+strconv.Itoa(next))
		args = append(args, value)
		next++
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.Phone != nil {
		add("phone", nullable(*upd.Phone))
	}
	if upd.HomeAddress != nil {
		add("home_address", nullable(*upd.HomeAddress))
	}
	if upd.Password != nil {
		add("password_hash", *upd.Password)
		add("must_change_password", false)
	}
	row := s.db.QueryRowContext(ctx, `
		update guardians set `+strings.Join(sets, ", ")+`
		where id = $1 and deleted_at is null
		returning `+guardianColumns+`
	`, args...)
	g, err := scanGuardian(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Guardian{}, school.ErrNotFound
	}
	if err != nil {
		return school.Guardian{}, mapWriteError(err)
	}
	return g, nil
}

func (s *Store) SoftDeleteGuardian(ctx context.Context, id string) error {
	return s.softDelete(ctx, "guardians", id)
}

func (s *Store) LinkGuardian(ctx context.Context, guardianID, studentID, relation string) (school.Guardianship, error) {
	// The org match between guardian and student is enforced in SQL so a
	// link can never span tenants.
	var link school.Guardianship
	err := s.db.QueryRowContext(ctx, `
		insert into guardianships (guardian_id, student_id, relation)
		select g.id, st.id, $3
		from guardians g
		join students st on st.id = $2 and st.deleted_at is null and st.organization_id = g.organization_id
		where g.id = $1 and g.deleted_at is null
		returning guardian_id, student_id, relation, created_at
	`, guardianID, studentID, relation).Scan(&link.GuardianID, &link.StudentID, &link.Relation, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Guardianship{}, school.ErrNotFound
	}
	if err != nil {
		return school.Guardianship{}, mapWriteError(err)
	}
	return link, nil
}

func (s *Store) UnlinkGuardian(ctx context.Context, guardianID, studentID string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from guardianships where guardian_id = $1 and student_id = $2
	`, guardianID, studentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return school.ErrNotFound
	}
	return nil
}

func (s *Store) ListWards(ctx context.Context, guardianID string) ([]school.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+prefixColumns("st", studentColumns)+`
		from guardianships gs
		join students st on st.id = gs.student_id and st.deleted_at is null
		where gs.guardian_id = $1
		order by st.full_name
	`, guardianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []school.Student
	for rows.Next() {
		st, err := scanStudent(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) IsWard(ctx context.Context, guardianID, studentID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		select exists(
			select 1 from guardianships gs
			join students st on st.id = gs.student_id and st.deleted_at is null
			where gs.guardian_id = $1 and gs.student_id = $2
		)
	`, guardianID, studentID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetAccountByEmail resolves a login across staff and guardians.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (school.Account, error) {
	var (
		acc   school.Account
		roles string
	)
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id, email, password_hash, roles, must_change_password
		from staff
		where email = $1 and deleted_at is null
	`, email).Scan(&acc.UserID, &acc.OrganizationID, &acc.Email, &acc.PasswordHash, &roles, &acc.MustChangePassword)
	if err == nil {
		if roles != "" {
			acc.Roles = strings.Split(roles, ",")
		}
		return acc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return school.Account{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		select id, organization_id, email, password_hash, must_change_password
		from guardians
		where email = $1 and deleted_at is null
	`, email).Scan(&acc.UserID, &acc.OrganizationID, &acc.Email, &acc.PasswordHash, &acc.MustChangePassword)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Account{}, school.ErrNotFound
	}
	if err != nil {
		return school.Account{}, err
	}
	acc.Roles = []string{"guardian"}
	return acc, nil
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, c := range parts {
		parts[i] = prefix + "." + c
	}
	return strings.Join(parts, ", ")
}
