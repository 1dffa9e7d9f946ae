package pg

import (
	"context"
	"strconv"

	"schoolyard.org/internal/ids"
	"schoolyard.org/internal/school"
)

const attendanceColumns = `id, organization_id, student_id, date, status, note, recorded_by, created_at, updated_at`

// MarkAttendance upserts on (student, date): re-marking a day overwrites
// the status and note but keeps the original row id.
func (s *Store) MarkAttendance(ctx context.Context, rec school.AttendanceRecord) (school.AttendanceRecord, error) {
	id := ids.New()
	var out school.AttendanceRecord
	err := s.db.QueryRowContext(ctx, `
		insert into attendance (id, organization_id, student_id, date, status, note, recorded_by)
		values ($1, $2, $3, $4, $5, $6, $7)
		on conflict (student_id, date) do update
			set status = excluded.status,
			    note = excluded.note,
			    recorded_by = excluded.recorded_by,
			    updated_at = now()
		returning `+attendanceColumns+`
	`, id, rec.OrganizationID, rec.StudentID, rec.Date, rec.Status, rec.Note, rec.RecordedBy).
		Scan(&out.ID, &out.OrganizationID, &out.StudentID, &out.Date, &out.Status, &out.Note, &out.RecordedBy, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return school.AttendanceRecord{}, mapWriteError(err)
	}
	return out, nil
}

func (s *Store) ListAttendance(ctx context.Context, orgID string, f school.AttendanceFilter, p school.Page) ([]school.AttendanceRecord, int, error) {
	where := "organization_id = $1"
	args := []any{orgID}
	next := 2
	add := func(clause string, value any) {
		where += " and " + clause + " $" + strconv.Itoa(next)
		args = append(args, value)
		next++
	}
	if f.StudentID != "" {
		add("student_id =", f.StudentID)
	}
	if f.From != "" {
		add("date >=", f.From)
	}
	if f.To != "" {
		add("date <=", f.To)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from attendance where `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.Size, p.Offset())
	rows, err := s.db.QueryContext(ctx, `
		select `+attendanceColumns+`
		from attendance
		where `+where+`
		order by date desc, student_id
		limit $`+strconv.Itoa(next)+` offset $`+strconv.Itoa(next+1)+`
	`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.AttendanceRecord
	for rows.Next() {
		var rec school.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.StudentID, &rec.Date, &rec.Status, &rec.Note, &rec.RecordedBy, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}
