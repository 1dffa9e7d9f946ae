package school

import (
	"context"
	"errors"
	"strings"

	"schoolyard.org/internal/ids"
)

// AttendanceService validates attendance marks and listing filters.
type AttendanceService struct {
	store AttendanceStore
}

func NewAttendanceService(store AttendanceStore) (*AttendanceService, error) {
	if store == nil {
		return nil, errors.New("attendance store is required")
	}
	return &AttendanceService{store: store}, nil
}

type MarkAttendanceInput struct {
	OrganizationID string
	StudentID      string
	Date           string
	Status         string
	Note           string
	RecordedBy     string
}

func (s *AttendanceService) Mark(ctx context.Context, in MarkAttendanceInput) (AttendanceRecord, error) {
	var fields []FieldError
	in.StudentID = strings.TrimSpace(in.StudentID)
	if !ids.Valid(in.StudentID) {
		fields = append(fields, FieldError{Field: "student_id", Message: "must be a valid identifier"})
	}
	in.Date = strings.TrimSpace(in.Date)
	if !validDate(in.Date) {
		fields = append(fields, FieldError{Field: "date", Message: "must be YYYY-MM-DD"})
	}
	in.Status = strings.TrimSpace(strings.ToLower(in.Status))
	if !validAttendanceStatus(in.Status) {
		fields = append(fields, FieldError{Field: "status", Message: "must be one of present, absent, late, excused"})
	}
	if len(fields) > 0 {
		return AttendanceRecord{}, &ValidationError{Fields: fields}
	}
	return s.store.MarkAttendance(ctx, AttendanceRecord{
		OrganizationID: in.OrganizationID,
		StudentID:      in.StudentID,
		Date:           in.Date,
		Status:         in.Status,
		Note:           strings.TrimSpace(in.Note),
		RecordedBy:     in.RecordedBy,
	})
}

func (s *AttendanceService) List(ctx context.Context, orgID string, f AttendanceFilter, p Page) ([]AttendanceRecord, int, error) {
	f.StudentID = strings.TrimSpace(f.StudentID)
	if f.StudentID != "" && !ids.Valid(f.StudentID) {
		return nil, 0, Invalid("student_id", "must be a valid identifier")
	}
	f.From = strings.TrimSpace(f.From)
	if f.From != "" && !validDate(f.From) {
		return nil, 0, Invalid("from", "must be YYYY-MM-DD")
	}
	f.To = strings.TrimSpace(f.To)
	if f.To != "" && !validDate(f.To) {
		return nil, 0, Invalid("to", "must be YYYY-MM-DD")
	}
	return s.store.ListAttendance(ctx, orgID, f, p)
}
