package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"schoolyard.org/internal/school"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{db: db}, mock
}

func TestMapWriteError(t *testing.T) {
	unique := &pgconn.PgError{Code: pgErrUniqueViolation}
	if got := mapWriteError(unique); !errors.Is(got, school.ErrConflict) {
		t.Fatalf("unique violation: got %v, want ErrConflict", got)
	}
	fk := &pgconn.PgError{Code: pgErrForeignKeyViolation}
	if got := mapWriteError(fk); !errors.Is(got, school.ErrNotFound) {
		t.Fatalf("fk violation: got %v, want ErrNotFound", got)
	}
	other := errors.New("connection reset")
	if got := mapWriteError(other); got != other {
		t.Fatalf("unrelated error must pass through, got %v", got)
	}
	if got := mapWriteError(nil); got != nil {
		t.Fatalf("nil must stay nil, got %v", got)
	}
}

func TestGetStaffNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("select .* from staff").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetStaff(context.Background(), "missing")
	if !errors.Is(err, school.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSoftDeleteAlreadyDeleted(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("update students set deleted_at = now").WithArgs("st-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.SoftDeleteStudent(context.Background(), "st-1"); !errors.Is(err, school.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostMessageTransaction(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("select exists").WithArgs("th-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("insert into thread_messages").
		WithArgs(sqlmock.AnyArg(), "th-1", "user-1", "hello").
		WillReturnRows(sqlmock.NewRows([]string{"id", "thread_id", "sender_id", "body", "created_at"}).
			AddRow("msg-1", "th-1", "user-1", "hello", now))
	mock.ExpectExec("update thread_participants set unread = true").
		WithArgs("th-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("update threads set updated_at = now").
		WithArgs("th-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg, err := s.PostMessage(context.Background(), "th-1", "user-1", "hello")
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if msg.ID != "msg-1" || msg.Body != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostMessageNonParticipant(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select exists").WithArgs("th-1", "outsider").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("select exists").WithArgs("th-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := s.PostMessage(context.Background(), "th-1", "outsider", "hi")
	if !errors.Is(err, school.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostMessageDeletedThread(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select exists").WithArgs("th-gone", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("select exists").WithArgs("th-gone").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := s.PostMessage(context.Background(), "th-gone", "user-1", "hi")
	if !errors.Is(err, school.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListAttendanceFilters(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("select count").
		WithArgs("org-1", "st-1", "2026-03-01", "2026-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("select .* from attendance").
		WithArgs("org-1", "st-1", "2026-03-01", "2026-03-31", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "student_id", "date", "status", "note", "recorded_by", "created_at", "updated_at",
		}).AddRow("att-1", "org-1", "st-1", "2026-03-10", school.AttendancePresent, "", "staff-1", now, now))

	recs, total, err := s.ListAttendance(context.Background(), "org-1", school.AttendanceFilter{
		StudentID: "st-1", From: "2026-03-01", To: "2026-03-31",
	}, school.Page{Number: 1, Size: 20})
	if err != nil {
		t.Fatalf("ListAttendance: %v", err)
	}
	if total != 1 || len(recs) != 1 || recs[0].Status != school.AttendancePresent {
		t.Fatalf("unexpected result: total=%d recs=%+v", total, recs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
