package school

import "time"

// Organization is the tenant boundary. Every other record carries exactly
// one organization id, assigned at creation and immutable thereafter.
// Organizations are deactivated, never hard-deleted while referenced.
type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Timezone     string    `json:"timezone"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StaffMember is an employee of an organization. NationalID, Phone and
// HomeAddress are sensitive: they are omitted server-side for narrower
// roles, never filtered client-side.
type StaffMember struct {
	ID                 string     `json:"id"`
	OrganizationID     string     `json:"organization_id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name"`
	Title              string     `json:"title,omitempty"`
	Roles              []string   `json:"roles"`
	NationalID         string     `json:"national_id,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	HomeAddress        string     `json:"home_address,omitempty"`
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// Redacted returns a copy without sensitive fields.
func (s StaffMember) Redacted() StaffMember {
	s.NationalID = ""
	s.Phone = ""
	s.HomeAddress = ""
	return s
}

// Student is an enrolled child.
type Student struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	FullName       string     `json:"full_name"`
	ClassName      string     `json:"class_name,omitempty"`
	DateOfBirth    string     `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	NationalID     string     `json:"national_id,omitempty"`
	HomeAddress    string     `json:"home_address,omitempty"`
	MedicalNotes   string     `json:"medical_notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Redacted returns a copy without sensitive fields.
func (s Student) Redacted() Student {
	s.NationalID = ""
	s.HomeAddress = ""
	s.MedicalNotes = ""
	return s
}

// Guardian is a parent or legal guardian with an account.
type Guardian struct {
	ID                 string     `json:"id"`
	OrganizationID     string     `json:"organization_id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name"`
	Phone              string     `json:"phone,omitempty"`
	HomeAddress        string     `json:"home_address,omitempty"`
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// Redacted returns a copy without sensitive fields.
func (g Guardian) Redacted() Guardian {
	g.Phone = ""
	g.HomeAddress = ""
	return g
}

// Guardianship links a guardian to a student (a "ward").
type Guardianship struct {
	GuardianID string    `json:"guardian_id"`
	StudentID  string    `json:"student_id"`
	Relation   string    `json:"relation"`
	CreatedAt  time.Time `json:"created_at"`
}

// Attendance statuses form a closed set.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// AttendanceRecord marks one student on one day. One record per
// (student, date); re-marking overwrites the status.
type AttendanceRecord struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	StudentID      string    `json:"student_id"`
	Date           string    `json:"date"` // YYYY-MM-DD
	Status         string    `json:"status"`
	Note           string    `json:"note,omitempty"`
	RecordedBy     string    `json:"recorded_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Thread is a message thread between principals of one organization.
// Only listed participants may read or post.
type Thread struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Subject        string     `json:"subject"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// ThreadParticipant carries an independent unread flag per member.
type ThreadParticipant struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	Unread   bool   `json:"unread"`
}

// ThreadMessage is one item inside a thread.
type ThreadMessage struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxMessageBody bounds a single message body.
const MaxMessageBody = 4000

// Meal slots form a closed set.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealSnack     = "snack"
)

// Menu describes one meal served on one day.
type Menu struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	ServedOn       string     `json:"served_on"` // YYYY-MM-DD
	Meal           string     `json:"meal"`
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Photo is a metadata record; the binary lives in external object storage
// under ObjectKey.
type Photo struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Caption        string     `json:"caption,omitempty"`
	ObjectKey      string     `json:"object_key"`
	ClassName      string     `json:"class_name,omitempty"`
	UploadedBy     string     `json:"uploaded_by"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Announcement is an organization-wide post.
type Announcement struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Account is the login view of a staff member or guardian. It is derived,
// never persisted as its own record.
type Account struct {
	UserID             string
	OrganizationID     string
	Email              string
	PasswordHash       string
	Roles              []string
	MustChangePassword bool
}
