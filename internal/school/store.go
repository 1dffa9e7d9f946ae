package school

import "context"

// Update structs use pointer fields: nil means "leave unchanged".

type OrganizationUpdate struct {
	Name         *string
	ContactEmail *string
	ContactPhone *string
	Timezone     *string
	Active       *bool
}

type StaffUpdate struct {
	Email       *string
	FullName    *string
	Title       *string
	Roles       []string
	NationalID  *string
	Phone       *string
	HomeAddress *string
	Password    *string // already hashed by the service
}

type StudentUpdate struct {
	FullName     *string
	ClassName    *string
	DateOfBirth  *string
	NationalID   *string
	HomeAddress  *string
	MedicalNotes *string
}

type GuardianUpdate struct {
	Email       *string
	FullName    *string
	Phone       *string
	HomeAddress *string
	Password    *string // already hashed by the service
}

type MenuUpdate struct {
	ServedOn    *string
	Meal        *string
	Description *string
}

type AnnouncementUpdate struct {
	Title *string
	Body  *string
}

// AttendanceFilter narrows attendance listings. Dates are YYYY-MM-DD;
// empty fields are ignored.
type AttendanceFilter struct {
	StudentID string
	From      string
	To        string
}

// OrganizationStore persists tenants. Get returns the row regardless of
// the caller's tenant: the scope check happens above the store, after the
// fetch, so a cross-tenant hit can be told apart from a miss internally.
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, org Organization) (Organization, error)
	ListOrganizations(ctx context.Context, p Page) ([]Organization, int, error)
	GetOrganization(ctx context.Context, id string) (Organization, error)
	UpdateOrganization(ctx context.Context, id string, upd OrganizationUpdate) (Organization, error)
}

// DirectoryStore persists staff, students, guardians and guardianship
// links, and resolves login accounts.
type DirectoryStore interface {
	CreateStaff(ctx context.Context, staff StaffMember, passwordHash string) (StaffMember, error)
	ListStaff(ctx context.Context, orgID string, p Page) ([]StaffMember, int, error)
	GetStaff(ctx context.Context, id string) (StaffMember, error)
	UpdateStaff(ctx context.Context, id string, upd StaffUpdate) (StaffMember, error)
	SoftDeleteStaff(ctx context.Context, id string) error

	CreateStudent(ctx context.Context, student Student) (Student, error)
	ListStudents(ctx context.Context, orgID string, p Page) ([]Student, int, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	UpdateStudent(ctx context.Context, id string, upd StudentUpdate) (Student, error)
	SoftDeleteStudent(ctx context.Context, id string) error

	CreateGuardian(ctx context.Context, guardian Guardian, passwordHash string) (Guardian, error)
	ListGuardians(ctx context.Context, orgID string, p Page) ([]Guardian, int, error)
	GetGuardian(ctx context.Context, id string) (Guardian, error)
	UpdateGuardian(ctx context.Context, id string, upd GuardianUpdate) (Guardian, error)
	SoftDeleteGuardian(ctx context.Context, id string) error

	LinkGuardian(ctx context.Context, guardianID, studentID, relation string) (Guardianship, error)
	UnlinkGuardian(ctx context.Context, guardianID, studentID string) error
	ListWards(ctx context.Context, guardianID string) ([]Student, error)
	IsWard(ctx context.Context, guardianID, studentID string) (bool, error)

	GetAccountByEmail(ctx context.Context, email string) (Account, error)
}

// AttendanceStore persists daily attendance. Mark upserts on
// (student, date) so re-marking a day overwrites the status.
type AttendanceStore interface {
	MarkAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
	ListAttendance(ctx context.Context, orgID string, f AttendanceFilter, p Page) ([]AttendanceRecord, int, error)
}

// MessagingStore persists threads, participants and messages. PostMessage
// runs as one transaction: participant check, insert, flip unread on all
// other participants, bump the thread's updated_at.
type MessagingStore interface {
	CreateThread(ctx context.Context, orgID, subject, createdBy string, participantIDs []string) (Thread, error)
	GetThread(ctx context.Context, id string) (Thread, error)
	ListThreads(ctx context.Context, orgID, userID string, p Page) ([]Thread, int, error)
	ListParticipants(ctx context.Context, threadID string) ([]ThreadParticipant, error)
	PostMessage(ctx context.Context, threadID, senderID, body string) (ThreadMessage, error)
	ListMessages(ctx context.Context, threadID string, p Page) ([]ThreadMessage, int, error)
	MarkThreadRead(ctx context.Context, threadID, userID string) error
	SoftDeleteThread(ctx context.Context, id string) error
}

// ContentStore persists menus, photo records and announcements.
type ContentStore interface {
	CreateMenu(ctx context.Context, menu Menu) (Menu, error)
	ListMenus(ctx context.Context, orgID string, from, to string, p Page) ([]Menu, int, error)
	GetMenu(ctx context.Context, id string) (Menu, error)
	UpdateMenu(ctx context.Context, id string, upd MenuUpdate) (Menu, error)
	SoftDeleteMenu(ctx context.Context, id string) error

	CreatePhoto(ctx context.Context, photo Photo) (Photo, error)
	ListPhotos(ctx context.Context, orgID string, p Page) ([]Photo, int, error)
	GetPhoto(ctx context.Context, id string) (Photo, error)
	SoftDeletePhoto(ctx context.Context, id string) error

	CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
	ListAnnouncements(ctx context.Context, orgID string, p Page) ([]Announcement, int, error)
	GetAnnouncement(ctx context.Context, id string) (Announcement, error)
	UpdateAnnouncement(ctx context.Context, id string, upd AnnouncementUpdate) (Announcement, error)
	SoftDeleteAnnouncement(ctx context.Context, id string) error
}

// Store is the full persistence surface the API needs.
type Store interface {
	OrganizationStore
	DirectoryStore
	AttendanceStore
	MessagingStore
	ContentStore
}
