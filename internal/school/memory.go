package school

import (
	"context"
	"sort"
	"sync"
	"time"

	"schoolyard.org/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. It backs
// handler tests and the smoke binary; production runs on the pg store.
type InMemory struct {
	mu            sync.RWMutex
	orgs          map[string]*Organization
	staff         map[string]*StaffMember
	staffHash     map[string]string // staff id -> password hash
	students      map[string]*Student
	guardians     map[string]*Guardian
	guardianHash  map[string]string
	guardianships map[string]map[string]Guardianship // guardian id -> student id
	attendance    map[string]*AttendanceRecord       // studentID+"|"+date
	threads       map[string]*Thread
	participants  map[string]map[string]*ThreadParticipant // thread id -> user id
	messages      map[string][]ThreadMessage
	menus         map[string]*Menu
	photos        map[string]*Photo
	announcements map[string]*Announcement
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		orgs:          make(map[string]*Organization),
		staff:         make(map[string]*StaffMember),
		staffHash:     make(map[string]string),
		students:      make(map[string]*Student),
		guardians:     make(map[string]*Guardian),
		guardianHash:  make(map[string]string),
		guardianships: make(map[string]map[string]Guardianship),
		attendance:    make(map[string]*AttendanceRecord),
		threads:       make(map[string]*Thread),
		participants:  make(map[string]map[string]*ThreadParticipant),
		messages:      make(map[string][]ThreadMessage),
		menus:         make(map[string]*Menu),
		photos:        make(map[string]*Photo),
		announcements: make(map[string]*Announcement),
	}
}

func paginate[T any](items []T, p Page) ([]T, int) {
	total := len(items)
	start := p.Offset()
	if start >= total {
		return []T{}, total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return items[start:end], total
}

// --- organizations ---

func (s *InMemory) CreateOrganization(ctx context.Context, org Organization) (Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orgs {
		if existing.Slug == org.Slug {
			return Organization{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	org.ID = ids.New()
	org.CreatedAt = now
	org.UpdatedAt = now
	s.orgs[org.ID] = &org
	return org, nil
}

func (s *InMemory) ListOrganizations(ctx context.Context, p Page) ([]Organization, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Organization
	for _, org := range s.orgs {
		all = append(all, *org)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	items, total := paginate(all, p)
	return items, total, nil
}

func (s *InMemory) GetOrganization(ctx context.Context, id string) (Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return *org, nil
}

func (s *InMemory) UpdateOrganization(ctx context.Context, id string, upd OrganizationUpdate) (Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	if upd.Name != nil {
		org.Name = *upd.Name
	}
	if upd.ContactEmail != nil {
		org.ContactEmail = *upd.ContactEmail
	}
	if upd.ContactPhone != nil {
		org.ContactPhone = *upd.ContactPhone
	}
	if upd.Timezone != nil {
		org.Timezone = *upd.Timezone
	}
	if upd.Active != nil {
		org.Active = *upd.Active
	}
	org.UpdatedAt = time.Now().UTC()
	return *org, nil
}

// --- staff ---

func (s *InMemory) CreateStaff(ctx context.Context, staff StaffMember, passwordHash string) (StaffMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.staff {
		if existing.DeletedAt == nil && existing.Email == staff.Email {
			return StaffMember{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	staff.ID = ids.New()
	staff.CreatedAt = now
	staff.UpdatedAt = now
	s.staff[staff.ID] = &staff
	s.staffHash[staff.ID] = passwordHash
	return staff, nil
}

func (s *InMemory) ListStaff(ctx context.Context, orgID string, p Page) ([]StaffMember, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []StaffMember
	for _, st := range s.staff {
		if st.OrganizationID == orgID && st.DeletedAt == nil {
			all = append(all, *st)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FullName < all[j].FullName })
	items, total := paginate(all, p)
	return items, total, nil
}

func (s *InMemory) GetStaff(ctx context.Context, id string) (StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.staff[id]
	if !ok || st.DeletedAt != nil {
		return StaffMember{}, ErrNotFound
	}
	return *st, nil
}

func (s *InMemory) UpdateStaff(ctx context.Context, id string, upd StaffUpdate) (StaffMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[id]
	if !ok || st.DeletedAt != nil {
		return StaffMember{}, ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range s.staff {
			if otherID != id && other.DeletedAt == nil && other.Email == *upd.Email {
				return StaffMember{}, ErrConflict
			}
		}
		st.Email = *upd.Email
	}
	if upd.FullName != nil {
		st.FullName = *upd.FullName
	}
	if upd.Title != nil {
		st.Title = *upd.Title
	}
	if upd.Roles != nil {
		st.Roles = upd.Roles
	}
	if upd.NationalID != nil {
		st.NationalID = *upd.NationalID
	}
	if upd.Phone != nil {
		st.Phone = *upd.Phone
	}
	if upd.HomeAddress != nil {
		st.HomeAddress = *upd.HomeAddress
	}
	if upd.Password != nil {
		s.staffHash[id] = *upd.Password
		st.MustChangePassword = false
	}
	st.UpdatedAt = time.Now().UTC()
	return *st, nil
}

func (s *InMemory) SoftDeleteStaff(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[id]
	if !ok || st.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	st.DeletedAt = &now
	return nil
}

// --- students ---

func (s *InMemory) CreateStudent(ctx context.Context, student Student) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	student.ID = ids.New()
	student.CreatedAt = now
	student.UpdatedAt = now
	s.students[student.ID] = &student
	return student, nil
}

func (s *InMemory) ListStudents(ctx context.Context, orgID string, p Page) ([]Student, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Student
	for _, st := range s.students {
		if st.OrganizationID == orgID && st.DeletedAt == nil {
			all = append(all, *st)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FullName < all[j].FullName })
	items, total := paginate(all, p)
	return items, total, nil
}

func (s *InMemory) GetStudent(ctx context.Context, id string) (Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok || st.DeletedAt != nil {
		return Student{}, ErrNotFound
	}
	return *st, nil
}

func (s *InMemory) UpdateStudent(ctx context.Context, id string, upd StudentUpdate) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok || st.DeletedAt != nil {
		return Student{}, ErrNotFound
	}
	if upd.FullName != nil {
		st.FullName = *upd.FullName
	}
	if upd.ClassName != nil {
		st.ClassName = *upd.ClassName
	}
	if upd.DateOfBirth != nil {
		st.DateOfBirth = *upd.DateOfBirth
	}
	if upd.NationalID != nil {
		st.NationalID = *upd.NationalID
	}
	if upd.HomeAddress != nil {
		st.HomeAddress = *upd.HomeAddress
	}
	if upd.MedicalNotes != nil {
		st.MedicalNotes = *upd.MedicalNotes
	}
	st.UpdatedAt = time.Now().UTC()
	return *st, nil
}

func (s *InMemory) SoftDeleteStudent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok || st.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	st.DeletedAt = &now
	return nil
}

// --- guardians ---

func (s *InMemory) CreateGuardian(ctx context.Context, guardian Guardian, passwordHash string) (Guardian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.guardians {
		if existing.DeletedAt == nil && existing.Email == guardian.Email {
			return Guardian{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	guardian.ID = ids.New()
	guardian.CreatedAt = now
	guardian.UpdatedAt = now
	s.guardians[guardian.ID] = &guardian
	s.guardianHash[guardian.ID] = passwordHash
	return guardian, nil
}

func (s *InMemory) ListGuardians(ctx context.Context, orgID string, p Page) ([]Guardian, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Guardian
	for _, g := range s.guardians {
		if g.OrganizationID == orgID && g.DeletedAt == nil {
			all = append(all, *g)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FullName < all[j].FullName })
	items, total := paginate(all, p)
	return items, total, nil
}

func (s *InMemory) GetGuardian(ctx context.Context, id string) (Guardian, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guardians[id]
	if !ok || g.DeletedAt != nil {
		return Guardian{}, ErrNotFound
	}
	return *g, nil
}

func (s *InMemory) UpdateGuardian(ctx context.Context, id string, upd GuardianUpdate) (Guardian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guardians[id]
	if !ok || g.DeletedAt != nil {
		return Guardian{}, ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range s.guardians {
			if otherID != id && other.DeletedAt == nil && other.Email == *upd.Email {
				return Guardian{}, ErrConflict
			}
		}
		g.Email = *upd.Email
	}
	if upd.FullName != nil {
		g.FullName = *upd.FullName
	}
	if upd.Phone != nil {
		g.Phone = *upd.Phone
	}
	if upd.HomeAddress != nil {
		g.HomeAddress = *upd.HomeAddress
	}
	if upd.Password != nil {
		s.guardianHash[id] = *upd.Password
		g.MustChangePassword = false
	}
	g.UpdatedAt = time.Now().UTC()
	return *g, nil
}

func (s *InMemory) SoftDeleteGuardian(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guardians[id]
	if !ok || g.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	g.DeletedAt = &now
	return nil
}

// --- guardianship ---

func (s *InMemory) LinkGuardian(ctx context.Context, guardianID, studentID, relation string) (Guardianship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guardians[guardianID]
	if !ok || g.DeletedAt != nil {
		return Guardianship{}, ErrNotFound
	}
	st, ok := s.students[studentID]
	if !ok || st.DeletedAt != nil {
		return Guardianship{}, ErrNotFound
	}
	if g.OrganizationID != st.OrganizationID {
		return Guardianship{}, ErrCrossTenant
	}
	if s.guardianships[guardianID] == nil {
		s.guardianships[guardianID] = make(map[string]Guardianship)
	}
	if _, exists := s.guardianships[guardianID][studentID]; exists {
		return Guardianship{}, ErrConflict
	}
	link := Guardianship{
		GuardianID: guardianID,
		StudentID:  studentID,
		Relation:   relation,
		CreatedAt:  time.Now().UTC(),
	}
	s.guardianships[guardianID][studentID] = link
	return link, nil
}

func (s *InMemory) UnlinkGuardian(ctx context.Context, guardianID, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	links, ok := s.guardianships[guardianID]
	if !ok {
		return ErrNotFound
	}
	if _, exists := links[studentID]; !exists {
		return ErrNotFound
	}
	delete(links, studentID)
	return nil
}

func (s *InMemory) ListWards(ctx context.Context, guardianID string) ([]Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var wards []Student
	for studentID := range s.guardianships[guardianID] {
		if st, ok := s.students[studentID]; ok && st.DeletedAt == nil {
			wards = append(wards, *st)
		}
	}
	sort.Slice(wards, func(i, j int) bool { return wards[i].FullName < wards[j].FullName })
	return wards, nil
}

func (s *InMemory) IsWard(ctx context.Context, guardianID, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links, ok := s.guardianships[guardianID]
	if !ok {
		return false, nil
	}
	_, exists := links[studentID]
	return exists, nil
}

// --- accounts ---

func (s *InMemory) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, st := range s.staff {
		if st.DeletedAt == nil && st.Email == email {
			return Account{
				UserID:             id,
				OrganizationID:     st.OrganizationID,
				Email:              st.Email,
				PasswordHash:       s.staffHash[id],
				Roles:              append([]string(nil), st.Roles...),
				MustChangePassword: st.MustChangePassword,
			}, nil
		}
	}
	for id, g := range s.guardians {
		if g.DeletedAt == nil && g.Email == email {
			return Account{
				UserID:             id,
				OrganizationID:     g.OrganizationID,
				Email:              g.Email,
				PasswordHash:       s.guardianHash[id],
				Roles:              []string{"guardian"},
				MustChangePassword: g.MustChangePassword,
			}, nil
		}
	}
	return Account{}, ErrNotFound
}

// --- attendance ---

func (s *InMemory) MarkAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.StudentID + "|" + rec.Date
	now := time.Now().UTC()
	if existing, ok := s.attendance[key]; ok {
		existing.Status = rec.Status
		existing.Note = rec.Note
		existing.RecordedBy = rec.RecordedBy
		existing.UpdatedAt = now
		return *existing, nil
	}
	rec.ID = ids.New()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.attendance[key] = &rec
	return rec, nil
}

func (s *InMemory) ListAttendance(ctx context.Context, orgID string, f AttendanceFilter, p Page) ([]AttendanceRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []AttendanceRecord
	for _, rec := range s.attendance {
		if rec.OrganizationID != orgID {
			continue
		}
		if f.StudentID != "" && rec.StudentID != f.StudentID {
			continue
		}
		if f.From != "" && rec.Date < f.From {
			continue
		}
		if f.To != "" && rec.Date > f.To {
			continue
		}
		if st, ok := s.students[rec.StudentID]; !ok || st.DeletedAt != nil {
			continue
		}
		all = append(all, *rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Date != all[j].Date {
			return all[i].Date > all[j].Date
		}
		return all[i].StudentID < all[j].StudentID
	})
	items, total := paginate(all, p)
	return items, total, nil
}

// --- messaging ---

func (s *InMemory) CreateThread(ctx context.Context, orgID, subject, createdBy string, participantIDs []string) (Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	thread := Thread{
		ID:             ids.New(),
		OrganizationID: orgID,
		Subject:        subject,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.threads[thread.ID] = &thread
	members := make(map[string]*ThreadParticipant, len(participantIDs))
	for _, userID := range participantIDs {
		members[userID] = &ThreadParticipant{ThreadID: thread.ID, UserID: userID, Unread: userID != createdBy}
	}
	s.participants[thread.ID] = members
	return thread, nil
}

func (s *InMemory) GetThread(ctx context.Context, id string) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[id]
	if !ok || thread.DeletedAt != nil {
		return Thread{}, ErrNotFound
	}
	return *thread, nil
}

func (s *InMemory) ListThreads(ctx context.Context, orgID, userID string, p Page) ([]Thread, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Thread
	for id, thread := range s.threads {
		if thread.OrganizationID != orgID || thread.DeletedAt != nil {
			continue
		}
		if _, ok := s.participants[id][userID]; !ok {
			continue
		}
		all = append(all, *thread)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	items, total := paginate(all, p)
	return items, total, nil
}

func (s *InMemory) ListParticipants(ctx context.Context, threadID string) ([]ThreadParticipant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[threadID]
	if !ok || thread.DeletedAt != nil {
		return nil, ErrNotFound
	}
	var out []ThreadParticipant
	for _, member := range s.participants[threadID] {
		out = append(out, *member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *InMemory) PostMessage(ctx context.Context, threadID, senderID, body string) (ThreadMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[threadID]
	if !ok || thread.DeletedAt != nil {
		return ThreadMessage{}, ErrNotFound
	}
	members := s.participants[threadID]
	if _, isMember := members[senderID]; !isMember {
		return ThreadMessage{}, ErrForbidden
	}
	msg := ThreadMessage{
		ID:        ids.New(),
		ThreadID:  threadID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[threadID] = append(s.messages[threadID], msg)
	for userID, member := range members {
		if userID != senderID {
			member.Unread = true
		}
	}
	thread.UpdatedAt = msg.CreatedAt
	return msg, nil
}

func (s *InMemory) ListMessages(ctx context.Context, threadID string, p Page) ([]ThreadMessage, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[threadID]
	if !ok || thread.DeletedAt != nil {
		return nil, 0, ErrNotFound
	}
	all := append([]ThreadMessage(nil), s.messages[threadID]...)
	items, total := paginate(all, p)
	return items, total, nil
}

func (s *InMemory) MarkThreadRead(ctx context.Context, threadID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[threadID]
	if !ok || thread.DeletedAt != nil {
		return ErrNotFound
	}
	member, isMember := s.participants[threadID][userID]
	if !isMember {
		return ErrForbidden
	}
	member.Unread = false
	return nil
}

func (s *InMemory) SoftDeleteThread(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[id]
	if !ok || thread.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	thread.DeletedAt = &now
	return nil
}

// --- menus ---

func (s *InMemory) CreateMenu(ctx context.Context, menu Menu) (Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.menus {
		if existing.DeletedAt == nil &&
			existing.OrganizationID == menu.OrganizationID &&
			existing.ServedOn == menu.ServedOn && existing.Meal == menu.Meal {
			return Menu{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	menu.ID = ids.New()
	menu.CreatedAt = now
	menu.UpdatedAt = now
	s.menus[menu.ID] = &menu
	return menu, nil
}

func (s *InMemory) ListMenus(ctx context.Context, orgID string, from, to string, p Page) ([]Menu, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Menu
	for _, m := range s.menus {
		if m.OrganizationID != orgID || m.DeletedAt != nil {
			continue
		}
		if from != "" && m.ServedOn < from {
			continue
		}
		if to != "" && m.ServedOn > to {
			continue
		}
		all = append(all, *m)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].ServedOn != all[j].ServedOn {
			return all[i].ServedOn < all[j].ServedOn
		}
		return all[i].Meal < all[j].Meal
	})
	items, total := paginate(all, p)
	return items, total, nil
}

func (s *InMemory) GetMenu(ctx context.Context, id string) (Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.menus[id]
	if !ok || m.DeletedAt != nil {
		return Menu{}, ErrNotFound
	}
	return *m, nil
}

func (s *InMemory) UpdateMenu(ctx context.Context, id string, upd MenuUpdate) (Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menus[id]
	if !ok || m.DeletedAt != nil {
		return Menu{}, ErrNotFound
	}
	if upd.ServedOn != nil {
		m.ServedOn = *upd.ServedOn
	}
	if upd.Meal != nil {
		m.Meal = *upd.Meal
	}
	if upd.Description != nil {
		m.Description = *upd.Description
	}
	m.UpdatedAt = time.Now().UTC()
	return *m, nil
}

func (s *InMemory) SoftDeleteMenu(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menus[id]
	if !ok || m.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	m.DeletedAt = &now
	return nil
}

// --- photos ---

func (s *InMemory) CreatePhoto(ctx context.Context, photo Photo) (Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo.ID = ids.New()
	photo.CreatedAt = time.Now().UTC()
	s.photos[photo.ID] = &photo
	return photo, nil
}

func (s *InMemory) ListPhotos(ctx context.Context, orgID string, p Page) ([]Photo, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Photo
	for _, ph := range s.photos {
		if ph.OrganizationID == orgID && ph.DeletedAt == nil {
			all = append(all, *ph)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	items, total := paginate(all, p)
	return items, total, nil
}

func (s *InMemory) GetPhoto(ctx context.Context, id string) (Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ph, ok := s.photos[id]
	if !ok || ph.DeletedAt != nil {
		return Photo{}, ErrNotFound
	}
	return *ph, nil
}

func (s *InMemory) SoftDeletePhoto(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ph, ok := s.photos[id]
	if !ok || ph.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	ph.DeletedAt = &now
	return nil
}

// --- announcements ---

func (s *InMemory) CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	a.ID = ids.New()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.announcements[a.ID] = &a
	return a, nil
}

func (s *InMemory) ListAnnouncements(ctx context.Context, orgID string, p Page) ([]Announcement, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Announcement
	for _, a := range s.announcements {
		if a.OrganizationID == orgID && a.DeletedAt == nil {
			all = append(all, *a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	items, total := paginate(all, p)
	return items, total, nil
}

func (s *InMemory) GetAnnouncement(ctx context.Context, id string) (Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.announcements[id]
	if !ok || a.DeletedAt != nil {
		return Announcement{}, ErrNotFound
	}
	return *a, nil
}

func (s *InMemory) UpdateAnnouncement(ctx context.Context, id string, upd AnnouncementUpdate) (Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.announcements[id]
	if !ok || a.DeletedAt != nil {
		return Announcement{}, ErrNotFound
	}
	if upd.Title != nil {
		a.Title = *upd.Title
	}
	if upd.Body != nil {
		a.Body = *upd.Body
	}
	a.UpdatedAt = time.Now().UTC()
	return *a, nil
}

func (s *InMemory) SoftDeleteAnnouncement(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.announcements[id]
	if !ok || a.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	a.DeletedAt = &now
	return nil
}
