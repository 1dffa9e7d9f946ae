package httpapi

import (
	"net/http"
	"strings"

	"schoolyard.org/internal/policy"
	"schoolyard.org/internal/school"
)

type createStaffRequest struct {
	Email           string   `json:"email"`
	FullName        string   `json:"full_name"`
	Title           string   `json:"title"`
	Roles           []string `json:"roles"`
	NationalID      string   `json:"national_id"`
	Phone           string   `json:"phone"`
	HomeAddress     string   `json:"home_address"`
	InitialPassword string   `json:"initial_password"`
}

type updateStaffRequest struct {
	Email       *string  `json:"email"`
	FullName    *string  `json:"full_name"`
	Title       *string  `json:"title"`
	Roles       []string `json:"roles"`
	NationalID  *string  `json:"national_id"`
	Phone       *string  `json:"phone"`
	HomeAddress *string  `json:"home_address"`
	Password    *string  `json:"password"`
}

func (a *API) handleStaffCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createStaff(w, r)
	case http.MethodGet:
		a.listStaff(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleStaffResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/staff/")
	if !ok {
		writeNotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getStaff(w, r, id)
	case http.MethodPut, http.MethodPatch:
		a.updateStaff(w, r, id)
	case http.MethodDelete:
		a.deleteStaff(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createStaff(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceStaff, policy.OpCreate)
	if !ok {
		return
	}
	var req createStaffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	staff, err := a.directory.CreateStaff(r.Context(), school.CreateStaffInput{
		OrganizationID:  pr.principal.OrganizationID,
		Email:           req.Email,
		FullName:        req.FullName,
		Title:           req.Title,
		Roles:           req.Roles,
		NationalID:      req.NationalID,
		Phone:           req.Phone,
		HomeAddress:     req.HomeAddress,
		InitialPassword: req.InitialPassword,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "staff.create", "staff", staff.ID, nil)
	w.Header().Set("Location", "/v1/staff/"+staff.ID)
	writeJSON(w, http.StatusCreated, staff)
}

func (a *API) listStaff(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceStaff, policy.OpList)
	if !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, total, err := a.directory.ListStaff(r.Context(), pr.principal.OrganizationID, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if pr.rule.Redact(pr.principal.ActiveRole) {
		for i := range items {
			items[i] = items[i].Redacted()
		}
	}
	if items == nil {
		items = []school.StaffMember{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}

func (a *API) getStaff(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceStaff, policy.OpRead)
	if !ok {
		return
	}
	staff, err := a.directory.GetStaff(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceStaff, policy.OpRead, staff.OrganizationID) {
		return
	}
	if pr.rule.Redact(pr.principal.ActiveRole) {
		staff = staff.Redacted()
	}
	writeJSON(w, http.StatusOK, staff)
}

func (a *API) updateStaff(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceStaff, policy.OpUpdate)
	if !ok {
		return
	}
	existing, err := a.directory.GetStaff(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceStaff, policy.OpUpdate, existing.OrganizationID) {
		return
	}
	var req updateStaffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	staff, err := a.directory.UpdateStaff(r.Context(), id, school.StaffUpdate{
		Email:       req.Email,
		FullName:    req.FullName,
		Title:       req.Title,
		Roles:       req.Roles,
		NationalID:  req.NationalID,
		Phone:       req.Phone,
		HomeAddress: req.HomeAddress,
		Password:    req.Password,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "staff.update", "staff", staff.ID, nil)
	writeJSON(w, http.StatusOK, staff)
}

func (a *API) deleteStaff(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceStaff, policy.OpDelete)
	if !ok {
		return
	}
	existing, err := a.directory.GetStaff(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceStaff, policy.OpDelete, existing.OrganizationID) {
		return
	}
	if err := a.directory.DeleteStaff(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "staff.delete", "staff", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

type createStudentRequest struct {
	FullName     string `json:"full_name"`
	ClassName    string `json:"class_name"`
	DateOfBirth  string `json:"date_of_birth"`
	NationalID   string `json:"national_id"`
	HomeAddress  string `json:"home_address"`
	MedicalNotes string `json:"medical_notes"`
}

type updateStudentRequest struct {
	FullName     *string `json:"full_name"`
	ClassName    *string `json:"class_name"`
	DateOfBirth  *string `json:"date_of_birth"`
	NationalID   *string `json:"national_id"`
	HomeAddress  *string `json:"home_address"`
	MedicalNotes *string `json:"medical_notes"`
}

func (a *API) handleStudentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createStudent(w, r)
	case http.MethodGet:
		a.listStudents(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleStudentResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/students/")
	if !ok {
		writeNotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getStudent(w, r, id)
	case http.MethodPut, http.MethodPatch:
		a.updateStudent(w, r, id)
	case http.MethodDelete:
		a.deleteStudent(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createStudent(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceStudents, policy.OpCreate)
	if !ok {
		return
	}
	var req createStudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	student, err := a.directory.CreateStudent(r.Context(), school.CreateStudentInput{
		OrganizationID: pr.principal.OrganizationID,
		FullName:       req.FullName,
		ClassName:      req.ClassName,
		DateOfBirth:    req.DateOfBirth,
		NationalID:     req.NationalID,
		HomeAddress:    req.HomeAddress,
		MedicalNotes:   req.MedicalNotes,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "student.create", "student", student.ID, nil)
	w.Header().Set("Location", "/v1/students/"+student.ID)
	writeJSON(w, http.StatusCreated, student)
}

func (a *API) listStudents(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceStudents, policy.OpList)
	if !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	var (
		items []school.Student
		total int
	)
	if pr.principal.ActiveRole == string(policy.RoleGuardian) {
		// Guardians see only their linked wards.
		wards, err := a.directory.ListWards(r.Context(), pr.principal.UserID)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		total = len(wards)
		items = pageSlice(wards, page)
	} else {
		items, total, err = a.directory.ListStudents(r.Context(), pr.principal.OrganizationID, page)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
	}
	if pr.rule.Redact(pr.principal.ActiveRole) {
		for i := range items {
			items[i] = items[i].Redacted()
		}
	}
	if items == nil {
		items = []school.Student{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}

func (a *API) getStudent(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceStudents, policy.OpRead)
	if !ok {
		return
	}
	student, err := a.directory.GetStudent(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceStudents, policy.OpRead, student.OrganizationID) {
		return
	}
	if pr.principal.ActiveRole == string(policy.RoleGuardian) {
		if !a.wardCheck(w, r, pr.principal.UserID, student.ID) {
			return
		}
	}
	if pr.rule.Redact(pr.principal.ActiveRole) {
		student = student.Redacted()
	}
	writeJSON(w, http.StatusOK, student)
}

// wardCheck answers like a miss when a guardian reaches for a student
// outside their linked wards.
func (a *API) wardCheck(w http.ResponseWriter, r *http.Request, guardianID, studentID string) bool {
	ward, err := a.directory.IsWard(r.Context(), guardianID, studentID)
	if err != nil {
		handleDomainError(w, r, err)
		return false
	}
	if !ward {
		writeNotFound(w, r)
		return false
	}
	return true
}

func (a *API) updateStudent(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceStudents, policy.OpUpdate)
	if !ok {
		return
	}
	existing, err := a.directory.GetStudent(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceStudents, policy.OpUpdate, existing.OrganizationID) {
		return
	}
	var req updateStudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	student, err := a.directory.UpdateStudent(r.Context(), id, school.StudentUpdate{
		FullName:     req.FullName,
		ClassName:    req.ClassName,
		DateOfBirth:  req.DateOfBirth,
		NationalID:   req.NationalID,
		HomeAddress:  req.HomeAddress,
		MedicalNotes: req.MedicalNotes,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "student.update", "student", student.ID, nil)
	writeJSON(w, http.StatusOK, student)
}

func (a *API) deleteStudent(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceStudents, policy.OpDelete)
	if !ok {
		return
	}
	existing, err := a.directory.GetStudent(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceStudents, policy.OpDelete, existing.OrganizationID) {
		return
	}
	if err := a.directory.DeleteStudent(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "student.delete", "student", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

type createGuardianRequest struct {
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Phone           string `json:"phone"`
	HomeAddress     string `json:"home_address"`
	InitialPassword string `json:"initial_password"`
}

type updateGuardianRequest struct {
	Email       *string `json:"email"`
	FullName    *string `json:"full_name"`
	Phone       *string `json:"phone"`
	HomeAddress *string `json:"home_address"`
	Password    *string `json:"password"`
}

type linkWardRequest struct {
	StudentID string `json:"student_id"`
	Relation  string `json:"relation"`
}

func (a *API) handleGuardiansCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createGuardian(w, r)
	case http.MethodGet:
		a.listGuardians(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleGuardianResource also routes the nested wards collection:
// /v1/guardians/{id}/wards and /v1/guardians/{id}/wards/{studentID}.
func (a *API) handleGuardianResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/guardians/")
	if rest == "" {
		writeNotFound(w, r)
		return
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	switch {
	case len(parts) == 1:
		a.guardianByID(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "wards":
		a.guardianWards(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "wards":
		a.unlinkWard(w, r, parts[0], parts[2])
	default:
		writeNotFound(w, r)
	}
}

func (a *API) guardianByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		a.getGuardian(w, r, id)
	case http.MethodPut, http.MethodPatch:
		a.updateGuardian(w, r, id)
	case http.MethodDelete:
		a.deleteGuardian(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) guardianWards(w http.ResponseWriter, r *http.Request, guardianID string) {
	switch r.Method {
	case http.MethodGet:
		a.listWards(w, r, guardianID)
	case http.MethodPost:
		a.linkWard(w, r, guardianID)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createGuardian(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceGuardians, policy.OpCreate)
	if !ok {
		return
	}
	var req createGuardianRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	guardian, err := a.directory.CreateGuardian(r.Context(), school.CreateGuardianInput{
		OrganizationID:  pr.principal.OrganizationID,
		Email:           req.Email,
		FullName:        req.FullName,
		Phone:           req.Phone,
		HomeAddress:     req.HomeAddress,
		InitialPassword: req.InitialPassword,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "guardian.create", "guardian", guardian.ID, nil)
	w.Header().Set("Location", "/v1/guardians/"+guardian.ID)
	writeJSON(w, http.StatusCreated, guardian)
}

func (a *API) listGuardians(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceGuardians, policy.OpList)
	if !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, total, err := a.directory.ListGuardians(r.Context(), pr.principal.OrganizationID, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if pr.rule.Redact(pr.principal.ActiveRole) {
		for i := range items {
			items[i] = items[i].Redacted()
		}
	}
	if items == nil {
		items = []school.Guardian{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}

func (a *API) getGuardian(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceGuardians, policy.OpRead)
	if !ok {
		return
	}
	guardian, err := a.directory.GetGuardian(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceGuardians, policy.OpRead, guardian.OrganizationID) {
		return
	}
	if pr.rule.Redact(pr.principal.ActiveRole) {
		guardian = guardian.Redacted()
	}
	writeJSON(w, http.StatusOK, guardian)
}

func (a *API) updateGuardian(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceGuardians, policy.OpUpdate)
	if !ok {
		return
	}
	existing, err := a.directory.GetGuardian(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceGuardians, policy.OpUpdate, existing.OrganizationID) {
		return
	}
	var req updateGuardianRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	guardian, err := a.directory.UpdateGuardian(r.Context(), id, school.GuardianUpdate{
		Email:       req.Email,
		FullName:    req.FullName,
		Phone:       req.Phone,
		HomeAddress: req.HomeAddress,
		Password:    req.Password,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "guardian.update", "guardian", guardian.ID, nil)
	writeJSON(w, http.StatusOK, guardian)
}

func (a *API) deleteGuardian(w http.ResponseWriter, r *http.Request, id string) {
	pr, ok := a.authorize(w, r, policy.ResourceGuardians, policy.OpDelete)
	if !ok {
		return
	}
	existing, err := a.directory.GetGuardian(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceGuardians, policy.OpDelete, existing.OrganizationID) {
		return
	}
	if err := a.directory.DeleteGuardian(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "guardian.delete", "guardian", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listWards(w http.ResponseWriter, r *http.Request, guardianID string) {
	pr, ok := a.authorize(w, r, policy.ResourceGuardianship, policy.OpList)
	if !ok {
		return
	}
	guardian, err := a.directory.GetGuardian(r.Context(), guardianID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceGuardianship, policy.OpList, guardian.OrganizationID) {
		return
	}
	// Guardians may only look at their own ward list.
	if pr.principal.ActiveRole == string(policy.RoleGuardian) && pr.principal.UserID != guardian.ID {
		writeNotFound(w, r)
		return
	}
	wards, err := a.directory.ListWards(r.Context(), guardianID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if wards == nil {
		wards = []school.Student{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": wards})
}

func (a *API) linkWard(w http.ResponseWriter, r *http.Request, guardianID string) {
	pr, ok := a.authorize(w, r, policy.ResourceGuardianship, policy.OpCreate)
	if !ok {
		return
	}
	guardian, err := a.directory.GetGuardian(r.Context(), guardianID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceGuardianship, policy.OpCreate, guardian.OrganizationID) {
		return
	}
	var req linkWardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	link, err := a.directory.LinkGuardian(r.Context(), guardianID, req.StudentID, req.Relation)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "guardianship.link", "guardianship", guardianID+":"+req.StudentID, map[string]string{
		"relation": link.Relation,
	})
	writeJSON(w, http.StatusCreated, link)
}

func (a *API) unlinkWard(w http.ResponseWriter, r *http.Request, guardianID, studentID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	pr, ok := a.authorize(w, r, policy.ResourceGuardianship, policy.OpDelete)
	if !ok {
		return
	}
	guardian, err := a.directory.GetGuardian(r.Context(), guardianID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.scopeCheck(w, r, pr, policy.ResourceGuardianship, policy.OpDelete, guardian.OrganizationID) {
		return
	}
	if err := a.directory.UnlinkGuardian(r.Context(), guardianID, studentID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "guardianship.unlink", "guardianship", guardianID+":"+studentID, nil)
	w.WriteHeader(http.StatusNoContent)
}

func pageSlice[T any](items []T, p school.Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
