package httpapi

import (
	"net/http"
	"strings"

	"schoolyard.org/internal/policy"
	"schoolyard.org/internal/school"
)

type markAttendanceRequest struct {
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Note      string `json:"note"`
}

func (a *API) handleAttendance(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.markAttendance(w, r)
	case http.MethodGet:
		a.listAttendance(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) markAttendance(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceAttendance, policy.OpCreate)
	if !ok {
		return
	}
	var req markAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	// The student must belong to the caller's organization before a mark
	// is accepted for it.
	student, err := a.directory.GetStudent(r.Context(), req.StudentID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := policy.CheckOrgScope(pr.principal, student.OrganizationID); err != nil {
		writeNotFound(w, r)
		return
	}
	rec, err := a.attend.Mark(r.Context(), school.MarkAttendanceInput{
		OrganizationID: pr.principal.OrganizationID,
		StudentID:      req.StudentID,
		Date:           req.Date,
		Status:         req.Status,
		Note:           req.Note,
		RecordedBy:     pr.principal.UserID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "attendance.mark", "attendance", rec.ID, map[string]string{
		"student_id": rec.StudentID,
		"date":       rec.Date,
		"status":     rec.Status,
	})
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) listAttendance(w http.ResponseWriter, r *http.Request) {
	pr, ok := a.authorize(w, r, policy.ResourceAttendance, policy.OpList)
	if !ok {
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := school.AttendanceFilter{
		StudentID: strings.TrimSpace(q.Get("student_id")),
		From:      strings.TrimSpace(q.Get("from")),
		To:        strings.TrimSpace(q.Get("to")),
	}
	if pr.principal.ActiveRole == string(policy.RoleGuardian) {
		// Guardians must name one of their own wards.
		if filter.StudentID == "" {
			handleDomainError(w, r, school.Invalid("student_id", "is required"))
			return
		}
		if !a.wardCheck(w, r, pr.principal.UserID, filter.StudentID) {
			return
		}
	}
	items, total, err := a.attend.List(r.Context(), pr.principal.OrganizationID, filter, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []school.AttendanceRecord{}
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page))
}
