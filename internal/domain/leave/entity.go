package leave

import (
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
)

// DefaultMaxDaysPerRequest applies when a leave type has no explicit limit.
const DefaultMaxDaysPerRequest = 30

// LeaveType entity
type LeaveType struct {
	ID                         string
	Name                       string
	Description                *string
	MaxDaysPerRequest          int
	RequiresMedicalCertificate bool
	IsActive                   bool
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// MaxDays returns the per-request limit in working days.
func (t LeaveType) MaxDays() int {
	if t.MaxDaysPerRequest <= 0 {
		return DefaultMaxDaysPerRequest
	}
	return t.MaxDaysPerRequest
}

// LeaveBalance is the per (employee, leave type, year) ledger row.
// UsedDays and PendingDays are derived from the request set and are only
// written by a recompute.
type LeaveBalance struct {
	ID           string
	EmployeeID   string
	LeaveTypeID  string
	Year         int
	EntitledDays int
	UsedDays     int
	PendingDays  int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Join
	LeaveTypeName *string
}

// RemainingDays is never negative, even when the balance is over-committed.
func (b LeaveBalance) RemainingDays() int {
	remaining := b.EntitledDays - b.UsedDays - b.PendingDays
	if remaining < 0 {
		return 0
	}
	return remaining
}

// OverCommitted reports whether used and pending days exceed the entitlement.
func (b LeaveBalance) OverCommitted() bool {
	return b.EntitledDays < b.UsedDays+b.PendingDays
}

type LeaveRequestStatus string

const (
	StatusPending         LeaveRequestStatus = "pending"
	StatusManagerApproved LeaveRequestStatus = "manager_approved"
	StatusHRApproved      LeaveRequestStatus = "hr_approved"
	StatusApproved        LeaveRequestStatus = "approved"
	StatusRejected        LeaveRequestStatus = "rejected"
	StatusCancelled       LeaveRequestStatus = "cancelled"
)

// InFlightStatuses are the statuses whose days count as pending.
func InFlightStatuses() []LeaveRequestStatus {
	return []LeaveRequestStatus{StatusPending, StatusManagerApproved, StatusHRApproved}
}

// ParseStatus validates a status filter value.
func ParseStatus(s string) (LeaveRequestStatus, bool) {
	switch st := LeaveRequestStatus(s); st {
	case StatusPending, StatusManagerApproved, StatusHRApproved, StatusApproved, StatusRejected, StatusCancelled:
		return st, true
	}
	return "", false
}

// IsInFlight reports whether the request still waits on an approver.
func (s LeaveRequestStatus) IsInFlight() bool {
	return s == StatusPending || s == StatusManagerApproved || s == StatusHRApproved
}

// CurrentStage maps a status onto the approval chain.
func (s LeaveRequestStatus) CurrentStage() user.Stage {
	switch s {
	case StatusPending:
		return user.StageManager
	case StatusManagerApproved:
		return user.StageHR
	case StatusHRApproved:
		return user.StageCEO
	case StatusApproved:
		return user.StageCompleted
	case StatusRejected:
		return user.StageRejected
	default:
		return user.StageCancelled
	}
}

// NextApproverRole is nil once the request has left the approval chain.
func (s LeaveRequestStatus) NextApproverRole() *user.Role {
	role, ok := s.CurrentStage().ApproverRole()
	if !ok {
		return nil
	}
	return &role
}

// StatusAwaiting returns the status a request has while it waits at stage.
func StatusAwaiting(stage user.Stage) (LeaveRequestStatus, bool) {
	switch stage {
	case user.StageManager:
		return StatusPending, true
	case user.StageHR:
		return StatusManagerApproved, true
	case user.StageCEO:
		return StatusHRApproved, true
	}
	return "", false
}

// StageApproval records one approver's action on a request.
type StageApproval struct {
	ApproverID *string
	ActedAt    *time.Time
	Comments   string
}

// Acted reports whether an approver has recorded anything at this stage.
func (a StageApproval) Acted() bool {
	return a.ApproverID != nil && a.ActedAt != nil
}

// LeaveRequest entity
type LeaveRequest struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string

	StartDate time.Time
	EndDate   time.Time
	TotalDays int

	Reason *string
	Status LeaveRequestStatus

	ManagerApproval StageApproval
	HRApproval      StageApproval
	CEOApproval     StageApproval

	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	EmployeeName  *string
	LeaveTypeName *string
}

// Normalize recomputes every derived field. It runs before each save.
func (r *LeaveRequest) Normalize() {
	r.StartDate = calendar.Date(r.StartDate)
	r.EndDate = calendar.Date(r.EndDate)
	r.TotalDays = calendar.WorkingDays(r.StartDate, r.EndDate)
}

// Year is the balance year the request is charged against.
func (r LeaveRequest) Year() int {
	return r.StartDate.Year()
}

// Validate checks the date rules. The past-start check only applies
// while the request is still pending so that requests which were valid when
// submitted stay valid as they progress.
func (r LeaveRequest) Validate(today time.Time) error {
	var errs validator.ValidationErrors

	if calendar.Date(r.StartDate).After(calendar.Date(r.EndDate)) {
		errs.Add("end_date", "end_date must be on or after start_date")
	}
	if r.Status == StatusPending && calendar.Date(r.StartDate).Before(calendar.Today(today)) {
		errs.Add("start_date", "start_date cannot be in the past")
	}

	return errs.Err()
}

// ApprovalAt returns the record for an approval stage, or nil.
func (r *LeaveRequest) ApprovalAt(stage user.Stage) *StageApproval {
	switch stage {
	case user.StageManager:
		return &r.ManagerApproval
	case user.StageHR:
		return &r.HRApproval
	case user.StageCEO:
		return &r.CEOApproval
	}
	return nil
}

// Disposition is the outcome recorded by the last stage that acted.
type Disposition struct {
	Stage      user.Stage
	ApproverID string
	ActedAt    time.Time
	Comments   string
}

// FinalDisposition returns the record of the last acting stage, or nil when
// no approver has acted yet.
func (r LeaveRequest) FinalDisposition() *Disposition {
	stages := []struct {
		stage    user.Stage
		approval StageApproval
	}{
		{user.StageCEO, r.CEOApproval},
		{user.StageHR, r.HRApproval},
		{user.StageManager, r.ManagerApproval},
	}
	for _, s := range stages {
		if s.approval.Acted() {
			return &Disposition{
				Stage:      s.stage,
				ApproverID: *s.approval.ApproverID,
				ActedAt:    *s.approval.ActedAt,
				Comments:   s.approval.Comments,
			}
		}
	}
	return nil
}
