package leave

import (
	"strconv"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ============= Request DTOs =============

type SubmitLeaveRequest struct {
	LeaveTypeID string  `json:"leave_type_id" validate:"required,uuid"`
	StartDate   string  `json:"start_date" validate:"required,date"`
	EndDate     string  `json:"end_date" validate:"required,date"`
	Reason      *string `json:"reason,omitempty" validate:"omitempty,max=2000"`
}

func (r *SubmitLeaveRequest) Validate() error {
	errs := validator.Struct(r)
	if len(errs) > 0 {
		return errs
	}

	start, _ := calendar.ParseDate(r.StartDate)
	end, _ := calendar.ParseDate(r.EndDate)
	if start.After(end) {
		errs.Add("end_date", "end_date must be on or after start_date")
	}

	return errs.Err()
}

// Dates returns the parsed range. Call after Validate.
func (r *SubmitLeaveRequest) Dates() (time.Time, time.Time) {
	start, _ := calendar.ParseDate(r.StartDate)
	end, _ := calendar.ParseDate(r.EndDate)
	return start, end
}

type ApprovalActionRequest struct {
	Comments string `json:"approval_comments" validate:"max=2000"`
}

func (r *ApprovalActionRequest) Validate() error {
	return validator.Struct(r).Err()
}

// SetEntitlementRequest sets entitled_days of one leave type for a group.
// With neither grade_id nor role set, every active employee is targeted.
type SetEntitlementRequest struct {
	LeaveTypeID  string  `json:"leave_type_id" validate:"required,uuid"`
	GradeID      *string `json:"grade_id,omitempty" validate:"omitempty,uuid"`
	Role         *string `json:"role,omitempty"`
	EntitledDays int     `json:"entitled_days" validate:"gte=0,max=366"`
	Year         int     `json:"year" validate:"omitempty,gte=2000,max=2100"`
}

func (r *SetEntitlementRequest) Validate() error {
	errs := validator.Struct(r)

	if r.GradeID != nil && r.Role != nil {
		errs.Add("role", "role and grade_id are mutually exclusive")
	}
	if r.Role != nil && !user.Role(*r.Role).IsValid() {
		errs.Add("role", "role is not a valid role code")
	}

	return errs.Err()
}

type EntitlementItem struct {
	LeaveTypeID  string `json:"leave_type_id" validate:"required,uuid"`
	EntitledDays int    `json:"entitled_days" validate:"gte=0,max=366"`
}

type SetEmployeeEntitlementsRequest struct {
	Year  int               `json:"year" validate:"omitempty,gte=2000,max=2100"`
	Items []EntitlementItem `json:"entitlements" validate:"required,min=1,dive"`
}

func (r *SetEmployeeEntitlementsRequest) Validate() error {
	return validator.Struct(r).Err()
}

type GradeEntitlementItem struct {
	LeaveTypeID  string          `json:"leave_type_id" validate:"required,uuid"`
	EntitledDays decimal.Decimal `json:"entitled_days"`
}

type BulkSetGradeEntitlementsRequest struct {
	Items    []GradeEntitlementItem `json:"items" validate:"required,min=1,dive"`
	ApplyNow bool                   `json:"apply_now"`
	Year     int                    `json:"year" validate:"omitempty,gte=2000,max=2100"`
}

func (r *BulkSetGradeEntitlementsRequest) Validate() error {
	errs := validator.Struct(r)
	for i, item := range r.Items {
		if item.EntitledDays.IsNegative() {
			errs.Add("items["+strconv.Itoa(i)+"].entitled_days", "entitled_days must be non-negative")
		}
	}
	return errs.Err()
}

type ListRequestsQuery struct {
	Status *LeaveRequestStatus
	Year   *int
}

// ============= Response DTOs =============

type StageApprovalResponse struct {
	ApproverID *string    `json:"approver_id,omitempty"`
	ActedAt    *time.Time `json:"acted_at,omitempty"`
	Comments   string     `json:"comments,omitempty"`
}

type DispositionResponse struct {
	Stage      user.Stage `json:"stage"`
	ApproverID string     `json:"approver_id"`
	ActedAt    time.Time  `json:"acted_at"`
	Comments   string     `json:"comments,omitempty"`
}

type LeaveRequestResponse struct {
	ID               string                `json:"id"`
	EmployeeID       string                `json:"employee_id"`
	EmployeeName     *string               `json:"employee_name,omitempty"`
	LeaveTypeID      string                `json:"leave_type_id"`
	LeaveTypeName    *string               `json:"leave_type_name,omitempty"`
	StartDate        string                `json:"start_date"`
	EndDate          string                `json:"end_date"`
	TotalDays        int                   `json:"total_days"`
	Reason           *string               `json:"reason,omitempty"`
	Status           LeaveRequestStatus    `json:"status"`
	CurrentStage     user.Stage            `json:"current_approval_stage"`
	NextApproverRole *user.Role            `json:"next_approver_role"`
	ManagerApproval  StageApprovalResponse `json:"manager_approval"`
	HRApproval       StageApprovalResponse `json:"hr_approval"`
	CEOApproval      StageApprovalResponse `json:"ceo_approval"`
	FinalDisposition *DispositionResponse  `json:"final_disposition,omitempty"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type TransitionResponse struct {
	ID               string             `json:"id"`
	Status           LeaveRequestStatus `json:"current_status"`
	CurrentStage     user.Stage         `json:"current_approval_stage"`
	NextApproverRole *user.Role         `json:"next_approver_role"`
	Override         bool               `json:"override,omitempty"`
}

type BalanceResponse struct {
	EmployeeID    string  `json:"employee_id"`
	LeaveTypeID   string  `json:"leave_type_id"`
	LeaveTypeName *string `json:"leave_type_name,omitempty"`
	Year          int     `json:"year"`
	Entitled      int     `json:"entitled"`
	Used          int     `json:"used"`
	Pending       int     `json:"pending"`
	Remaining     int     `json:"remaining"`
}

type BalanceSummaryResponse struct {
	Year           int               `json:"year"`
	TotalEntitled  int               `json:"total_entitled"`
	TotalUsed      int               `json:"total_used"`
	TotalPending   int               `json:"total_pending"`
	TotalRemaining int               `json:"total_remaining"`
	ByLeaveType    []BalanceResponse `json:"by_leave_type"`
}

type EntitlementResult struct {
	Year    int `json:"year"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type ApplyGradeResult struct {
	GradeID   string `json:"grade_id"`
	GradeName string `json:"grade_name"`
	Year      int    `json:"year"`
	Changed   int    `json:"applied_to_balances"`
}

type BulkGradeEntitlementResult struct {
	GradeID string `json:"grade_id"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Applied int    `json:"applied_to_balances"`
}

type EntitlementSummaryResponse struct {
	LeaveTypeID        string `json:"leave_type_id"`
	LeaveTypeName      string `json:"leave_type"`
	Year               int    `json:"year"`
	TotalBalances      int    `json:"total_balances"`
	CommonEntitledDays int    `json:"common_entitled_days"`
}

type LeaveTypeResponse struct {
	ID                         string  `json:"id"`
	Name                       string  `json:"name"`
	Description                *string `json:"description,omitempty"`
	MaxDaysPerRequest          int     `json:"max_days_per_request"`
	RequiresMedicalCertificate bool    `json:"requires_medical_certificate"`
}

// RoleLeaveEntitlement is the typical entitlement of one leave type among
// employees holding a role. EntitledDays is 0 when none has a balance.
type RoleLeaveEntitlement struct {
	LeaveTypeID   string `json:"leave_type_id"`
	LeaveTypeName string `json:"leave_type_name"`
	EntitledDays  int    `json:"entitled_days"`
}

type RoleEntitlementResponse struct {
	RoleCode     user.Role              `json:"role_code"`
	RoleDisplay  string                 `json:"role_display"`
	UserCount    int                    `json:"user_count"`
	Year         int                    `json:"year"`
	Entitlements []RoleLeaveEntitlement `json:"entitlements"`
}

type PendingApprovalsResponse struct {
	Role     user.Role              `json:"user_role"`
	Stages   []user.Stage           `json:"approval_stages"`
	Count    int                    `json:"count"`
	Requests []LeaveRequestResponse `json:"requests"`
}

type DashboardSummary struct {
	TotalRequests       int `json:"total_requests"`
	PendingRequests     int `json:"pending_requests"`
	ApprovedRequests    int `json:"approved_requests"`
	RejectedRequests    int `json:"rejected_requests"`
	DaysTakenThisYear   int `json:"total_days_taken_this_year"`
	PendingDaysThisYear int `json:"pending_days"`
}

type DashboardResponse struct {
	Summary        DashboardSummary       `json:"summary"`
	RecentRequests []LeaveRequestResponse `json:"recent_requests"`
}

// ToResponse maps a request entity to its API shape.
func ToResponse(r LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		EmployeeName:     r.EmployeeName,
		LeaveTypeID:      r.LeaveTypeID,
		LeaveTypeName:    r.LeaveTypeName,
		StartDate:        r.StartDate.Format(calendar.DateLayout),
		EndDate:          r.EndDate.Format(calendar.DateLayout),
		TotalDays:        r.TotalDays,
		Reason:           r.Reason,
		Status:           r.Status,
		CurrentStage:     r.Status.CurrentStage(),
		NextApproverRole: r.Status.NextApproverRole(),
		ManagerApproval:  toStageResponse(r.ManagerApproval),
		HRApproval:       toStageResponse(r.HRApproval),
		CEOApproval:      toStageResponse(r.CEOApproval),
		CancelledAt:      r.CancelledAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if d := r.FinalDisposition(); d != nil {
		resp.FinalDisposition = &DispositionResponse{
			Stage:      d.Stage,
			ApproverID: d.ApproverID,
			ActedAt:    d.ActedAt,
			Comments:   d.Comments,
		}
	}
	return resp
}

func toStageResponse(a StageApproval) StageApprovalResponse {
	return StageApprovalResponse{
		ApproverID: a.ApproverID,
		ActedAt:    a.ActedAt,
		Comments:   a.Comments,
	}
}

// ToLeaveTypeResponse maps a leave type to its API shape.
func ToLeaveTypeResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:                         t.ID,
		Name:                       t.Name,
		Description:                t.Description,
		MaxDaysPerRequest:          t.MaxDays(),
		RequiresMedicalCertificate: t.RequiresMedicalCertificate,
	}
}

// ToBalanceResponse maps a balance row to its API shape.
func ToBalanceResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		EmployeeID:    b.EmployeeID,
		LeaveTypeID:   b.LeaveTypeID,
		LeaveTypeName: b.LeaveTypeName,
		Year:          b.Year,
		Entitled:      b.EntitledDays,
		Used:          b.UsedDays,
		Pending:       b.PendingDays,
		Remaining:     b.RemainingDays(),
	}
}
