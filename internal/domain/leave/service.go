package leave

import (
	"context"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
)

type LeaveService interface {
	// Workflow
	Submit(ctx context.Context, employeeID string, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	Approve(ctx context.Context, requestID, actorID, comments string) (TransitionResponse, error)
	Reject(ctx context.Context, requestID, actorID, comments string) (TransitionResponse, error)
	Cancel(ctx context.Context, requestID, actorID string) (TransitionResponse, error)

	// Leave types
	ListLeaveTypes(ctx context.Context) ([]LeaveTypeResponse, error)
	GetLeaveType(ctx context.Context, leaveTypeID string) (LeaveTypeResponse, error)

	// Requests
	GetRequest(ctx context.Context, requestID, viewerID string) (LeaveRequestResponse, error)
	ListMyRequests(ctx context.Context, employeeID string, query ListRequestsQuery) ([]LeaveRequestResponse, error)
	PendingApprovals(ctx context.Context, actorID string) (PendingApprovalsResponse, error)
	Dashboard(ctx context.Context, employeeID string) (DashboardResponse, error)

	// Balances
	GetBalance(ctx context.Context, viewerID, employeeID, leaveTypeID string, year int) (BalanceResponse, error)
	ListBalances(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error)
	BalanceSummary(ctx context.Context, employeeID string, year int) (BalanceSummaryResponse, error)

	// Entitlements
	ApplyGradeEntitlements(ctx context.Context, actorID, gradeID string, year int) (ApplyGradeResult, error)
	SetEntitlement(ctx context.Context, actorID string, req SetEntitlementRequest) (EntitlementResult, error)
	SetEmployeeEntitlements(ctx context.Context, actorID, employeeID string, req SetEmployeeEntitlementsRequest) (EntitlementResult, error)
	BulkSetGradeEntitlements(ctx context.Context, actorID, gradeID string, req BulkSetGradeEntitlementsRequest) (BulkGradeEntitlementResult, error)
	EntitlementSummary(ctx context.Context, actorID, leaveTypeID string, year int) (EntitlementSummaryResponse, error)
	RoleEntitlements(ctx context.Context, actorID string, year int) ([]RoleEntitlementResponse, error)
	RoleEntitlementSummary(ctx context.Context, actorID string, role user.Role, year int) (RoleEntitlementResponse, error)
}
