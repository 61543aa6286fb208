package leave

import (
	"context"
	"time"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	GetByID(ctx context.Context, id string) (LeaveType, error)
	List(ctx context.Context, activeOnly bool) ([]LeaveType, error)
}

// LeaveBalanceRepository - interface for leave_balances table
type LeaveBalanceRepository interface {
	// GetOrCreate inserts balance when its (employee, leave type, year) key
	// is free and returns the stored row either way.
	GetOrCreate(ctx context.Context, balance LeaveBalance) (LeaveBalance, bool, error)
	Get(ctx context.Context, employeeID, leaveTypeID string, year int) (LeaveBalance, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (LeaveBalance, error)
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)
	ListByLeaveTypeYear(ctx context.Context, leaveTypeID string, year int) ([]LeaveBalance, error)
	UpdateUsage(ctx context.Context, id string, usedDays, pendingDays int) error
	UpdateEntitled(ctx context.Context, id string, entitledDays int) error
}

// RequestFilter narrows a request listing.
type RequestFilter struct {
	Status *LeaveRequestStatus
	Year   *int
	Limit  int
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (LeaveRequest, error)
	// UpdateWorkflow persists status, stage records and cancellation.
	UpdateWorkflow(ctx context.Context, request LeaveRequest) error
	ListByEmployee(ctx context.Context, employeeID string, filter RequestFilter) ([]LeaveRequest, error)
	ListByStatuses(ctx context.Context, statuses []LeaveRequestStatus) ([]LeaveRequest, error)
	// HasOverlap reports whether the employee has a request in one of
	// statuses whose inclusive date range intersects [start, end].
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time, statuses []LeaveRequestStatus) (bool, error)
	// SumDaysByStatus totals total_days per status for one balance key,
	// matching requests by the year of their start date.
	SumDaysByStatus(ctx context.Context, employeeID, leaveTypeID string, year int) (map[LeaveRequestStatus]int, error)
}
