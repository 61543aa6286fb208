package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
)

// Transactor runs fn inside a database transaction carried by ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type LeaveServiceImpl struct {
	tx         Transactor
	employees  employee.EmployeeRepository
	grades     employee.GradeRepository
	leaveTypes leave.LeaveTypeRepository
	balances   leave.LeaveBalanceRepository
	requests   leave.LeaveRequestRepository
	notifier   notification.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewLeaveService(
	tx Transactor,
	employeeRepo employee.EmployeeRepository,
	gradeRepo employee.GradeRepository,
	leaveTypeRepo leave.LeaveTypeRepository,
	balanceRepo leave.LeaveBalanceRepository,
	requestRepo leave.LeaveRequestRepository,
	notifier notification.Dispatcher,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		tx:         tx,
		employees:  employeeRepo,
		grades:     gradeRepo,
		leaveTypes: leaveTypeRepo,
		balances:   balanceRepo,
		requests:   requestRepo,
		notifier:   notifier,
		logger:     slog.Default().With("component", "leave"),
		now:        time.Now,
	}
}

var _ leave.LeaveService = (*LeaveServiceImpl)(nil)

// activeEmployee loads an employee that may act in the workflow.
func (s *LeaveServiceImpl) activeEmployee(ctx context.Context, id string) (employee.Employee, error) {
	emp, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return employee.Employee{}, err
	}
	if !emp.IsActiveEmployee {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

func (s *LeaveServiceImpl) activeLeaveType(ctx context.Context, id string) (leave.LeaveType, error) {
	lt, err := s.leaveTypes.GetByID(ctx, id)
	if err != nil {
		return leave.LeaveType{}, err
	}
	if !lt.IsActive {
		return leave.LeaveType{}, fmt.Errorf("%w: %s", leave.ErrLeaveTypeInactive, lt.Name)
	}
	return lt, nil
}

// entitlementManager loads actorID and checks it may change entitlements.
func (s *LeaveServiceImpl) entitlementManager(ctx context.Context, actorID string) (employee.Employee, error) {
	actor, err := s.activeEmployee(ctx, actorID)
	if err != nil {
		return employee.Employee{}, err
	}
	if !actor.Role.CanManageEntitlements() {
		return employee.Employee{}, user.ErrInsufficientPermissions
	}
	return actor, nil
}

func (s *LeaveServiceImpl) yearOrCurrent(year int) int {
	if year <= 0 {
		return s.now().Year()
	}
	return year
}
