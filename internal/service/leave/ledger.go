package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
)

// EnsureBalance returns the balance for (employee, leave type, year),
// creating it with the default entitlement when missing.
func (s *LeaveServiceImpl) EnsureBalance(ctx context.Context, emp employee.Employee, lt leave.LeaveType, year int) (leave.LeaveBalance, error) {
	balance, created, err := s.balances.GetOrCreate(ctx, leave.LeaveBalance{
		EmployeeID:   emp.ID,
		LeaveTypeID:  lt.ID,
		Year:         year,
		EntitledDays: leave.DefaultEntitlement(lt.Name, emp.Role, emp.AnnualEntitlement()),
	})
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to ensure leave balance: %w", err)
	}
	if created {
		s.logger.Info("leave balance created",
			"employee_id", emp.ID, "leave_type", lt.Name, "year", year, "entitled_days", balance.EntitledDays)
	}
	return balance, nil
}

// Recompute re-derives used and pending days for one balance from the full
// request set. It is idempotent and safe to call after any transition.
func (s *LeaveServiceImpl) Recompute(ctx context.Context, employeeID, leaveTypeID string, year int) error {
	var balance *leave.LeaveBalance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.recompute(ctx, employeeID, leaveTypeID, year)
		return err
	})
	if err != nil {
		return err
	}
	s.notifyOverCommitted(ctx, balance)
	return nil
}

// recompute must run inside a transaction. It returns nil when no balance
// exists for the key.
func (s *LeaveServiceImpl) recompute(ctx context.Context, employeeID, leaveTypeID string, year int) (*leave.LeaveBalance, error) {
	balance, err := s.balances.GetForUpdate(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, leave.ErrBalanceNotFound) {
			s.logger.Warn("no leave balance to recompute",
				"employee_id", employeeID, "leave_type_id", leaveTypeID, "year", year)
			return nil, nil
		}
		return nil, err
	}

	sums, err := s.requests.SumDaysByStatus(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		return nil, err
	}

	used := sums[leave.StatusApproved]
	pending := 0
	for _, status := range leave.InFlightStatuses() {
		pending += sums[status]
	}

	if balance.UsedDays != used || balance.PendingDays != pending {
		if err := s.balances.UpdateUsage(ctx, balance.ID, used, pending); err != nil {
			return nil, err
		}
		balance.UsedDays = used
		balance.PendingDays = pending
	}

	return &balance, nil
}

// GetBalance implements leave.LeaveService.
func (s *LeaveServiceImpl) GetBalance(ctx context.Context, viewerID, employeeID, leaveTypeID string, year int) (leave.BalanceResponse, error) {
	if viewerID != employeeID {
		viewer, err := s.activeEmployee(ctx, viewerID)
		if err != nil {
			return leave.BalanceResponse{}, err
		}
		if !user.HasPermission(viewer.Role, user.PermissionBalanceViewAll) {
			return leave.BalanceResponse{}, user.ErrInsufficientPermissions
		}
	}

	balance, err := s.balances.Get(ctx, employeeID, leaveTypeID, s.yearOrCurrent(year))
	if err != nil {
		return leave.BalanceResponse{}, err
	}
	return leave.ToBalanceResponse(balance), nil
}

// ListBalances implements leave.LeaveService. Balances missing for an
// active leave type are created with their default entitlement.
func (s *LeaveServiceImpl) ListBalances(ctx context.Context, employeeID string, year int) ([]leave.BalanceResponse, error) {
	year = s.yearOrCurrent(year)

	emp, err := s.activeEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	leaveTypes, err := s.leaveTypes.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}

	var balances []leave.LeaveBalance
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, lt := range leaveTypes {
			if _, err := s.EnsureBalance(ctx, emp, lt, year); err != nil {
				return err
			}
		}
		balances, err = s.balances.ListByEmployeeYear(ctx, emp.ID, year)
		return err
	})
	if err != nil {
		return nil, err
	}

	responses := make([]leave.BalanceResponse, 0, len(balances))
	for _, b := range balances {
		responses = append(responses, leave.ToBalanceResponse(b))
	}
	return responses, nil
}

// BalanceSummary implements leave.LeaveService.
func (s *LeaveServiceImpl) BalanceSummary(ctx context.Context, employeeID string, year int) (leave.BalanceSummaryResponse, error) {
	year = s.yearOrCurrent(year)

	balances, err := s.ListBalances(ctx, employeeID, year)
	if err != nil {
		return leave.BalanceSummaryResponse{}, err
	}

	summary := leave.BalanceSummaryResponse{Year: year, ByLeaveType: balances}
	for _, b := range balances {
		summary.TotalEntitled += b.Entitled
		summary.TotalUsed += b.Used
		summary.TotalPending += b.Pending
		summary.TotalRemaining += b.Remaining
	}
	return summary, nil
}

// ReconcileResult counts the work done by ReconcileBalances.
type ReconcileResult struct {
	Year      int
	Employees int
	Created   int
	Checked   int
}

// ReconcileBalances provisions missing balances for every active employee
// and re-derives used and pending days for all of them. Per-employee
// failures are logged and do not stop the run.
func (s *LeaveServiceImpl) ReconcileBalances(ctx context.Context, year int) (ReconcileResult, error) {
	result := ReconcileResult{Year: s.yearOrCurrent(year)}

	employees, err := s.employees.ListActive(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list active employees: %w", err)
	}
	leaveTypes, err := s.leaveTypes.List(ctx, true)
	if err != nil {
		return result, fmt.Errorf("failed to list leave types: %w", err)
	}

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var created, checked int
		var overCommitted []*leave.LeaveBalance
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			created, checked, overCommitted = 0, 0, nil
			for _, lt := range leaveTypes {
				before, err := s.balances.Get(ctx, emp.ID, lt.ID, result.Year)
				if err != nil && !errors.Is(err, leave.ErrBalanceNotFound) {
					return err
				}
				if err != nil {
					if _, err := s.EnsureBalance(ctx, emp, lt, result.Year); err != nil {
						return err
					}
					created++
				}

				balance, err := s.recompute(ctx, emp.ID, lt.ID, result.Year)
				if err != nil {
					return err
				}
				checked++
				if balance != nil && balance.OverCommitted() && !before.OverCommitted() {
					overCommitted = append(overCommitted, balance)
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("failed to reconcile leave balances", "employee_id", emp.ID, "year", result.Year, "error", err)
			continue
		}

		result.Employees++
		result.Created += created
		result.Checked += checked
		s.notifyOverCommitted(ctx, overCommitted...)
	}

	s.logger.Info("leave balances reconciled",
		"year", result.Year, "employees", result.Employees, "created", result.Created, "checked", result.Checked)
	return result, nil
}
