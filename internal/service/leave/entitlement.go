package leave

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// entitlementWrite is the outcome of setting entitled_days on one balance.
type entitlementWrite struct {
	balance leave.LeaveBalance
	created bool
	updated bool
}

// setEntitled writes entitled_days for one balance key and leaves used and
// pending untouched. It must run inside a transaction.
func (s *LeaveServiceImpl) setEntitled(ctx context.Context, employeeID, leaveTypeID string, year, days int) (entitlementWrite, error) {
	balance, created, err := s.balances.GetOrCreate(ctx, leave.LeaveBalance{
		EmployeeID:   employeeID,
		LeaveTypeID:  leaveTypeID,
		Year:         year,
		EntitledDays: days,
	})
	if err != nil {
		return entitlementWrite{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	if created || balance.EntitledDays == days {
		return entitlementWrite{balance: balance, created: created}, nil
	}

	if err := s.balances.UpdateEntitled(ctx, balance.ID, days); err != nil {
		return entitlementWrite{}, err
	}
	balance.EntitledDays = days
	return entitlementWrite{balance: balance, updated: true}, nil
}

// ApplyGradeEntitlements implements leave.LeaveService.
func (s *LeaveServiceImpl) ApplyGradeEntitlements(ctx context.Context, actorID, gradeID string, year int) (leave.ApplyGradeResult, error) {
	if _, err := s.entitlementManager(ctx, actorID); err != nil {
		return leave.ApplyGradeResult{}, err
	}

	grade, err := s.activeGrade(ctx, gradeID)
	if err != nil {
		return leave.ApplyGradeResult{}, err
	}

	year = s.yearOrCurrent(year)
	var (
		changed  int
		affected []*leave.LeaveBalance
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		changed, affected, err = s.applyGrade(ctx, grade.ID, year)
		return err
	})
	if err != nil {
		return leave.ApplyGradeResult{}, err
	}

	s.logger.Info("grade entitlements applied", "grade_id", grade.ID, "year", year, "changed", changed)
	s.notifyOverCommitted(ctx, affected...)

	return leave.ApplyGradeResult{
		GradeID:   grade.ID,
		GradeName: grade.Name,
		Year:      year,
		Changed:   changed,
	}, nil
}

// applyGrade propagates a grade's entitlements to every active employee
// holding it. Only overwritten balances are counted as changed.
func (s *LeaveServiceImpl) applyGrade(ctx context.Context, gradeID string, year int) (int, []*leave.LeaveBalance, error) {
	entitlements, err := s.grades.ListEntitlements(ctx, gradeID)
	if err != nil {
		return 0, nil, err
	}
	if len(entitlements) == 0 {
		return 0, nil, nil
	}

	employees, err := s.employees.ListActiveByGrade(ctx, gradeID)
	if err != nil {
		return 0, nil, err
	}

	changed := 0
	var updated []*leave.LeaveBalance
	for _, emp := range employees {
		for _, ent := range entitlements {
			w, err := s.setEntitled(ctx, emp.ID, ent.LeaveTypeID, year, ent.WholeDays())
			if err != nil {
				return 0, nil, err
			}
			if w.updated {
				changed++
				updated = append(updated, &w.balance)
			}
		}
	}
	return changed, updated, nil
}

func (s *LeaveServiceImpl) activeGrade(ctx context.Context, gradeID string) (employee.EmploymentGrade, error) {
	grade, err := s.grades.GetByID(ctx, gradeID)
	if err != nil {
		return employee.EmploymentGrade{}, err
	}
	if !grade.IsActive {
		return employee.EmploymentGrade{}, employee.ErrGradeInactive
	}
	return grade, nil
}

// SetEntitlement implements leave.LeaveService.
func (s *LeaveServiceImpl) SetEntitlement(ctx context.Context, actorID string, req leave.SetEntitlementRequest) (leave.EntitlementResult, error) {
	if err := req.Validate(); err != nil {
		return leave.EntitlementResult{}, err
	}
	if _, err := s.entitlementManager(ctx, actorID); err != nil {
		return leave.EntitlementResult{}, err
	}

	lt, err := s.activeLeaveType(ctx, req.LeaveTypeID)
	if err != nil {
		return leave.EntitlementResult{}, err
	}

	var targets []employee.Employee
	switch {
	case req.GradeID != nil:
		if _, err := s.activeGrade(ctx, *req.GradeID); err != nil {
			return leave.EntitlementResult{}, err
		}
		targets, err = s.employees.ListActiveByGrade(ctx, *req.GradeID)
	case req.Role != nil:
		targets, err = s.employees.ListActiveByRole(ctx, user.Role(*req.Role))
		if err == nil && len(targets) == 0 {
			var errs validator.ValidationErrors
			errs.Add("role", fmt.Sprintf("no active employees found with role %s", *req.Role))
			return leave.EntitlementResult{}, errs
		}
	default:
		targets, err = s.employees.ListActive(ctx)
	}
	if err != nil {
		return leave.EntitlementResult{}, fmt.Errorf("failed to list target employees: %w", err)
	}

	result := leave.EntitlementResult{Year: s.yearOrCurrent(req.Year)}
	var updated []*leave.LeaveBalance
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if req.GradeID != nil {
			_, _, err := s.grades.UpsertEntitlement(ctx, employee.GradeEntitlement{
				GradeID:      *req.GradeID,
				LeaveTypeID:  lt.ID,
				EntitledDays: decimal.NewFromInt(int64(req.EntitledDays)),
			})
			if err != nil {
				return err
			}
		}
		for _, emp := range targets {
			w, err := s.setEntitled(ctx, emp.ID, lt.ID, result.Year, req.EntitledDays)
			if err != nil {
				return err
			}
			if w.created {
				result.Created++
			}
			if w.updated {
				result.Updated++
				updated = append(updated, &w.balance)
			}
		}
		return nil
	})
	if err != nil {
		return leave.EntitlementResult{}, err
	}

	s.logger.Info("entitlement set",
		"leave_type", lt.Name, "year", result.Year, "days", req.EntitledDays,
		"created", result.Created, "updated", result.Updated)
	s.notifyOverCommitted(ctx, updated...)
	return result, nil
}

// SetEmployeeEntitlements implements leave.LeaveService.
func (s *LeaveServiceImpl) SetEmployeeEntitlements(ctx context.Context, actorID, employeeID string, req leave.SetEmployeeEntitlementsRequest) (leave.EntitlementResult, error) {
	if err := req.Validate(); err != nil {
		return leave.EntitlementResult{}, err
	}
	if _, err := s.entitlementManager(ctx, actorID); err != nil {
		return leave.EntitlementResult{}, err
	}

	emp, err := s.activeEmployee(ctx, employeeID)
	if err != nil {
		return leave.EntitlementResult{}, err
	}
	for _, item := range req.Items {
		if _, err := s.activeLeaveType(ctx, item.LeaveTypeID); err != nil {
			return leave.EntitlementResult{}, err
		}
	}

	result := leave.EntitlementResult{Year: s.yearOrCurrent(req.Year)}
	var updated []*leave.LeaveBalance
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, item := range req.Items {
			w, err := s.setEntitled(ctx, emp.ID, item.LeaveTypeID, result.Year, item.EntitledDays)
			if err != nil {
				return err
			}
			if w.created {
				result.Created++
			}
			if w.updated {
				result.Updated++
				updated = append(updated, &w.balance)
			}
		}
		return nil
	})
	if err != nil {
		return leave.EntitlementResult{}, err
	}

	s.notifyOverCommitted(ctx, updated...)
	return result, nil
}

// BulkSetGradeEntitlements implements leave.LeaveService.
func (s *LeaveServiceImpl) BulkSetGradeEntitlements(ctx context.Context, actorID, gradeID string, req leave.BulkSetGradeEntitlementsRequest) (leave.BulkGradeEntitlementResult, error) {
	if err := req.Validate(); err != nil {
		return leave.BulkGradeEntitlementResult{}, err
	}
	if _, err := s.entitlementManager(ctx, actorID); err != nil {
		return leave.BulkGradeEntitlementResult{}, err
	}

	grade, err := s.activeGrade(ctx, gradeID)
	if err != nil {
		return leave.BulkGradeEntitlementResult{}, err
	}
	for _, item := range req.Items {
		if _, err := s.activeLeaveType(ctx, item.LeaveTypeID); err != nil {
			return leave.BulkGradeEntitlementResult{}, err
		}
	}

	year := s.yearOrCurrent(req.Year)
	result := leave.BulkGradeEntitlementResult{GradeID: grade.ID}
	var affected []*leave.LeaveBalance
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, item := range req.Items {
			_, created, err := s.grades.UpsertEntitlement(ctx, employee.GradeEntitlement{
				GradeID:      grade.ID,
				LeaveTypeID:  item.LeaveTypeID,
				EntitledDays: item.EntitledDays,
			})
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}

		if !req.ApplyNow {
			return nil
		}
		var err error
		result.Applied, affected, err = s.applyGrade(ctx, grade.ID, year)
		return err
	})
	if err != nil {
		return leave.BulkGradeEntitlementResult{}, err
	}

	s.notifyOverCommitted(ctx, affected...)
	return result, nil
}

// EntitlementSummary implements leave.LeaveService. CommonEntitledDays is
// the most frequent entitlement, preferring the smaller value on ties.
func (s *LeaveServiceImpl) EntitlementSummary(ctx context.Context, actorID, leaveTypeID string, year int) (leave.EntitlementSummaryResponse, error) {
	if _, err := s.entitlementManager(ctx, actorID); err != nil {
		return leave.EntitlementSummaryResponse{}, err
	}

	lt, err := s.leaveTypes.GetByID(ctx, leaveTypeID)
	if err != nil {
		return leave.EntitlementSummaryResponse{}, err
	}

	year = s.yearOrCurrent(year)
	balances, err := s.balances.ListByLeaveTypeYear(ctx, lt.ID, year)
	if err != nil {
		return leave.EntitlementSummaryResponse{}, err
	}

	return leave.EntitlementSummaryResponse{
		LeaveTypeID:        lt.ID,
		LeaveTypeName:      lt.Name,
		Year:               year,
		TotalBalances:      len(balances),
		CommonEntitledDays: commonEntitlement(balances),
	}, nil
}

func commonEntitlement(balances []leave.LeaveBalance) int {
	counts := make(map[int]int)
	for _, b := range balances {
		counts[b.EntitledDays]++
	}

	values := make([]int, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Ints(values)

	common, best := 0, 0
	for _, v := range values {
		if counts[v] > best {
			common, best = v, counts[v]
		}
	}
	return common
}

// RoleEntitlements implements leave.LeaveService. Every role reports the
// most common entitlement per active leave type among its active employees.
func (s *LeaveServiceImpl) RoleEntitlements(ctx context.Context, actorID string, year int) ([]leave.RoleEntitlementResponse, error) {
	if _, err := s.entitlementManager(ctx, actorID); err != nil {
		return nil, err
	}
	return s.roleEntitlements(ctx, user.AllRoles(), s.yearOrCurrent(year))
}

// RoleEntitlementSummary implements leave.LeaveService.
func (s *LeaveServiceImpl) RoleEntitlementSummary(ctx context.Context, actorID string, role user.Role, year int) (leave.RoleEntitlementResponse, error) {
	if _, err := s.entitlementManager(ctx, actorID); err != nil {
		return leave.RoleEntitlementResponse{}, err
	}
	if !role.IsValid() {
		var errs validator.ValidationErrors
		errs.Add("role", fmt.Sprintf("%q is not a valid role code", string(role)))
		return leave.RoleEntitlementResponse{}, errs
	}

	out, err := s.roleEntitlements(ctx, []user.Role{role}, s.yearOrCurrent(year))
	if err != nil {
		return leave.RoleEntitlementResponse{}, err
	}
	return out[0], nil
}

func (s *LeaveServiceImpl) roleEntitlements(ctx context.Context, roles []user.Role, year int) ([]leave.RoleEntitlementResponse, error) {
	types, err := s.leaveTypes.List(ctx, true)
	if err != nil {
		return nil, err
	}
	employees, err := s.employees.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	roleOf := make(map[string]user.Role, len(employees))
	headcount := make(map[user.Role]int)
	for _, e := range employees {
		roleOf[e.ID] = e.Role
		headcount[e.Role]++
	}

	// leave type -> role -> balances
	byType := make(map[string]map[user.Role][]leave.LeaveBalance, len(types))
	for _, lt := range types {
		balances, err := s.balances.ListByLeaveTypeYear(ctx, lt.ID, year)
		if err != nil {
			return nil, err
		}
		byRole := make(map[user.Role][]leave.LeaveBalance)
		for _, b := range balances {
			if role, ok := roleOf[b.EmployeeID]; ok {
				byRole[role] = append(byRole[role], b)
			}
		}
		byType[lt.ID] = byRole
	}

	out := make([]leave.RoleEntitlementResponse, 0, len(roles))
	for _, role := range roles {
		resp := leave.RoleEntitlementResponse{
			RoleCode:     role,
			RoleDisplay:  role.Display(),
			UserCount:    headcount[role],
			Year:         year,
			Entitlements: make([]leave.RoleLeaveEntitlement, 0, len(types)),
		}
		for _, lt := range types {
			resp.Entitlements = append(resp.Entitlements, leave.RoleLeaveEntitlement{
				LeaveTypeID:   lt.ID,
				LeaveTypeName: lt.Name,
				EntitledDays:  commonEntitlement(byType[lt.ID][role]),
			})
		}
		out = append(out, resp)
	}
	return out, nil
}
