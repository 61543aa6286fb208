package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, full_name, email, role, manager_id, grade_id,
	is_active_employee, annual_leave_entitlement, created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	var role string
	err := row.Scan(
		&e.ID,
		&e.FullName,
		&e.Email,
		&role,
		&e.ManagerID,
		&e.GradeID,
		&e.IsActiveEmployee,
		&e.AnnualLeaveEntitlement,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	e.Role = user.Role(role)
	return e, err
}

func (r *employeeRepositoryImpl) queryEmployees(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + employeeColumns + ` FROM employees WHERE id = $1`

	e, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", id, err)
	}
	return e, nil
}

// LockForUpdate implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) LockForUpdate(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	var locked string
	err := q.QueryRow(ctx, `SELECT id FROM employees WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to lock employee %s: %w", id, err)
	}
	return nil
}

// GetByIDs implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return []employee.Employee{}, nil
	}
	query := `SELECT` + employeeColumns + ` FROM employees WHERE id = ANY($1::uuid[]) ORDER BY full_name`
	return r.queryEmployees(ctx, query, ids)
}

// ListActive implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	query := `SELECT` + employeeColumns + ` FROM employees WHERE is_active_employee ORDER BY full_name`
	return r.queryEmployees(ctx, query)
}

// ListActiveByRole implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListActiveByRole(ctx context.Context, role user.Role) ([]employee.Employee, error) {
	query := `SELECT` + employeeColumns + ` FROM employees WHERE is_active_employee AND role = $1 ORDER BY full_name`
	return r.queryEmployees(ctx, query, string(role))
}

// ListActiveByGrade implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListActiveByGrade(ctx context.Context, gradeID string) ([]employee.Employee, error) {
	query := `SELECT` + employeeColumns + ` FROM employees WHERE is_active_employee AND grade_id = $1 ORDER BY full_name`
	return r.queryEmployees(ctx, query, gradeID)
}
