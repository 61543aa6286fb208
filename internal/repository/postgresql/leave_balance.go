package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const leaveBalanceSelect = `
	SELECT lb.id, lb.employee_id, lb.leave_type_id, lb.year,
		   lb.entitled_days, lb.used_days, lb.pending_days,
		   lb.created_at, lb.updated_at, lt.name
	FROM leave_balances lb
	JOIN leave_types lt ON lt.id = lb.leave_type_id`

func scanLeaveBalance(row pgx.Row) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.Year,
		&b.EntitledDays, &b.UsedDays, &b.PendingDays,
		&b.CreatedAt, &b.UpdatedAt, &b.LeaveTypeName,
	)
	return b, err
}

func (r *leaveBalanceRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	b, err := scanLeaveBalance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return b, nil
}

func (r *leaveBalanceRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave balances: %w", err)
	}
	defer rows.Close()

	balances := make([]leave.LeaveBalance, 0)
	for rows.Next() {
		b, err := scanLeaveBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// GetOrCreate implements leave.LeaveBalanceRepository. Concurrent callers
// race on the unique key; the loser reads the winner's row.
func (r *leaveBalanceRepositoryImpl) GetOrCreate(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, bool, error) {
	q := GetQuerier(ctx, r.db)

	insert := `
		INSERT INTO leave_balances (employee_id, leave_type_id, year, entitled_days, used_days, pending_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id, leave_type_id, year) DO NOTHING
	`
	tag, err := q.Exec(ctx, insert,
		balance.EmployeeID, balance.LeaveTypeID, balance.Year,
		balance.EntitledDays, balance.UsedDays, balance.PendingDays,
	)
	if err != nil {
		return leave.LeaveBalance{}, false, fmt.Errorf("failed to create leave balance: %w", err)
	}

	stored, err := r.Get(ctx, balance.EmployeeID, balance.LeaveTypeID, balance.Year)
	if err != nil {
		return leave.LeaveBalance{}, false, err
	}
	return stored, tag.RowsAffected() == 1, nil
}

// Get implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	query := leaveBalanceSelect + `
		WHERE lb.employee_id = $1 AND lb.leave_type_id = $2 AND lb.year = $3`
	return r.getOne(ctx, query, employeeID, leaveTypeID, year)
}

// GetForUpdate implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	query := leaveBalanceSelect + `
		WHERE lb.employee_id = $1 AND lb.leave_type_id = $2 AND lb.year = $3
		FOR UPDATE OF lb`
	return r.getOne(ctx, query, employeeID, leaveTypeID, year)
}

// ListByEmployeeYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	query := leaveBalanceSelect + `
		WHERE lb.employee_id = $1 AND lb.year = $2
		ORDER BY lt.name`
	return r.list(ctx, query, employeeID, year)
}

// ListByLeaveTypeYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) ListByLeaveTypeYear(ctx context.Context, leaveTypeID string, year int) ([]leave.LeaveBalance, error) {
	query := leaveBalanceSelect + `
		WHERE lb.leave_type_id = $1 AND lb.year = $2
		ORDER BY lb.employee_id`
	return r.list(ctx, query, leaveTypeID, year)
}

// UpdateUsage implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) UpdateUsage(ctx context.Context, id string, usedDays, pendingDays int) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET used_days = $2, pending_days = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id, usedDays, pendingDays)
	if err != nil {
		return fmt.Errorf("failed to update leave balance usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrBalanceNotFound
	}
	return nil
}

// UpdateEntitled implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) UpdateEntitled(ctx context.Context, id string, entitledDays int) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET entitled_days = $2, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id, entitledDays)
	if err != nil {
		return fmt.Errorf("failed to update leave balance entitlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrBalanceNotFound
	}
	return nil
}
