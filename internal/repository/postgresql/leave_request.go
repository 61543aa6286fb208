package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestSelect = `
	SELECT lr.id, lr.employee_id, lr.leave_type_id,
		   lr.start_date, lr.end_date, lr.total_days, lr.reason, lr.status,
		   lr.manager_approved_by, lr.manager_approval_date, lr.manager_approval_comments,
		   lr.hr_approved_by, lr.hr_approval_date, lr.hr_approval_comments,
		   lr.ceo_approved_by, lr.ceo_approval_date, lr.ceo_approval_comments,
		   lr.cancelled_at, lr.created_at, lr.updated_at,
		   e.full_name, lt.name
	FROM leave_requests lr
	JOIN employees e ON e.id = lr.employee_id
	JOIN leave_types lt ON lt.id = lr.leave_type_id`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var (
		lr     leave.LeaveRequest
		status string
	)
	err := row.Scan(
		&lr.ID, &lr.EmployeeID, &lr.LeaveTypeID,
		&lr.StartDate, &lr.EndDate, &lr.TotalDays, &lr.Reason, &status,
		&lr.ManagerApproval.ApproverID, &lr.ManagerApproval.ActedAt, &lr.ManagerApproval.Comments,
		&lr.HRApproval.ApproverID, &lr.HRApproval.ActedAt, &lr.HRApproval.Comments,
		&lr.CEOApproval.ApproverID, &lr.CEOApproval.ActedAt, &lr.CEOApproval.Comments,
		&lr.CancelledAt, &lr.CreatedAt, &lr.UpdatedAt,
		&lr.EmployeeName, &lr.LeaveTypeName,
	)
	lr.Status = leave.LeaveRequestStatus(status)
	return lr, err
}

func (r *leaveRequestRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	requests := make([]leave.LeaveRequest, 0)
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, lr)
	}
	return requests, rows.Err()
}

func statusStrings(statuses []leave.LeaveRequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests (employee_id, leave_type_id, start_date, end_date, total_days, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		request.EmployeeID,
		request.LeaveTypeID,
		request.StartDate,
		request.EndDate,
		request.TotalDays,
		request.Reason,
		string(request.Status),
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.getOne(ctx, leaveRequestSelect+` WHERE lr.id = $1`, id)
}

// GetByIDForUpdate implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.getOne(ctx, leaveRequestSelect+` WHERE lr.id = $1 FOR UPDATE OF lr`, id)
}

func (r *leaveRequestRepositoryImpl) getOne(ctx context.Context, query string, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	lr, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request %s: %w", id, err)
	}
	return lr, nil
}

// UpdateWorkflow implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateWorkflow(ctx context.Context, request leave.LeaveRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests SET
			status = $2,
			manager_approved_by = $3, manager_approval_date = $4, manager_approval_comments = $5,
			hr_approved_by = $6, hr_approval_date = $7, hr_approval_comments = $8,
			ceo_approved_by = $9, ceo_approval_date = $10, ceo_approval_comments = $11,
			cancelled_at = $12,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		request.ID,
		string(request.Status),
		request.ManagerApproval.ApproverID, request.ManagerApproval.ActedAt, request.ManagerApproval.Comments,
		request.HRApproval.ApproverID, request.HRApproval.ActedAt, request.HRApproval.Comments,
		request.CEOApproval.ApproverID, request.CEOApproval.ActedAt, request.CEOApproval.Comments,
		request.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave request %s: %w", request.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// ListByEmployee implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, filter leave.RequestFilter) ([]leave.LeaveRequest, error) {
	conditions := []string{"lr.employee_id = $1"}
	args := []interface{}{employeeID}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("lr.status = $%d", len(args)))
	}
	if filter.Year != nil {
		args = append(args, *filter.Year)
		conditions = append(conditions, fmt.Sprintf("EXTRACT(YEAR FROM lr.start_date) = $%d", len(args)))
	}

	query := leaveRequestSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY lr.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.list(ctx, query, args...)
}

// ListByStatuses implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByStatuses(ctx context.Context, statuses []leave.LeaveRequestStatus) ([]leave.LeaveRequest, error) {
	if len(statuses) == 0 {
		return []leave.LeaveRequest{}, nil
	}
	query := leaveRequestSelect + ` WHERE lr.status = ANY($1::text[]) ORDER BY lr.created_at ASC`
	return r.list(ctx, query, statusStrings(statuses))
}

// HasOverlap implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) HasOverlap(ctx context.Context, employeeID string, start, end time.Time, statuses []leave.LeaveRequestStatus) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE employee_id = $1
			  AND status = ANY($2::text[])
			  AND start_date <= $4
			  AND end_date >= $3
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, statusStrings(statuses), start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check overlapping leave requests: %w", err)
	}
	return exists, nil
}

// SumDaysByStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) SumDaysByStatus(ctx context.Context, employeeID, leaveTypeID string, year int) (map[leave.LeaveRequestStatus]int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT status, COALESCE(SUM(total_days), 0)::int
		FROM leave_requests
		WHERE employee_id = $1
		  AND leave_type_id = $2
		  AND EXTRACT(YEAR FROM start_date) = $3
		GROUP BY status
	`
	rows, err := q.Query(ctx, query, employeeID, leaveTypeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to sum leave request days: %w", err)
	}
	defer rows.Close()

	sums := make(map[leave.LeaveRequestStatus]int)
	for rows.Next() {
		var (
			status string
			days   int
		)
		if err := rows.Scan(&status, &days); err != nil {
			return nil, fmt.Errorf("failed to scan leave request sum: %w", err)
		}
		sums[leave.LeaveRequestStatus(status)] = days
	}
	return sums, rows.Err()
}
