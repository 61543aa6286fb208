package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type gradeRepositoryImpl struct {
	db *database.DB
}

func NewGradeRepository(db *database.DB) employee.GradeRepository {
	return &gradeRepositoryImpl{db: db}
}

// GetByID implements employee.GradeRepository.
func (r *gradeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.EmploymentGrade, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, slug, description, is_active, created_at, updated_at
		FROM employment_grades
		WHERE id = $1
	`

	var g employee.EmploymentGrade
	err := q.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.Slug, &g.Description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.EmploymentGrade{}, employee.ErrGradeNotFound
		}
		return employee.EmploymentGrade{}, fmt.Errorf("failed to get grade %s: %w", id, err)
	}
	return g, nil
}

// List implements employee.GradeRepository.
func (r *gradeRepositoryImpl) List(ctx context.Context, activeOnly bool) ([]employee.EmploymentGrade, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, slug, description, is_active, created_at, updated_at
		FROM employment_grades
		WHERE is_active OR NOT $1
		ORDER BY name
	`

	rows, err := q.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	defer rows.Close()

	grades := make([]employee.EmploymentGrade, 0)
	for rows.Next() {
		var g employee.EmploymentGrade
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug, &g.Description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// ListEntitlements implements employee.GradeRepository.
func (r *gradeRepositoryImpl) ListEntitlements(ctx context.Context, gradeID string) ([]employee.GradeEntitlement, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ge.id, ge.grade_id, ge.leave_type_id, ge.entitled_days::text,
			   ge.created_at, ge.updated_at, lt.name
		FROM grade_entitlements ge
		JOIN leave_types lt ON lt.id = ge.leave_type_id
		WHERE ge.grade_id = $1
		ORDER BY lt.name
	`

	rows, err := q.Query(ctx, query, gradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grade entitlements: %w", err)
	}
	defer rows.Close()

	entitlements := make([]employee.GradeEntitlement, 0)
	for rows.Next() {
		var (
			ge   employee.GradeEntitlement
			days string
		)
		if err := rows.Scan(&ge.ID, &ge.GradeID, &ge.LeaveTypeID, &days, &ge.CreatedAt, &ge.UpdatedAt, &ge.LeaveTypeName); err != nil {
			return nil, fmt.Errorf("failed to scan grade entitlement: %w", err)
		}
		if ge.EntitledDays, err = decimal.NewFromString(days); err != nil {
			return nil, fmt.Errorf("invalid entitled_days %q: %w", days, err)
		}
		entitlements = append(entitlements, ge)
	}
	return entitlements, rows.Err()
}

// UpsertEntitlement implements employee.GradeRepository. The boolean
// reports whether a new row was created.
func (r *gradeRepositoryImpl) UpsertEntitlement(ctx context.Context, ge employee.GradeEntitlement) (employee.GradeEntitlement, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO grade_entitlements (grade_id, leave_type_id, entitled_days)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (grade_id, leave_type_id)
		DO UPDATE SET entitled_days = EXCLUDED.entitled_days, updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := q.QueryRow(ctx, query, ge.GradeID, ge.LeaveTypeID, ge.EntitledDays.String()).Scan(
		&ge.ID, &ge.CreatedAt, &ge.UpdatedAt, &inserted,
	)
	if err != nil {
		return employee.GradeEntitlement{}, false, fmt.Errorf("failed to upsert grade entitlement: %w", err)
	}
	return ge, inserted, nil
}
