package employee

import (
	"context"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
)

// EmployeeRepository is the read side of the employee directory.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// LockForUpdate locks the employee row until the surrounding
	// transaction ends.
	LockForUpdate(ctx context.Context, id string) error
	GetByIDs(ctx context.Context, ids []string) ([]Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
	ListActiveByRole(ctx context.Context, role user.Role) ([]Employee, error)
	ListActiveByGrade(ctx context.Context, gradeID string) ([]Employee, error)
}

// GradeRepository - interface for employment_grades and grade_entitlements tables
type GradeRepository interface {
	GetByID(ctx context.Context, id string) (EmploymentGrade, error)
	List(ctx context.Context, activeOnly bool) ([]EmploymentGrade, error)
	ListEntitlements(ctx context.Context, gradeID string) ([]GradeEntitlement, error)
	UpsertEntitlement(ctx context.Context, entitlement GradeEntitlement) (GradeEntitlement, bool, error)
}
