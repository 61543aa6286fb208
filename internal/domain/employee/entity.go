package employee

import (
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

// DefaultAnnualLeaveEntitlement is used when an employee has no personal
// annual entitlement configured.
const DefaultAnnualLeaveEntitlement = 25

type Employee struct {
	ID                     string
	FullName               string
	Email                  string
	Role                   user.Role
	ManagerID              *string
	GradeID                *string
	IsActiveEmployee       bool
	AnnualLeaveEntitlement int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// AnnualEntitlement returns the personal annual entitlement, falling back
// to the company default.
func (e Employee) AnnualEntitlement() int {
	if e.AnnualLeaveEntitlement <= 0 {
		return DefaultAnnualLeaveEntitlement
	}
	return e.AnnualLeaveEntitlement
}

// HasManager reports whether a manager is assigned.
func (e Employee) HasManager() bool {
	return e.ManagerID != nil && *e.ManagerID != ""
}

// EmploymentGrade groups employees for bulk entitlement configuration.
type EmploymentGrade struct {
	ID          string
	Name        string
	Slug        string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GradeEntitlement is the configured allowance of one leave type for a grade.
type GradeEntitlement struct {
	ID           string
	GradeID      string
	LeaveTypeID  string
	EntitledDays decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Join
	LeaveTypeName *string
}

// WholeDays converts the configured allowance to the whole days stored on a
// balance. Fractions are truncated.
func (g GradeEntitlement) WholeDays() int {
	return int(g.EntitledDays.IntPart())
}
