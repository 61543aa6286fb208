package employee

import "errors"

var (
	ErrEmployeeNotFound         = errors.New("employee not found")
	ErrEmployeeInactive         = errors.New("employee is not active")
	ErrGradeNotFound            = errors.New("grade not found")
	ErrGradeInactive            = errors.New("grade is not active")
	ErrGradeEntitlementNotFound = errors.New("grade entitlement not found")
)
