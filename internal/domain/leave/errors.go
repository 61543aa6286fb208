package leave

import "errors"

var (
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrLeaveTypeNotFound    = errors.New("leave type not found")
	ErrLeaveTypeInactive    = errors.New("leave type is not active")
	ErrBalanceNotFound      = errors.New("leave balance not found")
	ErrNoBalanceConfigured  = errors.New("no leave balance configured for this leave type and year")
	ErrInsufficientBalance  = errors.New("insufficient leave balance")
	ErrOverlappingRequest   = errors.New("leave request overlaps an existing pending or approved request")
	ErrInvalidTransition    = errors.New("invalid leave request transition")
	ErrForbidden            = errors.New("not allowed to access this leave request")
)
