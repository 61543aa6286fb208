package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var transitionErr *leave.TransitionError
	if errors.As(err, &transitionErr) {
		details := map[string]string{
			"current_stage":  string(transitionErr.CurrentStage),
			"current_status": string(transitionErr.Status),
			"actor_role":     string(transitionErr.ActorRole),
		}
		if transitionErr.RequiredRole != nil {
			details["required_role"] = string(*transitionErr.RequiredRole)
		}
		ConflictWithDetails(w, transitionErr.Error(), details)
		return
	}

	switch {
	// Auth
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is not active")
	case errors.Is(err, employee.ErrGradeNotFound):
		NotFound(w, "Grade not found")
	case errors.Is(err, employee.ErrGradeInactive):
		BadRequest(w, "Grade is not active", nil)
	case errors.Is(err, employee.ErrGradeEntitlementNotFound):
		NotFound(w, "Grade entitlement not found")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrBalanceNotFound):
		NotFound(w, "Leave balance not found")
	case errors.Is(err, leave.ErrInsufficientBalance),
		errors.Is(err, leave.ErrNoBalanceConfigured),
		errors.Is(err, leave.ErrLeaveTypeInactive):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, leave.ErrOverlappingRequest):
		Conflict(w, err.Error())
	case errors.Is(err, leave.ErrInvalidTransition):
		Conflict(w, err.Error())
	case errors.Is(err, leave.ErrForbidden):
		Forbidden(w, err.Error())

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
