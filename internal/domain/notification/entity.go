package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeLeaveSubmitted       NotificationType = "leave_submitted"
	TypeLeaveManagerApproved NotificationType = "leave_manager_approved"
	TypeLeaveHRApproved      NotificationType = "leave_hr_approved"
	TypeLeaveApproved        NotificationType = "leave_approved"
	TypeLeaveRejected        NotificationType = "leave_rejected"
	TypeLeaveCancelled       NotificationType = "leave_cancelled"
	TypeBalanceLow           NotificationType = "balance_low"
	TypeSystem               NotificationType = "system"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeLeaveSubmitted,
		TypeLeaveManagerApproved,
		TypeLeaveHRApproved,
		TypeLeaveApproved,
		TypeLeaveRejected,
		TypeLeaveCancelled,
		TypeBalanceLow,
		TypeSystem,
	}
}

// IsValid reports whether t is a known notification type.
func (t NotificationType) IsValid() bool {
	for _, known := range AllNotificationTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Notification represents a notification entity
type Notification struct {
	ID             string
	RecipientID    string
	SenderID       *string
	Type           NotificationType
	Title          string
	Message        string
	LeaveRequestID *string
	IsRead         bool
	ReadAt         *time.Time
	CreatedAt      time.Time
}
