package notification

import (
	"context"
)

// Dispatcher delivers workflow notifications. Delivery is asynchronous and
// callers must not depend on it succeeding.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// Service defines the notification service interface
type Service interface {
	Dispatcher

	GetNotifications(ctx context.Context, recipientID string, query ListNotificationsQuery) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, recipientID string) (int, error)
	MarkAsRead(ctx context.Context, recipientID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, recipientID string) error

	// Subscribe streams notifications for recipientID until ctx is done or
	// the returned cleanup is called.
	Subscribe(ctx context.Context, recipientID string) (<-chan SSEEvent, func())

	// Stop flushes queued notifications and stops the workers.
	Stop()
}
