package notification

import (
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
)

// ============= Request DTOs =============

// Message is one notification addressed to a set of recipients.
type Message struct {
	Type           NotificationType
	SenderID       *string
	RecipientIDs   []string
	LeaveRequestID *string
	Title          string
	Body           string
}

// Recipients returns the distinct recipients, excluding the sender.
func (m Message) Recipients() []string {
	seen := make(map[string]struct{}, len(m.RecipientIDs))
	out := make([]string, 0, len(m.RecipientIDs))
	for _, id := range m.RecipientIDs {
		if id == "" {
			continue
		}
		if m.SenderID != nil && id == *m.SenderID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// MarkAsReadRequest represents a request to mark notifications as read
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids" validate:"required,min=1,dive,uuid"`
}

func (r *MarkAsReadRequest) Validate() error {
	return validator.Struct(r).Err()
}

// ListNotificationsQuery narrows a recipient's notification listing.
type ListNotificationsQuery struct {
	Page           int               `json:"page"`
	PageSize       int               `json:"page_size"`
	UnreadOnly     bool              `json:"unread_only"`
	LeaveRequestID *string           `json:"leave_request_id" validate:"omitempty,uuid"`
	Type           *NotificationType `json:"type"`
}

func (q *ListNotificationsQuery) Validate() error {
	errs := validator.Struct(q)
	if q.Type != nil && !q.Type.IsValid() {
		errs.Add("type", "type is not a known notification type")
	}
	return errs.Err()
}

// Normalize applies the default page and clamps page_size to 1..100.
func (q *ListNotificationsQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
}

// ============= Response DTOs =============

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID             string           `json:"id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	SenderID       *string          `json:"sender_id,omitempty"`
	LeaveRequestID *string          `json:"leave_request_id,omitempty"`
	IsRead         bool             `json:"is_read"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NotificationListResponse is one page of notifications. Paging travels in
// the response meta.
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
	Total         int                    `json:"-"`
	Page          int                    `json:"-"`
	PageSize      int                    `json:"-"`
}

// TotalPages returns the page count for Total at PageSize.
func (r NotificationListResponse) TotalPages() int {
	if r.PageSize <= 0 {
		return 0
	}
	return (r.Total + r.PageSize - 1) / r.PageSize
}

// UnreadCountResponse represents unread count response
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// SSEEvent represents a Server-Sent Event
type SSEEvent struct {
	Event string               `json:"event"`
	Data  NotificationResponse `json:"data"`
}

// ToResponse converts a Notification entity to NotificationResponse
func ToResponse(n Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		SenderID:       n.SenderID,
		LeaveRequestID: n.LeaveRequestID,
		IsRead:         n.IsRead,
		ReadAt:         n.ReadAt,
		CreatedAt:      n.CreatedAt,
	}
}

// SSETokenResponse carries a short-lived token for the stream endpoint
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
