package leave

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/calendar"
)

// Notifications are sent after the transaction commits. Failures are
// logged and never reach the caller.

func (s *LeaveServiceImpl) dispatch(ctx context.Context, messages ...notification.Message) {
	for _, msg := range messages {
		if len(msg.Recipients()) == 0 {
			continue
		}
		if err := s.notifier.Dispatch(ctx, msg); err != nil {
			s.logger.Warn("failed to dispatch notification", "type", msg.Type, "error", err)
		}
	}
}

func (s *LeaveServiceImpl) roleIDs(ctx context.Context, role user.Role) []string {
	employees, err := s.employees.ListActiveByRole(ctx, role)
	if err != nil {
		s.logger.Warn("failed to resolve notification recipients", "role", role, "error", err)
		return nil
	}
	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}
	return ids
}

func managerIDs(emp employee.Employee) []string {
	if !emp.HasManager() {
		return nil
	}
	return []string{*emp.ManagerID}
}

func leaveDescription(r leave.LeaveRequest) string {
	name := "leave"
	if r.LeaveTypeName != nil {
		name = *r.LeaveTypeName
	}
	return fmt.Sprintf("%s from %s to %s", name,
		r.StartDate.Format(calendar.DateLayout), r.EndDate.Format(calendar.DateLayout))
}

func employeeName(r leave.LeaveRequest, emp employee.Employee) string {
	if r.EmployeeName != nil {
		return *r.EmployeeName
	}
	return emp.FullName
}

func (s *LeaveServiceImpl) notifySubmitted(ctx context.Context, r leave.LeaveRequest, emp employee.Employee) {
	msg := notification.Message{
		Type:           notification.TypeLeaveSubmitted,
		SenderID:       &emp.ID,
		LeaveRequestID: &r.ID,
		Title:          fmt.Sprintf("New Leave Request from %s", emp.FullName),
		Body:           fmt.Sprintf("%s has submitted a leave request for %s.", emp.FullName, leaveDescription(r)),
	}
	if emp.HasManager() {
		msg.RecipientIDs = managerIDs(emp)
	} else {
		msg.Title = "New Leave Request (No Manager Assigned)"
		msg.Body += " No manager assigned."
		msg.RecipientIDs = s.roleIDs(ctx, user.RoleHR)
	}
	s.dispatch(ctx, msg)
}

func (s *LeaveServiceImpl) notifyCancelled(ctx context.Context, r leave.LeaveRequest, emp employee.Employee) {
	recipients := managerIDs(emp)
	if len(recipients) == 0 {
		recipients = s.roleIDs(ctx, user.RoleHR)
	}
	s.dispatch(ctx, notification.Message{
		Type:           notification.TypeLeaveCancelled,
		SenderID:       &emp.ID,
		RecipientIDs:   recipients,
		LeaveRequestID: &r.ID,
		Title:          "Leave Request Cancelled",
		Body:           fmt.Sprintf("%s has cancelled the leave request for %s.", emp.FullName, leaveDescription(r)),
	})
}

// notifyTransition sends the messages for an approval or rejection. owner is
// the employee who submitted r.
func (s *LeaveServiceImpl) notifyTransition(ctx context.Context, r leave.LeaveRequest, owner employee.Employee, actorID string, t leave.Transition) {
	base := notification.Message{SenderID: &actorID, LeaveRequestID: &r.ID}
	desc := leaveDescription(r)
	name := employeeName(r, owner)

	msg := func(typ notification.NotificationType, recipients []string, title, body string) notification.Message {
		m := base
		m.Type = typ
		m.RecipientIDs = recipients
		m.Title = title
		m.Body = body
		return m
	}

	switch t.To {
	case leave.StatusManagerApproved:
		s.dispatch(ctx,
			msg(notification.TypeLeaveManagerApproved, []string{owner.ID},
				"Leave Request Approved by Manager",
				fmt.Sprintf("Your leave request for %s has been approved by your manager and forwarded to HR for review.", desc)),
			msg(notification.TypeLeaveManagerApproved, s.roleIDs(ctx, user.RoleHR),
				"Leave Request Ready for HR Review",
				fmt.Sprintf("A leave request from %s for %s has been approved by the manager and requires HR review.", name, desc)),
		)

	case leave.StatusHRApproved:
		s.dispatch(ctx,
			msg(notification.TypeLeaveHRApproved, []string{owner.ID},
				"Leave Request Approved by HR",
				fmt.Sprintf("Your leave request for %s has been approved by HR and forwarded to the CEO for final approval.", desc)),
			msg(notification.TypeLeaveHRApproved, managerIDs(owner),
				"Leave Request Approved by HR",
				fmt.Sprintf("The leave request from %s for %s has been approved by HR and forwarded to the CEO.", name, desc)),
			msg(notification.TypeLeaveHRApproved, s.roleIDs(ctx, user.RoleCEO),
				"Leave Request Ready for CEO Approval",
				fmt.Sprintf("A leave request from %s for %s has been approved by HR and requires CEO approval.", name, desc)),
		)

	case leave.StatusApproved:
		others := append(managerIDs(owner), s.roleIDs(ctx, user.RoleHR)...)
		s.dispatch(ctx,
			msg(notification.TypeLeaveApproved, []string{owner.ID},
				"Leave Request FULLY APPROVED",
				fmt.Sprintf("Congratulations! Your leave request for %s has received final approval from the CEO.", desc)),
			msg(notification.TypeLeaveApproved, others,
				"Leave Request Fully Approved",
				fmt.Sprintf("The leave request from %s for %s has received final approval from the CEO.", name, desc)),
		)

	case leave.StatusRejected:
		stageName := rejectionStageName(t.Stage)
		reason := r.ApprovalAt(t.Stage).Comments
		title := fmt.Sprintf("Leave Request Rejected by %s", stageName)

		var others []string
		switch t.Stage {
		case user.StageHR:
			others = managerIDs(owner)
		case user.StageCEO:
			others = append(managerIDs(owner), s.roleIDs(ctx, user.RoleHR)...)
		}

		s.dispatch(ctx,
			msg(notification.TypeLeaveRejected, []string{owner.ID}, title,
				fmt.Sprintf("Your leave request for %s has been rejected by %s. Reason: %s", desc, stageName, reason)),
			msg(notification.TypeLeaveRejected, others, title,
				fmt.Sprintf("The leave request from %s for %s has been rejected by %s. Reason: %s", name, desc, stageName, reason)),
		)
	}
}

func rejectionStageName(stage user.Stage) string {
	if role, ok := stage.ApproverRole(); ok {
		return role.Display()
	}
	return user.RoleCEO.Display()
}

// notifyOverCommitted warns HR about balances whose used and pending days
// exceed the entitlement.
func (s *LeaveServiceImpl) notifyOverCommitted(ctx context.Context, balances ...*leave.LeaveBalance) {
	var hr []string
	for _, b := range balances {
		if b == nil || !b.OverCommitted() {
			continue
		}
		if hr == nil {
			hr = s.roleIDs(ctx, user.RoleHR)
		}

		s.logger.Warn("leave balance over-committed",
			"employee_id", b.EmployeeID, "leave_type_id", b.LeaveTypeID, "year", b.Year,
			"entitled", b.EntitledDays, "used", b.UsedDays, "pending", b.PendingDays)

		who := b.EmployeeID
		if emp, err := s.employees.GetByID(ctx, b.EmployeeID); err == nil {
			who = emp.FullName
		}
		typeName := b.LeaveTypeID
		if b.LeaveTypeName != nil {
			typeName = *b.LeaveTypeName
		}

		s.dispatch(ctx, notification.Message{
			Type:         notification.TypeBalanceLow,
			RecipientIDs: hr,
			Title:        "Leave Balance Over-Committed",
			Body: fmt.Sprintf("%s has %d entitled days of %s for %d but %d used and %d pending.",
				who, b.EntitledDays, typeName, b.Year, b.UsedDays, b.PendingDays),
		})
	}
}
