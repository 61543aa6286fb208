package leave

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var workflowNow = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func newPendingRequest() *LeaveRequest {
	r := &LeaveRequest{
		ID:          "req-1",
		EmployeeID:  "emp-1",
		LeaveTypeID: "lt-annual",
		StartDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:      StatusPending,
	}
	r.Normalize()
	return r
}

func actor(id string, role user.Role) Actor {
	return Actor{ID: id, Role: role}
}

func TestApprove_HappyPath(t *testing.T) {
	r := newPendingRequest()

	tr, err := r.Approve(actor("mgr", user.RoleManager), "ok", workflowNow)
	require.NoError(t, err)
	assert.Equal(t, StatusManagerApproved, r.Status)
	assert.Equal(t, user.StageManager, tr.Stage)
	assert.False(t, tr.Override)
	assert.Equal(t, "mgr", *r.ManagerApproval.ApproverID)
	assert.Equal(t, "ok", r.ManagerApproval.Comments)

	_, err = r.Approve(actor("hr", user.RoleHR), "fine", workflowNow)
	require.NoError(t, err)
	assert.Equal(t, StatusHRApproved, r.Status)
	assert.Equal(t, "hr", *r.HRApproval.ApproverID)

	tr, err = r.Approve(actor("ceo", user.RoleCEO), "approved", workflowNow)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, r.Status)
	assert.Equal(t, StatusHRApproved, tr.From)
	assert.Equal(t, StatusApproved, tr.To)
	assert.Equal(t, user.StageCompleted, r.Status.CurrentStage())
	assert.Nil(t, r.Status.NextApproverRole())

	d := r.FinalDisposition()
	require.NotNil(t, d)
	assert.Equal(t, user.StageCEO, d.Stage)
	assert.Equal(t, "ceo", d.ApproverID)
}

func TestApprove_WrongRoleForStage(t *testing.T) {
	tests := []struct {
		name   string
		status LeaveRequestStatus
		role   user.Role
	}{
		{"hr on pending", StatusPending, user.RoleHR},
		{"ceo on pending", StatusPending, user.RoleCEO},
		{"manager on manager approved", StatusManagerApproved, user.RoleManager},
		{"ceo on manager approved", StatusManagerApproved, user.RoleCEO},
		{"hr on hr approved", StatusHRApproved, user.RoleHR},
		{"staff on pending", StatusPending, user.RoleSeniorStaff},
		{"admin on approved", StatusApproved, user.RoleAdmin},
		{"ceo on rejected", StatusRejected, user.RoleCEO},
		{"manager on cancelled", StatusCancelled, user.RoleManager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newPendingRequest()
			r.Status = tt.status

			_, err := r.Approve(actor("x", tt.role), "", workflowNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))

			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.status.CurrentStage(), te.CurrentStage)
			assert.Equal(t, tt.status, r.Status, "status must not change")
			assert.Nil(t, r.ManagerApproval.ApproverID)
		})
	}
}

func TestApprove_TransitionErrorNamesRequiredRole(t *testing.T) {
	r := newPendingRequest()

	_, err := r.Approve(actor("hr", user.RoleHR), "", workflowNow)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	require.NotNil(t, te.RequiredRole)
	assert.Equal(t, user.RoleManager, *te.RequiredRole)
	assert.Contains(t, err.Error(), "current stage manager")
	assert.Contains(t, err.Error(), "requires manager")

	r.Status = StatusApproved
	_, err = r.Approve(actor("ceo", user.RoleCEO), "", workflowNow)
	require.ErrorAs(t, err, &te)
	assert.Nil(t, te.RequiredRole)
	assert.Equal(t, user.StageCompleted, te.CurrentStage)
}

func TestApprove_AdminOverrideAdvancesOneStage(t *testing.T) {
	r := newPendingRequest()
	admin := actor("admin", user.RoleAdmin)

	tr, err := r.Approve(admin, "urgent", workflowNow)
	require.NoError(t, err)
	assert.True(t, tr.Override)
	assert.Equal(t, StatusManagerApproved, r.Status)
	assert.Equal(t, "ADMIN OVERRIDE: urgent", r.ManagerApproval.Comments)
	assert.Nil(t, r.HRApproval.ApproverID)

	tr, err = r.Approve(admin, "urgent", workflowNow)
	require.NoError(t, err)
	assert.True(t, tr.Override)
	assert.Equal(t, StatusHRApproved, r.Status)
	assert.True(t, strings.HasPrefix(r.HRApproval.Comments, OverrideCommentPrefix))

	tr, err = r.Approve(admin, "final", workflowNow)
	require.NoError(t, err)
	assert.False(t, tr.Override, "admin is a regular approver at the ceo stage")
	assert.Equal(t, StatusApproved, r.Status)
	assert.Equal(t, "final", r.CEOApproval.Comments)
}

func TestReject(t *testing.T) {
	tests := []struct {
		name      string
		status    LeaveRequestStatus
		role      user.Role
		wantStage user.Stage
	}{
		{"manager on pending", StatusPending, user.RoleManager, user.StageManager},
		{"hr on pending", StatusPending, user.RoleHR, user.StageHR},
		{"hr on manager approved", StatusManagerApproved, user.RoleHR, user.StageHR},
		{"ceo on pending", StatusPending, user.RoleCEO, user.StageCEO},
		{"ceo on hr approved", StatusHRApproved, user.RoleCEO, user.StageCEO},
		{"admin on manager approved", StatusManagerApproved, user.RoleAdmin, user.StageCEO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newPendingRequest()
			r.Status = tt.status

			tr, err := r.Reject(actor("approver", tt.role), "no cover", workflowNow)
			require.NoError(t, err)
			assert.Equal(t, StatusRejected, r.Status)
			assert.Equal(t, tt.wantStage, tr.Stage)
			assert.Equal(t, "REJECTED: no cover", r.ApprovalAt(tt.wantStage).Comments)
			assert.Equal(t, user.StageRejected, r.Status.CurrentStage())
			assert.Nil(t, r.Status.NextApproverRole())
		})
	}
}

func TestReject_NotAllowed(t *testing.T) {
	tests := []struct {
		name   string
		status LeaveRequestStatus
		role   user.Role
	}{
		{"manager on manager approved", StatusManagerApproved, user.RoleManager},
		{"hr on hr approved", StatusHRApproved, user.RoleHR},
		{"staff on pending", StatusPending, user.RoleJuniorStaff},
		{"admin on rejected", StatusRejected, user.RoleAdmin},
		{"ceo on approved", StatusApproved, user.RoleCEO},
		{"admin on cancelled", StatusCancelled, user.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newPendingRequest()
			r.Status = tt.status

			_, err := r.Reject(actor("x", tt.role), "", workflowNow)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.status, r.Status)
		})
	}
}

func TestCancel(t *testing.T) {
	r := newPendingRequest()

	_, err := r.Cancel(actor("someone-else", user.RoleAdmin), workflowNow)
	assert.ErrorIs(t, err, ErrForbidden)

	tr, err := r.Cancel(actor("emp-1", user.RoleJuniorStaff), workflowNow)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, tr.To)
	assert.Equal(t, StatusCancelled, r.Status)
	require.NotNil(t, r.CancelledAt)

	_, err = r.Cancel(actor("emp-1", user.RoleJuniorStaff), workflowNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel_OnlyWhilePending(t *testing.T) {
	r := newPendingRequest()
	r.Status = StatusManagerApproved

	_, err := r.Cancel(actor("emp-1", user.RoleJuniorStaff), workflowNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
