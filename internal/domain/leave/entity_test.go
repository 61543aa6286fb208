package leave

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLeaveBalance_RemainingDays(t *testing.T) {
	tests := []struct {
		name                    string
		entitled, used, pending int
		want                    int
		overCommitted           bool
	}{
		{"fresh", 25, 0, 0, 25, false},
		{"partly used", 25, 5, 3, 17, false},
		{"exactly spent", 10, 6, 4, 0, false},
		{"over committed", 10, 8, 5, 0, true},
		{"entitlement reduced to zero", 0, 3, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := LeaveBalance{EntitledDays: tt.entitled, UsedDays: tt.used, PendingDays: tt.pending}
			assert.Equal(t, tt.want, b.RemainingDays())
			assert.Equal(t, tt.overCommitted, b.OverCommitted())
		})
	}
}

func TestLeaveRequest_NormalizeRecomputesTotalDays(t *testing.T) {
	r := LeaveRequest{
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 12),
		TotalDays: 99,
	}

	r.Normalize()

	assert.Equal(t, 10, r.TotalDays)
	assert.Equal(t, 2024, r.Year())
}

func TestLeaveRequest_Validate(t *testing.T) {
	today := date(2025, 3, 3)

	t.Run("valid pending", func(t *testing.T) {
		r := LeaveRequest{Status: StatusPending, StartDate: today, EndDate: date(2025, 3, 4)}
		assert.NoError(t, r.Validate(today))
	})

	t.Run("end before start", func(t *testing.T) {
		r := LeaveRequest{Status: StatusPending, StartDate: date(2025, 3, 10), EndDate: date(2025, 3, 7)}
		err := r.Validate(today)

		var errs validator.ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs.ToMap(), "end_date")
	})

	t.Run("pending in the past", func(t *testing.T) {
		r := LeaveRequest{Status: StatusPending, StartDate: date(2025, 2, 28), EndDate: date(2025, 3, 4)}
		err := r.Validate(today)

		var errs validator.ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, "start_date cannot be in the past", errs.ToMap()["start_date"])
	})

	t.Run("past start tolerated after pending", func(t *testing.T) {
		for _, st := range []LeaveRequestStatus{StatusManagerApproved, StatusHRApproved, StatusApproved, StatusRejected} {
			r := LeaveRequest{Status: st, StartDate: date(2025, 2, 3), EndDate: date(2025, 2, 7)}
			assert.NoError(t, r.Validate(today), st)
		}
	})
}

func TestStatus_CurrentStage(t *testing.T) {
	assert.Equal(t, user.StageManager, StatusPending.CurrentStage())
	assert.Equal(t, user.StageHR, StatusManagerApproved.CurrentStage())
	assert.Equal(t, user.StageCEO, StatusHRApproved.CurrentStage())
	assert.Equal(t, user.StageCompleted, StatusApproved.CurrentStage())
	assert.Equal(t, user.StageRejected, StatusRejected.CurrentStage())
	assert.Equal(t, user.StageCancelled, StatusCancelled.CurrentStage())

	require.NotNil(t, StatusHRApproved.NextApproverRole())
	assert.Equal(t, user.RoleCEO, *StatusHRApproved.NextApproverRole())
	assert.Nil(t, StatusCancelled.NextApproverRole())
}

func TestStatusAwaiting(t *testing.T) {
	for _, st := range InFlightStatuses() {
		got, ok := StatusAwaiting(st.CurrentStage())
		require.True(t, ok)
		assert.Equal(t, st, got)
	}
	_, ok := StatusAwaiting(user.StageCompleted)
	assert.False(t, ok)
}

func TestLeaveType_MaxDays(t *testing.T) {
	assert.Equal(t, DefaultMaxDaysPerRequest, LeaveType{}.MaxDays())
	assert.Equal(t, 5, LeaveType{MaxDaysPerRequest: 5}.MaxDays())
}

func TestDefaultEntitlement(t *testing.T) {
	tests := []struct {
		leaveType string
		role      user.Role
		annual    int
		want      int
	}{
		{"Annual Leave", user.RoleJuniorStaff, 25, 25},
		{"Annual Leave", user.RoleManager, 30, 30},
		{"Sick Leave", user.RoleHR, 25, 14},
		{"Sick Leave", user.RoleSeniorStaff, 25, 10},
		{"Maternity Leave", user.RoleAdmin, 25, 90},
		{"Maternity Leave", user.RoleCEO, 25, 84},
		{"Paternity Leave", user.RoleManager, 25, 14},
		{"PATERNITY", user.RoleJuniorStaff, 25, 7},
		{"Compassionate Leave", user.RoleManager, 25, 5},
		{"Casual Leave", user.RoleManager, 25, 7},
		{"Casual Leave", user.RoleSeniorStaff, 25, 5},
		{"Study Leave", user.RoleAdmin, 25, 10},
	}

	for _, tt := range tests {
		t.Run(tt.leaveType+"/"+string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultEntitlement(tt.leaveType, tt.role, tt.annual))
		})
	}
}
