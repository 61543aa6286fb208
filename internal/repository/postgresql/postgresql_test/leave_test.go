package postgresql_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/repository/postgresql"
	leaveService "github.com/cmlabs-hris/leave-approval-go/internal/service/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	setup, err := NewTestDatabase()
	require.NoError(t, err)
	if setup == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}
	t.Cleanup(setup.Close)

	require.NoError(t, setup.TruncateAllTables(context.Background()))
	return setup
}

func insertEmployee(t *testing.T, setup *TestDatabaseSetup, name string, role user.Role, managerID, gradeID *string) string {
	t.Helper()

	var id string
	err := setup.DB.QueryRow(context.Background(), `
		INSERT INTO employees (full_name, email, role, manager_id, grade_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, name, name+"@example.com", string(role), managerID, gradeID).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertLeaveType(t *testing.T, setup *TestDatabaseSetup, name string) string {
	t.Helper()

	var id string
	err := setup.DB.QueryRow(context.Background(),
		`INSERT INTO leave_types (name) VALUES ($1) RETURNING id`, name,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertGrade(t *testing.T, setup *TestDatabaseSetup, name string) string {
	t.Helper()

	var id string
	err := setup.DB.QueryRow(context.Background(),
		`INSERT INTO employment_grades (name, slug) VALUES ($1, $1) RETURNING id`, name,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestEmployeeRepository(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(setup.DB)

	gradeID := insertGrade(t, setup, "g1")
	managerID := insertEmployee(t, setup, "mona", user.RoleManager, nil, nil)
	staffID := insertEmployee(t, setup, "sam", user.RoleJuniorStaff, &managerID, &gradeID)
	insertEmployee(t, setup, "hana", user.RoleHR, nil, nil)

	t.Run("get by id", func(t *testing.T) {
		e, err := repo.GetByID(ctx, staffID)
		require.NoError(t, err)
		assert.Equal(t, "sam", e.FullName)
		assert.Equal(t, user.RoleJuniorStaff, e.Role)
		require.NotNil(t, e.ManagerID)
		assert.Equal(t, managerID, *e.ManagerID)
		assert.Equal(t, employee.DefaultAnnualLeaveEntitlement, e.AnnualEntitlement())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})

	t.Run("list by role and grade", func(t *testing.T) {
		hr, err := repo.ListActiveByRole(ctx, user.RoleHR)
		require.NoError(t, err)
		require.Len(t, hr, 1)
		assert.Equal(t, "hana", hr[0].FullName)

		graded, err := repo.ListActiveByGrade(ctx, gradeID)
		require.NoError(t, err)
		require.Len(t, graded, 1)
		assert.Equal(t, staffID, graded[0].ID)
	})
}

func TestGradeRepository_UpsertEntitlement(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewGradeRepository(setup.DB)

	gradeID := insertGrade(t, setup, "g1")
	typeID := insertLeaveType(t, setup, "Annual Leave")

	ge, created, err := repo.UpsertEntitlement(ctx, employee.GradeEntitlement{
		GradeID: gradeID, LeaveTypeID: typeID, EntitledDays: decimal.RequireFromString("20.50"),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, ge.ID)

	_, created, err = repo.UpsertEntitlement(ctx, employee.GradeEntitlement{
		GradeID: gradeID, LeaveTypeID: typeID, EntitledDays: decimal.NewFromInt(22),
	})
	require.NoError(t, err)
	assert.False(t, created)

	list, err := repo.ListEntitlements(ctx, gradeID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, decimal.NewFromInt(22).Equal(list[0].EntitledDays))
	require.NotNil(t, list[0].LeaveTypeName)
	assert.Equal(t, "Annual Leave", *list[0].LeaveTypeName)
}

func TestLeaveBalanceRepository_GetOrCreateConcurrent(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewLeaveBalanceRepository(setup.DB)

	employeeID := insertEmployee(t, setup, "sam", user.RoleJuniorStaff, nil, nil)
	typeID := insertLeaveType(t, setup, "Annual Leave")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.GetOrCreate(ctx, leave.LeaveBalance{
				EmployeeID: employeeID, LeaveTypeID: typeID, Year: 2025, EntitledDays: 20,
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)

	balances, err := repo.ListByEmployeeYear(ctx, employeeID, 2025)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, 20, balances[0].EntitledDays)

	require.NoError(t, repo.UpdateUsage(ctx, balances[0].ID, 3, 2))
	b, err := repo.Get(ctx, employeeID, typeID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 15, b.RemainingDays())

	_, err = repo.Get(ctx, employeeID, typeID, 2026)
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}

func TestLeaveRequestRepository_Workflow(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewLeaveRequestRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)

	managerID := insertEmployee(t, setup, "mona", user.RoleManager, nil, nil)
	staffID := insertEmployee(t, setup, "sam", user.RoleJuniorStaff, &managerID, nil)
	typeID := insertLeaveType(t, setup, "Annual Leave")

	req := leave.LeaveRequest{
		EmployeeID:  staffID,
		LeaveTypeID: typeID,
		StartDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:      leave.StatusPending,
	}
	req.Normalize()

	created, err := repo.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 5, created.TotalDays)

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := repo.GetByIDForUpdate(ctx, created.ID)
		if err != nil {
			return err
		}
		if _, err := locked.Approve(leave.Actor{ID: managerID, Role: user.RoleManager}, "ok", time.Now()); err != nil {
			return err
		}
		return repo.UpdateWorkflow(ctx, locked)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusManagerApproved, got.Status)
	assert.Equal(t, "ok", got.ManagerApproval.Comments)
	require.NotNil(t, got.EmployeeName)
	assert.Equal(t, "sam", *got.EmployeeName)

	overlap, err := repo.HasOverlap(ctx, staffID,
		time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		leave.InFlightStatuses())
	require.NoError(t, err)
	assert.True(t, overlap)

	sums, err := repo.SumDaysByStatus(ctx, staffID, typeID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 5, sums[leave.StatusManagerApproved])

	queue, err := repo.ListByStatuses(ctx, []leave.LeaveRequestStatus{leave.StatusManagerApproved})
	require.NoError(t, err)
	require.Len(t, queue, 1)

	status := leave.StatusApproved
	mine, err := repo.ListByEmployee(ctx, staffID, leave.RequestFilter{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, mine)
}

type discardDispatcher struct{}

func (discardDispatcher) Dispatch(context.Context, notification.Message) error { return nil }

func TestSubmit_ConcurrentOverlapAcrossLeaveTypes(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()

	balances := postgresql.NewLeaveBalanceRepository(setup.DB)
	requests := postgresql.NewLeaveRequestRepository(setup.DB)
	svc := leaveService.NewLeaveService(
		postgresql.NewTransactor(setup.DB),
		postgresql.NewEmployeeRepository(setup.DB),
		postgresql.NewGradeRepository(setup.DB),
		postgresql.NewLeaveTypeRepository(setup.DB),
		balances,
		requests,
		discardDispatcher{},
	)

	managerID := insertEmployee(t, setup, "mona", user.RoleManager, nil, nil)
	staffID := insertEmployee(t, setup, "sam", user.RoleJuniorStaff, &managerID, nil)
	annualID := insertLeaveType(t, setup, "Annual Leave")
	sickID := insertLeaveType(t, setup, "Sick Leave")

	// a Monday well in the future
	start := time.Now().UTC().AddDate(0, 2, 0)
	for start.Weekday() != time.Monday {
		start = start.AddDate(0, 0, 1)
	}
	end := start.AddDate(0, 0, 2)

	for _, typeID := range []string{annualID, sickID} {
		_, _, err := balances.GetOrCreate(ctx, leave.LeaveBalance{
			EmployeeID: staffID, LeaveTypeID: typeID, Year: start.Year(), EntitledDays: 20,
		})
		require.NoError(t, err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, typeID := range []string{annualID, sickID} {
		wg.Add(1)
		go func(typeID string) {
			defer wg.Done()
			_, err := svc.Submit(ctx, staffID, leave.SubmitLeaveRequest{
				LeaveTypeID: typeID,
				StartDate:   start.Format("2006-01-02"),
				EndDate:     end.Format("2006-01-02"),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, leave.ErrOverlappingRequest)
		}(typeID)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)

	mine, err := requests.ListByEmployee(ctx, staffID, leave.RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestTransactor_RollsBack(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	tx := postgresql.NewTransactor(setup.DB)
	balances := postgresql.NewLeaveBalanceRepository(setup.DB)

	employeeID := insertEmployee(t, setup, "sam", user.RoleJuniorStaff, nil, nil)
	typeID := insertLeaveType(t, setup, "Sick Leave")

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, _, err := balances.GetOrCreate(ctx, leave.LeaveBalance{
			EmployeeID: employeeID, LeaveTypeID: typeID, Year: 2025, EntitledDays: 10,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = balances.Get(ctx, employeeID, typeID, 2025)
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}

func TestNotificationRepository(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewNotificationRepository(setup.DB)

	a := insertEmployee(t, setup, "a", user.RoleJuniorStaff, nil, nil)
	b := insertEmployee(t, setup, "b", user.RoleHR, nil, nil)

	err := repo.CreateBatch(ctx, []*notification.Notification{
		{RecipientID: a, SenderID: &b, Type: notification.TypeLeaveApproved, Title: "one"},
		{RecipientID: a, Type: notification.TypeSystem, Title: "two"},
		{RecipientID: b, Type: notification.TypeSystem, Title: "three"},
	})
	require.NoError(t, err)

	items, total, err := repo.GetByRecipient(ctx, a, notification.ListNotificationsQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)

	require.NoError(t, repo.MarkAsRead(ctx, []string{items[0].ID}, a))
	count, err := repo.GetUnreadCount(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.MarkAllAsRead(ctx, a))
	count, err = repo.GetUnreadCount(ctx, a)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.GetUnreadCount(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	system := notification.TypeSystem
	items, total, err = repo.GetByRecipient(ctx, a, notification.ListNotificationsQuery{Page: 1, PageSize: 10, Type: &system})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "two", items[0].Title)
}
