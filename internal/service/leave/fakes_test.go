package leave

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/calendar"
	"github.com/google/uuid"
)

// memStore backs every fake repository.
type memStore struct {
	mu         sync.Mutex
	employees  map[string]employee.Employee
	grades     map[string]employee.EmploymentGrade
	gradeEnts  map[string]employee.GradeEntitlement // grade|leave type
	leaveTypes map[string]leave.LeaveType
	balances   map[string]leave.LeaveBalance // employee|leave type|year
	requests   []leave.LeaveRequest
}

func newMemStore() *memStore {
	return &memStore{
		employees:  map[string]employee.Employee{},
		grades:     map[string]employee.EmploymentGrade{},
		gradeEnts:  map[string]employee.GradeEntitlement{},
		leaveTypes: map[string]leave.LeaveType{},
		balances:   map[string]leave.LeaveBalance{},
	}
}

func balanceKey(employeeID, leaveTypeID string, year int) string {
	return employeeID + "|" + leaveTypeID + "|" + strconv.Itoa(year)
}

// fakeTx serializes transactions, which stands in for row locks. Nested
// calls join the outer transaction.
type fakeTx struct {
	mu sync.Mutex
}

type inTxKey struct{}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(context.WithValue(ctx, inTxKey{}, true))
}

// ============= Employees and grades =============

type fakeEmployees struct{ s *memStore }

func (f fakeEmployees) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// LockForUpdate only checks existence; fakeTx already serializes.
func (f fakeEmployees) LockForUpdate(ctx context.Context, id string) error {
	_, err := f.GetByID(ctx, id)
	return err
}

func (f fakeEmployees) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range ids {
		if e, err := f.GetByID(ctx, id); err == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f fakeEmployees) filter(keep func(employee.Employee) bool) []employee.Employee {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]employee.Employee, 0)
	for _, e := range f.s.employees {
		if e.IsActiveEmployee && keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

func (f fakeEmployees) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return f.filter(func(employee.Employee) bool { return true }), nil
}

func (f fakeEmployees) ListActiveByRole(ctx context.Context, role user.Role) ([]employee.Employee, error) {
	return f.filter(func(e employee.Employee) bool { return e.Role == role }), nil
}

func (f fakeEmployees) ListActiveByGrade(ctx context.Context, gradeID string) ([]employee.Employee, error) {
	return f.filter(func(e employee.Employee) bool { return e.GradeID != nil && *e.GradeID == gradeID }), nil
}

type fakeGrades struct{ s *memStore }

func (f fakeGrades) GetByID(ctx context.Context, id string) (employee.EmploymentGrade, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	g, ok := f.s.grades[id]
	if !ok {
		return employee.EmploymentGrade{}, employee.ErrGradeNotFound
	}
	return g, nil
}

func (f fakeGrades) List(ctx context.Context, activeOnly bool) ([]employee.EmploymentGrade, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []employee.EmploymentGrade
	for _, g := range f.s.grades {
		if g.IsActive || !activeOnly {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f fakeGrades) ListEntitlements(ctx context.Context, gradeID string) ([]employee.GradeEntitlement, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []employee.GradeEntitlement
	for _, ge := range f.s.gradeEnts {
		if ge.GradeID == gradeID {
			out = append(out, ge)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveTypeID < out[j].LeaveTypeID })
	return out, nil
}

func (f fakeGrades) UpsertEntitlement(ctx context.Context, ge employee.GradeEntitlement) (employee.GradeEntitlement, bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	key := ge.GradeID + "|" + ge.LeaveTypeID
	existing, ok := f.s.gradeEnts[key]
	if ok {
		existing.EntitledDays = ge.EntitledDays
		f.s.gradeEnts[key] = existing
		return existing, false, nil
	}
	ge.ID = uuid.NewString()
	f.s.gradeEnts[key] = ge
	return ge, true, nil
}

// ============= Leave types, balances and requests =============

type fakeLeaveTypes struct{ s *memStore }

func (f fakeLeaveTypes) GetByID(ctx context.Context, id string) (leave.LeaveType, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	lt, ok := f.s.leaveTypes[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
	}
	return lt, nil
}

func (f fakeLeaveTypes) List(ctx context.Context, activeOnly bool) ([]leave.LeaveType, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []leave.LeaveType
	for _, lt := range f.s.leaveTypes {
		if lt.IsActive || !activeOnly {
			out = append(out, lt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeBalances struct{ s *memStore }

func (f fakeBalances) withName(b leave.LeaveBalance) leave.LeaveBalance {
	if lt, ok := f.s.leaveTypes[b.LeaveTypeID]; ok {
		name := lt.Name
		b.LeaveTypeName = &name
	}
	return b
}

func (f fakeBalances) GetOrCreate(ctx context.Context, b leave.LeaveBalance) (leave.LeaveBalance, bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	key := balanceKey(b.EmployeeID, b.LeaveTypeID, b.Year)
	if existing, ok := f.s.balances[key]; ok {
		return f.withName(existing), false, nil
	}
	b.ID = uuid.NewString()
	f.s.balances[key] = b
	return f.withName(b), true, nil
}

func (f fakeBalances) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.balances[balanceKey(employeeID, leaveTypeID, year)]
	if !ok {
		return leave.LeaveBalance{}, leave.ErrBalanceNotFound
	}
	return f.withName(b), nil
}

func (f fakeBalances) GetForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	return f.Get(ctx, employeeID, leaveTypeID, year)
}

func (f fakeBalances) list(keep func(leave.LeaveBalance) bool) []leave.LeaveBalance {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]leave.LeaveBalance, 0)
	for _, b := range f.s.balances {
		if keep(b) {
			out = append(out, f.withName(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeBalances) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	return f.list(func(b leave.LeaveBalance) bool { return b.EmployeeID == employeeID && b.Year == year }), nil
}

func (f fakeBalances) ListByLeaveTypeYear(ctx context.Context, leaveTypeID string, year int) ([]leave.LeaveBalance, error) {
	return f.list(func(b leave.LeaveBalance) bool { return b.LeaveTypeID == leaveTypeID && b.Year == year }), nil
}

func (f fakeBalances) update(id string, apply func(*leave.LeaveBalance)) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for key, b := range f.s.balances {
		if b.ID == id {
			apply(&b)
			f.s.balances[key] = b
			return nil
		}
	}
	return leave.ErrBalanceNotFound
}

func (f fakeBalances) UpdateUsage(ctx context.Context, id string, usedDays, pendingDays int) error {
	return f.update(id, func(b *leave.LeaveBalance) {
		b.UsedDays = usedDays
		b.PendingDays = pendingDays
	})
}

func (f fakeBalances) UpdateEntitled(ctx context.Context, id string, entitledDays int) error {
	return f.update(id, func(b *leave.LeaveBalance) { b.EntitledDays = entitledDays })
}

type fakeRequests struct{ s *memStore }

func (f fakeRequests) Create(ctx context.Context, r leave.LeaveRequest) (leave.LeaveRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	f.s.requests = append(f.s.requests, r)
	return r, nil
}

func (f fakeRequests) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, r := range f.s.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
}

func (f fakeRequests) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return f.GetByID(ctx, id)
}

func (f fakeRequests) UpdateWorkflow(ctx context.Context, request leave.LeaveRequest) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for i, r := range f.s.requests {
		if r.ID == request.ID {
			f.s.requests[i] = request
			return nil
		}
	}
	return leave.ErrLeaveRequestNotFound
}

// ListByEmployee returns the newest request first.
func (f fakeRequests) ListByEmployee(ctx context.Context, employeeID string, filter leave.RequestFilter) ([]leave.LeaveRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]leave.LeaveRequest, 0)
	for i := len(f.s.requests) - 1; i >= 0; i-- {
		r := f.s.requests[i]
		if r.EmployeeID != employeeID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.Year != nil && r.Year() != *filter.Year {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f fakeRequests) ListByStatuses(ctx context.Context, statuses []leave.LeaveRequestStatus) ([]leave.LeaveRequest, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]leave.LeaveRequest, 0)
	for _, r := range f.s.requests {
		for _, st := range statuses {
			if r.Status == st {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (f fakeRequests) HasOverlap(ctx context.Context, employeeID string, start, end time.Time, statuses []leave.LeaveRequestStatus) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, r := range f.s.requests {
		if r.EmployeeID != employeeID {
			continue
		}
		for _, st := range statuses {
			if r.Status == st && calendar.Overlaps(r.StartDate, r.EndDate, start, end) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f fakeRequests) SumDaysByStatus(ctx context.Context, employeeID, leaveTypeID string, year int) (map[leave.LeaveRequestStatus]int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sums := map[leave.LeaveRequestStatus]int{}
	for _, r := range f.s.requests {
		if r.EmployeeID == employeeID && r.LeaveTypeID == leaveTypeID && r.Year() == year {
			sums[r.Status] += r.TotalDays
		}
	}
	return sums, nil
}

// ============= Notifications =============

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []notification.Message
	err      error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, msg notification.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, msg)
	return nil
}

func (d *recordingDispatcher) ofType(typ notification.NotificationType) []notification.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notification.Message
	for _, m := range d.messages {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = nil
}
