package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/employee"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/validator"
)

// overlapStatuses are the statuses that block a new request on the same days.
// Requests already past the manager stage do not block.
var overlapStatuses = []leave.LeaveRequestStatus{leave.StatusPending, leave.StatusApproved}

// Submit implements leave.LeaveService.
func (s *LeaveServiceImpl) Submit(ctx context.Context, employeeID string, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	emp, err := s.activeEmployee(ctx, employeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	lt, err := s.activeLeaveType(ctx, req.LeaveTypeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	start, end := req.Dates()
	request := leave.LeaveRequest{
		EmployeeID:  emp.ID,
		LeaveTypeID: lt.ID,
		StartDate:   start,
		EndDate:     end,
		Reason:      req.Reason,
		Status:      leave.StatusPending,
	}
	request.Normalize()
	if err := request.Validate(s.now()); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	if request.TotalDays > lt.MaxDays() {
		var errs validator.ValidationErrors
		errs.Add("end_date", fmt.Sprintf("%s allows at most %d working days per request", lt.Name, lt.MaxDays()))
		return leave.LeaveRequestResponse{}, errs
	}

	var (
		created leave.LeaveRequest
		balance *leave.LeaveBalance
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// The employee lock serializes the overlap check across leave types.
		if err := s.employees.LockForUpdate(ctx, emp.ID); err != nil {
			return err
		}

		locked, err := s.balances.GetForUpdate(ctx, emp.ID, lt.ID, request.Year())
		if err != nil {
			if errors.Is(err, leave.ErrBalanceNotFound) {
				return leave.ErrNoBalanceConfigured
			}
			return err
		}
		if request.TotalDays > locked.RemainingDays() {
			return fmt.Errorf("%w: requested %d days, remaining %d",
				leave.ErrInsufficientBalance, request.TotalDays, locked.RemainingDays())
		}

		overlap, err := s.requests.HasOverlap(ctx, emp.ID, request.StartDate, request.EndDate, overlapStatuses)
		if err != nil {
			return err
		}
		if overlap {
			return leave.ErrOverlappingRequest
		}

		created, err = s.requests.Create(ctx, request)
		if err != nil {
			return err
		}

		balance, err = s.recompute(ctx, emp.ID, lt.ID, request.Year())
		return err
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	created.EmployeeName = &emp.FullName
	created.LeaveTypeName = &lt.Name

	s.logger.Info("leave request submitted",
		"request_id", created.ID, "employee_id", emp.ID, "leave_type", lt.Name, "total_days", created.TotalDays)

	s.notifySubmitted(ctx, created, emp)
	s.notifyOverCommitted(ctx, balance)

	return leave.ToResponse(created), nil
}

// Approve implements leave.LeaveService.
func (s *LeaveServiceImpl) Approve(ctx context.Context, requestID, actorID, comments string) (leave.TransitionResponse, error) {
	return s.transition(ctx, requestID, actorID, func(r *leave.LeaveRequest, actor leave.Actor) (leave.Transition, error) {
		return r.Approve(actor, comments, s.now())
	})
}

// Reject implements leave.LeaveService.
func (s *LeaveServiceImpl) Reject(ctx context.Context, requestID, actorID, comments string) (leave.TransitionResponse, error) {
	return s.transition(ctx, requestID, actorID, func(r *leave.LeaveRequest, actor leave.Actor) (leave.Transition, error) {
		return r.Reject(actor, comments, s.now())
	})
}

// Cancel implements leave.LeaveService.
func (s *LeaveServiceImpl) Cancel(ctx context.Context, requestID, actorID string) (leave.TransitionResponse, error) {
	return s.transition(ctx, requestID, actorID, func(r *leave.LeaveRequest, actor leave.Actor) (leave.Transition, error) {
		return r.Cancel(actor, s.now())
	})
}

type transitionFunc func(r *leave.LeaveRequest, actor leave.Actor) (leave.Transition, error)

// transition locks the request, applies fn, persists the result and
// recomputes the balance in one transaction. Nothing is written or sent
// when fn fails.
func (s *LeaveServiceImpl) transition(ctx context.Context, requestID, actorID string, fn transitionFunc) (leave.TransitionResponse, error) {
	actor, err := s.activeEmployee(ctx, actorID)
	if err != nil {
		return leave.TransitionResponse{}, err
	}

	var (
		request leave.LeaveRequest
		t       leave.Transition
		balance *leave.LeaveBalance
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		t, err = fn(&request, leave.Actor{ID: actor.ID, Role: actor.Role})
		if err != nil {
			return err
		}
		if err := request.Validate(s.now()); err != nil {
			return err
		}

		if err := s.requests.UpdateWorkflow(ctx, request); err != nil {
			return err
		}

		balance, err = s.recompute(ctx, request.EmployeeID, request.LeaveTypeID, request.Year())
		return err
	})
	if err != nil {
		return leave.TransitionResponse{}, err
	}

	s.logger.Info("leave request transitioned",
		"request_id", request.ID, "from", t.From, "to", t.To,
		"actor_id", actor.ID, "actor_role", actor.Role, "override", t.Override)

	owner, err := s.employees.GetByID(ctx, request.EmployeeID)
	if err != nil {
		s.logger.Warn("failed to load request owner for notifications", "request_id", request.ID, "error", err)
		owner = employee.Employee{ID: request.EmployeeID}
	}
	if t.To == leave.StatusCancelled {
		s.notifyCancelled(ctx, request, owner)
	} else {
		s.notifyTransition(ctx, request, owner, actor.ID, t)
	}
	s.notifyOverCommitted(ctx, balance)

	return leave.TransitionResponse{
		ID:               request.ID,
		Status:           request.Status,
		CurrentStage:     request.Status.CurrentStage(),
		NextApproverRole: request.Status.NextApproverRole(),
		Override:         t.Override,
	}, nil
}
