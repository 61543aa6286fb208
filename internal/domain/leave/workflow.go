package leave

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
)

const (
	OverrideCommentPrefix  = "ADMIN OVERRIDE: "
	RejectionCommentPrefix = "REJECTED: "
)

// Actor is the employee performing a workflow action.
type Actor struct {
	ID   string
	Role user.Role
}

// Transition describes a status change applied to a request.
type Transition struct {
	From     LeaveRequestStatus
	To       LeaveRequestStatus
	Stage    user.Stage // stage whose record was written
	Override bool
}

// TransitionError is returned when the actor's role or the request's
// status does not allow the action. It matches ErrInvalidTransition.
type TransitionError struct {
	Action       string
	Status       LeaveRequestStatus
	CurrentStage user.Stage
	RequiredRole *user.Role
	ActorRole    user.Role
}

func (e *TransitionError) Error() string {
	required := "none"
	if e.RequiredRole != nil {
		required = string(*e.RequiredRole)
	}
	return fmt.Sprintf("cannot %s leave request: current stage %s, requires %s, actor role %s",
		e.Action, e.CurrentStage, required, e.ActorRole)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func (r *LeaveRequest) transitionError(action string, actor Actor) *TransitionError {
	return &TransitionError{
		Action:       action,
		Status:       r.Status,
		CurrentStage: r.Status.CurrentStage(),
		RequiredRole: r.Status.NextApproverRole(),
		ActorRole:    actor.Role,
	}
}

// Approve advances the request exactly one stage. An admin acting at the
// manager or hr stage is recorded as an override.
func (r *LeaveRequest) Approve(actor Actor, comments string, now time.Time) (Transition, error) {
	stage := r.Status.CurrentStage()
	if !actor.Role.CanApproveAt(stage) {
		return Transition{}, r.transitionError("approve", actor)
	}

	t := Transition{From: r.Status, Stage: stage, Override: actor.Role.IsOverrideAt(stage)}
	if t.Override {
		comments = OverrideCommentPrefix + comments
	}

	switch stage {
	case user.StageManager:
		t.To = StatusManagerApproved
	case user.StageHR:
		t.To = StatusHRApproved
	case user.StageCEO:
		t.To = StatusApproved
	}

	r.stamp(stage, actor, comments, now)
	r.Status = t.To
	return t, nil
}

// Reject ends the workflow. The rejection is written to the actor's
// rejection stage, which for admin is the ceo stage.
func (r *LeaveRequest) Reject(actor Actor, comments string, now time.Time) (Transition, error) {
	if !actor.Role.CanRejectAt(r.Status.CurrentStage()) {
		return Transition{}, r.transitionError("reject", actor)
	}

	t := Transition{From: r.Status, To: StatusRejected, Stage: actor.Role.RejectionStage()}
	r.stamp(t.Stage, actor, RejectionCommentPrefix+comments, now)
	r.Status = StatusRejected
	return t, nil
}

// Cancel withdraws a pending request. Only the requester may cancel.
func (r *LeaveRequest) Cancel(actor Actor, now time.Time) (Transition, error) {
	if actor.ID != r.EmployeeID {
		return Transition{}, ErrForbidden
	}
	if r.Status != StatusPending {
		return Transition{}, r.transitionError("cancel", actor)
	}

	at := now
	r.CancelledAt = &at
	t := Transition{From: r.Status, To: StatusCancelled, Stage: user.StageCancelled}
	r.Status = StatusCancelled
	return t, nil
}

func (r *LeaveRequest) stamp(stage user.Stage, actor Actor, comments string, now time.Time) {
	record := r.ApprovalAt(stage)
	approverID := actor.ID
	at := now
	record.ApproverID = &approverID
	record.ActedAt = &at
	record.Comments = comments
}
