package leave

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
)

// ListLeaveTypes implements leave.LeaveService.
func (s *LeaveServiceImpl) ListLeaveTypes(ctx context.Context) ([]leave.LeaveTypeResponse, error) {
	types, err := s.leaveTypes.List(ctx, true)
	if err != nil {
		return nil, err
	}

	out := make([]leave.LeaveTypeResponse, 0, len(types))
	for _, lt := range types {
		out = append(out, leave.ToLeaveTypeResponse(lt))
	}
	return out, nil
}

// GetLeaveType implements leave.LeaveService. Inactive types are reported as
// not found.
func (s *LeaveServiceImpl) GetLeaveType(ctx context.Context, leaveTypeID string) (leave.LeaveTypeResponse, error) {
	lt, err := s.activeLeaveType(ctx, leaveTypeID)
	if err != nil {
		if errors.Is(err, leave.ErrLeaveTypeInactive) {
			return leave.LeaveTypeResponse{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveTypeResponse{}, err
	}
	return leave.ToLeaveTypeResponse(lt), nil
}
