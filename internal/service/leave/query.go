package leave

import (
	"context"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
)

const recentRequestLimit = 5

// GetRequest implements leave.LeaveService.
func (s *LeaveServiceImpl) GetRequest(ctx context.Context, requestID, viewerID string) (leave.LeaveRequestResponse, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	if request.EmployeeID != viewerID {
		viewer, err := s.activeEmployee(ctx, viewerID)
		if err != nil {
			return leave.LeaveRequestResponse{}, err
		}
		if !viewer.Role.CanViewAllRequests() {
			return leave.LeaveRequestResponse{}, leave.ErrForbidden
		}
	}

	return leave.ToResponse(request), nil
}

// ListMyRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) ListMyRequests(ctx context.Context, employeeID string, query leave.ListRequestsQuery) ([]leave.LeaveRequestResponse, error) {
	requests, err := s.requests.ListByEmployee(ctx, employeeID, leave.RequestFilter{
		Status: query.Status,
		Year:   query.Year,
	})
	if err != nil {
		return nil, err
	}
	return toResponses(requests), nil
}

// PendingApprovals implements leave.LeaveService.
func (s *LeaveServiceImpl) PendingApprovals(ctx context.Context, actorID string) (leave.PendingApprovalsResponse, error) {
	actor, err := s.activeEmployee(ctx, actorID)
	if err != nil {
		return leave.PendingApprovalsResponse{}, err
	}

	stages := actor.Role.PendingStages()
	statuses := make([]leave.LeaveRequestStatus, 0, len(stages))
	for _, stage := range stages {
		if status, ok := leave.StatusAwaiting(stage); ok {
			statuses = append(statuses, status)
		}
	}

	resp := leave.PendingApprovalsResponse{
		Role:     actor.Role,
		Stages:   stages,
		Requests: []leave.LeaveRequestResponse{},
	}
	if len(statuses) == 0 {
		return resp, nil
	}

	requests, err := s.requests.ListByStatuses(ctx, statuses)
	if err != nil {
		return leave.PendingApprovalsResponse{}, err
	}
	resp.Requests = toResponses(requests)
	resp.Count = len(resp.Requests)
	return resp, nil
}

// Dashboard implements leave.LeaveService.
func (s *LeaveServiceImpl) Dashboard(ctx context.Context, employeeID string) (leave.DashboardResponse, error) {
	requests, err := s.requests.ListByEmployee(ctx, employeeID, leave.RequestFilter{})
	if err != nil {
		return leave.DashboardResponse{}, err
	}

	year := s.now().Year()
	var summary leave.DashboardSummary
	summary.TotalRequests = len(requests)
	for _, r := range requests {
		switch {
		case r.Status.IsInFlight():
			summary.PendingRequests++
			if r.Year() == year {
				summary.PendingDaysThisYear += r.TotalDays
			}
		case r.Status == leave.StatusApproved:
			summary.ApprovedRequests++
			if r.Year() == year {
				summary.DaysTakenThisYear += r.TotalDays
			}
		case r.Status == leave.StatusRejected:
			summary.RejectedRequests++
		}
	}

	recent := requests
	if len(recent) > recentRequestLimit {
		recent = recent[:recentRequestLimit]
	}

	return leave.DashboardResponse{
		Summary:        summary,
		RecentRequests: toResponses(recent),
	}, nil
}

func toResponses(requests []leave.LeaveRequest) []leave.LeaveRequestResponse {
	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, leave.ToResponse(r))
	}
	return responses
}
