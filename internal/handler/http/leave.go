package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	// Leave types
	ListLeaveTypes(w http.ResponseWriter, r *http.Request)
	GetLeaveType(w http.ResponseWriter, r *http.Request)

	// Requests
	Submit(w http.ResponseWriter, r *http.Request)
	GetMyRequests(w http.ResponseWriter, r *http.Request)
	GetMyApprovedRequests(w http.ResponseWriter, r *http.Request)
	Dashboard(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)

	// Approvals
	PendingApprovals(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)

	// Balances
	GetMyBalances(w http.ResponseWriter, r *http.Request)
	GetBalanceSummary(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)

	// Entitlements
	SetEntitlement(w http.ResponseWriter, r *http.Request)
	SetEmployeeEntitlements(w http.ResponseWriter, r *http.Request)
	EntitlementSummary(w http.ResponseWriter, r *http.Request)
	BulkSetGradeEntitlements(w http.ResponseWriter, r *http.Request)
	ApplyGradeEntitlements(w http.ResponseWriter, r *http.Request)
	RoleEntitlements(w http.ResponseWriter, r *http.Request)
	RoleEntitlementSummary(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
	}
}

// employeeIDOrUnauthorized writes a 401 when the token carries no employee.
func employeeIDOrUnauthorized(w http.ResponseWriter, r *http.Request) (string, bool) {
	employeeID := middleware.EmployeeID(r.Context())
	if employeeID == "" {
		response.Unauthorized(w, "employee_id claim is missing or invalid")
		return "", false
	}
	return employeeID, true
}

// yearQueryParam returns 0, meaning the current year, when year is absent.
func yearQueryParam(r *http.Request) (int, bool) {
	val := r.URL.Query().Get("year")
	if val == "" {
		return 0, true
	}
	year, err := strconv.Atoi(val)
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// Submit implements LeaveHandler.
func (l *LeaveHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req leave.SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Submit decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := l.leaveService.Submit(r.Context(), employeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted successfully", created)
}

// ListLeaveTypes implements LeaveHandler.
func (l *LeaveHandlerImpl) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := l.leaveService.ListLeaveTypes(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, types)
}

// GetLeaveType implements LeaveHandler.
func (l *LeaveHandlerImpl) GetLeaveType(w http.ResponseWriter, r *http.Request) {
	leaveType, err := l.leaveService.GetLeaveType(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, leaveType)
}

// GetMyRequests implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	l.listMyRequests(w, r, nil)
}

// GetMyApprovedRequests implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyApprovedRequests(w http.ResponseWriter, r *http.Request) {
	approved := leave.StatusApproved
	l.listMyRequests(w, r, &approved)
}

// listMyRequests reads the status and year filters; a fixed status
// overrides the query.
func (l *LeaveHandlerImpl) listMyRequests(w http.ResponseWriter, r *http.Request, fixed *leave.LeaveRequestStatus) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	query := leave.ListRequestsQuery{Status: fixed}

	if status := r.URL.Query().Get("status"); status != "" && fixed == nil {
		parsed, ok := leave.ParseStatus(status)
		if !ok {
			response.BadRequest(w, "Invalid status filter", map[string]string{"status": "unknown status " + strconv.Quote(status)})
			return
		}
		query.Status = &parsed
	}

	year, ok := yearQueryParam(r)
	if !ok {
		response.BadRequest(w, "Invalid year", nil)
		return
	}
	if year != 0 {
		query.Year = &year
	}

	requests, err := l.leaveService.ListMyRequests(r.Context(), employeeID, query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, requests)
}

// Dashboard implements LeaveHandler.
func (l *LeaveHandlerImpl) Dashboard(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	dashboard, err := l.leaveService.Dashboard(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, dashboard)
}

// GetRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Request ID is required", nil)
		return
	}

	request, err := l.leaveService.GetRequest(r.Context(), requestID, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, request)
}

// Cancel implements LeaveHandler.
func (l *LeaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	result, err := l.leaveService.Cancel(r.Context(), chi.URLParam(r, "id"), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request cancelled successfully", result)
}

// PendingApprovals implements LeaveHandler.
func (l *LeaveHandlerImpl) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	pending, err := l.leaveService.PendingApprovals(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, pending)
}

// decodeApprovalAction accepts an empty body as an action without comments.
func decodeApprovalAction(r *http.Request) (leave.ApprovalActionRequest, error) {
	var req leave.ApprovalActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

// Approve implements LeaveHandler.
func (l *LeaveHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	req, err := decodeApprovalAction(r)
	if err != nil {
		slog.Error("Approve decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.Approve(r.Context(), chi.URLParam(r, "id"), employeeID, req.Comments)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request approved successfully", result)
}

// Reject implements LeaveHandler.
func (l *LeaveHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	req, err := decodeApprovalAction(r)
	if err != nil {
		slog.Error("Reject decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.Reject(r.Context(), chi.URLParam(r, "id"), employeeID, req.Comments)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request rejected", result)
}

// GetMyBalances implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyBalances(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	year, ok := yearQueryParam(r)
	if !ok {
		response.BadRequest(w, "Invalid year", nil)
		return
	}

	balances, err := l.leaveService.ListBalances(r.Context(), employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, balances)
}

// GetBalanceSummary implements LeaveHandler.
func (l *LeaveHandlerImpl) GetBalanceSummary(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	year, ok := yearQueryParam(r)
	if !ok {
		response.BadRequest(w, "Invalid year", nil)
		return
	}

	summary, err := l.leaveService.BalanceSummary(r.Context(), employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}

// GetBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	year, ok := yearQueryParam(r)
	if !ok {
		response.BadRequest(w, "Invalid year", nil)
		return
	}

	balance, err := l.leaveService.GetBalance(r.Context(), viewerID,
		chi.URLParam(r, "employeeID"), chi.URLParam(r, "leaveTypeID"), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, balance)
}

// SetEntitlement implements LeaveHandler.
func (l *LeaveHandlerImpl) SetEntitlement(w http.ResponseWriter, r *http.Request) {
	actorID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req leave.SetEntitlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SetEntitlement decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := l.leaveService.SetEntitlement(r.Context(), actorID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Entitlements updated", result)
}

// SetEmployeeEntitlements implements LeaveHandler.
func (l *LeaveHandlerImpl) SetEmployeeEntitlements(w http.ResponseWriter, r *http.Request) {
	actorID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req leave.SetEmployeeEntitlementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SetEmployeeEntitlements decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := l.leaveService.SetEmployeeEntitlements(r.Context(), actorID, chi.URLParam(r, "employeeID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Entitlements updated", result)
}

// EntitlementSummary implements LeaveHandler.
func (l *LeaveHandlerImpl) EntitlementSummary(w http.ResponseWriter, r *http.Request) {
	actorID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	year, ok := yearQueryParam(r)
	if !ok {
		response.BadRequest(w, "Invalid year", nil)
		return
	}

	summary, err := l.leaveService.EntitlementSummary(r.Context(), actorID, chi.URLParam(r, "leaveTypeID"), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}

// BulkSetGradeEntitlements implements LeaveHandler.
func (l *LeaveHandlerImpl) BulkSetGradeEntitlements(w http.ResponseWriter, r *http.Request) {
	actorID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req leave.BulkSetGradeEntitlementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("BulkSetGradeEntitlements decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := l.leaveService.BulkSetGradeEntitlements(r.Context(), actorID, chi.URLParam(r, "gradeID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Grade entitlements saved", result)
}

// ApplyGradeEntitlements implements LeaveHandler.
func (l *LeaveHandlerImpl) ApplyGradeEntitlements(w http.ResponseWriter, r *http.Request) {
	actorID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	year, ok := yearQueryParam(r)
	if !ok {
		response.BadRequest(w, "Invalid year", nil)
		return
	}

	result, err := l.leaveService.ApplyGradeEntitlements(r.Context(), actorID, chi.URLParam(r, "gradeID"), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Grade entitlements applied", result)
}

// RoleEntitlements implements LeaveHandler.
func (l *LeaveHandlerImpl) RoleEntitlements(w http.ResponseWriter, r *http.Request) {
	actorID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	year, ok := yearQueryParam(r)
	if !ok {
		response.BadRequest(w, "Invalid year", nil)
		return
	}

	roles, err := l.leaveService.RoleEntitlements(r.Context(), actorID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, roles)
}

// RoleEntitlementSummary implements LeaveHandler.
func (l *LeaveHandlerImpl) RoleEntitlementSummary(w http.ResponseWriter, r *http.Request) {
	actorID, ok := employeeIDOrUnauthorized(w, r)
	if !ok {
		return
	}

	year, ok := yearQueryParam(r)
	if !ok {
		response.BadRequest(w, "Invalid year", nil)
		return
	}

	summary, err := l.leaveService.RoleEntitlementSummary(r.Context(), actorID, user.Role(chi.URLParam(r, "role")), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}
