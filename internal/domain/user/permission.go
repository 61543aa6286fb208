package user

type Permission string

const (
	// Leave self service
	PermissionLeaveViewOwn Permission = "leave.view_own"
	PermissionLeaveCreate  Permission = "leave.create"

	// Leave administration
	PermissionLeaveViewAll        Permission = "leave.view_all"
	PermissionLeaveApprove        Permission = "leave.approve"
	PermissionEntitlementManage   Permission = "entitlement.manage"
	PermissionBalanceViewAll      Permission = "balance.view_all"
	PermissionNotificationViewOwn Permission = "notification.view_own"
)

var staffPermissions = []Permission{
	PermissionLeaveViewOwn,
	PermissionLeaveCreate,
	PermissionNotificationViewOwn,
}

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleJuniorStaff: staffPermissions,
	RoleSeniorStaff: staffPermissions,
	RoleManager: append([]Permission{
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
	}, staffPermissions...),
	RoleHR: append([]Permission{
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionEntitlementManage,
		PermissionBalanceViewAll,
	}, staffPermissions...),
	RoleCEO: append([]Permission{
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionBalanceViewAll,
	}, staffPermissions...),
	RoleAdmin: append([]Permission{
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionEntitlementManage,
		PermissionBalanceViewAll,
	}, staffPermissions...),
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}

// Stage is a step of the approval chain, or one of its two end markers.
type Stage string

const (
	StageManager   Stage = "manager"
	StageHR        Stage = "hr"
	StageCEO       Stage = "ceo"
	StageCompleted Stage = "completed"
	StageRejected  Stage = "rejected"
	StageCancelled Stage = "cancelled"
)

// IsApprovalStage reports whether an approver still has to act at s.
func (s Stage) IsApprovalStage() bool {
	return s == StageManager || s == StageHR || s == StageCEO
}

// ApproverRole is the role that owns an approval stage.
func (s Stage) ApproverRole() (Role, bool) {
	switch s {
	case StageManager:
		return RoleManager, true
	case StageHR:
		return RoleHR, true
	case StageCEO:
		return RoleCEO, true
	default:
		return "", false
	}
}

// CanApproveAt reports whether r may approve a request waiting at stage s.
// Admin may act at every stage; for manager and hr that is an override.
func (r Role) CanApproveAt(s Stage) bool {
	if !s.IsApprovalStage() {
		return false
	}
	if r.IsAdmin() {
		return true
	}
	owner, _ := s.ApproverRole()
	return r == owner
}

// IsOverrideAt reports whether an approval by r at s bypasses the stage owner.
func (r Role) IsOverrideAt(s Stage) bool {
	return r.IsAdmin() && (s == StageManager || s == StageHR)
}

// CanRejectAt reports whether r may reject a request waiting at stage s.
// Every approver may reject at its own stage and any earlier one.
func (r Role) CanRejectAt(s Stage) bool {
	switch r {
	case RoleManager:
		return s == StageManager
	case RoleHR:
		return s == StageManager || s == StageHR
	case RoleCEO, RoleAdmin:
		return s.IsApprovalStage()
	default:
		return false
	}
}

// RejectionStage is the stage whose record holds a rejection made by r.
// Admin rejections are recorded at the ceo stage.
func (r Role) RejectionStage() Stage {
	switch r {
	case RoleManager:
		return StageManager
	case RoleHR:
		return StageHR
	default:
		return StageCEO
	}
}

// CanManageEntitlements reports whether r may change entitlements.
func (r Role) CanManageEntitlements() bool {
	return HasPermission(r, PermissionEntitlementManage)
}

// CanViewAllRequests reports whether r may read other employees' requests.
func (r Role) CanViewAllRequests() bool {
	return HasPermission(r, PermissionLeaveViewAll)
}

// PendingStages lists the stages whose queue r works on.
func (r Role) PendingStages() []Stage {
	switch r {
	case RoleManager:
		return []Stage{StageManager}
	case RoleHR:
		return []Stage{StageHR}
	case RoleCEO:
		return []Stage{StageCEO}
	case RoleAdmin:
		return []Stage{StageManager, StageHR, StageCEO}
	default:
		return nil
	}
}
