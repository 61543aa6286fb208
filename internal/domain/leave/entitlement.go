package leave

import (
	"strings"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
)

type defaultEntitlementRule struct {
	fragment string
	elevated int
	standard int
}

// Checked in order; annual leave is handled before this table.
var defaultEntitlementRules = []defaultEntitlementRule{
	{"sick", 14, 10},
	{"maternity", 90, 84},
	{"paternity", 14, 7},
	{"compassionate", 5, 5},
	{"casual", 7, 5},
}

const fallbackEntitlement = 10

// DefaultEntitlement is the entitled_days given to a balance created without
// an explicit value. Annual leave uses the employee's own entitlement.
func DefaultEntitlement(leaveTypeName string, role user.Role, annualEntitlement int) int {
	name := strings.ToLower(leaveTypeName)
	if strings.Contains(name, "annual") {
		return annualEntitlement
	}

	for _, rule := range defaultEntitlementRules {
		if strings.Contains(name, rule.fragment) {
			if role.IsElevated() {
				return rule.elevated
			}
			return rule.standard
		}
	}
	return fallbackEntitlement
}
