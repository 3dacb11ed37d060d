package enums

import "fmt"

// TenantPlan names the subscription tier a tenant signed up for.
type TenantPlan string

const (
	TenantPlanBasic      TenantPlan = "basic"
	TenantPlanPremium    TenantPlan = "premium"
	TenantPlanEnterprise TenantPlan = "enterprise"
)

var validTenantPlans = []TenantPlan{
	TenantPlanBasic,
	TenantPlanPremium,
	TenantPlanEnterprise,
}

// String implements fmt.Stringer.
func (t TenantPlan) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TenantPlan.
func (t TenantPlan) IsValid() bool {
	for _, candidate := range validTenantPlans {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTenantPlan converts raw input into a TenantPlan.
func ParseTenantPlan(value string) (TenantPlan, error) {
	for _, candidate := range validTenantPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tenant plan %q", value)
}
