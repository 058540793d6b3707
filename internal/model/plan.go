package model

// PlanTier identifies a paid subscription tier.
type PlanTier string

const (
	TierStarter  PlanTier = "starter"
	TierGrowth   PlanTier = "growth"
	TierPro      PlanTier = "pro"
	TierBusiness PlanTier = "business"
	TierAgency   PlanTier = "agency"
)

// Unlimited is the sentinel quota meaning "no limit". Every quota comparison
// must short-circuit on it before comparing counts.
const Unlimited = -1

// PlanLimits holds the monthly quotas attached to a tier.
type PlanLimits struct {
	AICallsPerMonth int
	StorageMB       int
	PostsPerMonth   int
}

var planLimits = map[PlanTier]PlanLimits{
	TierStarter:  {AICallsPerMonth: 50, StorageMB: 500, PostsPerMonth: 30},
	TierGrowth:   {AICallsPerMonth: 200, StorageMB: 2048, PostsPerMonth: 120},
	TierPro:      {AICallsPerMonth: 1000, StorageMB: 10240, PostsPerMonth: 400},
	TierBusiness: {AICallsPerMonth: 5000, StorageMB: 51200, PostsPerMonth: 1000},
	TierAgency:   {AICallsPerMonth: Unlimited, StorageMB: Unlimited, PostsPerMonth: Unlimited},
}

// freeLimits apply to users with no subscription and no active trial.
var freeLimits = PlanLimits{AICallsPerMonth: 10, StorageMB: 100, PostsPerMonth: 10}

// IsValidTier reports whether s names a known plan tier.
func IsValidTier(s string) bool {
	_, ok := planLimits[PlanTier(s)]
	return ok
}

// LimitsForTier returns the quotas for a tier, falling back to the free
// limits for unknown or empty tiers.
func LimitsForTier(tier PlanTier) PlanLimits {
	if l, ok := planLimits[tier]; ok {
		return l
	}
	return freeLimits
}

// LimitsForUser resolves the quotas that currently apply to a user: the paid
// tier if subscribed, the trial plan while the trial is live, free otherwise.
func LimitsForUser(u *User) PlanLimits {
	if u.SubscriptionTier != nil {
		return LimitsForTier(PlanTier(*u.SubscriptionTier))
	}
	if u.TrialPlan != nil {
		return LimitsForTier(PlanTier(*u.TrialPlan))
	}
	return freeLimits
}
