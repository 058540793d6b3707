package dto

import "time"

// UserResponseDTO is returned in API responses.
type UserResponseDTO struct {
	UserID           string     `json:"user_id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	SubscriptionTier *string    `json:"subscription_tier,omitempty"`
	TrialPlan        *string    `json:"trial_plan,omitempty"`
	TrialStartedAt   *time.Time `json:"trial_started_at,omitempty"`
	TrialEndsAt      *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// UsageResponseDTO reports the caller's consumption for the current month
// against their plan limits. A limit of -1 means unlimited.
type UsageResponseDTO struct {
	MonthYear      string `json:"month_year"`
	AICallsUsed    int64  `json:"ai_calls_used"`
	AICallsLimit   int    `json:"ai_calls_limit"`
	PostsUsed      int64  `json:"posts_used"`
	PostsLimit     int    `json:"posts_limit"`
	StorageUsedMB  int64  `json:"storage_used_mb"`
	StorageLimitMB int    `json:"storage_limit_mb"`
}
