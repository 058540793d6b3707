package model

import "time"

// User represents a creator account.
//
// SubscriptionTier is nil while the user is on a trial or has no plan at all;
// a non-nil tier means the user converted to a paid plan. Trial timestamps are
// kept after cancellation so the content-lock policy can still resolve which
// posts were created inside the trial window.
type User struct {
	ID                       string     `db:"id" json:"id"`
	Email                    string     `db:"email" json:"email"`
	PasswordHash             string     `db:"password_hash" json:"-"`
	Name                     string     `db:"name" json:"name"`
	SubscriptionTier         *string    `db:"subscription_tier" json:"subscription_tier,omitempty"`
	StripeCustomerID         *string    `db:"stripe_customer_id" json:"-"`
	TrialStartedAt           *time.Time `db:"trial_started_at" json:"trial_started_at,omitempty"`
	TrialEndsAt              *time.Time `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	TrialPlan                *string    `db:"trial_plan" json:"trial_plan,omitempty"`
	MonthlyPostLimit         int        `db:"monthly_post_limit" json:"monthly_post_limit"`
	AdditionalPostsPurchased int        `db:"additional_posts_purchased" json:"additional_posts_purchased"`
	CreatedAt                time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at" json:"updated_at"`
}

// PostAllowance is the number of posts the user may create per month.
func (u *User) PostAllowance() int {
	if u.MonthlyPostLimit == Unlimited {
		return Unlimited
	}
	return u.MonthlyPostLimit + u.AdditionalPostsPurchased
}
