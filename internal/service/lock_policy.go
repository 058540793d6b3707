package service

import (
	"creatorflow/internal/model"
)

// Content-lock policy: a "keep but restrict" trial rollback. Content created
// during a trial stays owned by the user but becomes read-only if the trial
// lapses without converting to a paid plan. Nothing is persisted; lock status
// is recomputed from timestamps on every check, so it is always consistent
// with the user's current plan state without a background job flipping flags.

// IsContentLocked reports whether the post is read-only for this user.
func IsContentLocked(post *model.ContentPost, user *model.User) bool {
	if user.SubscriptionTier != nil {
		return false
	}
	if user.TrialStartedAt == nil || user.TrialEndsAt == nil {
		return false
	}
	created := post.CreatedAt
	// Inclusive on both ends of the trial window.
	if created.Before(*user.TrialStartedAt) || created.After(*user.TrialEndsAt) {
		return false
	}
	return true
}

// CanEditContent reports whether the post may be mutated.
func CanEditContent(post *model.ContentPost, user *model.User) bool {
	return !IsContentLocked(post, user)
}

// CanExportContent reports whether the post may be exported.
func CanExportContent(post *model.ContentPost, user *model.User) bool {
	return !IsContentLocked(post, user)
}

// LockedMessage is the user-facing explanation for a locked post.
const LockedMessage = "This content was created during your trial and is read-only. Upgrade to a paid plan to edit or export it."

// LockMessage returns the user-facing explanation for a locked post, or ""
// when the post is not locked.
func LockMessage(post *model.ContentPost, user *model.User) string {
	if !IsContentLocked(post, user) {
		return ""
	}
	return LockedMessage
}
