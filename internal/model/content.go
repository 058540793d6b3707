package model

import "time"

// Post statuses.
const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	// publishing is a transient state between the cron sweep claiming a due
	// post and the worker finishing the publish.
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

// Platforms a post can target.
const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformYouTube   = "youtube"
	PlatformTwitter   = "twitter"
	PlatformLinkedIn  = "linkedin"
)

// ContentPost is a unit of creator content. Ownership is exclusive to UserID.
// Mutability is gated by the content-lock policy, never by deleting rows.
type ContentPost struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	Platform     string     `db:"platform" json:"platform"`
	Content      string     `db:"content" json:"content"`
	Status       string     `db:"status" json:"status"`
	ScheduledFor *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	PublishedAt  *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// MediaAsset is an uploaded file attached to a user's library. Its byte size
// feeds the on-demand storage quota computation.
type MediaAsset struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	Filename    string    `db:"filename" json:"filename"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Media asset statuses.
const (
	MediaStatusUploading = "uploading"
	MediaStatusReady     = "ready"
)
