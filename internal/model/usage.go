package model

import "time"

// MonthKeyFormat is the time layout for the user_usage_stats month_year key.
// Quotas reset on calendar-month boundaries, not on a rolling window.
const MonthKeyFormat = "2006-01"

// MonthKey returns the YYYY-MM aggregate key for t in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyFormat)
}

// UsageStat is the monthly usage aggregate. At most one row exists per
// (user_id, month_year); rows are created lazily on the first event of a month.
type UsageStat struct {
	UserID       string    `db:"user_id" json:"user_id"`
	MonthYear    string    `db:"month_year" json:"month_year"`
	AICallsCount int       `db:"ai_calls_count" json:"ai_calls_count"`
	StorageBytes int64     `db:"storage_bytes" json:"storage_bytes"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AICallLog is an immutable per-call record backing the monthly aggregate.
type AICallLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	BotName   string    `db:"bot_name" json:"bot_name"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
