package repository

import (
	"context"
	"errors"
	"fmt"

	"creatorflow/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository tracks AI-bot calls and monthly usage aggregates.
type UsageRepository interface {
	// RecordAICall appends an immutable call log row and increments the
	// monthly aggregate for the YYYY-MM key.
	RecordAICall(ctx context.Context, log *model.AICallLog, monthYear string) error
	// GetMonthlyStat returns the aggregate for (user, month), or a zero-value
	// stat if no usage has been recorded yet.
	GetMonthlyStat(ctx context.Context, userID, monthYear string) (*model.UsageStat, error)
	CountPostsInMonth(ctx context.Context, userID, monthYear string) (int, error)
	// SumStorageBytes recomputes the user's storage footprint on demand by
	// summing content lengths and media asset sizes. Heavier than a cached
	// counter but always consistent with what is actually stored.
	SumStorageBytes(ctx context.Context, userID string) (int64, error)
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) RecordAICall(ctx context.Context, log *model.AICallLog, monthYear string) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	const insertLog = `
        INSERT INTO ai_call_logs (id, user_id, bot_name, endpoint)
        VALUES ($1, $2, $3, $4)
    `
	if _, err := r.pool.Exec(ctx, insertLog, log.ID, log.UserID, log.BotName, log.Endpoint); err != nil {
		return fmt.Errorf("recording ai call for user %s: %w", log.UserID, err)
	}

	// Atomic increment-or-create: concurrent first calls of a month both land
	// on the same row, ending with the correct total.
	const upsert = `
        INSERT INTO user_usage_stats (user_id, month_year, ai_calls_count, storage_bytes, updated_at)
        VALUES ($1, $2, 1, 0, NOW())
        ON CONFLICT (user_id, month_year)
        DO UPDATE SET ai_calls_count = user_usage_stats.ai_calls_count + 1,
                      updated_at = NOW()
    `
	if _, err := r.pool.Exec(ctx, upsert, log.UserID, monthYear); err != nil {
		return fmt.Errorf("incrementing monthly usage for user %s: %w", log.UserID, err)
	}
	return nil
}

func (r *usageRepo) GetMonthlyStat(ctx context.Context, userID, monthYear string) (*model.UsageStat, error) {
	const q = `
        SELECT user_id, month_year, ai_calls_count, storage_bytes, updated_at
        FROM user_usage_stats
        WHERE user_id = $1
          AND month_year = $2
    `
	var s model.UsageStat
	err := r.pool.QueryRow(ctx, q, userID, monthYear).Scan(
		&s.UserID,
		&s.MonthYear,
		&s.AICallsCount,
		&s.StorageBytes,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.UsageStat{UserID: userID, MonthYear: monthYear}, nil
		}
		return nil, fmt.Errorf("fetch monthly usage for user %s: %w", userID, err)
	}
	return &s, nil
}

func (r *usageRepo) CountPostsInMonth(ctx context.Context, userID, monthYear string) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM content_posts
        WHERE user_id = $1
          AND to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM') = $2
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, monthYear).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting posts for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *usageRepo) SumStorageBytes(ctx context.Context, userID string) (int64, error) {
	const q = `
        SELECT COALESCE((SELECT SUM(length(content)) FROM content_posts WHERE user_id = $1), 0)
             + COALESCE((SELECT SUM(size_bytes) FROM media_assets WHERE user_id = $1 AND status = 'ready'), 0)
    `
	var total int64
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing storage for user %s: %w", userID, err)
	}
	return total, nil
}
