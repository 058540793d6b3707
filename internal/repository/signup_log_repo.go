package repository

import (
	"context"
	"fmt"
	"time"

	"creatorflow/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SignupLogRepository stores append-only signup attempt records used by the
// abuse-prevention counts. Rows are inserted and counted, never updated.
type SignupLogRepository interface {
	Insert(ctx context.Context, log *model.SignupLog) error
	CountDistinctUsersByIP(ctx context.Context, ip string, since time.Time) (int, error)
	CountByFingerprint(ctx context.Context, fingerprint string, since time.Time) (int, error)
}

type signupLogRepo struct {
	pool *pgxpool.Pool
}

// NewSignupLogRepo creates a new SignupLogRepository.
func NewSignupLogRepo(pool *pgxpool.Pool) SignupLogRepository {
	return &signupLogRepo{pool: pool}
}

func (r *signupLogRepo) Insert(ctx context.Context, log *model.SignupLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	const q = `
        INSERT INTO user_signup_logs (id, ip_address, device_fingerprint, email, user_id)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.pool.Exec(ctx, q, log.ID, log.IPAddress, log.DeviceFingerprint, log.Email, log.UserID)
	if err != nil {
		return fmt.Errorf("inserting signup log for user %s: %w", log.UserID, err)
	}
	return nil
}

func (r *signupLogRepo) CountDistinctUsersByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	const q = `
        SELECT COUNT(DISTINCT user_id)
        FROM user_signup_logs
        WHERE ip_address = $1
          AND created_at >= $2
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, ip, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting signups for ip %s: %w", ip, err)
	}
	return count, nil
}

func (r *signupLogRepo) CountByFingerprint(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	const q = `
        SELECT COUNT(DISTINCT user_id)
        FROM user_signup_logs
        WHERE device_fingerprint = $1
          AND created_at >= $2
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, fingerprint, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting signups for fingerprint: %w", err)
	}
	return count, nil
}
