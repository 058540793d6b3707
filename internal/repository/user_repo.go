package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creatorflow/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository defines methods for accessing user accounts.
type UserRepository interface {
	// CreateUser inserts the account row, trial window included, in one
	// statement. A partial signup must not leave an account behind.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// SetSubscription sets the paid tier after checkout; the trial window is
	// left untouched so the lock policy can still evaluate trial content.
	SetSubscription(ctx context.Context, userID, tier, stripeCustomerID string, postLimit int) error
	// ClearSubscription nulls the tier on cancellation.
	ClearSubscription(ctx context.Context, userID string) error
	AddPurchasedPosts(ctx context.Context, userID string, count int) error
	GetUserIDByStripeCustomer(ctx context.Context, customerID string) (string, error)
	CountByEmailDomain(ctx context.Context, domain string, since time.Time) (int, error)
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

const userColumns = `id, email, password_hash, name, subscription_tier, stripe_customer_id,
       trial_started_at, trial_ends_at, trial_plan, monthly_post_limit,
       additional_posts_purchased, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.SubscriptionTier,
		&u.StripeCustomerID,
		&u.TrialStartedAt,
		&u.TrialEndsAt,
		&u.TrialPlan,
		&u.MonthlyPostLimit,
		&u.AdditionalPostsPurchased,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	const q = `
        INSERT INTO users (id, email, password_hash, name, monthly_post_limit,
                           trial_started_at, trial_ends_at, trial_plan, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q, u.ID, u.Email, u.PasswordHash, u.Name, u.MonthlyPostLimit,
		u.TrialStartedAt, u.TrialEndsAt, u.TrialPlan).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", u.Email, err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return u, nil
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user by email: %w", err)
	}
	return u, nil
}

func (r *userRepo) SetSubscription(ctx context.Context, userID, tier, stripeCustomerID string, postLimit int) error {
	const q = `
        UPDATE users
        SET subscription_tier = $2,
            stripe_customer_id = COALESCE(NULLIF($3, ''), stripe_customer_id),
            monthly_post_limit = $4,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, userID, tier, stripeCustomerID, postLimit); err != nil {
		return fmt.Errorf("setting subscription %s for user %s: %w", tier, userID, err)
	}
	return nil
}

func (r *userRepo) ClearSubscription(ctx context.Context, userID string) error {
	// Trial timestamps stay in place: content created during the trial becomes
	// read-only once the tier is nulled.
	const q = `
        UPDATE users
        SET subscription_tier = NULL,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("clearing subscription for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) AddPurchasedPosts(ctx context.Context, userID string, count int) error {
	const q = `
        UPDATE users
        SET additional_posts_purchased = additional_posts_purchased + $2,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, userID, count); err != nil {
		return fmt.Errorf("adding purchased posts for user %s: %w", userID, err)
	}
	return nil
}

func (r *userRepo) GetUserIDByStripeCustomer(ctx context.Context, customerID string) (string, error) {
	const q = `SELECT id FROM users WHERE stripe_customer_id = $1`
	var id string
	if err := r.pool.QueryRow(ctx, q, customerID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("fetch user by stripe customer: %w", err)
	}
	return id, nil
}

func (r *userRepo) CountByEmailDomain(ctx context.Context, domain string, since time.Time) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM users
        WHERE lower(split_part(email, '@', 2)) = $1
          AND created_at >= $2
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, domain, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users for domain %s: %w", domain, err)
	}
	return count, nil
}
