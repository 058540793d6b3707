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
	"github.com/rs/zerolog"
)

// ContentRepository defines methods for accessing content posts.
type ContentRepository interface {
	CreatePost(ctx context.Context, p *model.ContentPost) error
	GetPostByID(ctx context.Context, id string) (*model.ContentPost, error)
	ListPostsByUser(ctx context.Context, userID string, limit, offset int) ([]model.ContentPost, error)
	UpdatePost(ctx context.Context, p *model.ContentPost) error
	DeletePost(ctx context.Context, id string) error
	// ClaimDueScheduled atomically claims scheduled posts whose scheduled_for
	// has passed, moving them to the publishing status so concurrent sweeps
	// never enqueue the same post twice.
	ClaimDueScheduled(ctx context.Context, now time.Time, limit int) ([]model.ContentPost, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
}

type contentRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewContentRepo creates a new ContentRepository.
func NewContentRepo(pool *pgxpool.Pool, logger zerolog.Logger) ContentRepository {
	return &contentRepo{pool: pool, logger: logger}
}

const postColumns = `id, user_id, platform, content, status, scheduled_for, published_at, created_at, updated_at`

func scanPost(row pgx.Row) (*model.ContentPost, error) {
	var p model.ContentPost
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Platform,
		&p.Content,
		&p.Status,
		&p.ScheduledFor,
		&p.PublishedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *contentRepo) CreatePost(ctx context.Context, p *model.ContentPost) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
        INSERT INTO content_posts (id, user_id, platform, content, status, scheduled_for, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q, p.ID, p.UserID, p.Platform, p.Content, p.Status, p.ScheduledFor).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating post for user %s: %w", p.UserID, err)
	}
	return nil
}

func (r *contentRepo) GetPostByID(ctx context.Context, id string) (*model.ContentPost, error) {
	q := `SELECT ` + postColumns + ` FROM content_posts WHERE id = $1`
	p, err := scanPost(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch post %s: %w", id, err)
	}
	return p, nil
}

func (r *contentRepo) ListPostsByUser(ctx context.Context, userID string, limit, offset int) ([]model.ContentPost, error) {
	q := `SELECT ` + postColumns + `
        FROM content_posts
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing posts for user %s: %w", userID, err)
	}
	defer rows.Close()

	var posts []model.ContentPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post rows: %w", err)
	}
	return posts, nil
}

func (r *contentRepo) UpdatePost(ctx context.Context, p *model.ContentPost) error {
	const q = `
        UPDATE content_posts
        SET platform = $2,
            content = $3,
            status = $4,
            scheduled_for = $5,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, p.ID, p.Platform, p.Content, p.Status, p.ScheduledFor); err != nil {
		return fmt.Errorf("updating post %s: %w", p.ID, err)
	}
	return nil
}

func (r *contentRepo) DeletePost(ctx context.Context, id string) error {
	const q = `DELETE FROM content_posts WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}
	return nil
}

func (r *contentRepo) ClaimDueScheduled(ctx context.Context, now time.Time, limit int) ([]model.ContentPost, error) {
	q := `
        UPDATE content_posts
        SET status = 'publishing', updated_at = NOW()
        WHERE id IN (
            SELECT id FROM content_posts
            WHERE status = 'scheduled'
              AND scheduled_for <= $1
            ORDER BY scheduled_for
            LIMIT $2
            FOR UPDATE SKIP LOCKED
        )
        RETURNING ` + postColumns
	rows, err := r.pool.Query(ctx, q, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claiming due scheduled posts: %w", err)
	}
	defer rows.Close()

	var posts []model.ContentPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claimed post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating claimed post rows: %w", err)
	}
	return posts, nil
}

func (r *contentRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	const q = `
        UPDATE content_posts
        SET status = 'published',
            published_at = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id, publishedAt); err != nil {
		return fmt.Errorf("marking post %s published: %w", id, err)
	}
	return nil
}

func (r *contentRepo) MarkFailed(ctx context.Context, id string) error {
	const q = `
        UPDATE content_posts
        SET status = 'failed',
            updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("marking post %s failed: %w", id, err)
	}
	return nil
}
