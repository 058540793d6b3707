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

// MediaRepository defines methods for accessing media assets.
type MediaRepository interface {
	CreateAsset(ctx context.Context, a *model.MediaAsset) error
	GetAssetByID(ctx context.Context, id string) (*model.MediaAsset, error)
	SetStoragePath(ctx context.Context, id, storagePath string) error
	// MarkReady records the final object size once the upload completed.
	MarkReady(ctx context.Context, id string, sizeBytes int64) error
	DeleteAsset(ctx context.Context, id string) error
	ListAssetsByUser(ctx context.Context, userID string) ([]model.MediaAsset, error)
}

type mediaRepo struct {
	pool *pgxpool.Pool
}

// NewMediaRepo creates a new MediaRepository.
func NewMediaRepo(pool *pgxpool.Pool) MediaRepository {
	return &mediaRepo{pool: pool}
}

func (r *mediaRepo) CreateAsset(ctx context.Context, a *model.MediaAsset) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const q = `
        INSERT INTO media_assets (id, user_id, storage_path, filename, size_bytes, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING created_at
    `
	err := r.pool.QueryRow(ctx, q, a.ID, a.UserID, a.StoragePath, a.Filename, a.SizeBytes, a.Status).
		Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating media asset for user %s: %w", a.UserID, err)
	}
	return nil
}

func (r *mediaRepo) GetAssetByID(ctx context.Context, id string) (*model.MediaAsset, error) {
	const q = `
        SELECT id, user_id, storage_path, filename, size_bytes, status, created_at
        FROM media_assets
        WHERE id = $1
    `
	var a model.MediaAsset
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&a.ID,
		&a.UserID,
		&a.StoragePath,
		&a.Filename,
		&a.SizeBytes,
		&a.Status,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch media asset %s: %w", id, err)
	}
	return &a, nil
}

func (r *mediaRepo) SetStoragePath(ctx context.Context, id, storagePath string) error {
	const q = `UPDATE media_assets SET storage_path = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, storagePath); err != nil {
		return fmt.Errorf("setting storage path for media asset %s: %w", id, err)
	}
	return nil
}

func (r *mediaRepo) MarkReady(ctx context.Context, id string, sizeBytes int64) error {
	const q = `
        UPDATE media_assets
        SET status = 'ready',
            size_bytes = $2
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, id, sizeBytes); err != nil {
		return fmt.Errorf("marking media asset %s ready: %w", id, err)
	}
	return nil
}

func (r *mediaRepo) DeleteAsset(ctx context.Context, id string) error {
	const q = `DELETE FROM media_assets WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("deleting media asset %s: %w", id, err)
	}
	return nil
}

func (r *mediaRepo) ListAssetsByUser(ctx context.Context, userID string) ([]model.MediaAsset, error) {
	const q = `
        SELECT id, user_id, storage_path, filename, size_bytes, status, created_at
        FROM media_assets
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing media assets for user %s: %w", userID, err)
	}
	defer rows.Close()

	var assets []model.MediaAsset
	for rows.Next() {
		var a model.MediaAsset
		if err := rows.Scan(&a.ID, &a.UserID, &a.StoragePath, &a.Filename, &a.SizeBytes, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning media asset row: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating media asset rows: %w", err)
	}
	return assets, nil
}
