package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creatorflow/internal/model"
	"creatorflow/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

var (
	ErrAssetNotFound    = errors.New("media asset not found")
	ErrNotAssetOwner    = errors.New("media asset belongs to another user")
	ErrStorageLimit     = errors.New("storage limit reached")
	ErrAssetNotUploaded = errors.New("file not found in storage")
)

// MediaService handles direct-to-S3 media uploads for a creator's library.
// Completed asset sizes feed the storage quota, so the quota gate runs at
// initiation using the caller-declared size.
type MediaService interface {
	InitiateUpload(ctx context.Context, user *model.User, filename string, sizeBytes int64) (*model.MediaAsset, string, error)
	CompleteUpload(ctx context.Context, userID, assetID string) (*model.MediaAsset, error)
	GetDownloadURL(ctx context.Context, userID, assetID string) (string, error)
	ListAssets(ctx context.Context, userID string) ([]model.MediaAsset, error)
	DeleteAsset(ctx context.Context, userID, assetID string) error
}

type mediaService struct {
	repo          repository.MediaRepository
	usageSvc      UsageService
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	logger        zerolog.Logger
}

// NewMediaService creates a new MediaService.
func NewMediaService(
	repo repository.MediaRepository,
	usageSvc UsageService,
	s3Client *s3.Client,
	bucketName string,
	logger zerolog.Logger,
) MediaService {
	return &mediaService{
		repo:          repo,
		usageSvc:      usageSvc,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
		logger:        logger.With().Str("service", "MediaService").Logger(),
	}
}

// InitiateUpload creates an asset record and returns a presigned PUT URL for
// direct upload. The storage gate uses the declared size; the real size is
// recorded at completion.
func (s *mediaService) InitiateUpload(ctx context.Context, user *model.User, filename string, sizeBytes int64) (*model.MediaAsset, string, error) {
	dec, err := s.usageSvc.CanUseStorage(ctx, user, sizeBytes)
	dec = FailOpen(dec, err, s.logger)
	if !dec.Allowed {
		return nil, "", ErrStorageLimit
	}

	asset := &model.MediaAsset{
		UserID:    user.ID,
		Filename:  filename,
		SizeBytes: sizeBytes,
		Status:    model.MediaStatusUploading,
	}
	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create media asset record")
		return nil, "", fmt.Errorf("failed to create media asset: %w", err)
	}

	storagePath := fmt.Sprintf("media/%s/%s", user.ID, asset.ID)
	presignedURL, err := s.getPresignedPutURL(ctx, storagePath)
	if err != nil {
		_ = s.repo.DeleteAsset(ctx, asset.ID)
		s.logger.Error().Err(err).Str("asset_id", asset.ID).Msg("Failed to generate presigned PUT URL")
		return nil, "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	asset.StoragePath = storagePath
	if err := s.repo.SetStoragePath(ctx, asset.ID, storagePath); err != nil {
		_ = s.repo.DeleteAsset(ctx, asset.ID)
		s.logger.Error().Err(err).Str("asset_id", asset.ID).Msg("Failed to set asset storage path")
		return nil, "", fmt.Errorf("failed to update media asset: %w", err)
	}

	return asset, presignedURL, nil
}

// CompleteUpload verifies the object landed in S3 and marks the asset ready,
// at which point its bytes count against the storage quota.
func (s *mediaService) CompleteUpload(ctx context.Context, userID, assetID string) (*model.MediaAsset, error) {
	asset, err := s.getOwnedAsset(ctx, userID, assetID)
	if err != nil {
		return nil, err
	}

	head, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(asset.StoragePath),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", asset.StoragePath).Msg("File not found in S3 at expected path")
		return nil, ErrAssetNotUploaded
	}

	sizeBytes := asset.SizeBytes
	if head.ContentLength != nil {
		sizeBytes = *head.ContentLength
	}
	if err := s.repo.MarkReady(ctx, assetID, sizeBytes); err != nil {
		s.logger.Error().Err(err).Str("asset_id", assetID).Msg("Failed to mark asset ready")
		return nil, fmt.Errorf("failed to mark asset ready: %w", err)
	}
	asset.Status = model.MediaStatusReady
	asset.SizeBytes = sizeBytes
	return asset, nil
}

func (s *mediaService) GetDownloadURL(ctx context.Context, userID, assetID string) (string, error) {
	asset, err := s.getOwnedAsset(ctx, userID, assetID)
	if err != nil {
		return "", err
	}
	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(asset.StoragePath),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", asset.StoragePath).Msg("Failed to generate presigned URL")
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return resp.URL, nil
}

func (s *mediaService) ListAssets(ctx context.Context, userID string) ([]model.MediaAsset, error) {
	return s.repo.ListAssetsByUser(ctx, userID)
}

func (s *mediaService) DeleteAsset(ctx context.Context, userID, assetID string) error {
	asset, err := s.getOwnedAsset(ctx, userID, assetID)
	if err != nil {
		return err
	}

	if asset.StoragePath != "" {
		if _, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucketName),
			Key:    aws.String(asset.StoragePath),
		}); err != nil {
			// Orphaned objects are cheaper than dangling rows; log and proceed.
			s.logger.Error().Err(err).Str("asset_id", assetID).Msg("Failed to delete object from S3")
		}
	}

	return s.repo.DeleteAsset(ctx, assetID)
}

func (s *mediaService) getOwnedAsset(ctx context.Context, userID, assetID string) (*model.MediaAsset, error) {
	asset, err := s.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}
	if asset.UserID != userID {
		return nil, ErrNotAssetOwner
	}
	return asset, nil
}

func (s *mediaService) getPresignedPutURL(ctx context.Context, objectKey string) (string, error) {
	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned PUT URL: %w", err)
	}
	return request.URL, nil
}
