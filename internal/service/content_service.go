package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"creatorflow/internal/model"
	"creatorflow/internal/pgmq"
	"creatorflow/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrNotPostOwner     = errors.New("post belongs to another user")
	ErrContentLocked    = errors.New("content is locked")
	ErrInvalidPlatform  = errors.New("unknown platform")
	ErrInvalidSchedule  = errors.New("scheduled time must be in the future")
	ErrPostLimitReached = errors.New("monthly post limit reached")
)

var validPlatforms = map[string]struct{}{
	model.PlatformInstagram: {},
	model.PlatformTikTok:    {},
	model.PlatformYouTube:   {},
	model.PlatformTwitter:   {},
	model.PlatformLinkedIn:  {},
}

// PublishJob is the pgmq payload enqueued when a scheduled post comes due.
type PublishJob struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
}

// ContentService handles post CRUD, scheduling, and lock enforcement.
type ContentService interface {
	CreatePost(ctx context.Context, user *model.User, platform, content string, scheduledFor *time.Time) (*model.ContentPost, error)
	GetPost(ctx context.Context, user *model.User, postID string) (*model.ContentPost, error)
	ListPosts(ctx context.Context, userID string, limit, offset int) ([]model.ContentPost, error)
	UpdatePost(ctx context.Context, user *model.User, postID, platform, content string, scheduledFor *time.Time) (*model.ContentPost, error)
	DeletePost(ctx context.Context, user *model.User, postID string) error
	// ExportPost returns the post for download; locked content is refused.
	ExportPost(ctx context.Context, user *model.User, postID string) (*model.ContentPost, error)
	// EnqueueDuePosts moves due scheduled posts onto the publish queue.
	// Called by the cron sweep.
	EnqueueDuePosts(ctx context.Context, now time.Time) (int, error)
}

type contentService struct {
	repo      repository.ContentRepository
	usageSvc  UsageService
	queue     *pgmq.Client
	queueName string
	logger    zerolog.Logger
}

// NewContentService creates a new ContentService. queue may be nil in
// deployments without the publish worker.
func NewContentService(repo repository.ContentRepository, usageSvc UsageService, queue *pgmq.Client, queueName string, logger zerolog.Logger) ContentService {
	return &contentService{
		repo:      repo,
		usageSvc:  usageSvc,
		queue:     queue,
		queueName: queueName,
		logger:    logger.With().Str("service", "ContentService").Logger(),
	}
}

func (s *contentService) CreatePost(ctx context.Context, user *model.User, platform, content string, scheduledFor *time.Time) (*model.ContentPost, error) {
	if _, ok := validPlatforms[platform]; !ok {
		return nil, ErrInvalidPlatform
	}

	dec, err := s.usageSvc.CanCreatePost(ctx, user)
	dec = FailOpen(dec, err, s.logger)
	if !dec.Allowed {
		return nil, ErrPostLimitReached
	}

	post := &model.ContentPost{
		UserID:   user.ID,
		Platform: platform,
		Content:  content,
		Status:   model.PostStatusDraft,
	}
	if scheduledFor != nil {
		if !scheduledFor.After(time.Now()) {
			return nil, ErrInvalidSchedule
		}
		post.Status = model.PostStatusScheduled
		post.ScheduledFor = scheduledFor
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// getOwned fetches a post and verifies ownership.
func (s *contentService) getOwned(ctx context.Context, userID, postID string) (*model.ContentPost, error) {
	post, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, ErrNotPostOwner
	}
	return post, nil
}

func (s *contentService) GetPost(ctx context.Context, user *model.User, postID string) (*model.ContentPost, error) {
	return s.getOwned(ctx, user.ID, postID)
}

func (s *contentService) ListPosts(ctx context.Context, userID string, limit, offset int) ([]model.ContentPost, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListPostsByUser(ctx, userID, limit, offset)
}

func (s *contentService) UpdatePost(ctx context.Context, user *model.User, postID, platform, content string, scheduledFor *time.Time) (*model.ContentPost, error) {
	post, err := s.getOwned(ctx, user.ID, postID)
	if err != nil {
		return nil, err
	}
	if !CanEditContent(post, user) {
		return nil, ErrContentLocked
	}
	if _, ok := validPlatforms[platform]; !ok {
		return nil, ErrInvalidPlatform
	}

	post.Platform = platform
	post.Content = content
	if scheduledFor != nil {
		if !scheduledFor.After(time.Now()) {
			return nil, ErrInvalidSchedule
		}
		post.Status = model.PostStatusScheduled
		post.ScheduledFor = scheduledFor
	}

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *contentService) DeletePost(ctx context.Context, user *model.User, postID string) error {
	post, err := s.getOwned(ctx, user.ID, postID)
	if err != nil {
		return err
	}
	if !CanEditContent(post, user) {
		return ErrContentLocked
	}
	return s.repo.DeletePost(ctx, postID)
}

func (s *contentService) ExportPost(ctx context.Context, user *model.User, postID string) (*model.ContentPost, error) {
	post, err := s.getOwned(ctx, user.ID, postID)
	if err != nil {
		return nil, err
	}
	if !CanExportContent(post, user) {
		return nil, ErrContentLocked
	}
	return post, nil
}

func (s *contentService) EnqueueDuePosts(ctx context.Context, now time.Time) (int, error) {
	if s.queue == nil {
		return 0, nil
	}
	// Claiming moves posts to the publishing status, so a crashed sweep leaves
	// claimed-but-unqueued posts visible for manual requeue instead of
	// double-publishing.
	due, err := s.repo.ClaimDueScheduled(ctx, now, 100)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, post := range due {
		payload, err := json.Marshal(PublishJob{PostID: post.ID, UserID: post.UserID})
		if err != nil {
			s.logger.Error().Err(err).Str("post_id", post.ID).Msg("Failed to marshal publish job")
			continue
		}
		if err := s.queue.Send(ctx, s.queueName, payload); err != nil {
			s.logger.Error().Err(err).Str("post_id", post.ID).Msg("Failed to enqueue publish job")
			continue
		}
		enqueued++
	}
	return enqueued, nil
}
