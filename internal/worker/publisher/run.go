package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"creatorflow/internal/config"
	"creatorflow/internal/model"
	"creatorflow/internal/pgmq"
	"creatorflow/internal/pubsub"
	"creatorflow/internal/repository"
	"creatorflow/internal/service"

	"github.com/rs/zerolog"
)

// connectorRequest is the payload sent to the platform connector service.
type connectorRequest struct {
	PostID   string `json:"post_id"`
	Platform string `json:"platform"`
	Content  string `json:"content"`
	Token    string `json:"token,omitempty"`
}

// Run starts the publish worker: it drains the publish queue and delivers
// claimed posts to the platform connector. secretSvc and eventPub may be nil
// when the deployment has no GCP project configured.
func Run(
	ctx context.Context,
	logger zerolog.Logger,
	client *pgmq.Client,
	repo repository.ContentRepository,
	secretSvc service.SecretManagerService,
	eventPub pubsub.Publisher,
	cfg *config.Config,
) error {
	queue := cfg.PublishQueueName
	publishEndpoint := strings.TrimRight(cfg.PlatformConnectorURL, "/") + "/publish"
	logger.Info().Str("queue", queue).Str("endpoint", publishEndpoint).Msg("Starting publish worker")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down publish worker")
			return nil
		default:
		}

		msgs, err := client.ReadWithPoll(ctx, queue, cfg.PublishPollTimeoutSec, cfg.PublishPollMaxMsg)
		if err != nil {
			logger.Error().Err(err).Msg("Error reading publish queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		logger.Info().Int64("msg_id", msg.ID).Msg("Received publish job")

		var job service.PublishJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			logger.Error().Err(err).Msg("Failed to unmarshal publish job; deleting message")
			client.Delete(ctx, queue, []int64{msg.ID})
			continue
		}

		post, err := repo.GetPostByID(ctx, job.PostID)
		if err != nil {
			logger.Error().Err(err).Str("post_id", job.PostID).Msg("Failed to load post; will retry")
			time.Sleep(time.Second)
			continue
		}
		if post == nil || post.Status != model.PostStatusPublishing {
			// Deleted or already handled by another worker.
			client.Delete(ctx, queue, []int64{msg.ID})
			continue
		}

		if err := deliver(ctx, logger, cfg, publishEndpoint, secretSvc, post); err != nil {
			logger.Error().Err(err).Str("post_id", post.ID).Msg("Publish failed after retries")
			if err := repo.MarkFailed(ctx, post.ID); err != nil {
				logger.Error().Err(err).Str("post_id", post.ID).Msg("Failed to mark post failed")
			}
			emit(ctx, logger, eventPub, cfg, pubsub.EventPostFailed, post)
		} else {
			if err := repo.MarkPublished(ctx, post.ID, time.Now().UTC()); err != nil {
				logger.Error().Err(err).Str("post_id", post.ID).Msg("Failed to mark post published")
			}
			emit(ctx, logger, eventPub, cfg, pubsub.EventPostPublished, post)
		}

		if err := client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
			logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Error deleting publish message")
		}
	}
}

// deliver posts the content to the connector with exponential backoff.
func deliver(
	ctx context.Context,
	logger zerolog.Logger,
	cfg *config.Config,
	endpoint string,
	secretSvc service.SecretManagerService,
	post *model.ContentPost,
) error {
	token := ""
	if secretSvc != nil {
		t, err := secretSvc.GetPlatformToken(ctx, post.UserID, post.Platform)
		if err != nil {
			// Connector falls back to sandbox mode for tokenless posts.
			logger.Warn().Err(err).Str("post_id", post.ID).Str("platform", post.Platform).Msg("No platform token available")
		} else {
			token = t
		}
	}

	reqBody, err := json.Marshal(connectorRequest{
		PostID:   post.ID,
		Platform: post.Platform,
		Content:  post.Content,
		Token:    token,
	})
	if err != nil {
		return fmt.Errorf("marshaling connector request: %w", err)
	}

	backoff := time.Duration(cfg.PublishBackoffInitialSec) * time.Second
	var lastErr error
	for attempt := 1; attempt <= cfg.PublishMaxRetries; attempt++ {
		ctxReq, cancel := context.WithTimeout(ctx, 10*time.Second)
		req, _ := http.NewRequestWithContext(ctxReq, http.MethodPost, endpoint, bytes.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		cancel()

		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if err == nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		} else {
			lastErr = err
		}
		logger.Error().Err(lastErr).Int("attempt", attempt).Str("post_id", post.ID).Msg("Connector call failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if max := time.Duration(cfg.PublishBackoffMaxSec) * time.Second; backoff > max {
			backoff = max
		}
	}
	return lastErr
}

func emit(ctx context.Context, logger zerolog.Logger, eventPub pubsub.Publisher, cfg *config.Config, eventType string, post *model.ContentPost) {
	if eventPub == nil {
		return
	}
	_, err := eventPub.PublishEvent(ctx, cfg.AnalyticsTopic, pubsub.Event{
		Type:       eventType,
		UserID:     post.UserID,
		OccurredAt: time.Now().UTC(),
		Attributes: map[string]string{"post_id": post.ID, "platform": post.Platform},
	})
	if err != nil {
		logger.Error().Err(err).Str("post_id", post.ID).Msg("Failed to publish analytics event")
	}
}
