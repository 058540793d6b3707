package service

import (
	"context"
	"fmt"
	"time"

	"creatorflow/internal/model"
	"creatorflow/internal/pubsub"
	"creatorflow/internal/repository"

	"github.com/rs/zerolog"
)

// QuotaDecision is the outcome of a usage check. Denials are values; an
// accompanying non-nil error means the check itself could not run, and the
// caller decides the fallback (every HTTP call-site in this service fails
// open, because tracking failures must never block the product).
type QuotaDecision struct {
	Allowed bool   `json:"allowed"`
	Current int64  `json:"current"`
	Limit   int64  `json:"limit"`
	Message string `json:"message,omitempty"`
}

// FailOpen resolves a quota check that errored into an allow decision. The
// error is logged server-side; the client only sees the allowance.
func FailOpen(dec QuotaDecision, err error, logger zerolog.Logger) QuotaDecision {
	if err == nil {
		return dec
	}
	logger.Error().Err(err).Msg("usage check failed, failing open")
	return QuotaDecision{Allowed: true, Current: dec.Current, Limit: dec.Limit}
}

// UsageService enforces monthly AI-call and storage quotas.
type UsageService interface {
	CanMakeAICall(ctx context.Context, user *model.User) (QuotaDecision, error)
	LogAICall(ctx context.Context, userID, botName, endpoint string) error
	CanUseStorage(ctx context.Context, user *model.User, incomingBytes int64) (QuotaDecision, error)
	CanCreatePost(ctx context.Context, user *model.User) (QuotaDecision, error)
	GetMonthlyUsage(ctx context.Context, userID string) (*model.UsageStat, error)
}

type usageService struct {
	repo           repository.UsageRepository
	publisher      pubsub.Publisher
	analyticsTopic string
	logger         zerolog.Logger
	now            func() time.Time
}

// NewUsageService creates a new UsageService. The publisher may be nil when
// analytics publishing is not configured.
func NewUsageService(repo repository.UsageRepository, publisher pubsub.Publisher, analyticsTopic string, logger zerolog.Logger) UsageService {
	return &usageService{
		repo:           repo,
		publisher:      publisher,
		analyticsTopic: analyticsTopic,
		logger:         logger.With().Str("service", "UsageService").Logger(),
		now:            time.Now,
	}
}

func (s *usageService) CanMakeAICall(ctx context.Context, user *model.User) (QuotaDecision, error) {
	limits := model.LimitsForUser(user)
	if limits.AICallsPerMonth == model.Unlimited {
		return QuotaDecision{Allowed: true, Limit: model.Unlimited}, nil
	}

	stat, err := s.repo.GetMonthlyStat(ctx, user.ID, model.MonthKey(s.now()))
	if err != nil {
		return QuotaDecision{}, fmt.Errorf("fetching monthly usage: %w", err)
	}

	current := int64(stat.AICallsCount)
	limit := int64(limits.AICallsPerMonth)
	if current >= limit {
		return QuotaDecision{
			Allowed: false,
			Current: current,
			Limit:   limit,
			Message: fmt.Sprintf("You've used all %d AI assistant calls for this month. Upgrade your plan for more.", limit),
		}, nil
	}
	return QuotaDecision{Allowed: true, Current: current, Limit: limit}, nil
}

func (s *usageService) LogAICall(ctx context.Context, userID, botName, endpoint string) error {
	log := &model.AICallLog{UserID: userID, BotName: botName, Endpoint: endpoint}
	if err := s.repo.RecordAICall(ctx, log, model.MonthKey(s.now())); err != nil {
		return err
	}
	if s.publisher != nil {
		// Analytics is best-effort; a publish failure never fails the call.
		_, err := s.publisher.PublishEvent(ctx, s.analyticsTopic, pubsub.Event{
			Type:       pubsub.EventAICallLogged,
			UserID:     userID,
			Attributes: map[string]string{"bot": botName, "endpoint": endpoint},
		})
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to publish ai_call event")
		}
	}
	return nil
}

func (s *usageService) CanUseStorage(ctx context.Context, user *model.User, incomingBytes int64) (QuotaDecision, error) {
	limits := model.LimitsForUser(user)
	if limits.StorageMB == model.Unlimited {
		return QuotaDecision{Allowed: true, Limit: model.Unlimited}, nil
	}

	// Recomputed on every check rather than incrementally maintained: heavier,
	// but never drifts from the rows that actually exist.
	used, err := s.repo.SumStorageBytes(ctx, user.ID)
	if err != nil {
		return QuotaDecision{}, fmt.Errorf("summing storage: %w", err)
	}

	limit := int64(limits.StorageMB) * 1024 * 1024
	if used+incomingBytes > limit {
		return QuotaDecision{
			Allowed: false,
			Current: used,
			Limit:   limit,
			Message: fmt.Sprintf("This upload would exceed your %d MB storage quota. Upgrade your plan or free up space.", limits.StorageMB),
		}, nil
	}
	return QuotaDecision{Allowed: true, Current: used, Limit: limit}, nil
}

func (s *usageService) CanCreatePost(ctx context.Context, user *model.User) (QuotaDecision, error) {
	allowance := user.PostAllowance()
	if allowance == model.Unlimited {
		return QuotaDecision{Allowed: true, Limit: model.Unlimited}, nil
	}

	count, err := s.repo.CountPostsInMonth(ctx, user.ID, model.MonthKey(s.now()))
	if err != nil {
		return QuotaDecision{}, fmt.Errorf("counting posts: %w", err)
	}

	current := int64(count)
	limit := int64(allowance)
	if current >= limit {
		return QuotaDecision{
			Allowed: false,
			Current: current,
			Limit:   limit,
			Message: fmt.Sprintf("You've reached your %d posts for this month. Upgrade your plan or purchase additional posts.", limit),
		}, nil
	}
	return QuotaDecision{Allowed: true, Current: current, Limit: limit}, nil
}

func (s *usageService) GetMonthlyUsage(ctx context.Context, userID string) (*model.UsageStat, error) {
	stat, err := s.repo.GetMonthlyStat(ctx, userID, model.MonthKey(s.now()))
	if err != nil {
		return nil, err
	}
	// Storage is computed on demand, not stored in the aggregate row.
	used, err := s.repo.SumStorageBytes(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to compute storage usage")
		return stat, nil
	}
	stat.StorageBytes = used
	return stat, nil
}
