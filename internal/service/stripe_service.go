package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"creatorflow/internal/config"
	"creatorflow/internal/model"
	"creatorflow/internal/pubsub"
	"creatorflow/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	billingsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// postPackSize is the number of extra posts a one-time post-pack purchase adds.
const postPackSize = 10

// StripeService manages Stripe checkout, the billing portal, and webhooks.
type StripeService struct {
	cfg       *config.Config
	userRepo  repository.UserRepository
	publisher pubsub.Publisher
	logger    zerolog.Logger
}

// NewStripeService initializes the Stripe key and returns a service with a
// scoped logger. publisher may be nil when analytics publishing is disabled.
func NewStripeService(cfg *config.Config, userRepo repository.UserRepository, publisher pubsub.Publisher, logger zerolog.Logger) *StripeService {
	stripe.Key = cfg.StripeSecretKey
	return &StripeService{
		cfg:       cfg,
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger.With().Str("service", "StripeService").Logger(),
	}
}

func (s *StripeService) priceForTier(tier model.PlanTier) string {
	switch tier {
	case model.TierStarter:
		return s.cfg.StripePriceStarter
	case model.TierGrowth:
		return s.cfg.StripePriceGrowth
	case model.TierPro:
		return s.cfg.StripePricePro
	case model.TierBusiness:
		return s.cfg.StripePriceBusiness
	case model.TierAgency:
		return s.cfg.StripePriceAgency
	}
	return ""
}

// CreateCheckoutSession creates a subscription checkout session for a tier.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, tier string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for checkout session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	priceID := s.priceForTier(model.PlanTier(tier))
	if priceID == "" {
		return "", ErrUnknownPlan
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail:      stripe.String(user.Email),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(stripe.CheckoutSessionModeSubscription),
		SuccessURL:         stripe.String(s.cfg.StripeSuccessURL),
		CancelURL:          stripe.String(s.cfg.StripeCancelURL),
		Metadata:           map[string]string{"user_id": userID, "tier": tier},
	}
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		params.Customer = stripe.String(*user.StripeCustomerID)
		params.CustomerEmail = nil
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("tier", tier).Msg("Failed to create Stripe checkout session")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePostPackCheckout creates a one-time checkout session for extra posts.
func (s *StripeService) CreatePostPackCheckout(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if s.cfg.StripePricePostPack == "" {
		return "", errors.New("post pack purchases are not configured")
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail:      stripe.String(user.Email),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(s.cfg.StripePricePostPack), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(stripe.CheckoutSessionModePayment),
		SuccessURL:         stripe.String(s.cfg.StripeSuccessURL),
		CancelURL:          stripe.String(s.cfg.StripeCancelURL),
		Metadata:           map[string]string{"user_id": userID, "purchase": "post_pack", "pack_size": strconv.Itoa(postPackSize)},
	}
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		params.Customer = stripe.String(*user.StripeCustomerID)
		params.CustomerEmail = nil
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create post pack checkout session")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession creates a Stripe Customer Portal session.
func (s *StripeService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for portal session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil || user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return "", fmt.Errorf("no stripe customer for user: %s", userID)
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*user.StripeCustomerID),
		ReturnURL: stripe.String(s.cfg.StripeReturnURL),
	}
	sess, err := billingsession.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create Stripe billing portal session")
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// userIDFromEvent resolves the user ID from webhook metadata, falling back to
// the Stripe customer ID mapping.
func (s *StripeService) userIDFromEvent(ctx context.Context, metadata map[string]string, customerID string) (string, error) {
	if userID, ok := metadata["user_id"]; ok && userID != "" {
		return userID, nil
	}
	if customerID == "" {
		return "", errors.New("cannot determine user: missing metadata and customer id")
	}
	s.logger.Warn().Str("stripe_customer_id", customerID).Msg("Missing user_id metadata; looking up user by customer ID")
	userID, err := s.userRepo.GetUserIDByStripeCustomer(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("failed to lookup user by Stripe customer ID: %w", err)
	}
	if userID == "" {
		return "", fmt.Errorf("no user found for customer ID: %s", customerID)
	}
	return userID, nil
}

// HandleWebhook processes Stripe webhook events.
func (s *StripeService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	s.logger.Info().Str("event_type", string(event.Type)).Msg("Stripe webhook received")

	ctx := r.Context()
	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			s.logger.Error().Err(err).Msg("Invalid checkout.session data")
			http.Error(w, "invalid checkout.session data", http.StatusBadRequest)
			return
		}
		if err := s.handleCheckoutCompleted(ctx, &cs); err != nil {
			s.logger.Error().Err(err).Msg("Failed to process checkout.session.completed")
			http.Error(w, "failed to process checkout", http.StatusInternalServerError)
			return
		}
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			s.logger.Error().Err(err).Msg("Invalid customer.subscription.deleted payload")
			http.Error(w, "invalid subscription data", http.StatusBadRequest)
			return
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}
		userID, err := s.userIDFromEvent(ctx, sub.Metadata, customerID)
		if err != nil {
			s.logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("Failed to determine user ID from subscription")
			http.Error(w, "failed to identify user", http.StatusInternalServerError)
			return
		}
		// Trial timestamps survive the downgrade so trial-window content
		// relocks when the subscription lapses.
		if err := s.userRepo.ClearSubscription(ctx, userID); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to clear subscription on customer.subscription.deleted")
			http.Error(w, "failed to clear subscription", http.StatusInternalServerError)
			return
		}
	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			s.logger.Error().Err(err).Msg("Invalid invoice.payment_failed payload")
			http.Error(w, "invalid invoice data", http.StatusBadRequest)
			return
		}
		// Stripe retries payment on its own schedule; access is only revoked
		// when the subscription is deleted.
		s.logger.Warn().Str("invoice_id", invoice.ID).Msg("Invoice payment failed")
	default:
		s.logger.Warn().Str("event_type", string(event.Type)).Msg("Unhandled Stripe webhook event")
	}
	w.WriteHeader(http.StatusOK)
}

func (s *StripeService) handleCheckoutCompleted(ctx context.Context, cs *stripe.CheckoutSession) error {
	userID := cs.Metadata["user_id"]
	if userID == "" {
		return errors.New("missing user_id in checkout session metadata")
	}
	customerID := ""
	if cs.Customer != nil {
		customerID = cs.Customer.ID
	}

	if cs.Metadata["purchase"] == "post_pack" {
		packSize := postPackSize
		if n, err := strconv.Atoi(cs.Metadata["pack_size"]); err == nil && n > 0 {
			packSize = n
		}
		if err := s.userRepo.AddPurchasedPosts(ctx, userID, packSize); err != nil {
			return fmt.Errorf("crediting post pack: %w", err)
		}
		s.logger.Info().Str("user_id", userID).Int("pack_size", packSize).Msg("Post pack purchase credited")
		return nil
	}

	tier := cs.Metadata["tier"]
	if !model.IsValidTier(tier) {
		return fmt.Errorf("unknown tier in checkout metadata: %q", tier)
	}
	limits := model.LimitsForTier(model.PlanTier(tier))
	if err := s.userRepo.SetSubscription(ctx, userID, tier, customerID, limits.PostsPerMonth); err != nil {
		return fmt.Errorf("activating subscription: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Str("tier", tier).Msg("Subscription activated")

	if s.publisher != nil {
		_, err := s.publisher.PublishEvent(ctx, s.cfg.AnalyticsTopic, pubsub.Event{
			Type:       pubsub.EventTrialConverted,
			UserID:     userID,
			OccurredAt: time.Now().UTC(),
			Attributes: map[string]string{"tier": tier},
		})
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to publish trial.converted event")
		}
	}
	return nil
}
