package abuse

import (
	"context"
	"time"

	"creatorflow/internal/model"
	"creatorflow/internal/ratelimit"

	"github.com/rs/zerolog"
)

// Signup-gate reasons returned to the client on denial.
const (
	ReasonDisposableEmail = "disposable email addresses are not allowed"
	ReasonSignupRate      = "too many signup attempts, please try again later"
	ReasonIPAccounts      = "too many accounts created from this network"
	ReasonDomainAccounts  = "too many recent accounts from this email domain"
	ReasonDeviceAccounts  = "too many accounts created from this device"
)

const (
	ipLookback     = 30 * 24 * time.Hour
	domainLookback = 7 * 24 * time.Hour
	deviceLookback = 7 * 24 * time.Hour
	signupWindow   = time.Hour
	signupBucket   = "signup"
)

// Decision is a policy outcome. Denials are values, never errors.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// RequestContext carries the request attributes the signup gates inspect.
type RequestContext struct {
	IP          string
	Fingerprint string
}

// SignupCounter exposes the counting queries the gates need. Implemented by
// the signup-log and user repositories.
type SignupCounter interface {
	CountDistinctUsersByIP(ctx context.Context, ip string, since time.Time) (int, error)
	CountByFingerprint(ctx context.Context, fingerprint string, since time.Time) (int, error)
	Insert(ctx context.Context, log *model.SignupLog) error
}

// DomainCounter counts recently created users sharing an email domain.
type DomainCounter interface {
	CountByEmailDomain(ctx context.Context, domain string, since time.Time) (int, error)
}

// Config holds the per-gate thresholds.
type Config struct {
	MaxAccountsPerIP     int
	MaxAccountsPerDomain int
	MaxAccountsPerDevice int
	SignupRateLimitMax   int
	// RelaxChecks skips every gate except the disposable-email check. Used in
	// preview deployments; surfaced in configuration, never implicit.
	RelaxChecks bool
}

// Checker runs the sequential signup gates. Gates short-circuit on the first
// denial; database failures on the counting gates fail open so an unavailable
// signup log never blocks legitimate signups.
type Checker struct {
	signups SignupCounter
	users   DomainCounter
	limiter *ratelimit.Limiter
	cfg     Config
	logger  zerolog.Logger
	now     func() time.Time
}

// NewChecker builds a Checker. The limiter is shared with the HTTP layer so
// signup attempts and other buckets live in one store.
func NewChecker(signups SignupCounter, users DomainCounter, limiter *ratelimit.Limiter, cfg Config, logger zerolog.Logger) *Checker {
	return &Checker{
		signups: signups,
		users:   users,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger.With().Str("component", "AbuseChecker").Logger(),
		now:     time.Now,
	}
}

// Check evaluates the signup gates for a trial signup attempt.
func (c *Checker) Check(ctx context.Context, req RequestContext, email string) Decision {
	// Gate 1: disposable email. Always enforced, fail-closed on malformed input.
	if IsDisposableEmail(email) {
		return Decision{Allowed: false, Reason: ReasonDisposableEmail}
	}

	if c.cfg.RelaxChecks {
		return Decision{Allowed: true}
	}

	// Gate 2: per-IP signup rate limit.
	res := c.limiter.Check(req.IP, ratelimit.Config{
		MaxRequests: c.cfg.SignupRateLimitMax,
		Window:      signupWindow,
		Bucket:      signupBucket,
	})
	if !res.Allowed {
		return Decision{Allowed: false, Reason: ReasonSignupRate}
	}

	now := c.now()

	// Gate 3: distinct accounts from this IP over the trailing 30 days.
	ipCount, err := c.signups.CountDistinctUsersByIP(ctx, req.IP, now.Add(-ipLookback))
	if err != nil {
		c.logger.Error().Err(err).Str("ip", req.IP).Msg("IP account count failed, allowing signup")
	} else if ipCount >= c.cfg.MaxAccountsPerIP {
		return Decision{Allowed: false, Reason: ReasonIPAccounts}
	}

	// Gate 4: accounts sharing the email domain over the trailing 7 days.
	domainCount, err := c.users.CountByEmailDomain(ctx, EmailDomain(email), now.Add(-domainLookback))
	if err != nil {
		c.logger.Error().Err(err).Msg("email domain account count failed, allowing signup")
	} else if domainCount >= c.cfg.MaxAccountsPerDomain {
		return Decision{Allowed: false, Reason: ReasonDomainAccounts}
	}

	// Gate 5: accounts sharing the device fingerprint over the trailing 7 days.
	deviceCount, err := c.signups.CountByFingerprint(ctx, req.Fingerprint, now.Add(-deviceLookback))
	if err != nil {
		c.logger.Error().Err(err).Msg("device account count failed, allowing signup")
	} else if deviceCount >= c.cfg.MaxAccountsPerDevice {
		return Decision{Allowed: false, Reason: ReasonDeviceAccounts}
	}

	return Decision{Allowed: true}
}

// LogSignup records a successful signup for future counting. Logging failures
// are reported but never propagate: observability must not block a signup.
func (c *Checker) LogSignup(ctx context.Context, req RequestContext, email, userID string) {
	log := &model.SignupLog{
		IPAddress:         req.IP,
		DeviceFingerprint: req.Fingerprint,
		Email:             email,
		UserID:            userID,
	}
	if err := c.signups.Insert(ctx, log); err != nil {
		c.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record signup attempt")
	}
}
