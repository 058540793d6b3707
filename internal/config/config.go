package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// JWTSecret signs access and refresh tokens. The process refuses to start
	// without it; there is no insecure default.
	JWTSecret            string `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTLMin    int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"15"`
	RefreshTokenTTLHours int    `envconfig:"REFRESH_TOKEN_TTL_HOURS" default:"168"`

	// Abuse prevention settings. DisableSignupRateLimit and the preview
	// environment both relax every signup gate except the disposable-email
	// check. This is an explicit testing affordance, not a hidden bypass.
	DisableSignupRateLimit    bool   `envconfig:"DISABLE_SIGNUP_RATE_LIMIT" default:"false"`
	VercelEnv                 string `envconfig:"VERCEL_ENV" default:""`
	MaxAccountsPerIP          int    `envconfig:"MAX_ACCOUNTS_PER_IP" default:"3"`
	MaxAccountsPerEmailDomain int    `envconfig:"MAX_ACCOUNTS_PER_EMAIL_DOMAIN" default:"2"`
	MaxAccountsPerDevice      int    `envconfig:"MAX_ACCOUNTS_PER_DEVICE" default:"3"`
	SignupRateLimitMax        int    `envconfig:"SIGNUP_RATE_LIMIT_MAX" default:"3"`

	TrialDays int `envconfig:"TRIAL_DAYS" default:"7"`

	// Stripe settings
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeSuccessURL    string `envconfig:"STRIPE_SUCCESS_URL" default:"http://localhost:3000/billing/success"`
	StripeCancelURL     string `envconfig:"STRIPE_CANCEL_URL" default:"http://localhost:3000/billing/cancelled"`
	StripeReturnURL     string `envconfig:"STRIPE_RETURN_URL" default:"http://localhost:3000/account"`
	StripePriceStarter  string `envconfig:"STRIPE_PRICE_STARTER"`
	StripePriceGrowth   string `envconfig:"STRIPE_PRICE_GROWTH"`
	StripePricePro      string `envconfig:"STRIPE_PRICE_PRO"`
	StripePriceBusiness string `envconfig:"STRIPE_PRICE_BUSINESS"`
	StripePriceAgency   string `envconfig:"STRIPE_PRICE_AGENCY"`
	StripePricePostPack string `envconfig:"STRIPE_PRICE_POST_PACK"`

	// Media storage (S3-compatible) settings
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"creatorflow-media"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Analytics event publishing
	GCPProjectID   string `envconfig:"GCP_PROJECT_ID"`
	AnalyticsTopic string `envconfig:"ANALYTICS_TOPIC" default:"creatorflow-analytics"`

	// Scheduled-post publisher settings
	PublishQueueName         string `envconfig:"PUBLISH_QUEUE_NAME" default:"publish_queue"`
	PublishPollTimeoutSec    int    `envconfig:"PUBLISH_POLL_TIMEOUT_SEC" default:"30"`
	PublishPollMaxMsg        int    `envconfig:"PUBLISH_POLL_MAX_MSG" default:"1"`
	PublishMaxRetries        int    `envconfig:"PUBLISH_MAX_RETRIES" default:"5"`
	PublishBackoffInitialSec int    `envconfig:"PUBLISH_BACKOFF_INITIAL_SEC" default:"1"`
	PublishBackoffMaxSec     int    `envconfig:"PUBLISH_BACKOFF_MAX_SEC" default:"30"`

	// PlatformConnectorURL is the base URL of the connector service that talks
	// to the social platform APIs on the worker's behalf.
	PlatformConnectorURL string `envconfig:"PLATFORM_CONNECTOR_URL" default:"http://localhost:8100"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RelaxAbuseChecks reports whether signup abuse gates (other than the
// disposable-email check, which always runs) should be skipped.
func (c *Config) RelaxAbuseChecks() bool {
	return c.DisableSignupRateLimit || c.VercelEnv == "preview"
}
