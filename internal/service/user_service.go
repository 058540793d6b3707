package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creatorflow/internal/auth"
	"creatorflow/internal/model"
	"creatorflow/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrUnknownPlan            = errors.New("unknown plan")
)

// UserService handles account lifecycle and token issuance.
type UserService interface {
	// Signup creates an account and starts a trial of the requested plan.
	// Abuse gating happens in the handler before this is called.
	Signup(ctx context.Context, email, password, name, trialPlan string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Get(ctx context.Context, id string) (*model.User, error)
	MintTokens(user *model.User) (auth.TokenPair, error)
}

type userService struct {
	userRepo   repository.UserRepository
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	trialDays  int
	logger     zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, jwtSecret string, accessTTL, refreshTTL time.Duration, trialDays int, logger zerolog.Logger) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		trialDays:  trialDays,
		logger:     logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) Signup(ctx context.Context, email, password, name, trialPlan string) (*model.User, error) {
	if !model.IsValidTier(trialPlan) {
		return nil, ErrUnknownPlan
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	limits := model.LimitsForTier(model.PlanTier(trialPlan))
	startsAt := time.Now().UTC()
	endsAt := startsAt.AddDate(0, 0, s.trialDays)
	// Account and trial window are written in one insert so a failure cannot
	// strand an account without a trial, blocking the email on retry.
	user := &model.User{
		Email:            email,
		PasswordHash:     hash,
		Name:             name,
		MonthlyPostLimit: limits.PostsPerMonth,
		TrialStartedAt:   &startsAt,
		TrialEndsAt:      &endsAt,
		TrialPlan:        &trialPlan,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("trial_plan", trialPlan).Msg("User signed up")
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*model.User, auth.TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, auth.TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.MintTokens(user)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return user, pair, nil
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := auth.ParseRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return auth.TokenPair{}, ErrInvalidCredentials
	}
	// Tokens for deleted users must stop working immediately.
	user, err := s.userRepo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if user == nil {
		return auth.TokenPair{}, ErrUserNotFound
	}
	return s.MintTokens(user)
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) MintTokens(user *model.User) (auth.TokenPair, error) {
	return auth.MintTokens(user.ID, user.Email, s.jwtSecret, s.accessTTL, s.refreshTTL)
}
