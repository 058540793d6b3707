package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"creatorflow/internal/auth"
	"creatorflow/internal/model"

	"github.com/rs/zerolog"
)

type fakeUserRepo struct {
	byID      map[string]*model.User
	byEmail   map[string]*model.User
	nextID    int
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if u.ID == "" {
		f.nextID++
		u.ID = "user-" + string(rune('a'+f.nextID))
	}
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) SetSubscription(ctx context.Context, userID, tier, stripeCustomerID string, postLimit int) error {
	u := f.byID[userID]
	u.SubscriptionTier = &tier
	if stripeCustomerID != "" {
		u.StripeCustomerID = &stripeCustomerID
	}
	u.MonthlyPostLimit = postLimit
	return nil
}

func (f *fakeUserRepo) ClearSubscription(ctx context.Context, userID string) error {
	f.byID[userID].SubscriptionTier = nil
	return nil
}

func (f *fakeUserRepo) AddPurchasedPosts(ctx context.Context, userID string, count int) error {
	f.byID[userID].AdditionalPostsPurchased += count
	return nil
}

func (f *fakeUserRepo) GetUserIDByStripeCustomer(ctx context.Context, customerID string) (string, error) {
	for id, u := range f.byID {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			return id, nil
		}
	}
	return "", nil
}

func (f *fakeUserRepo) CountByEmailDomain(ctx context.Context, domain string, since time.Time) (int, error) {
	return 0, nil
}

func (f *fakeUserRepo) delete(id string) {
	if u, ok := f.byID[id]; ok {
		delete(f.byEmail, u.Email)
		delete(f.byID, id)
	}
}

const testSecret = "test-secret"

func newTestUserService(repo *fakeUserRepo) UserService {
	return NewUserService(repo, testSecret, 15*time.Minute, 24*time.Hour, 7, zerolog.Nop())
}

func TestSignupStartsTrial(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo)

	user, err := svc.Signup(context.Background(), "creator@example.com", "hunter2pass", "Creator", "growth")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.TrialPlan == nil || *user.TrialPlan != "growth" {
		t.Fatalf("trial plan = %v, want growth", user.TrialPlan)
	}
	if user.TrialStartedAt == nil || user.TrialEndsAt == nil {
		t.Fatal("trial window not set")
	}
	gotDays := user.TrialEndsAt.Sub(*user.TrialStartedAt)
	if gotDays != 7*24*time.Hour {
		t.Errorf("trial length = %v, want 168h", gotDays)
	}
	if user.MonthlyPostLimit != model.LimitsForTier(model.TierGrowth).PostsPerMonth {
		t.Errorf("post limit = %d, want growth tier limit", user.MonthlyPostLimit)
	}
	if user.PasswordHash == "hunter2pass" {
		t.Error("password stored in plain text")
	}
}

func TestSignupFailureLeavesNoAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo)

	repo.createErr = errors.New("connection reset")
	if _, err := svc.Signup(context.Background(), "a@example.com", "password123", "A", "starter"); err == nil {
		t.Fatal("Signup succeeded despite insert failure")
	}
	if u, _ := repo.GetUserByEmail(context.Background(), "a@example.com"); u != nil {
		t.Fatal("failed signup left an account behind")
	}

	// The same email must be able to sign up again once the insert works.
	repo.createErr = nil
	user, err := svc.Signup(context.Background(), "a@example.com", "password123", "A", "starter")
	if err != nil {
		t.Fatalf("retry signup returned error: %v", err)
	}
	if user.TrialStartedAt == nil || user.TrialEndsAt == nil {
		t.Fatal("retry signup did not start a trial")
	}
}

func TestSignupRejectsUnknownPlanAndDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo)

	if _, err := svc.Signup(context.Background(), "a@example.com", "password123", "A", "platinum"); !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("unknown plan error = %v, want ErrUnknownPlan", err)
	}

	if _, err := svc.Signup(context.Background(), "a@example.com", "password123", "A", "starter"); err != nil {
		t.Fatalf("first signup returned error: %v", err)
	}
	if _, err := svc.Signup(context.Background(), "a@example.com", "password123", "A", "starter"); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("duplicate signup error = %v, want ErrEmailAlreadyRegistered", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo)

	if _, err := svc.Signup(context.Background(), "a@example.com", "password123", "A", "starter"); err != nil {
		t.Fatalf("signup returned error: %v", err)
	}

	user, pair, err := svc.Login(context.Background(), "a@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Login returned empty tokens")
	}
	if _, err := auth.ParseAccessToken(pair.AccessToken, testSecret); err != nil {
		t.Fatalf("minted access token does not parse: %v", err)
	}
	if user.Email != "a@example.com" {
		t.Errorf("user email = %q", user.Email)
	}

	if _, _, err := svc.Login(context.Background(), "a@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo)

	user, err := svc.Signup(context.Background(), "a@example.com", "password123", "A", "starter")
	if err != nil {
		t.Fatalf("signup returned error: %v", err)
	}
	pair, err := svc.MintTokens(user)
	if err != nil {
		t.Fatalf("MintTokens returned error: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("Refresh for live user returned error: %v", err)
	}

	// Access tokens must not be accepted as refresh tokens.
	if _, err := svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Refresh with access token error = %v, want ErrInvalidCredentials", err)
	}

	repo.delete(user.ID)
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Refresh for deleted user error = %v, want ErrUserNotFound", err)
	}
}
