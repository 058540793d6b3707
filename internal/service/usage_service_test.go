package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"creatorflow/internal/model"

	"github.com/rs/zerolog"
)

type fakeUsageRepo struct {
	mu        sync.Mutex
	aiCalls   map[string]int // key user_id:month_year
	posts     map[string]int
	storage   map[string]int64
	callLogs  []*model.AICallLog
	statErr   error
	recordErr error
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{
		aiCalls: map[string]int{},
		posts:   map[string]int{},
		storage: map[string]int64{},
	}
}

func (f *fakeUsageRepo) RecordAICall(_ context.Context, log *model.AICallLog, monthYear string) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callLogs = append(f.callLogs, log)
	f.aiCalls[log.UserID+":"+monthYear]++
	return nil
}

func (f *fakeUsageRepo) GetMonthlyStat(_ context.Context, userID, monthYear string) (*model.UsageStat, error) {
	if f.statErr != nil {
		return nil, f.statErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.UsageStat{
		UserID:       userID,
		MonthYear:    monthYear,
		AICallsCount: f.aiCalls[userID+":"+monthYear],
	}, nil
}

func (f *fakeUsageRepo) CountPostsInMonth(_ context.Context, userID, monthYear string) (int, error) {
	if f.statErr != nil {
		return 0, f.statErr
	}
	return f.posts[userID+":"+monthYear], nil
}

func (f *fakeUsageRepo) SumStorageBytes(_ context.Context, userID string) (int64, error) {
	if f.statErr != nil {
		return 0, f.statErr
	}
	return f.storage[userID], nil
}

func newTestUsageService(repo *fakeUsageRepo) *usageService {
	return &usageService{
		repo:   repo,
		logger: zerolog.Nop(),
		now:    func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func starterUser() *model.User {
	tier := string(model.TierStarter)
	return &model.User{ID: "user-1", SubscriptionTier: &tier, MonthlyPostLimit: 30}
}

func TestCanMakeAICallFreshMonth(t *testing.T) {
	svc := newTestUsageService(newFakeUsageRepo())
	dec, err := svc.CanMakeAICall(context.Background(), starterUser())
	if err != nil {
		t.Fatalf("CanMakeAICall returned error: %v", err)
	}
	if !dec.Allowed || dec.Current != 0 {
		t.Fatalf("zero-usage month should allow with current=0, got %+v", dec)
	}
}

func TestCanMakeAICallAtLimit(t *testing.T) {
	repo := newFakeUsageRepo()
	svc := newTestUsageService(repo)
	user := starterUser()
	ctx := context.Background()

	limit := model.LimitsForTier(model.TierStarter).AICallsPerMonth
	for i := 0; i < limit; i++ {
		dec, err := svc.CanMakeAICall(ctx, user)
		if err != nil || !dec.Allowed {
			t.Fatalf("call %d should be allowed, got %+v err=%v", i+1, dec, err)
		}
		if err := svc.LogAICall(ctx, user.ID, "seo", "/v1/bots/seo/analyze"); err != nil {
			t.Fatalf("LogAICall returned error: %v", err)
		}
	}

	dec, err := svc.CanMakeAICall(ctx, user)
	if err != nil {
		t.Fatalf("CanMakeAICall returned error: %v", err)
	}
	if dec.Allowed {
		t.Fatalf("call after logging %d calls should be denied, got %+v", limit, dec)
	}
	if dec.Current != int64(limit) || dec.Message == "" {
		t.Fatalf("denial should report current usage and a message, got %+v", dec)
	}
}

func TestUnlimitedTierShortCircuits(t *testing.T) {
	repo := newFakeUsageRepo()
	repo.statErr = errors.New("db down") // must not even be consulted
	svc := newTestUsageService(repo)

	tier := string(model.TierAgency)
	user := &model.User{ID: "user-1", SubscriptionTier: &tier, MonthlyPostLimit: model.Unlimited}

	dec, err := svc.CanMakeAICall(context.Background(), user)
	if err != nil || !dec.Allowed || dec.Limit != model.Unlimited {
		t.Fatalf("unlimited tier must allow without touching the store, got %+v err=%v", dec, err)
	}
	if dec, err := svc.CanUseStorage(context.Background(), user, 1<<40); err != nil || !dec.Allowed {
		t.Fatalf("unlimited storage must allow any size, got %+v err=%v", dec, err)
	}
	if dec, err := svc.CanCreatePost(context.Background(), user); err != nil || !dec.Allowed {
		t.Fatalf("unlimited posts must allow, got %+v err=%v", dec, err)
	}
}

func TestMonthBoundaryResetsUsage(t *testing.T) {
	repo := newFakeUsageRepo()
	svc := newTestUsageService(repo)
	user := starterUser()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if err := svc.LogAICall(ctx, user.ID, "seo", "/v1/bots/seo/analyze"); err != nil {
			t.Fatalf("LogAICall returned error: %v", err)
		}
	}
	if dec, _ := svc.CanMakeAICall(ctx, user); dec.Allowed {
		t.Fatal("starter user at 50 calls should be denied")
	}

	// Calendar-month key: crossing into April resets the counter.
	svc.now = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 1, 0, time.UTC) }
	dec, err := svc.CanMakeAICall(ctx, user)
	if err != nil {
		t.Fatalf("CanMakeAICall returned error: %v", err)
	}
	if !dec.Allowed || dec.Current != 0 {
		t.Fatalf("new calendar month must reset usage, got %+v", dec)
	}
}

func TestStorageQuotaBoundary(t *testing.T) {
	repo := newFakeUsageRepo()
	svc := newTestUsageService(repo)
	user := starterUser() // 500 MB

	repo.storage["user-1"] = 499 * 1024 * 1024
	dec, err := svc.CanUseStorage(context.Background(), user, 1024*1024)
	if err != nil || !dec.Allowed {
		t.Fatalf("upload landing exactly at the quota should be allowed, got %+v err=%v", dec, err)
	}

	dec, err = svc.CanUseStorage(context.Background(), user, 2*1024*1024)
	if err != nil {
		t.Fatalf("CanUseStorage returned error: %v", err)
	}
	if dec.Allowed || dec.Message == "" {
		t.Fatalf("upload exceeding the quota should be denied with a message, got %+v", dec)
	}
}

func TestConcurrentLogAICall(t *testing.T) {
	repo := newFakeUsageRepo()
	svc := newTestUsageService(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.LogAICall(ctx, "user-1", "seo", "/v1/bots/seo/analyze"); err != nil {
				t.Errorf("LogAICall returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	stat, err := svc.GetMonthlyUsage(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetMonthlyUsage returned error: %v", err)
	}
	if stat.AICallsCount != 2 {
		t.Fatalf("two concurrent calls must end at count 2, got %d", stat.AICallsCount)
	}
}

func TestFailOpenHelper(t *testing.T) {
	dec := FailOpen(QuotaDecision{}, errors.New("db down"), zerolog.Nop())
	if !dec.Allowed {
		t.Fatal("FailOpen must allow on error")
	}
	orig := QuotaDecision{Allowed: false, Current: 5, Limit: 5, Message: "over"}
	dec = FailOpen(orig, nil, zerolog.Nop())
	if dec.Allowed || dec.Message != "over" {
		t.Fatal("FailOpen must pass through clean denials untouched")
	}
}
