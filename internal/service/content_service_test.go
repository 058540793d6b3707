package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"creatorflow/internal/model"

	"github.com/rs/zerolog"
)

type fakeContentRepo struct {
	posts     map[string]*model.ContentPost
	createErr error
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{posts: make(map[string]*model.ContentPost)}
}

func (f *fakeContentRepo) CreatePost(ctx context.Context, p *model.ContentPost) error {
	if f.createErr != nil {
		return f.createErr
	}
	if p.ID == "" {
		p.ID = "post-" + time.Now().Format("150405.000000000")
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeContentRepo) GetPostByID(ctx context.Context, id string) (*model.ContentPost, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeContentRepo) ListPostsByUser(ctx context.Context, userID string, limit, offset int) ([]model.ContentPost, error) {
	var out []model.ContentPost
	for _, p := range f.posts {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) UpdatePost(ctx context.Context, p *model.ContentPost) error {
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeContentRepo) DeletePost(ctx context.Context, id string) error {
	delete(f.posts, id)
	return nil
}

func (f *fakeContentRepo) ClaimDueScheduled(ctx context.Context, now time.Time, limit int) ([]model.ContentPost, error) {
	var out []model.ContentPost
	for _, p := range f.posts {
		if p.Status == model.PostStatusScheduled && p.ScheduledFor != nil && !p.ScheduledFor.After(now) {
			p.Status = model.PostStatusPublishing
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if p, ok := f.posts[id]; ok {
		p.Status = model.PostStatusPublished
		p.PublishedAt = &publishedAt
	}
	return nil
}

func (f *fakeContentRepo) MarkFailed(ctx context.Context, id string) error {
	if p, ok := f.posts[id]; ok {
		p.Status = model.PostStatusFailed
	}
	return nil
}

// allowAllUsage satisfies UsageService for tests that don't exercise quotas.
type allowAllUsage struct {
	postDecision QuotaDecision
	postErr      error
}

func (a *allowAllUsage) CanMakeAICall(ctx context.Context, user *model.User) (QuotaDecision, error) {
	return QuotaDecision{Allowed: true}, nil
}
func (a *allowAllUsage) LogAICall(ctx context.Context, userID, botName, endpoint string) error {
	return nil
}
func (a *allowAllUsage) CanUseStorage(ctx context.Context, user *model.User, incomingBytes int64) (QuotaDecision, error) {
	return QuotaDecision{Allowed: true}, nil
}
func (a *allowAllUsage) CanCreatePost(ctx context.Context, user *model.User) (QuotaDecision, error) {
	if a.postErr != nil {
		return QuotaDecision{}, a.postErr
	}
	if a.postDecision == (QuotaDecision{}) {
		return QuotaDecision{Allowed: true}, nil
	}
	return a.postDecision, nil
}
func (a *allowAllUsage) GetMonthlyUsage(ctx context.Context, userID string) (*model.UsageStat, error) {
	return &model.UsageStat{UserID: userID}, nil
}

func trialUser(id string) *model.User {
	start := time.Now().Add(-24 * time.Hour)
	end := start.Add(7 * 24 * time.Hour)
	plan := "growth"
	return &model.User{
		ID:               id,
		Email:            id + "@example.com",
		TrialStartedAt:   &start,
		TrialEndsAt:      &end,
		TrialPlan:        &plan,
		MonthlyPostLimit: 120,
	}
}

func newTestContentService(repo *fakeContentRepo, usage UsageService) ContentService {
	return NewContentService(repo, usage, nil, "publish_queue", zerolog.Nop())
}

func TestCreatePostValidation(t *testing.T) {
	svc := newTestContentService(newFakeContentRepo(), &allowAllUsage{})
	user := trialUser("u1")

	if _, err := svc.CreatePost(context.Background(), user, "myspace", "hello", nil); !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("unknown platform error = %v, want ErrInvalidPlatform", err)
	}

	past := time.Now().Add(-time.Hour)
	if _, err := svc.CreatePost(context.Background(), user, model.PlatformInstagram, "hello", &past); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("past schedule error = %v, want ErrInvalidSchedule", err)
	}

	post, err := svc.CreatePost(context.Background(), user, model.PlatformInstagram, "hello", nil)
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}
	if post.Status != model.PostStatusDraft {
		t.Errorf("unscheduled post status = %q, want draft", post.Status)
	}

	future := time.Now().Add(time.Hour)
	scheduled, err := svc.CreatePost(context.Background(), user, model.PlatformTikTok, "later", &future)
	if err != nil {
		t.Fatalf("CreatePost scheduled returned error: %v", err)
	}
	if scheduled.Status != model.PostStatusScheduled {
		t.Errorf("scheduled post status = %q, want scheduled", scheduled.Status)
	}
}

func TestCreatePostQuotaDenied(t *testing.T) {
	usage := &allowAllUsage{postDecision: QuotaDecision{Allowed: false, Current: 10, Limit: 10}}
	svc := newTestContentService(newFakeContentRepo(), usage)

	_, err := svc.CreatePost(context.Background(), trialUser("u1"), model.PlatformInstagram, "hello", nil)
	if !errors.Is(err, ErrPostLimitReached) {
		t.Fatalf("CreatePost error = %v, want ErrPostLimitReached", err)
	}
}

func TestCreatePostQuotaCheckFailsOpen(t *testing.T) {
	usage := &allowAllUsage{postErr: errors.New("usage store down")}
	svc := newTestContentService(newFakeContentRepo(), usage)

	if _, err := svc.CreatePost(context.Background(), trialUser("u1"), model.PlatformInstagram, "hello", nil); err != nil {
		t.Fatalf("CreatePost should fail open when the quota check errors, got %v", err)
	}
}

func TestPostOwnership(t *testing.T) {
	repo := newFakeContentRepo()
	svc := newTestContentService(repo, &allowAllUsage{})
	owner := trialUser("owner")
	other := trialUser("other")

	post, err := svc.CreatePost(context.Background(), owner, model.PlatformYouTube, "mine", nil)
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}

	if _, err := svc.GetPost(context.Background(), other, post.ID); !errors.Is(err, ErrNotPostOwner) {
		t.Fatalf("cross-user GetPost error = %v, want ErrNotPostOwner", err)
	}
	if _, err := svc.GetPost(context.Background(), owner, "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("missing post error = %v, want ErrPostNotFound", err)
	}
}

func TestLockedContentRefusesEditAndExport(t *testing.T) {
	repo := newFakeContentRepo()
	svc := newTestContentService(repo, &allowAllUsage{})

	// Expired trial, never converted: content created inside the window locks.
	start := time.Now().Add(-14 * 24 * time.Hour)
	end := start.Add(7 * 24 * time.Hour)
	user := &model.User{
		ID:               "lapsed",
		TrialStartedAt:   &start,
		TrialEndsAt:      &end,
		MonthlyPostLimit: 10,
	}
	created := start.Add(24 * time.Hour)
	repo.posts["p1"] = &model.ContentPost{
		ID:        "p1",
		UserID:    "lapsed",
		Platform:  model.PlatformInstagram,
		Content:   "trial content",
		Status:    model.PostStatusDraft,
		CreatedAt: created,
	}

	if _, err := svc.UpdatePost(context.Background(), user, "p1", model.PlatformInstagram, "edited", nil); !errors.Is(err, ErrContentLocked) {
		t.Fatalf("UpdatePost error = %v, want ErrContentLocked", err)
	}
	if err := svc.DeletePost(context.Background(), user, "p1"); !errors.Is(err, ErrContentLocked) {
		t.Fatalf("DeletePost error = %v, want ErrContentLocked", err)
	}
	if _, err := svc.ExportPost(context.Background(), user, "p1"); !errors.Is(err, ErrContentLocked) {
		t.Fatalf("ExportPost error = %v, want ErrContentLocked", err)
	}

	// Reading locked content is always allowed.
	if _, err := svc.GetPost(context.Background(), user, "p1"); err != nil {
		t.Fatalf("GetPost on locked content returned error: %v", err)
	}

	// Converting to a paid plan unlocks everything.
	tier := "pro"
	user.SubscriptionTier = &tier
	if _, err := svc.UpdatePost(context.Background(), user, "p1", model.PlatformInstagram, "edited", nil); err != nil {
		t.Fatalf("UpdatePost after conversion returned error: %v", err)
	}
}

func TestEnqueueDuePostsWithoutQueue(t *testing.T) {
	repo := newFakeContentRepo()
	svc := newTestContentService(repo, &allowAllUsage{})

	n, err := svc.EnqueueDuePosts(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("EnqueueDuePosts returned error: %v", err)
	}
	if n != 0 {
		t.Fatalf("EnqueueDuePosts without queue = %d, want 0", n)
	}
}
