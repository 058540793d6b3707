package ratelimit

import (
	"testing"
	"time"
)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestCheckAllowsUpToMax(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	cfg := Config{MaxRequests: 3, Window: time.Hour, Bucket: "signup"}

	for i := 0; i < 3; i++ {
		res := l.Check("1.2.3.4", cfg)
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if want := 3 - (i + 1); res.Remaining != want {
			t.Fatalf("request %d: expected remaining %d, got %d", i+1, want, res.Remaining)
		}
	}

	res := l.Check("1.2.3.4", cfg)
	if res.Allowed {
		t.Fatal("fourth request in window should be denied")
	}
	if res.Remaining != 0 {
		t.Fatalf("expected remaining 0 after denial, got %d", res.Remaining)
	}
	if want := now.Add(time.Hour); !res.ResetAt.Equal(want) {
		t.Fatalf("expected reset at %v, got %v", want, res.ResetAt)
	}
}

func TestWindowExpiryResetsCount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	cfg := Config{MaxRequests: 2, Window: time.Minute, Bucket: "signup"}

	l.Check("id", cfg)
	l.Check("id", cfg)
	if res := l.Check("id", cfg); res.Allowed {
		t.Fatal("third request should be denied")
	}

	now = now.Add(time.Minute + time.Second)
	res := l.Check("id", cfg)
	if !res.Allowed {
		t.Fatal("first request of a fresh window should be allowed despite prior denials")
	}
	if res.Remaining != 1 {
		t.Fatalf("fresh window should restart the count, got remaining %d", res.Remaining)
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))

	a := Config{MaxRequests: 1, Window: time.Hour, Bucket: "a"}
	b := Config{MaxRequests: 1, Window: time.Hour, Bucket: "b"}

	l.Check("id", a)
	if res := l.Check("id", a); res.Allowed {
		t.Fatal("second request in bucket a should be denied")
	}
	if res := l.Check("id", b); !res.Allowed {
		t.Fatal("bucket b should be unaffected by bucket a")
	}
	if res := l.Check("other", a); !res.Allowed {
		t.Fatal("other identifiers should be unaffected")
	}
}

func TestSweepDropsExpiredEntries(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(WithClock(fixedClock(&now)))
	cfg := Config{MaxRequests: 5, Window: time.Minute, Bucket: "x"}

	l.Check("a", cfg)
	l.Check("b", cfg)
	if len(l.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(l.entries))
	}

	now = now.Add(2 * time.Minute)
	l.Check("c", cfg)
	l.Sweep()

	if len(l.entries) != 1 {
		t.Fatalf("expected only the live entry after sweep, got %d", len(l.entries))
	}
	if _, ok := l.entries["c:x"]; !ok {
		t.Fatal("live entry should survive the sweep")
	}
}
