package cache

import (
	"testing"
	"time"
)

func TestFreshnessWindowBoundary(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	freshness := NewFreshness(60*time.Minute, func() time.Time { return now })

	testCases := []struct {
		name  string
		age   time.Duration
		fresh bool
	}{
		{"just written", 0, true},
		{"ten minutes", 10 * time.Minute, true},
		{"exactly window", 60 * time.Minute, true},
		{"one nanosecond past", 60*time.Minute + time.Nanosecond, false},
		{"ninety minutes", 90 * time.Minute, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry := Entry{ModTime: now.Add(-tc.age)}
			if got := freshness.IsFresh(entry); got != tc.fresh {
				t.Fatalf("IsFresh(age=%s) = %v, want %v", tc.age, got, tc.fresh)
			}
			if got := freshness.Age(entry); got != tc.age {
				t.Fatalf("Age = %s, want %s", got, tc.age)
			}
		})
	}
}

func TestFreshnessDefaultsToWallClock(t *testing.T) {
	freshness := NewFreshness(time.Minute, nil)
	if freshness.Window() != time.Minute {
		t.Fatalf("unexpected window: %s", freshness.Window())
	}
	if time.Since(freshness.Now()) > time.Second {
		t.Fatalf("default clock should be time.Now")
	}
	if !freshness.IsFresh(Entry{ModTime: time.Now()}) {
		t.Fatalf("entry written now should be fresh")
	}
}
