package fetch

import (
	"context"
	"testing"
	"time"
)

func TestLimiterWait(t *testing.T) {
	l := NewLimiter(1000, 10)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx, "chembl"); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
}

func TestLimiterPerSource(t *testing.T) {
	l := NewLimiter(1000, 10)
	l.SetSourceRate("slow", 1, 1)

	// The burst token goes through; the second request would block, so a
	// short deadline must expire instead.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "slow"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	if err := l.Wait(ctx, "slow"); err == nil {
		t.Error("expected deadline to expire waiting on the slow source")
	}

	// Other sources keep the default rate and are unaffected.
	if err := l.Wait(context.Background(), "fast"); err != nil {
		t.Errorf("unrelated source blocked: %v", err)
	}
}

func TestLimiterZeroBurst(t *testing.T) {
	l := NewLimiter(5, 0)
	if err := l.Wait(context.Background(), "x"); err != nil {
		t.Fatalf("Wait with defaulted burst: %v", err)
	}
}
