package throttle

import (
	"testing"
	"time"

	"jurisprudencia_backend/platform/apperr"
)

func TestAcquire_SecondCallWithinIntervalIsRejected(t *testing.T) {
	g := New(3*time.Second, 5)

	release, err := g.Acquire("caller-a")
	if err != nil {
		t.Fatalf("first acquire should succeed, got %v", err)
	}
	release()

	if _, err := g.Acquire("caller-a"); err == nil {
		t.Fatal("second acquire within interval should be rejected")
	} else if !apperr.Is(err, apperr.KindRateLimited) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
}

func TestAcquire_CallersAreThrottledIndependently(t *testing.T) {
	g := New(3*time.Second, 5)

	release, err := g.Acquire("caller-a")
	if err != nil {
		t.Fatalf("caller-a acquire failed: %v", err)
	}
	release()

	release, err = g.Acquire("caller-b")
	if err != nil {
		t.Fatalf("caller-b should not be affected by caller-a, got %v", err)
	}
	release()
}

func TestAcquire_GlobalConcurrencyCapRejectsExcess(t *testing.T) {
	g := New(time.Millisecond, 2)

	releaseA, err := g.Acquire("caller-a")
	if err != nil {
		t.Fatalf("caller-a acquire failed: %v", err)
	}
	releaseB, err := g.Acquire("caller-b")
	if err != nil {
		t.Fatalf("caller-b acquire failed: %v", err)
	}

	if _, err := g.Acquire("caller-c"); !apperr.Is(err, apperr.KindRateLimited) {
		t.Fatalf("expected concurrency rejection, got %v", err)
	}

	releaseA()
	releaseB()

	release, err := g.Acquire("caller-d")
	if err != nil {
		t.Fatalf("slot should be free after release, got %v", err)
	}
	release()
}
