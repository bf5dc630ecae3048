package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestLimiterAllowsLimitMinusBuffer(t *testing.T) {
	l := NewDailyLimiterWithLimits(10, 2)

	for i := 0; i < 8; i++ {
		if !l.Acquire() {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Acquire() {
		t.Fatal("should refuse once only the buffer remains")
	}

	status := l.Status()
	if status.UsedToday != 8 {
		t.Errorf("used today = %d, want 8", status.UsedToday)
	}
	if status.EffectiveRemaining != 0 {
		t.Errorf("effective remaining = %d, want 0", status.EffectiveRemaining)
	}
	if status.RemainingToday != 2 {
		t.Errorf("remaining today = %d, want 2 (the buffer)", status.RemainingToday)
	}
}

func TestLimiterRelease(t *testing.T) {
	l := NewDailyLimiterWithLimits(10, 0)

	if !l.Acquire() {
		t.Fatal("first acquire should succeed")
	}
	if l.Remaining() != 9 {
		t.Errorf("remaining = %d, want 9", l.Remaining())
	}

	l.Release()
	if l.Remaining() != 10 {
		t.Errorf("remaining after release = %d, want 10", l.Remaining())
	}

	// Release never pushes past the daily limit.
	l.Release()
	if l.Remaining() != 10 {
		t.Errorf("remaining after spurious release = %d, want 10", l.Remaining())
	}
}

func TestLimiterConcurrentAcquire(t *testing.T) {
	l := NewDailyLimiterWithLimits(100, 10)

	var wg sync.WaitGroup
	granted := make(chan struct{}, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire() {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	count := 0
	for range granted {
		count++
	}
	if count != 90 {
		t.Errorf("granted %d acquisitions, want exactly 90 (limit minus buffer)", count)
	}
}

func TestLimiterDailyReset(t *testing.T) {
	l := NewDailyLimiterWithLimits(5, 0)
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.resetDay = dayKey(now)

	for i := 0; i < 5; i++ {
		if !l.Acquire() {
			t.Fatalf("acquire %d should succeed", i)
		}
	}
	if l.Acquire() {
		t.Fatal("budget should be exhausted")
	}

	now = now.Add(2 * time.Hour) // past midnight UTC
	if !l.Acquire() {
		t.Fatal("budget should reset on the next day")
	}
	if l.UsedToday() != 1 {
		t.Errorf("used today after reset = %d, want 1", l.UsedToday())
	}
}

func TestLimiterCanRequest(t *testing.T) {
	l := NewDailyLimiterWithLimits(2, 1)

	if !l.CanRequest() {
		t.Fatal("fresh limiter should allow requests")
	}
	l.Acquire()
	if l.CanRequest() {
		t.Error("should refuse with only the buffer left")
	}
}

func TestLimiterMinIntervalSpacing(t *testing.T) {
	l := NewDailyLimiterWithLimits(10, 0)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.resetDay = dayKey(now)
	l.SetMinInterval(time.Second)

	if !l.Acquire() {
		t.Fatal("first acquire should succeed")
	}
	if l.Acquire() {
		t.Fatal("second acquire inside the interval should be refused")
	}
	if l.CanRequest() {
		t.Error("CanRequest should refuse inside the interval")
	}
	// A spacing refusal must not consume budget.
	if l.UsedToday() != 1 {
		t.Errorf("used today = %d, want 1", l.UsedToday())
	}

	now = now.Add(time.Second)
	if !l.CanRequest() {
		t.Error("CanRequest should allow after the interval")
	}
	if !l.Acquire() {
		t.Fatal("acquire after the interval should succeed")
	}
	if l.UsedToday() != 2 {
		t.Errorf("used today = %d, want 2", l.UsedToday())
	}
}

func TestLimiterZeroIntervalUnspaced(t *testing.T) {
	l := NewDailyLimiterWithLimits(10, 0)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.resetDay = dayKey(now)

	for i := 0; i < 5; i++ {
		if !l.Acquire() {
			t.Fatalf("back-to-back acquire %d should succeed without spacing", i)
		}
	}
}

func TestStatusString(t *testing.T) {
	l := NewDailyLimiterWithLimits(50, 5)
	l.Acquire()

	s := l.Status().String()
	if s != "rate limit: 1/50 used today, 44 effective remaining" {
		t.Errorf("unexpected status string: %q", s)
	}
}
