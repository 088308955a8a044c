package limiter

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFirstFetchNotDelayed(t *testing.T) {
	l := NewThrottleLimiter(true, testLogger())
	var slept []time.Duration
	l.sleep = func(d time.Duration) { slept = append(slept, d) }

	if d := l.Wait(); d != 0 {
		t.Errorf("first Wait = %v, want 0", d)
	}
	if len(slept) != 0 {
		t.Errorf("first Wait slept %v, want no sleep", slept)
	}
}

func TestLaterFetchesDelayedWithinOneSecond(t *testing.T) {
	l := NewThrottleLimiter(true, testLogger())
	var slept []time.Duration
	l.sleep = func(d time.Duration) { slept = append(slept, d) }

	l.Wait()
	for i := 0; i < 20; i++ {
		d := l.Wait()
		if d < 0 || d >= time.Second {
			t.Fatalf("Wait = %v, want [0s, 1s)", d)
		}
	}
	if len(slept) != 20 {
		t.Errorf("slept %d times, want 20", len(slept))
	}
}

func TestDisabledNeverSleeps(t *testing.T) {
	l := NewThrottleLimiter(false, testLogger())
	l.sleep = func(time.Duration) { t.Error("disabled limiter should not sleep") }

	for i := 0; i < 5; i++ {
		if d := l.Wait(); d != 0 {
			t.Errorf("Wait = %v, want 0", d)
		}
	}
}
