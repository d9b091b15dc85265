package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	got := c.Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestRealClock_Ticker(t *testing.T) {
	c := RealClock{}
	ticker := c.NewTicker(time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire within a second")
	}
}

func TestMockClock_NowSetSince(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(base)

	if got := c.Now(); !got.Equal(base) {
		t.Errorf("Now() = %v, want %v", got, base)
	}

	c.Advance(time.Minute)
	if got := c.Since(base); got != time.Minute {
		t.Errorf("Since(base) = %v, want 1m", got)
	}

	later := base.Add(time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestMockClock_TickerFiresOnAdvance(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	ticker := c.NewTicker(time.Second)

	select {
	case <-ticker.C():
		t.Fatal("ticker fired before the clock advanced")
	default:
	}

	c.Advance(time.Second)
	select {
	case <-ticker.C():
	default:
		t.Fatal("ticker did not fire after advancing one interval")
	}

	// The next tick needs another full interval.
	c.Advance(time.Second / 2)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired after half an interval")
	default:
	}
	c.Advance(time.Second / 2)
	select {
	case <-ticker.C():
	default:
		t.Fatal("ticker did not fire after the full interval elapsed")
	}
}

func TestMockClock_TickerStopAndReset(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	ticker := c.NewTicker(time.Second)

	ticker.Stop()
	c.Advance(5 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}

	ticker.Reset(2 * time.Second)
	c.Advance(2 * time.Second)
	select {
	case <-ticker.C():
	default:
		t.Fatal("reset ticker did not fire")
	}
}

func TestMockTicker_Trigger(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	ticker := c.NewTicker(time.Hour).(*MockTicker)

	now := time.Unix(100, 0)
	ticker.Trigger(now)
	select {
	case got := <-ticker.C():
		if !got.Equal(now) {
			t.Errorf("triggered tick time = %v, want %v", got, now)
		}
	default:
		t.Fatal("Trigger did not deliver a tick")
	}
}
