package timeutil

import (
	"sync"
	"testing"
	"time"
)

var (
	_ Clock = RealClock{}
	_ Clock = (*MockClock)(nil)
)

func TestRealClock(t *testing.T) {
	var c RealClock
	before := time.Now()
	c.Sleep(time.Millisecond)
	if got := c.Now(); got.Before(before.Add(time.Millisecond)) {
		t.Errorf("Now() = %v, want at least 1ms after %v", got, before)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	c.Advance(time.Second)
	if got := c.Now(); !got.Equal(start.Add(time.Second)) {
		t.Errorf("after Advance, Now() = %v", got)
	}

	c.Sleep(20 * time.Millisecond)
	c.Sleep(40 * time.Millisecond)
	if got := c.Now(); !got.Equal(start.Add(time.Second + 60*time.Millisecond)) {
		t.Errorf("after Sleep, Now() = %v", got)
	}
	sleeps := c.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 20*time.Millisecond || sleeps[1] != 40*time.Millisecond {
		t.Errorf("Sleeps() = %v", sleeps)
	}

	later := start.Add(time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("after Set, Now() = %v, want %v", got, later)
	}
}

func TestMockClockConcurrent(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Sleep(time.Millisecond)
			_ = c.Now()
		}()
	}
	wg.Wait()

	if got := len(c.Sleeps()); got != 10 {
		t.Errorf("recorded %d sleeps, want 10", got)
	}
	if got := c.Now(); !got.Equal(time.Unix(0, 0).Add(10 * time.Millisecond)) {
		t.Errorf("Now() = %v", got)
	}
}
