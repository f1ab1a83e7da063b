package clock

import (
	"testing"
	"time"
)

func TestFake_FiresInOrder(t *testing.T) {
	c := NewFake(time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC))
	var got []int
	c.AfterFunc(2*time.Hour, func() { got = append(got, 2) })
	c.AfterFunc(time.Hour, func() { got = append(got, 1) })
	stopped := c.AfterFunc(90*time.Minute, func() { got = append(got, 99) })
	if !stopped.Stop() {
		t.Fatalf("expected Stop to report a pending timer")
	}

	c.Advance(30 * time.Minute)
	if len(got) != 0 {
		t.Fatalf("nothing should fire yet, got %v", got)
	}
	c.Advance(3 * time.Hour)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("want [1 2], got %v", got)
	}
	if c.Pending() != 0 {
		t.Fatalf("want no pending timers, got %d", c.Pending())
	}
}
