package documents

import (
	"testing"
	"time"
)

func TestKeyClockMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1718000000000)
	c := &keyClock{now: func() time.Time { return fixed }}

	first := c.next()
	second := c.next()
	third := c.next()

	if first != 1718000000000 {
		t.Errorf("first = %d, want 1718000000000", first)
	}
	if second != first+1 || third != first+2 {
		t.Errorf("got %d, %d, %d; want strictly increasing by one", first, second, third)
	}
}

func TestKeyClockFollowsWallTime(t *testing.T) {
	now := time.UnixMilli(1000)
	c := &keyClock{now: func() time.Time { return now }}

	c.next()
	now = time.UnixMilli(5000)

	if got := c.next(); got != 5000 {
		t.Errorf("next = %d, want 5000", got)
	}
}
