package service

import (
	"testing"
	"time"
)

func clockAt(t *testing.T, hour, min int, day time.Weekday) *SessionClock {
	t.Helper()
	c := NewSessionClock()

	// 2026-08-24 is a Monday
	base := time.Date(2026, 8, 24, 0, 0, 0, 0, c.loc)
	base = base.AddDate(0, 0, int(day-time.Monday))

	fixed := time.Date(base.Year(), base.Month(), base.Day(), hour, min, 0, 0, c.loc)
	c.now = func() time.Time { return fixed }
	return c
}

func TestIsMarketOpenBoundaries(t *testing.T) {
	cases := []struct {
		hour, min int
		day       time.Weekday
		want      bool
	}{
		{9, 14, time.Monday, false},
		{9, 15, time.Monday, true},
		{12, 0, time.Wednesday, true},
		{15, 30, time.Friday, true},
		{15, 31, time.Friday, false},
		{11, 0, time.Saturday, false},
		{11, 0, time.Sunday, false},
	}

	for _, c := range cases {
		clock := clockAt(t, c.hour, c.min, c.day)
		open, status := clock.IsMarketOpen()
		if open != c.want {
			t.Errorf("%s %02d:%02d: open=%v (%s), want %v", c.day, c.hour, c.min, open, status, c.want)
		}
		if status == "" {
			t.Errorf("%s %02d:%02d: empty status", c.day, c.hour, c.min)
		}
	}
}

func TestIsHighLiquidityWindow(t *testing.T) {
	cases := []struct {
		hour, min int
		want      bool
	}{
		{9, 29, false},
		{9, 30, true},
		{11, 30, true},
		{12, 0, false},
		{13, 30, true},
		{15, 15, true},
		{15, 16, false},
	}

	for _, c := range cases {
		clock := clockAt(t, c.hour, c.min, time.Tuesday)
		if got, _ := clock.IsHighLiquidityWindow(); got != c.want {
			t.Errorf("%02d:%02d: got %v, want %v", c.hour, c.min, got, c.want)
		}
	}
}
