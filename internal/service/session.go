package service

import (
	"fmt"
	"time"
)

// NSE trading hours, IST
const (
	marketOpenHour   = 9
	marketOpenMinute = 15
	marketCloseHour  = 15
	marketCloseMin   = 30
)

// liquidityWindow is a span of the session with reliably deep books
type liquidityWindow struct {
	startHour, startMin int
	endHour, endMin     int
}

var highLiquidityWindows = []liquidityWindow{
	{9, 30, 11, 30},  // morning session
	{13, 30, 15, 15}, // afternoon session
}

// SessionClock answers market-hours questions in exchange time. The
// clock function is injectable for tests.
type SessionClock struct {
	loc *time.Location
	now func() time.Time
}

func NewSessionClock() *SessionClock {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// IST has no DST, a fixed offset is equivalent
		loc = time.FixedZone("IST", 5*3600+30*60)
	}
	return &SessionClock{loc: loc, now: time.Now}
}

// Now returns the current exchange-local time
func (c *SessionClock) Now() time.Time {
	return c.now().In(c.loc)
}

// IsMarketOpen reports whether the exchange is currently trading,
// with a human-readable status
func (c *SessionClock) IsMarketOpen() (bool, string) {
	return c.isOpenAt(c.Now())
}

func (c *SessionClock) isOpenAt(now time.Time) (bool, string) {
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false, "Market closed (weekend)"
	}

	minutes := now.Hour()*60 + now.Minute()
	open := marketOpenHour*60 + marketOpenMinute
	close := marketCloseHour*60 + marketCloseMin

	switch {
	case minutes < open:
		return false, fmt.Sprintf("Market opens at %02d:%02d IST", marketOpenHour, marketOpenMinute)
	case minutes > close:
		return false, "Market closed for the day"
	default:
		return true, "Market open"
	}
}

// IsHighLiquidityWindow reports whether the current time falls inside
// one of the deep-liquidity windows
func (c *SessionClock) IsHighLiquidityWindow() (bool, string) {
	now := c.Now()
	minutes := now.Hour()*60 + now.Minute()

	for _, w := range highLiquidityWindows {
		start := w.startHour*60 + w.startMin
		end := w.endHour*60 + w.endMin
		if minutes >= start && minutes <= end {
			return true, fmt.Sprintf("%d:%02d-%d:%02d", w.startHour, w.startMin, w.endHour, w.endMin)
		}
	}
	return false, "Low liquidity period"
}
