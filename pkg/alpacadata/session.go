package alpacadata

import (
	"time"
)

// Market status labels
const (
	CLOSED     = "CLOSED"
	PREMARKET  = "PREMARKET"
	OPEN       = "OPEN"
	AFTERHOURS = "AFTERHOURS"
)

var newYork = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// MarketStatus classifies t by US equity session hours in New York time.
// Weekends are CLOSED.
func MarketStatus(t time.Time) string {
	t = t.In(newYork)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return CLOSED
	}
	hour := t.Hour()
	minute := t.Minute()

	if hour < 4 {
		return CLOSED
	} else if hour < 9 || (hour == 9 && minute < 30) {
		return PREMARKET
	} else if hour < 16 {
		return OPEN
	} else if hour < 20 {
		return AFTERHOURS
	}
	return CLOSED
}

// SessionWindow is the regular session (09:30 to 16:00 New York) on day's
// calendar date, returned in UTC.
func SessionWindow(day time.Time) (start, end time.Time) {
	y, m, d := day.Date()
	start = time.Date(y, m, d, 9, 30, 0, 0, newYork)
	end = time.Date(y, m, d, 16, 0, 0, 0, newYork)
	return start.UTC(), end.UTC()
}

// TradingDate maps a timestamp to its New York calendar date at
// midnight UTC, so bars from different symbols share a key.
func TradingDate(ts time.Time) time.Time {
	y, m, d := ts.In(newYork).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
