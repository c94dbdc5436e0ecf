package domain

import "time"

// DateLayout is the calendar-date format used in upstream requests and daily
// aggregates.
const DateLayout = "2006-01-02"

// TimeWindow is an inclusive [Start, End] range of calendar dates. Both
// bounds are date-valued (midnight, no offset applied).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// WindowEndingToday returns the window covering the given number of days
// ending today, today included. days <= 1 collapses to a single-day window.
func WindowEndingToday(days int) TimeWindow {
	now := clock.Now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if days < 1 {
		days = 1
	}
	return TimeWindow{
		Start: end.AddDate(0, 0, -(days - 1)),
		End:   end,
	}
}

// Days reports the number of calendar days the window spans, inclusive.
func (w TimeWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}
