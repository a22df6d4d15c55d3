package pricing

import "time"

// HighSeasonMultiplier is the nightly surcharge factor for high-season dates.
const HighSeasonMultiplier = 1.20

// SeasonSpan is an inclusive month/day range within a calendar year. Spans
// never wrap the year boundary; the late-December and early-January windows
// are two separate entries.
type SeasonSpan struct {
	FromMonth time.Month `json:"fromMonth"`
	FromDay   int        `json:"fromDay"`
	ToMonth   time.Month `json:"toMonth"`
	ToDay     int        `json:"toDay"`
	Label     string     `json:"label"`
}

// HighSeasons is the seasonal calendar. It is the only definition of high
// season in the system: the quote path evaluates it and the rooms endpoint
// exports it verbatim for client-side previews.
var HighSeasons = []SeasonSpan{
	{time.July, 1, time.August, 31, "summer"},
	{time.December, 15, time.December, 31, "festive"},
	{time.January, 1, time.January, 10, "festive"},
	{time.March, 15, time.March, 31, "easter"},
	{time.April, 1, time.April, 15, "easter"},
}

func (s SeasonSpan) contains(m time.Month, d int) bool {
	afterStart := m > s.FromMonth || (m == s.FromMonth && d >= s.FromDay)
	beforeEnd := m < s.ToMonth || (m == s.ToMonth && d <= s.ToDay)
	return afterStart && beforeEnd
}

// IsHighSeason reports whether the date falls in high season. Only the month
// and day are consulted, so the predicate is total over arbitrary years.
func IsHighSeason(date time.Time) bool {
	m, d := date.Month(), date.Day()
	for _, span := range HighSeasons {
		if span.contains(m, d) {
			return true
		}
	}
	return false
}
