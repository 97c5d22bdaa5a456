package schedule

import (
	"strings"
	"time"
)

var fullNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// Stored routines use TUES and THURS alongside the 3-letter forms. Both
// resolve through their first three letters, so existing rows keep working.
var abbrevNames = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

var dayAbbrev = map[time.Weekday]string{
	time.Sunday:    "SUN",
	time.Monday:    "MON",
	time.Tuesday:   "TUE",
	time.Wednesday: "WED",
	time.Thursday:  "THU",
	time.Friday:    "FRI",
	time.Saturday:  "SAT",
}

// ParseWeekday resolves a day token case-insensitively. The full name is
// tried first, then the token's first three letters.
func ParseWeekday(token string) (time.Weekday, bool) {
	t := strings.ToUpper(strings.TrimSpace(token))
	if wd, ok := fullNames[t]; ok {
		return wd, true
	}
	if len(t) < 3 {
		return 0, false
	}
	wd, ok := abbrevNames[t[:3]]
	return wd, ok
}

// Abbrev returns the canonical upper-case abbreviation for a weekday.
func Abbrev(wd time.Weekday) string {
	return dayAbbrev[wd]
}
