package schedule

import "time"

// Occurrence is a single dated task generated from a routine's schedule.
// It is a projection only; callers decide whether to persist it.
type Occurrence struct {
	Title         string    `json:"title"`
	ScheduledDate time.Time `json:"scheduled_date"`
	DayNumber     int       `json:"day_number"`
	DayOfWeek     string    `json:"day_of_week"`
}

// Expand generates the occurrences of entries over the days calendar days
// starting at start's date, in start's location. Occurrences are ordered by
// day, then by entry order; duplicates are kept. The result is never nil.
func Expand(title string, entries []Entry, days int, start time.Time) []Occurrence {
	results := []Occurrence{}
	if days <= 0 || len(entries) == 0 {
		return results
	}

	y, m, d := start.Date()
	loc := start.Location()

	for offset := 0; offset < days; offset++ {
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
		for _, e := range entries {
			if e.Day != day.Weekday() {
				continue
			}
			results = append(results, Occurrence{
				Title:         title,
				ScheduledDate: time.Date(y, m, d+offset, e.Clock.Hour, e.Clock.Minute, 0, 0, loc),
				DayNumber:     offset + 1,
				DayOfWeek:     e.Token,
			})
		}
	}

	return results
}

// StartOfDay returns midnight of t's date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
