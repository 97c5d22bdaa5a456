package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a resolved time of day.
type Clock struct {
	Hour   int
	Minute int
}

// DefaultClock is used when a time is missing or cannot be read.
var DefaultClock = Clock{Hour: 9}

var clockKeywords = map[string]Clock{
	"morning":   {Hour: 9},
	"afternoon": {Hour: 14},
	"evening":   {Hour: 18},
}

// ParseClock reads an "HH:MM" literal or one of the keywords morning,
// afternoon and evening. Everything else resolves to DefaultClock.
func ParseClock(s string) Clock {
	s = strings.TrimSpace(s)
	if c, ok := clockKeywords[strings.ToLower(s)]; ok {
		return c
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return DefaultClock
	}
	h, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil || h < 0 || h > 23 {
		return DefaultClock
	}
	m, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil || m < 0 || m > 59 {
		return DefaultClock
	}
	return Clock{Hour: h, Minute: m}
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MarshalJSON encodes the clock as "HH:MM".
func (c Clock) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}
