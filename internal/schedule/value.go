package schedule

import (
	"encoding/json"
	"strings"
	"time"
)

// Value is the loosely typed form a routine schedule is stored in. It is
// one of DayList, Slot or Slots.
type Value interface {
	entries() []Entry
}

// DayList is a single day name or a comma-separated list of day names,
// e.g. "Monday, Friday". Every day gets DefaultClock.
type DayList string

// Slot is a single {"day": ..., "time": ...} record.
type Slot struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// Slots is a list of records.
type Slots []Slot

// Entry is one canonical (weekday, time) pair of a schedule.
type Entry struct {
	Day   time.Weekday `json:"-"`
	Token string       `json:"day"`
	Clock Clock        `json:"time"`
}

func (l DayList) entries() []Entry {
	var out []Entry
	for _, tok := range strings.Split(string(l), ",") {
		if e, ok := newEntry(tok, ""); ok {
			out = append(out, e)
		}
	}
	return out
}

func (s Slot) entries() []Entry {
	if e, ok := newEntry(s.Day, s.Time); ok {
		return []Entry{e}
	}
	return nil
}

func (s Slots) entries() []Entry {
	var out []Entry
	for _, slot := range s {
		out = append(out, slot.entries()...)
	}
	return out
}

func newEntry(day, clock string) (Entry, bool) {
	wd, ok := ParseWeekday(day)
	if !ok {
		return Entry{}, false
	}
	return Entry{Day: wd, Token: Abbrev(wd), Clock: ParseClock(clock)}, true
}

// Decode reads a stored schedule column. JSON text is dispatched by shape;
// text that looks like JSON but does not parse yields nil; any other text
// is treated as a DayList.
func Decode(raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		switch raw[0] {
		case '{', '[', '"':
			return nil
		}
		return DayList(raw)
	}
	return FromJSON(v)
}

// FromJSON converts an already decoded JSON value into a Value. Shapes
// that cannot describe a schedule yield nil.
func FromJSON(v any) Value {
	switch t := v.(type) {
	case string:
		return DayList(t)
	case map[string]any:
		return slotFromMap(t)
	case []any:
		var slots Slots
		for _, item := range t {
			switch it := item.(type) {
			case string:
				for _, day := range strings.Split(it, ",") {
					slots = append(slots, Slot{Day: day})
				}
			case map[string]any:
				slots = append(slots, slotFromMap(it))
			}
		}
		return slots
	}
	return nil
}

func slotFromMap(m map[string]any) Slot {
	var s Slot
	if day, ok := m["day"].(string); ok {
		s.Day = day
	}
	if clock, ok := m["time"].(string); ok {
		s.Time = clock
	}
	return s
}

// Normalize flattens a Value into its canonical entries, in order. Entries
// whose day cannot be read are dropped.
func Normalize(v Value) []Entry {
	if v == nil {
		return nil
	}
	return v.entries()
}

// Parse decodes and normalizes a stored schedule column.
func Parse(raw string) []Entry {
	return Normalize(Decode(raw))
}

// MatchesDay reports whether any entry falls on the given day token.
func MatchesDay(entries []Entry, token string) bool {
	wd, ok := ParseWeekday(token)
	if !ok {
		return false
	}
	for _, e := range entries {
		if e.Day == wd {
			return true
		}
	}
	return false
}
