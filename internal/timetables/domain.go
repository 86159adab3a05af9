package timetables

import "time"

// Weekday is the schedule day, stored as its lowercase English name.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the days in display order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Valid reports whether d is a known weekday.
func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// Label returns the capitalised display name.
func (d Weekday) Label() string {
	if d == "" {
		return ""
	}
	s := string(d)
	return string(s[0]-'a'+'A') + s[1:]
}

// Entry is one scheduled slot on a batch timetable. Start and End are
// minutes-of-day offsets so overlap math needs no timezone handling.
type Entry struct {
	ID        int64
	BatchID   int64
	BatchName string
	Day       Weekday
	Start     int
	End       int
	Subject   string
	Faculty   string
	CreatedAt time.Time
}

// Overlaps reports whether e and other occupy intersecting time on the
// same day of the same batch. Back-to-back slots do not overlap.
func (e Entry) Overlaps(other Entry) bool {
	if e.BatchID != other.BatchID || e.Day != other.Day {
		return false
	}
	return e.Start < other.End && other.Start < e.End
}

// StartClock renders Start as HH:MM.
func (e Entry) StartClock() string { return clock(e.Start) }

// EndClock renders End as HH:MM.
func (e Entry) EndClock() string { return clock(e.End) }

func clock(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return pad2(h) + ":" + pad2(m)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + string(rune('0'+n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

// ParseClock converts an HH:MM string to minutes of day.
func ParseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
