package pkg

import (
	"fmt"
	"time"
)

// Monthly issuance windows are calendar months in UTC, regardless of the
// agent's or the server's local timezone. Keeping the boundary a pure
// function of the timestamp makes limit checks reproducible.

// MonthWindowUTC returns the [start, end) calendar-month window containing t.
func MonthWindowUTC(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// MonthKey returns a stable key for the calendar month containing t, used to
// scope the per-agent issuance lock.
func MonthKey(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%04d-%02d", u.Year(), int(u.Month()))
}
