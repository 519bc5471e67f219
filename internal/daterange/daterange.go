package daterange

import (
	"fmt"
	"time"
)

// Layout is the calendar date format accepted and produced by this package.
const Layout = "2006-01-02"

// Enumerate returns every calendar day between start and finish, both inclusive,
// formatted as YYYY-MM-DD in ascending order.
// start is expected to be on or before finish; otherwise the result is empty.
func Enumerate(start, finish string) ([]string, error) {
	from, err := time.Parse(Layout, start)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start date %q: %w", start, err)
	}
	to, err := time.Parse(Layout, finish)
	if err != nil {
		return nil, fmt.Errorf("failed to parse finish date %q: %w", finish, err)
	}

	days := dayCount(from, to)
	dates := make([]string, 0, max(days, 0))
	for i := 0; i < days; i++ {
		dates = append(dates, from.AddDate(0, 0, i).Format(Layout))
	}
	return dates, nil
}

const secondsPerDay = 24 * 60 * 60

// dayCount counts the calendar days in [from, to]. Both values are truncated to midnight UTC.
// Unix seconds are used instead of Sub, which saturates after about 292 years.
func dayCount(from, to time.Time) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int((to.Unix()-from.Unix())/secondsPerDay) + 1
}
