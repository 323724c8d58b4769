// Package calendar provides the US trading calendar used for futures
// session arithmetic: federal holidays, business-day stepping, and the
// CME daily session end (16:00 America/Chicago).
package calendar

import "time"

// Chicago is the exchange timezone for CME session times
var Chicago = mustLoad("America/Chicago")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// sessionEndHour is the CME daily settlement hour in Chicago local time
const sessionEndHour = 16

// IsWeekend reports whether d falls on Saturday or Sunday
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether d (date part) is an observed US federal holiday
func IsHoliday(d time.Time) bool {
	y := d.Year()
	md := time.Date(y, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	for _, h := range federalHolidays(y) {
		if h.Equal(md) {
			return true
		}
	}
	return false
}

// IsBusinessDay reports whether d is a US business day
func IsBusinessDay(d time.Time) bool {
	return !IsWeekend(d) && !IsHoliday(d)
}

// NextBusinessDay returns the first business day strictly after d
func NextBusinessDay(d time.Time) time.Time {
	for {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			return d
		}
	}
}

// AddBusinessDays steps n business days forward from d (n >= 0)
func AddBusinessDays(d time.Time, n int) time.Time {
	for i := 0; i < n; i++ {
		d = NextBusinessDay(d)
	}
	return d
}

// SessionEnd returns 16:00 Chicago on the calendar date of t
func SessionEnd(t time.Time) time.Time {
	local := t.In(Chicago)
	return time.Date(local.Year(), local.Month(), local.Day(), sessionEndHour, 0, 0, 0, Chicago)
}

// NextSessionEnd returns the end of the session t belongs to: 16:00
// Chicago on t's date, or the following business day's 16:00 when t is
// already past the settlement.
func NextSessionEnd(t time.Time) time.Time {
	end := SessionEnd(t)
	if t.In(Chicago).After(end) {
		end = SessionEnd(NextBusinessDay(end))
	}
	return end
}

// federalHolidays returns the observed US federal holidays for a year.
// Fixed-date holidays falling on a weekend are observed on the nearest
// weekday (Saturday -> Friday, Sunday -> Monday).
func federalHolidays(year int) []time.Time {
	holidays := []time.Time{
		observed(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)),   // New Year's Day
		nthWeekday(year, time.January, time.Monday, 3),                     // MLK Day
		nthWeekday(year, time.February, time.Monday, 3),                    // Washington's Birthday
		lastWeekday(year, time.May, time.Monday),                           // Memorial Day
		observed(time.Date(year, time.June, 19, 0, 0, 0, 0, time.UTC)),     // Juneteenth
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)),      // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),                   // Labor Day
		nthWeekday(year, time.October, time.Monday, 2),                     // Columbus Day
		observed(time.Date(year, time.November, 11, 0, 0, 0, 0, time.UTC)), // Veterans Day
		nthWeekday(year, time.November, time.Thursday, 4),                  // Thanksgiving
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)), // Christmas
	}
	return holidays
}

// observed shifts weekend holidays to the nearest weekday
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

// nthWeekday returns the nth occurrence of a weekday in a month
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the last occurrence of a weekday in a month
func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}
