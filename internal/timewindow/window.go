// Package timewindow converts organization-local wall-clock date/time pairs
// into absolute UTC query bounds. The organization's civil time is US
// Central, which the resolver models with the hard-coded US transition rule
// instead of a time-zone database; swapping in a real database only requires
// another Resolver implementation.
package timewindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Instant is one UTC bound, already formatted for backend filter
// expressions.
type Instant struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM:SSZ
}

// String renders the instant as an RFC3339 UTC timestamp.
func (i Instant) String() string {
	return i.Date + "T" + i.Time
}

// Window is the resolved UTC range of one report run. The end bound carries
// :59 seconds so the final minute is inclusive.
type Window struct {
	Start Instant
	End   Instant

	// Local calendar bounds of the request, kept for day bucketing.
	LocalStartDate string
	LocalEndDate   string
}

// Days returns the inclusive day count of the local calendar range, or 0
// when the bounds cannot be parsed.
func (w Window) Days() int {
	start, err1 := time.Parse("2006-01-02", w.LocalStartDate)
	end, err2 := time.Parse("2006-01-02", w.LocalEndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Resolver converts a local calendar date plus wall-clock time into a UTC
// instant.
type Resolver interface {
	Resolve(localDate, localTime string, isWindowEnd bool) (Instant, error)
}

// CentralTime resolves US Central civil time: UTC-6 standard, UTC-5 while
// daylight saving is in effect (second Sunday of March 02:00 through first
// Sunday of November 02:00).
type CentralTime struct{}

const (
	standardOffsetHours = 6
	daylightOffsetHours = 5
)

// Resolve implements Resolver. localTime defaults to 00:00; isWindowEnd
// selects :59 seconds so an end-of-window minute stays inclusive.
func (CentralTime) Resolve(localDate, localTime string, isWindowEnd bool) (Instant, error) {
	year, month, day, err := splitDate(localDate)
	if err != nil {
		return Instant{}, err
	}

	if localTime == "" {
		localTime = "00:00"
	}
	hour, minute, err := splitTime(localTime)
	if err != nil {
		return Instant{}, err
	}

	second := 0
	if isWindowEnd {
		second = 59
	}

	offset := standardOffsetHours
	probe := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	dstStart, dstEnd := daylightBounds(year)
	if !probe.Before(dstStart) && probe.Before(dstEnd) {
		offset = daylightOffsetHours
	}

	// Adding the offset to the wall-clock hour and letting the UTC
	// constructor normalize handles day and month rollovers.
	utc := time.Date(year, time.Month(month), day, hour+offset, minute, second, 0, time.UTC)

	return Instant{
		Date: utc.Format("2006-01-02"),
		Time: utc.Format("15:04:05") + "Z",
	}, nil
}

// ResolveWindow resolves both bounds of a report range with one resolver.
// Start and end may land on different offsets when the range spans a DST
// transition; each bound probes the rule independently.
func ResolveWindow(r Resolver, startDate, startTime, endDate, endTime string) (Window, error) {
	if endTime == "" {
		endTime = "23:59"
	}
	start, err := r.Resolve(startDate, startTime, false)
	if err != nil {
		return Window{}, fmt.Errorf("resolving window start: %w", err)
	}
	end, err := r.Resolve(endDate, endTime, true)
	if err != nil {
		return Window{}, fmt.Errorf("resolving window end: %w", err)
	}
	return Window{
		Start:          start,
		End:            end,
		LocalStartDate: startDate,
		LocalEndDate:   endDate,
	}, nil
}

// daylightBounds computes the naive local instants at which daylight time
// begins and ends for the given year under the current US rule.
func daylightBounds(year int) (start, end time.Time) {
	start = time.Date(year, time.March, nthSunday(year, time.March, 2), 2, 0, 0, 0, time.UTC)
	end = time.Date(year, time.November, nthSunday(year, time.November, 1), 2, 0, 0, 0, time.UTC)
	return start, end
}

// nthSunday returns the day of month of the nth Sunday of month/year.
func nthSunday(year int, month time.Month, n int) int {
	firstWeekday := int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
	firstSunday := 1 + ((7 - firstWeekday) % 7)
	return firstSunday + 7*(n-1)
}

func splitDate(s string) (year, month, day int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	year, err = strconv.Atoi(parts[0])
	if err == nil {
		month, err = strconv.Atoi(parts[1])
	}
	if err == nil {
		day, err = strconv.Atoi(parts[2])
	}
	if err != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return year, month, day, nil
}

func splitTime(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err == nil {
		minute, err = strconv.Atoi(parts[1])
	}
	if err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return hour, minute, nil
}
